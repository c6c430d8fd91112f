package inventory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/op/go-logging"

	"github.com/ymmc1111/ticketscout/internal/models"
)

var log = logging.MustGetLogger("inventory")

// Browser-like UA; the endpoint rejects obvious non-browser clients.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/142.0.0.0 Safari/537.36"

// Checker is one availability probe for one event. Implementations never
// return an error: every failure mode is folded into the StatusKey.
type Checker interface {
	Check(ctx context.Context, eventID string) (models.StatusKey, models.Snapshot)
}

// Options carries the endpoint credentials and hardening knobs for the real
// client. Constructed once from config and passed in; the client reads no
// ambient state.
type Options struct {
	Endpoint   string
	APIKey     string
	AuthCookie string
	QueueToken string
	ProxyURL   string
	Timeout    time.Duration
}

// Client issues hardened requests against the Ticketmaster inventory-status
// endpoint: session cookie, anti-bot queue token in both header and query,
// optional forward proxy, bounded timeout. Redirects are never followed so
// a 302 queue bounce stays observable.
type Client struct {
	opts    Options
	http    *http.Client
	proxied bool
	now     func() time.Time
}

func NewClient(opts Options) (*Client, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	proxied := false
	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil {
			return nil, err
		}
		transport.Proxy = http.ProxyURL(proxyURL)
		proxied = true
		log.Infof("routing inventory checks through proxy %s", proxyURL.Host)
	}

	return &Client{
		opts: opts,
		http: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		proxied: proxied,
		now:     time.Now,
	}, nil
}

// availabilityResponse is the success body shape: the first events record
// carries status, resaleStatus and an optional priceRanges array.
type availabilityResponse struct {
	Events []struct {
		Status       string `json:"status"`
		ResaleStatus string `json:"resaleStatus"`
		PriceRanges  []struct {
			Min *float64 `json:"min"`
			Max *float64 `json:"max"`
		} `json:"priceRanges"`
	} `json:"events"`
}

// Check probes the endpoint for one event and maps the raw outcome to a
// normalized status. Mapping priority: 302 queue redirect, 403 forbidden,
// 429 rate limit, other non-2xx API error, proxy connect failure, then
// anything else as UNKNOWN_ERROR.
func (c *Client) Check(ctx context.Context, eventID string) (models.StatusKey, models.Snapshot) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.Endpoint, nil)
	if err != nil {
		return models.UnknownError, c.errorSnapshot(models.UnknownError)
	}

	q := req.URL.Query()
	q.Set("apikey", c.opts.APIKey)
	q.Set("events", eventID)
	// The anti-bot layer wants the queue token as a query param too.
	q.Set("queueittoken", c.opts.QueueToken)
	req.URL.RawQuery = q.Encode()

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	cookie := ""
	if c.opts.AuthCookie != "" {
		cookie = "_tm_token=" + c.opts.AuthCookie
	}
	req.Header.Set("Cookie", cookie)
	req.Header.Set("x-tmpssmartqueuetoken", c.opts.QueueToken)

	resp, err := c.http.Do(req)
	if err != nil {
		if c.proxied && strings.Contains(err.Error(), "proxyconnect") {
			log.Errorf("inventory check for %s failed at the proxy: %v", eventID, err)
			return models.ProxyError, c.errorSnapshot(models.ProxyError)
		}
		log.Errorf("inventory check for %s failed: %v", eventID, err)
		return models.UnknownError, c.errorSnapshot(models.UnknownError)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusFound:
		log.Errorf("302 queue redirect for %s: queue token likely expired", eventID)
		return models.QueueRedirect, c.errorSnapshot(models.QueueRedirect)
	case resp.StatusCode == http.StatusForbidden:
		log.Errorf("403 forbidden for %s: auth cookie or source IP blocked", eventID)
		return models.Forbidden, c.errorSnapshot(models.Forbidden)
	case resp.StatusCode == http.StatusTooManyRequests:
		log.Errorf("429 rate limit hit for %s", eventID)
		return models.RateLimitError, c.errorSnapshot(models.RateLimitError)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		log.Errorf("inventory check for %s returned HTTP %d", eventID, resp.StatusCode)
		return models.APIError, c.errorSnapshot(models.APIError)
	}

	var body availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		log.Errorf("could not parse inventory response for %s: %v", eventID, err)
		return models.UnknownError, c.errorSnapshot(models.UnknownError)
	}

	snap := models.Snapshot{
		Status:       models.StatusUnknown,
		ResaleStatus: "UNKNOWN",
		LastChecked:  c.now().UTC(),
	}
	if len(body.Events) > 0 {
		ev := body.Events[0]
		if ev.Status != "" {
			snap.Status = models.StatusKey(ev.Status)
		}
		if ev.ResaleStatus != "" {
			snap.ResaleStatus = ev.ResaleStatus
		}
		if len(ev.PriceRanges) > 0 {
			snap.PriceMin = ev.PriceRanges[0].Min
			snap.PriceMax = ev.PriceRanges[0].Max
		}
	}
	return snap.Status, snap
}

func (c *Client) errorSnapshot(key models.StatusKey) models.Snapshot {
	return models.Snapshot{
		Status:       key,
		ResaleStatus: "UNKNOWN",
		LastChecked:  c.now().UTC(),
	}
}
