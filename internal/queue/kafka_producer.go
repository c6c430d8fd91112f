package queue

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	kgo "github.com/segmentio/kafka-go"
)

// Producer publishes fired alerts to the audit topic consumed by the UI
// shell. The scan works fine without it; a nil Producer disables the feed.
type Producer struct {
	writer  *kgo.Writer
	timeout time.Duration
}

func NewProducer(brokersCSV, topic string) *Producer {
	brokers := splitCSV(brokersCSV)

	w := &kgo.Writer{
		Addr:         kgo.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kgo.LeastBytes{},
		RequiredAcks: kgo.RequireOne,
	}

	return &Producer{
		writer:  w,
		timeout: 3 * time.Second,
	}
}

func (p *Producer) Close() error { return p.writer.Close() }

// PublishAlert records one fired notification. Keyed by job id so replays
// of the same job stay ordered.
func (p *Producer) PublishAlert(ctx context.Context, alert AlertMessage) error {
	b, err := json.Marshal(alert)
	if err != nil {
		return err
	}

	// Small timeout so a down broker cannot stall the scan.
	cctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.writer.WriteMessages(cctx, kgo.Message{
		Key:   []byte(alert.JobID),
		Value: b,
		Time:  time.Now(),
	})
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
