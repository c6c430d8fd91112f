package httpapi

import (
	"encoding/json"
	"net/http"
)

type ScanResponse struct {
	OK        bool   `json:"ok"`
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Updated   int    `json:"updated"`
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) listJobsHandler(w http.ResponseWriter, r *http.Request) {
	jobs, err := a.Store.ListJobs(r.Context(), 50)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load jobs"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": jobs})
}

// triggerScanHandler runs one full scan pass synchronously. A scan-level
// failure maps to 500 so the invoking scheduler's retry policy applies.
func (a *App) triggerScanHandler(w http.ResponseWriter, r *http.Request) {
	res, err := a.Scanner.RunScan(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ScanResponse{
			OK:      false,
			Message: "scan failed: " + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, ScanResponse{
		OK:        true,
		Message:   res.String(),
		Processed: res.Processed,
		Updated:   res.Updated,
	})
}
