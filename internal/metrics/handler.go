package metrics

import (
	"encoding/json"
	"net/http"
	"time"
)

// Handler serves the store snapshot over lookback as JSON.
func (s *Store) Handler(lookback time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := s.Snapshot(lookback)

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
}
