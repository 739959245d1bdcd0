package index

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/udpgen/internal/monitoring"
)

// IndexStats summarizes the database for the /debug/index-stats endpoint.
type IndexStats struct {
	SessionID      string `json:"session_id"`
	SessionRecords int64  `json:"session_records"`
	TotalRecords   int64  `json:"total_records"`
	TotalSessions  int64  `json:"total_sessions"`
}

// Stats counts this session's rows and the database-wide totals.
func (idx *Index) Stats() (*IndexStats, error) {
	s := &IndexStats{SessionID: idx.sessionID}
	if err := idx.db.QueryRow(
		`SELECT COUNT(*) FROM capture_records WHERE session_id = ?`, idx.sessionID,
	).Scan(&s.SessionRecords); err != nil {
		return nil, fmt.Errorf("index: count session records: %w", err)
	}
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM capture_records`).Scan(&s.TotalRecords); err != nil {
		return nil, fmt.Errorf("index: count records: %w", err)
	}
	if err := idx.db.QueryRow(
		`SELECT COUNT(DISTINCT session_id) FROM capture_records`,
	).Scan(&s.TotalSessions); err != nil {
		return nil, fmt.Errorf("index: count sessions: %w", err)
	}
	return s, nil
}

// AttachAdminRoutes mounts the index's debug surface on mux: a tailSQL
// instance for live SQL queries against the capture index, and a JSON
// stats endpoint. A failure to build the tailSQL server is logged and the
// remaining routes are still attached; the capture loop must never depend
// on the admin surface existing.
func (idx *Index) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		monitoring.Logf("index: failed to create tailsql server: %v", err)
	} else {
		tsql.SetDB(fmt.Sprintf("sqlite://%s", idx.path), idx.db, &tailsql.DBOptions{
			Label: "Capture Index",
		})
		debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
	}

	debug.Handle("index-stats", "Capture index row counts (JSON)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		stats, err := idx.Stats()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get index stats: %v", err), http.StatusInternalServerError)
			return
		}
		if err := json.NewEncoder(w).Encode(stats); err != nil {
			http.Error(w, fmt.Sprintf("Failed to encode stats: %v", err), http.StatusInternalServerError)
			return
		}
	}))
}
