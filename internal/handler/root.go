package handler

import (
	"context"
	"net/http"
)

// HandleRoot lists the top-level collections, so a client can start from
// "/" and follow links.
//
// HTTP: GET /
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	base := baseURL(r)
	writeJSON(w, http.StatusOK, map[string]string{
		"snippets": base + "/snippets/",
		"users":    base + "/users/",
		"groups":   base + "/groups/",
	})
}

// Pinger is satisfied by the database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleHealth reports whether the database answers.
//
// HTTP: GET /healthz → 200 {"status":"ok"} or 503
func HandleHealth(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{
				Error:   "unavailable",
				Message: "database unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
