package http

import (
	"encoding/json"
	"io"
	"net/http"

	"duplex-server/pkg/errors"
	"duplex-server/pkg/session"

	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// createSession handles POST /sessions. The body is an optional per-session
// configuration override.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var cfg session.Config
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&cfg); err != nil && err != io.EOF {
		s.ErrorResponse(w, errors.NewInvalidInput("invalid session configuration", map[string]interface{}{
			"cause": err.Error(),
		}))
		return
	}

	sess, err := s.sessions.Create(cfg)
	if err != nil {
		s.ErrorResponse(w, err)
		return
	}

	snap, err := sess.Snapshot()
	if err != nil {
		s.ErrorResponse(w, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"session_id":  sess.ID,
		"remote_addr": r.RemoteAddr,
	}).Info("Session created via API")

	w.Header().Set("Location", "/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, snap)
}

// listSessions handles GET /sessions
func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	list := s.sessions.List()
	snapshots := make([]session.Snapshot, 0, len(list))
	for _, sess := range list {
		snap, err := sess.Snapshot()
		if err != nil {
			// Closed between List and Snapshot
			continue
		}
		snapshots = append(snapshots, snap)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": snapshots,
		"count":    len(snapshots),
	})
}

// getSession handles GET /sessions/{id}
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.ErrorResponse(w, err)
		return
	}

	snap, err := sess.Snapshot()
	if err != nil {
		s.ErrorResponse(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// deleteSession handles DELETE /sessions/{id}
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.sessions.Close(id, session.ReasonClosed); err != nil {
		s.ErrorResponse(w, err)
		return
	}

	s.logger.WithField("session_id", id).Info("Session closed via API")
	w.WriteHeader(http.StatusNoContent)
}
