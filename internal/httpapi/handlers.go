package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mavbridge-dev/mavbridge/internal/mavlinkcodec"
	"github.com/mavbridge-dev/mavbridge/internal/version"
)

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Version string       `json:"version"`
		Service version.Info `json:"service"`
	}{
		Version: version.Version,
		Service: version.Current(),
	})
}

// handleMavlinkQuery always returns 200, per spec: unresolved paths
// resolve to the literal body "None", not an HTTP error.
func (s *Server) handleMavlinkQuery(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(chi.URLParam(r, "*"), "/")

	body, err := s.store.Query(path)
	if err != nil {
		s.logger.Printf("store query %q: %v", path, err)
		writeErrorBody(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, body)
}

// handleMavlinkPost parses a MAVLinkMessage envelope, sends it on the
// link, and, only on send success, applies it to the store.
func (s *Server) handleMavlinkPost(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorBody(w, http.StatusNotFound, "reading request body: "+err.Error())
		return
	}

	var env mavlinkcodec.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		writeErrorBody(w, http.StatusNotFound, "parsing MAVLink envelope: "+err.Error())
		return
	}

	if _, err := s.link.Send(env.Message); err != nil {
		writeErrorBody(w, http.StatusNotFound, "sending MAVLink message: "+err.Error())
		return
	}

	s.store.Update(env.Header, env.Message)
	if s.metrics != nil {
		s.metrics.StoreUpdates.Inc()
	}

	w.WriteHeader(http.StatusOK)
}

// handleHelper resolves a message name to a zero-valued envelope, the
// way a client would discover a message's field shape before posting
// a filled-in one.
func (s *Server) handleHelper(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeErrorBody(w, http.StatusNotFound, "missing required query parameter: name")
		return
	}

	id, err := mavlinkcodec.MessageIDFromName(name)
	if err != nil {
		writeErrorBody(w, http.StatusNotFound, err.Error())
		return
	}
	msg, err := mavlinkcodec.DefaultMessageFromID(mavlinkcodec.Ardupilotmega, id)
	if err != nil {
		writeErrorBody(w, http.StatusNotFound, err.Error())
		return
	}

	env := mavlinkcodec.Envelope{
		Header:  mavlinkcodec.Header{},
		Message: msg,
	}

	raw, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		writeErrorBody(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, `{"status":"ok"}`)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeErrorBody(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: message})
}
