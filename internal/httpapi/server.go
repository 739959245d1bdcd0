// Package httpapi is the HTTP control surface: start/stop, live stats,
// field-value overrides, and network edits. It is the only component
// allowed to hold references to the scheduler/replayer/capture-writer's
// control handles across requests; it performs no packet assembly or
// timing itself.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/banshee-data/udpgen/internal/blueprint"
	"github.com/banshee-data/udpgen/internal/config"
	"github.com/banshee-data/udpgen/internal/fsutil"
	"github.com/banshee-data/udpgen/internal/httputil"
	"github.com/banshee-data/udpgen/internal/monitoring"
	"github.com/banshee-data/udpgen/internal/shutdown"
	"github.com/banshee-data/udpgen/internal/stats"
	"github.com/banshee-data/udpgen/internal/version"
)

// StartFunc (re)starts the active mode's loop. It blocks until the loop
// exits, so ControlServer always invokes it in its own goroutine.
type StartFunc func() error

// Server is the control surface. Its messages and doc may be
// nil: a replayer or capture session has no schedulable messages to
// override and no network section to edit.
type Server struct {
	mu      sync.Mutex
	signal  *shutdown.Signal
	stats   *stats.Collector
	start   StartFunc
	mux     *http.ServeMux
	starter bool // true once start has been invoked at least once

	messages []*blueprint.Schedulable // nil outside send mode

	doc         *config.Document // nil when no NetworkEndpoint edits are exposed
	docFS       fsutil.FileSystem
	docPath     string
	allowedDirs []string
}

// New creates a ControlServer. messages and doc may both be nil; whichever
// is non-nil enables the corresponding endpoints.
func New(signal *shutdown.Signal, collector *stats.Collector, start StartFunc, messages []*blueprint.Schedulable, doc *config.Document, fs fsutil.FileSystem, docPath string, allowedDirs []string) *Server {
	return &Server{
		signal:      signal,
		stats:       collector,
		start:       start,
		messages:    messages,
		doc:         doc,
		docFS:       fs,
		docPath:     docPath,
		allowedDirs: allowedDirs,
	}
}

// ServeMux returns the Server's http.ServeMux, creating and registering
// routes on first call. Subsequent calls return the same mux so callers may
// register additional routes before starting the listener.
func (s *Server) ServeMux() *http.ServeMux {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mux != nil {
		return s.mux
	}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/start", s.handleStart)
	s.mux.HandleFunc("/stop", s.handleStop)
	s.mux.HandleFunc("/stats", s.handleStats)
	s.mux.HandleFunc("/fields/", s.handleFields)
	s.mux.HandleFunc("/network", s.handleNetwork)
	s.mux.HandleFunc("/version", s.handleVersion)
	return s.mux
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	if s.signal.State() == shutdown.StateRunning {
		httputil.WriteJSONError(w, http.StatusConflict, "already running")
		return
	}
	s.mu.Lock()
	s.starter = true
	s.mu.Unlock()
	go func() {
		if err := s.start(); err != nil {
			monitoring.Logf("httpapi: start: %v", err)
		}
	}()
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"state": "starting"})
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	s.signal.RequestStop()
	httputil.WriteJSONOK(w, map[string]string{"state": s.signal.State().String()})
}

// statsResponse is the JSON shape of GET /stats.
type statsResponse struct {
	State     string                        `json:"state"`
	Error     string                        `json:"error,omitempty"`
	Aggregate stats.MessageStats            `json:"aggregate"`
	Messages  map[string]stats.MessageStats `json:"messages"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	resp := statsResponse{
		State:     s.signal.State().String(),
		Error:     s.signal.ErrMessage(),
		Aggregate: s.stats.Aggregate(),
		Messages:  s.stats.All(),
	}
	httputil.WriteJSONOK(w, resp)
}

// fieldOverrideRequest is the JSON body of POST /fields/{message}/{field}.
type fieldOverrideRequest struct {
	Value string `json:"value"`
}

// handleFields implements the live field override path: POST
// /fields/{message}/{field} sets FieldDescriptor.CurrentValue.
func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.MethodNotAllowed(w)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/fields/")
	parts := strings.SplitN(path, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		httputil.BadRequest(w, "expected /fields/{message}/{field}")
		return
	}
	messageName, fieldName := parts[0], parts[1]

	var req fieldOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.BadRequest(w, "invalid request body")
		return
	}

	if err := s.setFieldOverride(messageName, fieldName, req.Value); err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]string{"message": messageName, "field": fieldName, "value": req.Value})
}

func (s *Server) setFieldOverride(messageName, fieldName, value string) error {
	for _, m := range s.messages {
		if m.Blueprint.Name != messageName {
			continue
		}
		for i := range m.Blueprint.Fields {
			f := &m.Blueprint.Fields[i]
			if f.Name != fieldName {
				continue
			}
			if !f.Editable {
				return fmt.Errorf("field %q.%q is not editable", messageName, fieldName)
			}
			f.CurrentValue = value
			return nil
		}
		return fmt.Errorf("message %q has no field %q", messageName, fieldName)
	}
	return fmt.Errorf("no message named %q", messageName)
}

// handleNetwork implements the live NetworkEndpoint edit: allowed
// only while the scheduler is stopped (not StateRunning).
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if s.doc == nil {
			httputil.NotFound(w, "no network configuration attached")
			return
		}
		httputil.WriteJSONOK(w, s.doc.Sender)
	case http.MethodPost:
		s.handleNetworkUpdate(w, r)
	default:
		httputil.MethodNotAllowed(w)
	}
}

func (s *Server) handleNetworkUpdate(w http.ResponseWriter, r *http.Request) {
	if s.doc == nil {
		httputil.NotFound(w, "no network configuration attached")
		return
	}
	if s.signal.State() == shutdown.StateRunning {
		httputil.WriteJSONError(w, http.StatusConflict, "cannot edit network endpoint while running")
		return
	}

	var section config.NetworkSection
	if err := json.NewDecoder(r.Body).Decode(&section); err != nil {
		httputil.BadRequest(w, "invalid request body")
		return
	}
	if err := section.Validate(); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	s.doc.Sender = section
	if s.docFS != nil {
		if err := s.doc.SaveNetworkSection(s.docFS, s.docPath, s.allowedDirs); err != nil {
			monitoring.Logf("httpapi: save network section: %v", err)
			httputil.InternalServerError(w, "updated in memory but failed to persist")
			return
		}
	}
	httputil.WriteJSONOK(w, s.doc.Sender)
}
