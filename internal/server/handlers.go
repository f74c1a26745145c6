package server

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mdview/pkg/buildinfo"
	"github.com/matzehuels/mdview/pkg/errors"
	"github.com/matzehuels/mdview/pkg/viewer"
)

// SessionInfo describes one session.
type SessionInfo struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
	State     viewer.State `json:"state"`
}

// LoadResponse is the reply to a document upload. Error is set when the
// load failed; State then carries the status banner.
type LoadResponse struct {
	State viewer.State `json:"state"`
	Error *apiError    `json:"error,omitempty"`
}

// GraphResponse is the logical graph of the current scene.
type GraphResponse struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// GraphNode is one node of a GraphResponse.
type GraphNode struct {
	ID        string `json:"id"`
	ElementID string `json:"element_id"`
	Label     string `json:"label"`
}

// GraphEdge is one edge of a GraphResponse.
type GraphEdge struct {
	ElementID string `json:"element_id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"version":  buildinfo.Get().Version,
		"sessions": s.sessions.len(),
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			writeError(w, s.logger, err)
			return
		}
		if err := validateStruct(&req); err != nil {
			writeError(w, s.logger, err)
			return
		}
	}
	opts := s.cfg.Viewer
	if req.Theme != "" {
		opts.Theme = req.Theme
	}
	width, height := req.Width, req.Height
	if width == 0 {
		width = s.cfg.Width
	}
	if height == 0 {
		height = s.cfg.Height
	}

	v := viewer.New(s.cfg.Renderer, s.logger, opts)
	v.SetContainer(width, height)
	sess := s.sessions.create(v)
	s.logger.Debug("session created", "session", sess.ID)

	sess.mu.Lock()
	info := SessionInfo{ID: sess.ID, CreatedAt: sess.CreatedAt, State: sess.snapshot(s.now())}
	sess.mu.Unlock()
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	sess.mu.Lock()
	info := SessionInfo{ID: sess.ID, CreatedAt: sess.CreatedAt, State: sess.snapshot(s.now())}
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.sessions.delete(id) {
		writeError(w, s.logger, errors.New(errors.ErrCodeSessionNotFound, "session %q not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDocument loads a document. The render runs without the session
// lock; if another upload starts meanwhile, this one answers 409.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var req LoadRequest
	if err := decode(r, &req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := validateStruct(&req); err != nil {
		writeError(w, s.logger, err)
		return
	}
	ctx := r.Context()

	sess.mu.Lock()
	job, err := sess.v.Open(ctx, req.Name, []byte(req.Content))
	if err != nil {
		s.respondLoad(w, sess, err)
		return
	}
	sess.publish(s.now())
	sess.mu.Unlock()

	res := sess.v.Render(ctx, job)

	sess.mu.Lock()
	err = sess.v.Complete(ctx, res)
	if stderrors.Is(err, viewer.ErrStale) {
		sess.mu.Unlock()
		writeJSON(w, http.StatusConflict, &apiError{Code: "STALE", Message: err.Error()})
		return
	}
	sess.v.Flush()
	s.respondLoad(w, sess, err)
}

// respondLoad publishes the state and replies. Callers hold sess.mu; it is
// released here.
func (s *Server) respondLoad(w http.ResponseWriter, sess *session, err error) {
	now := s.now()
	sess.publish(now)
	resp := LoadResponse{State: sess.snapshot(now)}
	sess.mu.Unlock()

	status := http.StatusOK
	if err != nil {
		status = httpStatus(err)
		resp.Error = toAPIError(err)
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	sess.mu.Lock()
	markup := sess.v.Markup()
	sess.mu.Unlock()
	if markup == nil {
		writeError(w, s.logger, errors.New(errors.ErrCodeNotFound, "no diagram loaded"))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(markup)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	g := sess.v.Graph()
	if g == nil {
		writeError(w, s.logger, errors.New(errors.ErrCodeNotFound, "no diagram loaded"))
		return
	}
	resp := GraphResponse{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	for _, n := range g.Nodes() {
		resp.Nodes = append(resp.Nodes, GraphNode{ID: n.BareID, ElementID: n.ElementID, Label: n.Label})
	}
	for _, e := range g.Edges() {
		resp.Edges = append(resp.Edges, GraphEdge{ElementID: e.Element.ID(), Source: e.Source, Target: e.Target})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	var cmd Command
	if err := decode(r, &cmd); err != nil {
		writeError(w, s.logger, err)
		return
	}
	if err := cmd.Validate(); err != nil {
		writeError(w, s.logger, err)
		return
	}

	sess.mu.Lock()
	handled, matches, err := apply(sess.v, cmd)
	if err != nil {
		sess.mu.Unlock()
		writeError(w, s.logger, err)
		return
	}
	now := s.now()
	sess.publish(now)
	res := CommandResult{State: sess.snapshot(now), Handled: handled, Matches: matches}
	sess.mu.Unlock()
	writeJSON(w, http.StatusOK, res)
}
