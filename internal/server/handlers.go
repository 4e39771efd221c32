package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/archflowhq/archflow/pkg/errors"
	"github.com/archflowhq/archflow/pkg/graph"
	"github.com/archflowhq/archflow/pkg/pipeline"
	"github.com/archflowhq/archflow/pkg/store"
)

// =============================================================================
// Request / response types
// =============================================================================

// layoutRequest is the body of POST /v1/layout and POST /v1/route.
type layoutRequest struct {
	Diagram *graph.Diagram   `json:"diagram"`
	Options pipeline.Options `json:"options"`
}

// layoutResponse is the body of a successful POST /v1/layout.
type layoutResponse struct {
	Diagram   *graph.Diagram    `json:"diagram"`
	Strategy  string            `json:"strategy"`
	GraphHash string            `json:"graph_hash"`
	Artifacts map[string][]byte `json:"artifacts,omitempty"`
	Stats     layoutStats       `json:"stats"`
	Cache     cacheStats        `json:"cache"`
}

type layoutStats struct {
	NodeCount    int   `json:"node_count"`
	LinkCount    int   `json:"link_count"`
	LayoutTimeMS int64 `json:"layout_time_ms"`
	ExportTimeMS int64 `json:"export_time_ms"`
}

type cacheStats struct {
	LayoutHit bool `json:"layout_hit"`
	ExportHit bool `json:"export_hit"`
}

// routeResponse is the body of a successful POST /v1/route.
type routeResponse struct {
	Diagram *graph.Diagram `json:"diagram"`
}

// putDiagramRequest is the body of PUT /v1/diagrams/{id}.
type putDiagramRequest struct {
	Name    string         `json:"name,omitempty"`
	Diagram *graph.Diagram `json:"diagram"`
}

// listDiagramsResponse is the body of GET /v1/diagrams.
type listDiagramsResponse struct {
	Diagrams []*store.Record `json:"diagrams"`
}

// decodeBody reads a JSON request body into v.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

// =============================================================================
// Layout handlers
// =============================================================================

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Diagram == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "missing diagram"))
		return
	}
	if err := req.Options.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options"))
		return
	}

	result, err := s.runner.Execute(r.Context(), req.Diagram, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, layoutResponse{
		Diagram:   result.Diagram,
		Strategy:  result.Strategy,
		GraphHash: result.GraphHash,
		Artifacts: result.Artifacts,
		Stats: layoutStats{
			NodeCount:    result.Stats.NodeCount,
			LinkCount:    result.Stats.LinkCount,
			LayoutTimeMS: result.Stats.LayoutTime.Milliseconds(),
			ExportTimeMS: result.Stats.ExportTime.Milliseconds(),
		},
		Cache: cacheStats{
			LayoutHit: result.CacheInfo.LayoutHit,
			ExportHit: result.CacheInfo.ExportHit,
		},
	})
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Diagram == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "missing diagram"))
		return
	}
	if err := req.Options.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options"))
		return
	}

	routed, err := s.runner.Route(r.Context(), req.Diagram, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, routeResponse{Diagram: routed})
}

// =============================================================================
// Diagram storage handlers
// =============================================================================

func (s *Server) handlePutDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateDiagramID(id); err != nil {
		s.writeError(w, r, err)
		return
	}

	var req putDiagramRequest
	if err := s.decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Diagram == nil {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "missing diagram"))
		return
	}

	rec := &store.Record{ID: id, Name: req.Name, Diagram: req.Diagram}
	if err := s.store.Save(r.Context(), rec); err != nil {
		s.writeError(w, r, err)
		return
	}

	// Re-read so the response carries the stamped timestamps.
	saved, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleGetDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListDiagrams(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "invalid limit: %q", raw))
			return
		}
		limit = n
	}

	recs, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	s.writeJSON(w, http.StatusOK, listDiagramsResponse{Diagrams: recs})
}

func (s *Server) handleDeleteDiagram(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
