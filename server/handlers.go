package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TFMV/fdgraph/ingest"
	"github.com/TFMV/fdgraph/models"
	"github.com/TFMV/fdgraph/render"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	maxDepth         = 5
	maxRelationLimit = 10
	defaultGoal      = 10
	maxUploadBytes   = 10 << 20
)

// apiResponse is the envelope of every JSON answer
type apiResponse struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorInfo `json:"error,omitempty"`
}

type errorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type graphResponse struct {
	ID string `json:"id"`
	models.Snapshot
}

type mergeResponse struct {
	NewVertices  []string `json:"new_vertices"`
	EdgesCreated int      `json:"edges_created"`
	LabelsMerged int      `json:"labels_merged"`
	Vertices     int      `json:"vertices"`
	Edges        int      `json:"edges"`
}

type expansionStarted struct {
	ID     string `json:"id"`
	Target string `json:"target"`
	Depth  int    `json:"depth"`
	Goal   int    `json:"goal"`
}

type expansionState struct {
	Active bool `json:"active"`
	Last   any  `json:"last,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiResponse{
		Error: &errorInfo{Code: code, Message: message},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	vertices, edges := s.manager.Stats()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"vertices":  vertices,
		"edges":     edges,
		"expanding": s.expander.Active(),
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, graphResponse{
		ID:       s.manager.ID(),
		Snapshot: s.manager.Snapshot(),
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.expander.Cancel()
	s.manager.Clear()
	w.WriteHeader(http.StatusNoContent)
}

// handleRender draws the live graph in the requested format
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "svg"
	}
	renderer, err := render.GetRenderer(format)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unsupported_format", err.Error())
		return
	}

	options := render.NewDefaultOptions(format)
	options.Width = s.config.Width
	options.Height = s.config.Height
	options.Boxes = s.config.Boxes
	if width, err := strconv.ParseFloat(r.URL.Query().Get("width"), 64); err == nil && width > 0 {
		options.Width = width
	}
	if height, err := strconv.ParseFloat(r.URL.Query().Get("height"), 64); err == nil && height > 0 {
		options.Height = height
	}

	var output []byte
	s.manager.View(func(g *models.Graph) {
		output, err = renderer.Render(g, options)
	})
	if err != nil {
		s.logger.Error("render failed", zap.String("format", format), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "render_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	_, _ = w.Write(output)
}

// handleUpload merges a JSON response or CSV edge list posted as a form file
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_form", "error parsing form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("dataFile")
	if err != nil {
		respondError(w, http.StatusBadRequest, "missing_file", "error retrieving file: "+err.Error())
		return
	}
	defer file.Close()

	format := r.URL.Query().Get("format")
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	}
	processor, err := ingest.GetProcessor(format)
	if err != nil {
		respondError(w, http.StatusBadRequest, "unsupported_format", err.Error())
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_file", "error reading file: "+err.Error())
		return
	}
	resp, err := processor.ProcessData(data)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid_data", err.Error())
		return
	}
	if resp.Len() == 0 {
		respondError(w, http.StatusUnprocessableEntity, "insufficient_data", models.ErrInsufficientData.Error())
		return
	}

	result, err := s.manager.Apply(resp, boolParam(r, "append"), nil)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid_data", err.Error())
		return
	}
	s.logger.Info("graph uploaded",
		zap.String("file", header.Filename),
		zap.String("processor", processor.GetName()),
		zap.Int("new_vertices", len(result.NewVertices)))
	respondJSON(w, http.StatusOK, s.mergeResponse(result))
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if s.manager.Fetcher() == nil {
		respondError(w, http.StatusServiceUnavailable, "no_fetcher", "no entity source configured")
		return
	}
	id := chi.URLParam(r, "id")
	depth, err := intParam(r, "depth", 1, 1, maxDepth)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	limit, err := intParam(r, "relation_limit", maxRelationLimit, 1, maxRelationLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	result, err := s.manager.Load(r.Context(), id, depth, limit, boolParam(r, "append"))
	switch {
	case errors.Is(err, models.ErrInsufficientData):
		respondError(w, http.StatusUnprocessableEntity, "insufficient_data", err.Error())
		return
	case err != nil:
		s.logger.Warn("load failed", zap.String("entity", id), zap.Error(err))
		respondError(w, http.StatusBadGateway, "fetch_failed", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, s.mergeResponse(result))
}

func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	if s.manager.Fetcher() == nil {
		respondError(w, http.StatusServiceUnavailable, "no_fetcher", "no entity source configured")
		return
	}
	id := chi.URLParam(r, "id")
	if s.manager.Degree(id) < 0 {
		respondError(w, http.StatusNotFound, "not_found", fmt.Sprintf("vertex %s: %s", id, models.ErrVertexNotFound))
		return
	}
	depth, err := intParam(r, "depth", 1, 1, maxDepth)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}
	goal, err := intParam(r, "goal", defaultGoal, 1, 1<<16)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_parameter", err.Error())
		return
	}

	// the expansion outlives the request; Cancel and shutdown stop it
	started, ok := s.expander.Start(context.WithoutCancel(r.Context()), id, depth, goal)
	if !ok {
		respondError(w, http.StatusConflict, "expansion_active", "an expansion is already in progress")
		return
	}
	respondJSON(w, http.StatusAccepted, expansionStarted{
		ID:     started.ID,
		Target: id,
		Depth:  depth,
		Goal:   goal,
	})
}

func (s *Server) handleExpansion(w http.ResponseWriter, r *http.Request) {
	state := expansionState{Active: s.expander.Active()}
	if last, ok := s.expander.Last(); ok {
		state.Last = last
	}
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.expander.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Select(chi.URLParam(r, "id")); err != nil {
		respondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	var pos models.Vec
	if err := json.NewDecoder(r.Body).Decode(&pos); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "error decoding position: "+err.Error())
		return
	}
	if !pos.IsFinite() {
		respondError(w, http.StatusBadRequest, "invalid_body", "position must be finite")
		return
	}
	if !s.manager.Drag(pos) {
		respondError(w, http.StatusConflict, "nothing_selected", "no vertex is selected")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeselect(w http.ResponseWriter, r *http.Request) {
	s.manager.ResetSelection()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) mergeResponse(result ingest.MergeResult) mergeResponse {
	vertices, edges := s.manager.Stats()
	newVertices := result.NewVertices
	if newVertices == nil {
		newVertices = []string{}
	}
	return mergeResponse{
		NewVertices:  newVertices,
		EdgesCreated: result.EdgesCreated,
		LabelsMerged: result.LabelsMerged,
		Vertices:     vertices,
		Edges:        edges,
	}
}

// intParam reads an integer query parameter and clamps it to [lo, hi]
func intParam(r *http.Request, name string, def, lo, hi int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %q", name, raw)
	}
	return max(lo, min(n, hi)), nil
}

func boolParam(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

func contentType(format string) string {
	switch strings.ToLower(format) {
	case "svg":
		return "image/svg+xml"
	case "dot":
		return "text/vnd.graphviz"
	default:
		return "application/json"
	}
}
