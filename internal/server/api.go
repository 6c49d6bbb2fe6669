package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hyperjump/modboard/internal/highlight"
	"github.com/hyperjump/modboard/internal/models"
	"go.uber.org/zap"
)

const maxHighlightBody = 10 << 20

// highlightRequest is the body of POST /api/v1/highlight. CollisionPolicy
// overrides the configured policy for this call.
type highlightRequest struct {
	Content         string                `json:"content"`
	Explanations    models.ExplanationSet `json:"explanations"`
	CollisionPolicy string                `json:"collision_policy,omitempty"`
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	var req highlightRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxHighlightBody)).Decode(&req); err != nil {
		if errors.Is(err, models.ErrMalformedExplanation) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	h := s.highlighter
	if req.CollisionPolicy != "" {
		policy, err := highlight.ParseCollisionPolicy(req.CollisionPolicy)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h = highlight.New(highlight.WithCollisionPolicy(policy), highlight.WithClassPrefix(s.config.Highlight.ClassPrefix))
	}
	res, err := h.Annotate(req.Content, req.Explanations)
	if err != nil {
		s.logger.Debug("highlight rejected", zap.Error(err))
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if res.Spans == nil {
		res.Spans = []highlight.Span{}
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleMetricsRefresh(w http.ResponseWriter, r *http.Request) {
	res := s.refresher.Refresh(r.Context())
	if !res.Success {
		s.metrics.RecordError("server", "metrics_refresh")
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
