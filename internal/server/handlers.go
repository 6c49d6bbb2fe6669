package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/modboard/internal/extract"
	"github.com/hyperjump/modboard/internal/models"
	"github.com/hyperjump/modboard/internal/render"
	"github.com/hyperjump/modboard/internal/review"
	"github.com/hyperjump/modboard/internal/upstream"
	"go.uber.org/zap"
)

const (
	defaultMetricsDays = 7
	maxMetricsDays     = 90
	recentPending      = 10
	// multipart framing on top of the document size limit
	uploadFormOverhead = 1 << 20
)

var flashKinds = map[string]bool{"success": true, "danger": true, "warning": true, "info": true}

func flashFrom(r *http.Request) *render.Flash {
	msg := r.URL.Query().Get("flash")
	if msg == "" {
		return nil
	}
	kind := r.URL.Query().Get("kind")
	if !flashKinds[kind] {
		kind = "info"
	}
	return &render.Flash{Kind: kind, Message: msg}
}

func withFlash(path, kind, msg string) string {
	q := url.Values{}
	q.Set("flash", msg)
	q.Set("kind", kind)
	return path + "?" + q.Encode()
}

func reviewPath(id int64) string {
	return "/admin/review/" + strconv.FormatInt(id, 10)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, render.PageIndex, render.IndexPage{Flash: flashFrom(r)})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	days := defaultMetricsDays
	if v := r.URL.Query().Get("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxMetricsDays {
			days = n
		}
	}
	page := render.DashboardPage{Flash: flashFrom(r), Days: days}
	m, err := s.upstream.GetMetrics(r.Context(), days)
	if err != nil {
		s.logger.Error("dashboard: get metrics failed", zap.Error(err))
		s.metrics.RecordError("server", "upstream")
		page.Error = "Could not load metrics: " + err.Error()
		m = models.Metrics{}
	}
	statuses := m.Totals(models.MetricStatusDistribution)
	page.Counts = render.StatusCounts{
		Pending:  statuses[string(models.StatusPending)],
		Approved: statuses[string(models.StatusApproved)],
		Rejected: statuses[string(models.StatusRejected)],
	}
	dates, processed := m.DailyCounts()
	page.Chart = render.ChartData{
		Dates:      dates,
		Processed:  processed,
		FlagTotals: m.Totals(models.MetricFlagDistribution),
		Statuses:   statuses,
	}
	recent, err := s.upstream.ListContent(r.Context(), models.ContentQuery{
		Status:  models.StatusPending,
		Page:    1,
		PerPage: recentPending,
	})
	if err != nil {
		s.logger.Error("dashboard: list pending failed", zap.Error(err))
		s.metrics.RecordError("server", "upstream")
		page.RecentError = "Could not load pending items: " + err.Error()
	} else {
		page.Recent = recent.Items
	}
	s.renderPage(w, http.StatusOK, render.PageDashboard, page)
}

// handleFlagged lists pending items, newest first, optionally filtered by
// flag type and minimum moderation score.
func (s *Server) handleFlagged(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := render.FlaggedPage{Flash: flashFrom(r), FlagType: strings.TrimSpace(q.Get("flag_type")), Page: 1}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 1 {
		page.Page = n
	}
	if f, err := strconv.ParseFloat(q.Get("score_min"), 64); err == nil && f > 0 && f <= 1 {
		page.ScoreMin = f
	}
	list, err := s.upstream.ListContent(r.Context(), models.ContentQuery{
		Status:   models.StatusPending,
		FlagType: page.FlagType,
		ScoreMin: page.ScoreMin,
		Page:     page.Page,
		PerPage:  models.DefaultPerPage,
	})
	if err != nil {
		s.logger.Error("flagged: list content failed", zap.Error(err))
		s.metrics.RecordError("server", "upstream")
		page.Error = "Could not load the review queue: " + err.Error()
		s.renderPage(w, http.StatusOK, render.PageFlagged, page)
		return
	}
	page.Items = list.Items
	page.FlagTypes = list.FlagTypes
	page.Total = list.Total
	page.Pages = list.Pages
	s.renderPage(w, http.StatusOK, render.PageFlagged, page)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	id, ok := s.contentID(w, r)
	if !ok {
		return
	}
	detail, err := s.upstream.GetContent(r.Context(), id)
	if err != nil {
		s.upstreamError(w, "review: get content", err)
		return
	}
	res, err := s.highlighter.Annotate(detail.Content.ContentText, detail.Explanations())
	if err != nil {
		s.logger.Error("review: highlight failed", zap.Int64("content_id", id), zap.Error(err))
		s.metrics.RecordError("highlight", "malformed_explanation")
		s.renderError(w, http.StatusBadGateway, "The moderation backend returned a malformed explanation for this item.")
		return
	}
	perCategory := make(map[string]int)
	for _, sp := range res.Spans {
		perCategory[sp.Category]++
	}
	for cat, n := range perCategory {
		s.metrics.RecordHighlight(cat, n)
	}
	s.logger.Debug("review rendered", zap.Int64("content_id", id), zap.Int("spans", len(res.Spans)))
	s.renderPage(w, http.StatusOK, render.PageReview, render.ReviewPage{
		Flash:        flashFrom(r),
		Detail:       detail,
		Highlighted:  res.Markup,
		Spans:        res.Spans,
		Explanations: detail.Explanations(),
	})
}

func confirmed(r *http.Request) bool {
	switch strings.ToLower(r.PostFormValue("confirm")) {
	case "yes", "on", "true", "1":
		return true
	}
	return false
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.contentID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	status := models.Status(strings.ToLower(strings.TrimSpace(r.PostFormValue("status"))))
	action := review.NewStatusAction(review.Confirmed(confirmed(r)), s.upstream, review.WithLogger(s.logger))
	if err := action.Submit(r.Context(), id, status, r.PostFormValue("notes")); err != nil {
		switch {
		case errors.Is(err, review.ErrInvalidStatus):
			s.renderError(w, http.StatusBadRequest, "Invalid status provided.")
		case errors.Is(err, review.ErrNotConfirmed):
			s.renderError(w, http.StatusBadRequest, "Please confirm the decision before submitting.")
		default:
			s.upstreamError(w, "update status", err)
		}
		return
	}
	msg := fmt.Sprintf("Content has been %s", status)
	target := "/admin/dashboard"
	if r.PostFormValue("redirect_to") == "review" {
		target = reviewPath(id)
	}
	http.Redirect(w, r, withFlash(target, "success", msg), http.StatusSeeOther)
}

// parseIDs accepts repeated content_ids fields, each possibly a comma or
// space separated list. Tokens that are not positive integers are returned
// as invalid.
func parseIDs(values []string) (ids []int64, invalid []string) {
	for _, v := range values {
		for _, f := range strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' }) {
			id, err := strconv.ParseInt(f, 10, 64)
			if err != nil || id <= 0 {
				invalid = append(invalid, f)
				continue
			}
			ids = append(ids, id)
		}
	}
	return ids, invalid
}

// batchTarget is where a batch form returns to.
func batchTarget(r *http.Request) string {
	if r.PostFormValue("redirect_to") == "flagged" {
		return "/admin/flagged"
	}
	return "/admin/dashboard"
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, http.StatusBadRequest, "invalid form")
		return
	}
	target := batchTarget(r)
	ids, invalid := parseIDs(r.PostForm["content_ids"])
	if len(ids) == 0 && len(invalid) == 0 {
		http.Redirect(w, r, withFlash(target, "warning", "No items selected"), http.StatusSeeOther)
		return
	}
	status, err := review.ParseStatus(r.PostFormValue("action"))
	if err != nil {
		s.renderError(w, http.StatusBadRequest, "Invalid action.")
		return
	}
	if !confirmed(r) {
		s.renderError(w, http.StatusBadRequest, "Please confirm the batch action before submitting.")
		return
	}
	res := &review.BatchResult{Status: status}
	if len(ids) > 0 {
		action := review.NewStatusAction(review.Confirmed(true), s.upstream, review.WithLogger(s.logger))
		if res, err = action.Batch(r.Context(), ids, status, r.PostFormValue("notes")); err != nil {
			s.upstreamError(w, "batch action", err)
			return
		}
	}
	if len(invalid) > 0 {
		s.logger.Warn("batch: invalid content ids", zap.Strings("ids", invalid))
		res.AddInvalid(invalid...)
	}
	kind := "success"
	if res.Succeeded < res.Total {
		kind = "warning"
	}
	http.Redirect(w, r, withFlash(target, kind, res.String()), http.StatusSeeOther)
}

func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, http.StatusOK, render.PageUpload, s.uploadPage(flashFrom(r)))
}

func (s *Server) uploadPage(flash *render.Flash) render.UploadPage {
	return render.UploadPage{Flash: flash, Extensions: s.config.Upload.Extensions, MaxBytes: s.config.Upload.MaxBytes}
}

func (s *Server) uploadFailed(w http.ResponseWriter, status int, msg string) {
	s.renderPage(w, status, render.PageUpload, s.uploadPage(&render.Flash{Kind: "danger", Message: msg}))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.config.Upload.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.Upload.MaxBytes+uploadFormOverhead)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.uploadFailed(w, http.StatusRequestEntityTooLarge, "The upload is too large.")
			return
		}
		s.uploadFailed(w, http.StatusBadRequest, "Invalid upload form.")
		return
	}

	req := models.ModerateRequest{
		Content:     strings.TrimSpace(r.FormValue("content")),
		ContentType: extract.ContentTypeText,
	}
	if file, header, err := r.FormFile("file"); err == nil {
		defer file.Close()
		text, err := s.extractor.Extract(file, header.Filename)
		if err != nil {
			s.logger.Warn("upload: extraction failed", zap.String("filename", header.Filename), zap.Error(err))
			switch {
			case errors.Is(err, extract.ErrUnsupportedType):
				s.uploadFailed(w, http.StatusUnsupportedMediaType, "Unsupported file type.")
			case errors.Is(err, extract.ErrTooLarge):
				s.uploadFailed(w, http.StatusRequestEntityTooLarge, "The document is too large.")
			case errors.Is(err, extract.ErrEmptyDocument):
				s.uploadFailed(w, http.StatusBadRequest, "The document contains no text.")
			default:
				s.uploadFailed(w, http.StatusBadRequest, "Could not read the document.")
			}
			return
		}
		req.Content = text
		req.ContentType = extract.ContentType(header.Filename)
		req.Metadata = map[string]interface{}{"filename": header.Filename}
	} else if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
		s.uploadFailed(w, http.StatusBadRequest, "Invalid upload form.")
		return
	}
	if req.Content == "" {
		s.uploadFailed(w, http.StatusBadRequest, "Provide text or a document to moderate.")
		return
	}

	res, err := s.upstream.Moderate(r.Context(), req)
	if err != nil {
		s.logger.Error("upload: moderate failed", zap.Error(err))
		s.metrics.RecordError("server", "upstream")
		s.uploadFailed(w, upstreamStatus(err), "The moderation backend could not process the content.")
		return
	}
	s.logger.Info("content submitted", zap.Int64("content_id", res.ContentID), zap.String("status", string(res.Status)))
	http.Redirect(w, r, withFlash(reviewPath(res.ContentID), "success", "Content submitted for moderation"), http.StatusSeeOther)
}

func (s *Server) contentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		s.renderError(w, http.StatusNotFound, "content not found")
		return 0, false
	}
	return id, true
}

// upstreamStatus maps a backend failure to the status shown to the client.
func upstreamStatus(err error) int {
	if upstream.IsNotFound(err) {
		return http.StatusNotFound
	}
	return http.StatusBadGateway
}

func (s *Server) upstreamError(w http.ResponseWriter, op string, err error) {
	status := upstreamStatus(err)
	s.logger.Error(op+" failed", zap.Int("status", status), zap.Error(err))
	s.metrics.RecordError("server", "upstream")
	msg := "The moderation backend is unavailable."
	if status == http.StatusNotFound {
		msg = "content not found"
	}
	s.renderError(w, status, msg)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, page string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.renderer.Render(w, page, data); err != nil {
		s.logger.Error("render failed", zap.String("page", page), zap.Error(err))
	}
}

func (s *Server) renderError(w http.ResponseWriter, status int, message string) {
	s.renderPage(w, status, render.PageError, render.ErrorPage{Status: status, Message: message})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
