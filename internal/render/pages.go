package render

import (
	"html/template"
	"net/url"
	"strconv"

	"github.com/hyperjump/modboard/internal/highlight"
	"github.com/hyperjump/modboard/internal/models"
)

// Flash is a one-shot message shown at the top of a page.
type Flash struct {
	Kind    string
	Message string
}

// IndexPage is the landing page.
type IndexPage struct {
	Flash *Flash
}

// StatusCounts are the dashboard counters.
type StatusCounts struct {
	Pending  int
	Approved int
	Rejected int
}

// ChartData is handed to the client-side chart library as JSON.
type ChartData struct {
	Dates      []string       `json:"dates"`
	Processed  []int          `json:"processed"`
	FlagTotals map[string]int `json:"flag_totals"`
	Statuses   map[string]int `json:"statuses"`
}

// DashboardPage is the admin overview. Recent lists the newest pending items.
type DashboardPage struct {
	Flash       *Flash
	Counts      StatusCounts
	Chart       ChartData
	Days        int
	Error       string
	Recent      []models.ContentSummary
	RecentError string
}

// FlaggedPage is the pending review queue with its filters.
type FlaggedPage struct {
	Flash     *Flash
	Items     []models.ContentSummary
	FlagTypes []string
	FlagType  string
	ScoreMin  float64
	Page      int
	Pages     int
	Total     int
	Error     string
}

// HasPrev reports whether there is a page before the current one.
func (p FlaggedPage) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether there is a page after the current one.
func (p FlaggedPage) HasNext() bool { return p.Page < p.Pages }

// PageURL links to page n of the queue with the current filters.
func (p FlaggedPage) PageURL(n int) string {
	q := url.Values{}
	if p.FlagType != "" {
		q.Set("flag_type", p.FlagType)
	}
	if p.ScoreMin > 0 {
		q.Set("score_min", strconv.FormatFloat(p.ScoreMin, 'f', -1, 64))
	}
	q.Set("page", strconv.Itoa(n))
	return "/admin/flagged?" + q.Encode()
}

// PrevURL links to the previous page.
func (p FlaggedPage) PrevURL() string { return p.PageURL(p.Page - 1) }

// NextURL links to the next page.
func (p FlaggedPage) NextURL() string { return p.PageURL(p.Page + 1) }

// ReviewPage shows one content item with its flagged terms highlighted.
type ReviewPage struct {
	Flash        *Flash
	Detail       *models.ContentDetail
	Highlighted  template.HTML
	Spans        []highlight.Span
	Explanations models.ExplanationSet
	Error        string
}

// UploadPage is the document upload form.
type UploadPage struct {
	Flash      *Flash
	Extensions []string
	MaxBytes   int64
}

// ErrorPage reports a failed request.
type ErrorPage struct {
	Flash   *Flash
	Status  int
	Message string
}
