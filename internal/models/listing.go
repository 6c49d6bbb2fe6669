package models

// DefaultPerPage is the page size of the review queue.
const DefaultPerPage = 20

// ContentQuery filters a content listing. Zero values mean no filter;
// Page counts from 1.
type ContentQuery struct {
	Status   Status
	FlagType string
	ScoreMin float64
	Page     int
	PerPage  int
}

// ContentSummary is one row of a content listing.
type ContentSummary struct {
	Content Content          `json:"content"`
	Status  ModerationStatus `json:"status"`
	Flags   []Flag           `json:"flags"`
}

// ContentList is the backend response for GET /api/content, newest first.
type ContentList struct {
	Success   bool             `json:"success"`
	Error     string           `json:"error,omitempty"`
	Items     []ContentSummary `json:"items"`
	Page      int              `json:"page"`
	PerPage   int              `json:"per_page"`
	Total     int              `json:"total"`
	Pages     int              `json:"pages"`
	FlagTypes []string         `json:"flag_types"`
}
