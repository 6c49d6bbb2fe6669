package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status is the moderation state of a content item.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Timestamp accepts the ISO-8601 forms the backend emits, with or without a
// zone offset. JSON null and "" decode to the zero time.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses s with the first matching layout.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON writes RFC 3339, or null for the zero time.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// Content is a submitted item as the backend stores it.
type Content struct {
	ID          int64     `json:"id"`
	UserID      *int64    `json:"user_id"`
	ContentType string    `json:"content_type"`
	ContentText string    `json:"content_text"`
	CreatedAt   Timestamp `json:"created_at"`
}

// ModerationStatus is the current decision for a content item.
type ModerationStatus struct {
	Status          Status    `json:"status"`
	ModerationScore *float64  `json:"moderation_score"`
	IsAutomated     bool      `json:"is_automated"`
	ProcessingTime  *float64  `json:"processing_time"`
	LastUpdated     Timestamp `json:"last_updated"`
}

// FlagDetails carries the classifier explanation for a flag.
type FlagDetails struct {
	Explanation []TermWeight `json:"explanation"`
}

// Flag is one category the classifier raised for a content item.
type Flag struct {
	FlagType string       `json:"flag_type"`
	Score    float64      `json:"score"`
	Details  *FlagDetails `json:"details,omitempty"`
}

// ModerationAction is an entry in a content item's audit trail.
type ModerationAction struct {
	UserID         *int64    `json:"user_id"`
	ActionType     string    `json:"action_type"`
	ActionNotes    string    `json:"action_notes"`
	PreviousStatus string    `json:"previous_status"`
	CreatedAt      Timestamp `json:"created_at"`
}

// ContentDetail is the backend response for GET /api/content/{id}.
type ContentDetail struct {
	Success bool               `json:"success"`
	Error   string             `json:"error,omitempty"`
	Content Content            `json:"content"`
	Status  ModerationStatus   `json:"status"`
	Flags   []Flag             `json:"flags"`
	Actions []ModerationAction `json:"actions,omitempty"`
}

// Explanations returns the explanation set built from the item's flags.
func (d *ContentDetail) Explanations() ExplanationSet {
	return ExplanationsFromFlags(d.Flags)
}

// ModerateRequest is the body of POST /api/moderate.
type ModerateRequest struct {
	Content     string                 `json:"content"`
	ContentType string                 `json:"content_type,omitempty"`
	UserID      *int64                 `json:"user_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// ModerateResult is the backend response for POST /api/moderate.
type ModerateResult struct {
	Success         bool     `json:"success"`
	Error           string   `json:"error,omitempty"`
	ContentID       int64    `json:"content_id"`
	Status          Status   `json:"status"`
	ModerationScore *float64 `json:"moderation_score"`
	ProcessingTime  *float64 `json:"processing_time"`
	Flags           []Flag   `json:"flags"`
}

// StatusUpdate is a reviewer decision sent to the backend.
type StatusUpdate struct {
	Status Status `json:"status"`
	Notes  string `json:"notes,omitempty"`
}
