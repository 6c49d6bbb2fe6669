package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/modboard/internal/highlight"
	"github.com/hyperjump/modboard/internal/models"
	"github.com/hyperjump/modboard/pkg/utils"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02 15:04:05"
	truncateSuffix  = "..."
)

// FuncMap returns the template helpers available to every page.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"toJSON":          ToJSON,
		"formatDate":      FormatDate,
		"formatTimestamp": FormatTimestamp,
		"truncateText":    TruncateText,
		"formatFlagType":  FormatFlagType,
		"flagColor":       FlagColor,
		"formatScore":     FormatScore,
		"statusColor":     StatusColor,
		"categoryClass":   highlight.CategoryClass,
		"now":             Now,
	}
}

// ToJSON encodes v for embedding in a <script> block.
func ToJSON(v interface{}) (template.JS, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(data), nil
}

// FormatDate formats v as YYYY-MM-DD, or with layout when given.
func FormatDate(v interface{}, layout ...string) string {
	return formatTime(v, dateLayout, layout)
}

// FormatTimestamp formats v as "YYYY-MM-DD HH:MM:SS", or with layout when given.
func FormatTimestamp(v interface{}, layout ...string) string {
	return formatTime(v, timestampLayout, layout)
}

// formatTime accepts time values and ISO-8601 strings. Empty values render as
// "" and unparseable strings are returned as they are.
func formatTime(v interface{}, def string, layout []string) string {
	if len(layout) > 0 && layout[0] != "" {
		def = layout[0]
	}
	var t time.Time
	switch x := v.(type) {
	case nil:
		return ""
	case time.Time:
		t = x
	case *time.Time:
		if x == nil {
			return ""
		}
		t = *x
	case models.Timestamp:
		t = x.Time
	case *models.Timestamp:
		if x == nil {
			return ""
		}
		t = x.Time
	case string:
		ts, err := models.ParseTimestamp(x)
		if err != nil {
			return x
		}
		t = ts.Time
	default:
		return fmt.Sprint(v)
	}
	if t.IsZero() {
		return ""
	}
	return t.Format(def)
}

// TruncateText cuts text to length runes and appends "...". The length comes
// first so the filter reads {{ .Text | truncateText 100 }}.
func TruncateText(length int, text string) string {
	if text == "" {
		return ""
	}
	return utils.Truncate(text, length, truncateSuffix)
}

// FormatFlagType turns "hate_speech" into "Hate Speech", matching the title
// of highlighted spans.
func FormatFlagType(flagType string) string {
	return highlight.CategoryTitle(flagType)
}

// FlagColor maps a flag score to a text color class.
func FlagColor(score interface{}) string {
	s, ok := toFloat(score)
	if !ok {
		return "text-secondary"
	}
	switch {
	case s >= 0.8:
		return "text-danger"
	case s >= 0.5:
		return "text-warning"
	case s >= 0.3:
		return "text-info"
	default:
		return "text-success"
	}
}

// FormatScore prints a score with two decimals, or "n/a" when missing.
func FormatScore(score interface{}) string {
	s, ok := toFloat(score)
	if !ok {
		return "n/a"
	}
	return strconv.FormatFloat(s, 'f', 2, 64)
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case *float64:
		if x == nil {
			return 0, false
		}
		return *x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// StatusColor maps a moderation status to a text color class.
func StatusColor(status interface{}) string {
	var s string
	switch x := status.(type) {
	case string:
		s = x
	case models.Status:
		s = string(x)
	}
	if s == "" {
		return "text-secondary"
	}
	switch models.Status(strings.ToLower(s)) {
	case models.StatusApproved:
		return "text-success"
	case models.StatusRejected:
		return "text-danger"
	case models.StatusPending:
		return "text-warning"
	default:
		return "text-info"
	}
}

// Now returns the current UTC time formatted with layout, YYYY-MM-DD by default.
func Now(layout ...string) string {
	l := dateLayout
	if len(layout) > 0 && layout[0] != "" {
		l = layout[0]
	}
	return time.Now().UTC().Format(l)
}
