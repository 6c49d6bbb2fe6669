// Package cli provides output and input helpers for the modboard commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hyperjump/modboard/internal/highlight"
	"github.com/hyperjump/modboard/internal/models"
	"github.com/hyperjump/modboard/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json"; "" means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text or json)", s)
	}
}

// ReadInput returns the contents of path, or of stdin when path is "" or "-".
func ReadInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// WriteHighlightResult writes annotated content to w. Text output is the
// markup followed by one line per span; JSON output is the Result itself.
func WriteHighlightResult(w io.Writer, res *highlight.Result, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	fmt.Fprintln(w, string(res.Markup))
	if len(res.Spans) == 0 {
		fmt.Fprintln(w, "\nNo flagged terms found.")
		return nil
	}
	fmt.Fprintf(w, "\n%d flagged term(s):\n", len(res.Spans))
	for _, s := range res.Spans {
		fmt.Fprintf(w, "  [%s] %q at %d-%d\n", s.Category, utils.Truncate(s.Text, 60, "..."), s.Start, s.End)
	}
	return nil
}

// WriteRefreshResult writes a metrics refresh outcome.
func WriteRefreshResult(w io.Writer, res models.RefreshResult, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, res)
	}
	if res.Success {
		fmt.Fprintln(w, "Metrics refreshed.")
		return nil
	}
	fmt.Fprintf(w, "Metrics refresh failed: %s\n", res.Error)
	return nil
}

// WriteStatusResult reports a single status decision.
func WriteStatusResult(w io.Writer, id int64, status models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, map[string]interface{}{"id": id, "status": status, "success": true})
	}
	fmt.Fprintf(w, "Content %d has been %s.\n", id, status)
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
