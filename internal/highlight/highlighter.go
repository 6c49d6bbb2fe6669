// Package highlight wraps flagged terms in content text with category-tagged
// spans for the review page.
package highlight

import (
	"fmt"
	"html"
	"html/template"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/modboard/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const defaultClassPrefix = "highlight"

var classPrefixRe = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// ValidClassPrefix reports whether prefix can be used as a CSS class prefix:
// a lower-case letter followed by lower-case letters, digits or "-".
func ValidClassPrefix(prefix string) bool {
	return classPrefixRe.MatchString(prefix)
}

// Span is one highlighted occurrence. Start and End are byte offsets into the
// original content; Text is the content slice verbatim.
type Span struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Text     string `json:"text"`
	Term     string `json:"term"`
	Category string `json:"category"`
}

// Result is the annotated content together with the spans that were wrapped.
type Result struct {
	Markup template.HTML `json:"markup"`
	Spans  []Span        `json:"spans"`
}

// Highlighter renders explanation terms into content. The zero value is not
// usable; construct with New. A Highlighter holds no per-call state and is
// safe for concurrent use.
type Highlighter struct {
	policy      CollisionPolicy
	classPrefix string
}

// Option configures a Highlighter.
type Option func(*Highlighter)

// WithCollisionPolicy sets how terms shared between categories are resolved.
func WithCollisionPolicy(p CollisionPolicy) Option {
	return func(h *Highlighter) { h.policy = p }
}

// WithClassPrefix sets the CSS class prefix of emitted spans. A prefix that
// fails ValidClassPrefix is ignored.
func WithClassPrefix(prefix string) Option {
	return func(h *Highlighter) {
		if ValidClassPrefix(prefix) {
			h.classPrefix = prefix
		}
	}
}

// New returns a Highlighter using LastWins and the "highlight" class prefix
// unless overridden.
func New(opts ...Option) *Highlighter {
	h := &Highlighter{policy: LastWins, classPrefix: defaultClassPrefix}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var defaultHighlighter = New()

// Highlight annotates content with the default Highlighter.
func Highlight(content string, set models.ExplanationSet) (template.HTML, error) {
	return defaultHighlighter.Highlight(content, set)
}

// Highlight returns content as HTML with every case-insensitive whole-word
// occurrence of a positively weighted term wrapped in a span.
func (h *Highlighter) Highlight(content string, set models.ExplanationSet) (template.HTML, error) {
	res, err := h.Annotate(content, set)
	if err != nil {
		return "", err
	}
	return res.Markup, nil
}

// Annotate selects the spans to highlight and renders them. Longer terms are
// placed first; a candidate overlapping an already placed span is dropped, so
// spans never nest.
func (h *Highlighter) Annotate(content string, set models.ExplanationSet) (*Result, error) {
	idx, err := BuildTermIndex(set, h.policy)
	if err != nil {
		return nil, err
	}
	var spans []Span
	for _, it := range idx.byLength() {
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(it.term))
		if err != nil {
			return nil, fmt.Errorf("%w: term %q: %v", models.ErrMalformedExplanation, it.term, err)
		}
		for _, loc := range wholeWordMatches(content, re) {
			spans = place(spans, Span{
				Start:    loc[0],
				End:      loc[1],
				Text:     content[loc[0]:loc[1]],
				Term:     it.term,
				Category: it.category,
			})
		}
	}
	return &Result{Markup: h.render(content, spans), Spans: spans}, nil
}

// wholeWordMatches returns the non-overlapping matches of re in content that
// are not adjacent to a word character. A rejected match restarts the search
// one rune later so an occurrence starting inside it is still found.
func wholeWordMatches(content string, re *regexp.Regexp) [][2]int {
	var out [][2]int
	pos := 0
	for pos < len(content) {
		loc := re.FindStringIndex(content[pos:])
		if loc == nil || loc[0] == loc[1] {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if atWordBoundary(content, start, end) {
			out = append(out, [2]int{start, end})
			pos = end
			continue
		}
		_, size := utf8.DecodeRuneInString(content[start:])
		pos = start + size
	}
	return out
}

func atWordBoundary(content string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(content[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(content) {
		if r, _ := utf8.DecodeRuneInString(content[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

// place inserts s into spans (sorted by Start) unless it overlaps one of them.
func place(spans []Span, s Span) []Span {
	i := sort.Search(len(spans), func(i int) bool { return spans[i].End > s.Start })
	if i < len(spans) && spans[i].Start < s.End {
		return spans
	}
	spans = append(spans, Span{})
	copy(spans[i+1:], spans[i:])
	spans[i] = s
	return spans
}

func (h *Highlighter) render(content string, spans []Span) template.HTML {
	var b strings.Builder
	b.Grow(len(content) + len(spans)*64)
	last := 0
	for _, s := range spans {
		b.WriteString(html.EscapeString(content[last:s.Start]))
		fmt.Fprintf(&b, `<span class="%s-term %s-%s" data-category="%s" title="%s">%s</span>`,
			h.classPrefix, h.classPrefix, CategoryClass(s.Category),
			html.EscapeString(s.Category), html.EscapeString(CategoryTitle(s.Category)),
			html.EscapeString(s.Text))
		last = s.End
	}
	b.WriteString(html.EscapeString(content[last:]))
	return template.HTML(b.String())
}

var titleCaser = cases.Title(language.English)

// CategoryTitle turns a category name into a display title: "hate_speech"
// becomes "Hate Speech".
func CategoryTitle(category string) string {
	if category == "" {
		return ""
	}
	words := strings.Split(category, "_")
	for i, w := range words {
		words[i] = titleCaser.String(w)
	}
	return strings.Join(words, " ")
}

// CategoryClass turns a category name into a CSS class suffix: lower case,
// with each run of non-alphanumeric characters collapsed to one "-".
func CategoryClass(category string) string {
	var b strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(category) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	if b.Len() == 0 {
		return "flag"
	}
	return b.String()
}
