// Package render turns message text into terminal output.
//
// Text is first split into segments by a set of pattern handlers (see
// Segments), then the literal parts flow through the Markdown pipeline while
// matched parts are replaced by the output of the handler that claimed them.
package render

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"chatinput/config"
)

// ErrInvalidPattern is returned when a handler pattern does not compile.
var ErrInvalidPattern = errors.New("invalid pattern")

// DefaultMatchTimeout bounds a single regexp2 search so a pathological
// pattern cannot freeze the UI.
const DefaultMatchTimeout = 250 * time.Millisecond

// Match is what a RenderFunc receives for one matched span.
type Match struct {
	Text   string   // whole matched text
	Groups []string // Groups[0] == Text, then numbered capture groups
	Index  int      // rune offset of the match in the scanned text
}

// Group returns capture group n or "" when it does not exist.
func (m Match) Group(n int) string {
	if n < 0 || n >= len(m.Groups) {
		return ""
	}
	return m.Groups[n]
}

// RenderFunc turns a match into its rendered form.
type RenderFunc func(m Match) (string, error)

// PatternHandler pairs a pattern with the renderer for its matches.
//
// Inline handlers only see paragraph text. Block handlers see the raw
// message before Markdown parsing and their output is not parsed again.
type PatternHandler struct {
	Name    string
	Pattern *regexp2.Regexp
	Render  RenderFunc
	Block   bool
}

// NewPatternHandler compiles expr and returns a handler using render.
func NewPatternHandler(name, expr string, render RenderFunc) (PatternHandler, error) {
	re, err := regexp2.Compile(expr, regexp2.None)
	if err != nil {
		return PatternHandler{}, fmt.Errorf("%w %q: %v", ErrInvalidPattern, expr, err)
	}
	re.MatchTimeout = DefaultMatchTimeout
	return PatternHandler{Name: name, Pattern: re, Render: render}, nil
}

// MustPatternHandler is like NewPatternHandler but panics on a bad pattern.
// Meant for package-level handlers built from constant expressions.
func MustPatternHandler(name, expr string, render RenderFunc) PatternHandler {
	h, err := NewPatternHandler(name, expr, render)
	if err != nil {
		panic(err)
	}
	return h
}

type SegmentKind int

const (
	SegmentLiteral SegmentKind = iota
	SegmentMatch
)

func (k SegmentKind) String() string {
	switch k {
	case SegmentLiteral:
		return "literal"
	case SegmentMatch:
		return "match"
	default:
		return fmt.Sprintf("SegmentKind(%d)", int(k))
	}
}

// Segment is a contiguous span of the input.
// For literals Text is the input text itself. For matches Text is the
// rendered output and Source the original matched text.
type Segment struct {
	Kind    SegmentKind
	Text    string
	Source  string
	Handler int
}

type candidate struct {
	handler int
	start   int
	length  int
	groups  []string
}

// Segments splits text into literal and matched segments.
//
// At every step each handler is searched from the current position and the
// earliest match wins, ties going to the handler registered first. The search
// position is passed explicitly on every call, so no match state leaks
// between calls.
//
// Empty text yields nil. No handlers yields a single literal segment.
func Segments(text string, handlers []PatternHandler) []Segment {
	if text == "" {
		return nil
	}
	if len(handlers) == 0 {
		return []Segment{{Kind: SegmentLiteral, Text: text, Handler: -1}}
	}

	runes := []rune(text)
	var segments []Segment

	// pending marks the start of text not yet emitted, searchAt where the next
	// search begins. They only differ after a zero-length match.
	pending := 0
	searchAt := 0

	for searchAt <= len(runes) {
		best, ok := nextMatch(runes, searchAt, handlers)
		if !ok {
			break
		}

		if best.start > pending {
			segments = append(segments, Segment{
				Kind:    SegmentLiteral,
				Text:    string(runes[pending:best.start]),
				Handler: -1,
			})
		}

		source := string(runes[best.start : best.start+best.length])
		m := Match{Text: source, Groups: best.groups, Index: best.start}
		segments = append(segments, Segment{
			Kind:    SegmentMatch,
			Text:    safeRender(handlers[best.handler], m),
			Source:  source,
			Handler: best.handler,
		})

		pending = best.start + best.length
		searchAt = pending
		if best.length == 0 {
			searchAt++
		}
	}

	if pending < len(runes) {
		segments = append(segments, Segment{
			Kind:    SegmentLiteral,
			Text:    string(runes[pending:]),
			Handler: -1,
		})
	}

	return segments
}

func nextMatch(runes []rune, from int, handlers []PatternHandler) (candidate, bool) {
	best := candidate{start: -1}
	for i, h := range handlers {
		if h.Pattern == nil {
			continue
		}
		m, err := h.Pattern.FindRunesMatchStartingAt(runes, from)
		if err != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Render] handler %q search failed at %d: %v", h.Name, from, err)
			}
			continue
		}
		if m == nil {
			continue
		}
		// strictly less keeps the earlier handler on ties
		if best.start == -1 || m.Index < best.start {
			best = candidate{
				handler: i,
				start:   m.Index,
				length:  m.Length,
				groups:  matchGroups(m),
			}
		}
	}
	return best, best.start != -1
}

func matchGroups(m *regexp2.Match) []string {
	groups := m.Groups()
	out := make([]string, len(groups))
	for i := range groups {
		out[i] = groups[i].String()
	}
	return out
}

// safeRender runs the handler and falls back to the raw matched text when the
// renderer errors or panics.
func safeRender(h PatternHandler, m Match) (out string) {
	if h.Render == nil {
		return m.Text
	}
	defer func() {
		if r := recover(); r != nil {
			if config.DebugLog != nil {
				config.DebugLog.Printf("[Render] handler %q panicked on %q: %v", h.Name, m.Text, r)
			}
			out = m.Text
		}
	}()

	rendered, err := h.Render(m)
	if err != nil {
		if config.DebugLog != nil {
			config.DebugLog.Printf("[Render] handler %q failed on %q: %v", h.Name, m.Text, err)
		}
		return m.Text
	}
	return rendered
}

// Reconstruct returns the text the segments were produced from.
func Reconstruct(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		if s.Kind == SegmentMatch {
			b.WriteString(s.Source)
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

// Join concatenates the rendered form of all segments.
func Join(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// HasMatches reports whether any handler matched.
func HasMatches(segments []Segment) bool {
	for _, s := range segments {
		if s.Kind == SegmentMatch {
			return true
		}
	}
	return false
}
