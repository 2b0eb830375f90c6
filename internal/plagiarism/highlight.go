package plagiarism

import (
	"html"
	"strings"

	"github.com/fatih/color"
)

// Marker decides how highlighted spans are wrapped and how text is escaped
// for a particular output syntax.
type Marker interface {
	Open() string
	Close() string
	Escape(s string) string
}

// HighlightClass is the CSS class of highlighted spans in HTML output.
const HighlightClass = "plagiarism-highlight"

// HTMLMarker wraps spans in a <span class="plagiarism-highlight"> element.
type HTMLMarker struct{}

func (HTMLMarker) Open() string  { return `<span class="` + HighlightClass + `">` }
func (HTMLMarker) Close() string { return "</span>" }

func (HTMLMarker) Escape(s string) string {
	return html.EscapeString(s)
}

// ANSIMarker colours spans for terminal output.
type ANSIMarker struct {
	open, close string
}

// NewANSIMarker builds a marker from a fatih/color attribute set.
func NewANSIMarker(attrs ...color.Attribute) ANSIMarker {
	if len(attrs) == 0 {
		attrs = []color.Attribute{color.FgBlack, color.BgYellow}
	}
	// Split a coloured sentinel into the escape prefix and the reset suffix.
	c := color.New(attrs...)
	c.EnableColor()
	const sentinel = "\x00"
	parts := strings.SplitN(c.Sprint(sentinel), sentinel, 2)
	if len(parts) != 2 {
		return ANSIMarker{}
	}
	return ANSIMarker{open: parts[0], close: parts[1]}
}

func (m ANSIMarker) Open() string  { return m.open }
func (m ANSIMarker) Close() string { return m.close }

// Escape drops C0 control characters other than tab, newline and carriage
// return so document text cannot emit its own terminal sequences.
func (ANSIMarker) Escape(s string) string {
	return strings.Map(func(r rune) rune {
		if (r < 0x20 && r != '\t' && r != '\n' && r != '\r') || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// Render highlights intervals of text as HTML.
func Render(text string, intervals []Interval) string {
	return Highlight(text, intervals, HTMLMarker{})
}

// Highlight emits text with every interval wrapped by marker and everything
// escaped. intervals must be sorted and disjoint, as MergeIntervals returns.
func Highlight(text string, intervals []Interval, marker Marker) string {
	var b strings.Builder
	b.Grow(len(text) + len(intervals)*32)

	cursor := 0
	for _, iv := range intervals {
		start, end := clamp(iv.Start, len(text)), clamp(iv.End, len(text))
		if start < cursor {
			start = cursor
		}
		if start >= end {
			continue
		}
		b.WriteString(marker.Escape(text[cursor:start]))
		b.WriteString(marker.Open())
		b.WriteString(marker.Escape(text[start:end]))
		b.WriteString(marker.Close())
		cursor = end
	}
	b.WriteString(marker.Escape(text[cursor:]))

	return b.String()
}
