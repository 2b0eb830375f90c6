package plagiarism

import (
	"html"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog"

	t.Run("no intervals escapes only", func(t *testing.T) {
		raw := `a < b && "c" > 'd'`
		assert.Equal(t, html.EscapeString(raw), Render(raw, nil))
	})

	t.Run("wraps a span", func(t *testing.T) {
		got := Render(text, []Interval{{4, 30}})
		assert.Equal(t, `The <span class="plagiarism-highlight">quick brown fox jumps over</span> the lazy dog`, got)
	})

	t.Run("escapes inside and outside spans", func(t *testing.T) {
		got := Render("<b>x</b> & y", []Interval{{0, 8}})
		assert.Equal(t, `<span class="plagiarism-highlight">&lt;b&gt;x&lt;/b&gt;</span> &amp; y`, got)
	})

	t.Run("multiple spans", func(t *testing.T) {
		got := Render("aa bb cc", []Interval{{0, 2}, {6, 8}})
		assert.Equal(t, `<span class="plagiarism-highlight">aa</span> bb <span class="plagiarism-highlight">cc</span>`, got)
	})

	t.Run("out of range intervals are clamped", func(t *testing.T) {
		got := Render("abc", []Interval{{1, 99}, {120, 130}})
		assert.Equal(t, `a<span class="plagiarism-highlight">bc</span>`, got)
	})

	t.Run("removing markup restores the text", func(t *testing.T) {
		got := Render(text, []Interval{{0, 3}, {10, 19}, {35, 43}})
		plain := strings.NewReplacer(HTMLMarker{}.Open(), "", HTMLMarker{}.Close(), "").Replace(got)
		assert.Equal(t, text, html.UnescapeString(plain))
	})
}

func TestANSIMarker(t *testing.T) {
	m := NewANSIMarker()
	require.NotEmpty(t, m.Open())
	require.NotEmpty(t, m.Close())
	assert.True(t, strings.HasPrefix(m.Open(), "\x1b["))

	got := Highlight("one two", []Interval{{4, 7}}, m)
	assert.Equal(t, "one "+m.Open()+"two"+m.Close(), got)

	bold := NewANSIMarker(color.Bold)
	assert.NotEqual(t, m.Open(), bold.Open())
}

func TestANSIMarkerEscape(t *testing.T) {
	m := ANSIMarker{}
	assert.Equal(t, "ab[31mc\tline\n", m.Escape("a\x1bb[31mc\tline\n\x7f"))
	assert.Equal(t, "<b>", m.Escape("<b>"))
}
