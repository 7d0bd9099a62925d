package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"recyclebot/internal/domain"
)

func TestFormatSourcesEmpty(t *testing.T) {
	assert.Equal(t, "", FormatSources(nil))
	assert.Equal(t, "", FormatSources([]domain.Chunk{}))
}

func TestFormatSources(t *testing.T) {
	out := FormatSources([]domain.Chunk{
		{Source: "RecyclingGuide2023", Text: "Clean pizza boxes are accepted."},
		{Text: "<b>raw</b> & more"},
		{Source: "RecyclingGuide2023", Text: "Clean pizza boxes are accepted."},
	})

	assert.True(t, strings.HasPrefix(out, "<div class='sources'><h4>Sources:</h4>"))
	assert.True(t, strings.HasSuffix(out, "</div>"))
	assert.Equal(t, 3, strings.Count(out, "<details>"), "duplicates are kept")
	assert.NotContains(t, out, "open")
	assert.Contains(t, out, "<summary>📄 RecyclingGuide2023</summary>")
	assert.Contains(t, out, "<summary>📄 Source 2</summary>")
	assert.Contains(t, out, "<div class='source-content'>&lt;b&gt;raw&lt;/b&gt; &amp; more</div>")
	assert.NotContains(t, out, "<b>raw</b>")
}

func TestFormatSourcesEscapesLabel(t *testing.T) {
	out := FormatSources([]domain.Chunk{{Source: "<script>x</script>", Text: "t"}})
	assert.Contains(t, out, "📄 &lt;script&gt;x&lt;/script&gt;")
}
