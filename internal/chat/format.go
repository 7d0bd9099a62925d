package chat

import (
	"fmt"
	"html"
	"strings"

	"recyclebot/internal/domain"
)

// FormatSources renders the excerpts an answer was grounded on as collapsed
// <details> blocks. It returns "" when there are no chunks. Chunks are listed
// in rank order without de-duplication; labels and text are HTML-escaped.
func FormatSources(chunks []domain.Chunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<div class='sources'><h4>Sources:</h4>")
	for i, ch := range chunks {
		label := ch.Source
		if label == "" {
			label = fmt.Sprintf("Source %d", i+1)
		}
		fmt.Fprintf(&b, "<details><summary>📄 %s</summary><div class='source-content'>%s</div></details>",
			html.EscapeString(label), html.EscapeString(ch.Text))
	}
	b.WriteString("</div>")
	return b.String()
}
