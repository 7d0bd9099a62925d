package chat

import (
	"bytes"
	"html/template"

	"recyclebot/internal/domain"
)

var transcriptTemplate = template.Must(template.New("transcript").Parse(
	`<div class="transcript">{{range .}}<div class="message {{.Class}}" style="{{.Style}}">{{.Body}}</div>{{end}}</div>`))

const emptyTranscript = template.HTML("<div></div>")

type renderedMessage struct {
	Class string
	Style template.CSS
	Body  any
}

const (
	userStyle      = "margin: 10px 0; margin-left: 20%; background-color: #e9ecef;"
	assistantStyle = "margin: 10px 0; margin-right: 20%; background-color: #f8f9fa;"
)

// Render turns a transcript into HTML. Assistant content is trusted markup
// produced by the loop and emitted as is; user content is always escaped.
// Render is pure: equal inputs give identical output. A transcript that
// fails to render is shown empty rather than partially.
func Render(messages []Message) template.HTML {
	if len(messages) == 0 {
		return emptyTranscript
	}
	items := make([]renderedMessage, len(messages))
	for i, m := range messages {
		if m.Role == domain.RoleUser {
			items[i] = renderedMessage{Class: "user", Style: userStyle, Body: m.Content}
			continue
		}
		items[i] = renderedMessage{Class: "assistant", Style: assistantStyle, Body: template.HTML(m.Content)}
	}
	var buf bytes.Buffer
	if err := transcriptTemplate.Execute(&buf, items); err != nil {
		return emptyTranscript
	}
	return template.HTML(buf.String())
}
