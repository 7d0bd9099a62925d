package web

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"recyclebot/internal/chat"
)

var examples = []string{
	"Can I recycle pizza boxes?",
	"Posso reciclar papel picado?",
	"¿Qué plásticos puedo reciclar?",
}

var demoExamples = []string{
	"Can I recycle pizza boxes?",
	"What types of plastic can I recycle?",
	"Can I recycle paper?",
}

type pageData struct {
	Tab        string
	Demo       bool
	Examples   []string
	Input      string
	Transcript template.HTML
}

type askRequest struct {
	Message string `json:"message"`
}

type askResponse struct {
	Outcome  string         `json:"outcome"`
	Reply    string         `json:"reply"`
	Messages []chat.Message `json:"messages"`
}

type historyResponse struct {
	SessionID string         `json:"session_id"`
	Messages  []chat.Message `json:"messages"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// session resolves the caller's conversation. Unknown or missing cookies get a
// new session and a new cookie.
func (s *Server) session(c *gin.Context) *chat.Session {
	id, _ := c.Cookie(s.cfg.CookieName)
	sess, created := s.registry.GetOrCreate(id)
	if created {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.cfg.CookieName, sess.ID, 0, "/", "", false, true)
	}
	return sess
}

func (s *Server) page(tab string, sess *chat.Session) pageData {
	data := pageData{Tab: tab, Demo: s.demo, Examples: examples}
	if s.demo {
		data.Examples = demoExamples
	}
	if sess != nil {
		data.Transcript = sess.Transcript()
	}
	return data
}

func (s *Server) getChat(c *gin.Context) {
	c.HTML(http.StatusOK, "chat", s.page("chat", s.session(c)))
}

// postAsk redirects to the chat page once a turn is recorded so a refresh does
// not resubmit. Ignored input is rendered back into the field untouched.
func (s *Server) postAsk(c *gin.Context) {
	sess := s.session(c)
	input := c.PostForm("user_message")
	out := sess.Submit(c.Request.Context(), input)
	if out.Accepted() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	data := s.page("chat", sess)
	data.Input = input
	c.HTML(http.StatusOK, "chat", data)
}

func (s *Server) getFAQ(c *gin.Context) {
	c.HTML(http.StatusOK, "faq", s.page("faq", nil))
}

func (s *Server) getHistory(c *gin.Context) {
	sess := s.session(c)
	c.JSON(http.StatusOK, historyResponse{SessionID: sess.ID, Messages: sess.History()})
}

func (s *Server) postAskJSON(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body", RequestID: RequestIDFromContext(c)})
		return
	}
	sess := s.session(c)
	out := sess.Submit(c.Request.Context(), req.Message)
	c.JSON(http.StatusOK, askResponse{
		Outcome:  out.Kind.String(),
		Reply:    out.Reply,
		Messages: sess.History(),
	})
}
