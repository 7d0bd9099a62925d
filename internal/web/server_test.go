package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recyclebot/internal/chat"
	"recyclebot/internal/classifier"
	"recyclebot/internal/config"
	"recyclebot/internal/demo"
	"recyclebot/internal/domain"
	"recyclebot/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingResponder struct{}

func (failingResponder) Answer(context.Context, string, *domain.Memory) (domain.Answer, error) {
	return domain.Answer{}, errors.New("upstream unavailable")
}

func newTestServer(t *testing.T, responder chat.Responder) *Server {
	t.Helper()
	reg, err := session.NewRegistry(10, func(id string) *chat.Session {
		return chat.NewSession(id, classifier.AllowAll{}, responder, zerolog.Nop())
	})
	require.NoError(t, err)
	srv, err := NewServer(config.ServerConfig{CookieName: "recyclebot_session"}, reg, zerolog.Nop(), true)
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "recyclebot_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func askForm(msg string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(url.Values{"user_message": {msg}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestHealthz(t *testing.T) {
	w := do(t, newTestServer(t, demo.NewResponder()), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := do(t, newTestServer(t, demo.NewResponder()), req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
}

func TestChatPageStartsSession(t *testing.T) {
	w := do(t, newTestServer(t, demo.NewResponder()), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Welcome to the Framingham Recycling Assistant!")
	assert.Contains(t, body, `name="user_message"`)
	assert.Contains(t, body, "<div></div>")

	c := sessionCookie(t, w)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
}

func TestAskFormAppendsTurn(t *testing.T) {
	srv := newTestServer(t, demo.NewResponder())
	w := do(t, srv, askForm("Can I recycle <b>pizza</b> boxes?"))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
	cookie := sessionCookie(t, w)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	w = do(t, srv, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Can I recycle &lt;b&gt;pizza&lt;/b&gt; boxes?")
	assert.Contains(t, body, "clean pizza boxes can be recycled")
	assert.Contains(t, body, `value=""`)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	req.AddCookie(cookie)
	w = do(t, srv, req)
	var hist historyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	assert.Equal(t, cookie.Value, hist.SessionID)
	require.Len(t, hist.Messages, 2)
	assert.Equal(t, domain.RoleUser, hist.Messages[0].Role)
	assert.Equal(t, domain.RoleAssistant, hist.Messages[1].Role)
}

func TestAskBlankIsNoOp(t *testing.T) {
	srv := newTestServer(t, demo.NewResponder())
	w := do(t, srv, askForm("   "))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `value="   "`)
	cookie := sessionCookie(t, w)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	req.AddCookie(cookie)
	var hist historyResponse
	require.NoError(t, json.Unmarshal(do(t, srv, req).Body.Bytes(), &hist))
	assert.Empty(t, hist.Messages)
}

func TestAskJSON(t *testing.T) {
	srv := newTestServer(t, demo.NewResponder())
	w := do(t, srv, jsonAsk(`{"message":"What plastic can I recycle?"}`, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp askResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "answered", resp.Outcome)
	assert.Contains(t, resp.Reply, "numbered 1, 2, and 5")
	assert.Len(t, resp.Messages, 2)

	cookie := sessionCookie(t, w)
	w = do(t, srv, jsonAsk(`{"message":"paper?"}`, cookie))
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 4)
}

func TestAskJSONFailureShowsApology(t *testing.T) {
	w := do(t, newTestServer(t, failingResponder{}), jsonAsk(`{"message":"glass?"}`, nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp askResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Outcome)
	assert.Equal(t, chat.ApologyMessage, resp.Reply)
	assert.NotContains(t, w.Body.String(), "upstream unavailable")
}

func TestAskJSONRejectsBadBody(t *testing.T) {
	w := do(t, newTestServer(t, demo.NewResponder()), jsonAsk(`{`, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownCookieGetsFreshSession(t *testing.T) {
	srv := newTestServer(t, demo.NewResponder())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	req.AddCookie(&http.Cookie{Name: "recyclebot_session", Value: "forged"})
	w := do(t, srv, req)

	var hist historyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	assert.NotEqual(t, "forged", hist.SessionID)
	assert.Equal(t, hist.SessionID, sessionCookie(t, w).Value)
}

func TestSessionsAreIsolated(t *testing.T) {
	srv := newTestServer(t, demo.NewResponder())
	first := sessionCookie(t, do(t, srv, askForm("pizza?")))

	w := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	var hist historyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &hist))
	assert.NotEqual(t, first.Value, hist.SessionID)
	assert.Empty(t, hist.Messages)
}

func TestFAQ(t *testing.T) {
	w := do(t, newTestServer(t, demo.NewResponder()), httptest.NewRequest(http.MethodGet, "/faq", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Framingham Recyclebot FAQ")
	assert.Contains(t, w.Body.String(), "predefined set of answers")
}

func jsonAsk(body string, cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ask", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}
