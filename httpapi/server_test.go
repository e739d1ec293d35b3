package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	chatx "github.com/tanpawarit/Chative-Retail-Assistant/chat"
	"github.com/tanpawarit/Chative-Retail-Assistant/conversation"
)

type fakeChat struct {
	last    chatx.Request
	reply   chatx.Reply
	err     error
	history []conversation.Message
}

func (f *fakeChat) Handle(ctx context.Context, req chatx.Request) (chatx.Reply, error) {
	f.last = req
	if f.err != nil {
		return chatx.Reply{}, f.err
	}
	return f.reply, nil
}

func (f *fakeChat) History(ctx context.Context, conversationID string) ([]conversation.Message, error) {
	return f.history, nil
}

func newTestServer(t *testing.T, chat *fakeChat) *httptest.Server {
	t.Helper()
	s, err := New(chat)
	require.NoError(t, err)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return ts
}

func TestPostChat(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{reply: chatx.Reply{Response: "hello", ConversationID: "c1", SessionID: "s1"}}
	chat.reply.State.Intent = "greeting"
	ts := newTestServer(t, chat)

	resp, err := http.Post(ts.URL+"/api/chat", "application/json", strings.NewReader(`{"message":"hi","session_id":"s1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "hello", body["response"])
	assert.Equal(t, "c1", body["conversation_id"])
	assert.Equal(t, "greeting", body["state"].(map[string]any)["intent"])
	assert.Equal(t, "hi", chat.last.Message)
}

func TestPostChatMapsErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err    error
		status int
		msg    string
	}{
		{fmt.Errorf("%w: message must be 1-2000 characters", contractx.ErrValidation), http.StatusBadRequest, "message must be 1-2000 characters"},
		{contractx.ErrExecutionTimeout, http.StatusInternalServerError, chatx.MessageTimeout},
		{contractx.ErrRecursionLimit, http.StatusInternalServerError, chatx.MessageTooDeep},
	}
	for _, tc := range cases {
		ts := newTestServer(t, &fakeChat{err: tc.err})
		resp, err := http.Post(ts.URL+"/api/chat", "application/json", strings.NewReader(`{"message":"hi"}`))
		require.NoError(t, err)

		var body errorReply
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		resp.Body.Close()
		assert.Equal(t, tc.status, resp.StatusCode)
		assert.Equal(t, tc.msg, body.Error)
	}
}

func TestServerErrorsHideInternals(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		err  error
		want string
	}{
		{
			path: "/api/voice/turn",
			err:  fmt.Errorf("[NodeRunError] %w: after 50ms\n------------------------\nnode path: [run_router]", contractx.ErrExecutionTimeout),
			want: chatx.MessageTimeout,
		},
		{
			path: "/api/chat",
			err:  errors.New("insert messages conversation=c1: dial tcp 10.0.0.3:5432: connection refused"),
			want: chatx.MessageInternal,
		},
	}
	for _, tc := range cases {
		ts := newTestServer(t, &fakeChat{err: tc.err})
		resp, err := http.Post(ts.URL+tc.path, "application/json", strings.NewReader(`{"message":"hi"}`))
		require.NoError(t, err)
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)

		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		var body errorReply
		require.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, tc.want, body.Error)
		assert.Empty(t, body.Message)
		for _, leak := range []string{"NodeRunError", "node path", "run_router", "10.0.0.3"} {
			assert.NotContains(t, string(raw), leak)
		}
	}
}

func TestPostChatRejectsBadJSON(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeChat{})
	resp, err := http.Post(ts.URL+"/api/chat", "application/json", strings.NewReader(`{"message":`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVoiceTurnForcesChannel(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{reply: chatx.Reply{Response: "bye now", ConversationID: "c1", Hangup: true}}
	ts := newTestServer(t, chat)

	resp, err := http.Post(ts.URL+"/api/voice/turn", "application/json", strings.NewReader(`{"message":"goodbye","channel":"chat"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body voiceReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "voice", chat.last.Channel)
	assert.True(t, body.Hangup)
	assert.Equal(t, "bye now", body.Response)
}

func TestHistory(t *testing.T) {
	t.Parallel()

	chat := &fakeChat{history: []conversation.Message{
		{ID: "m1", ConversationID: "c1", Role: "user", Content: "hi"},
		{ID: "m2", ConversationID: "c1", Role: "assistant", Content: "hello"},
	}}
	ts := newTestServer(t, chat)

	resp, err := http.Get(ts.URL + "/api/chat/history/c1")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body historyReply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "c1", body.ConversationID)
	require.Len(t, body.Messages, 2)
	assert.Equal(t, "assistant", body.Messages[1].Role)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t, &fakeChat{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/chat")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
