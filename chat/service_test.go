package chat

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	graphx "github.com/tanpawarit/Chative-Retail-Assistant/agent/graph"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
	"github.com/tanpawarit/Chative-Retail-Assistant/conversation"
)

type fakeRouter struct {
	mu     sync.Mutex
	inputs []*statex.ConversationState
	reply  string
	err    error
}

func (f *fakeRouter) Invoke(ctx context.Context, st *statex.ConversationState, opts ...graphx.InvokeOption) (*statex.ConversationState, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, st.Clone())
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := st.Clone()
	out.Messages = append(out.Messages, statex.AssistantMessage(f.reply))
	out.Intent = "browse"
	out.Category = "fashion"
	out.ActiveWorker = "recommendation"
	out.Next = contractx.RouteEnd
	out.TurnCount = 3
	return out, nil
}

func newTestService(t *testing.T, router *fakeRouter) (*Service, *conversation.MemoryStore) {
	t.Helper()
	store := conversation.NewMemoryStore()
	svc, err := New(context.Background(), Deps{
		Router:        router,
		Conversations: store,
		Categories:    statex.NewCategories("fashion"),
	})
	require.NoError(t, err)
	return svc, store
}

func TestHandlePersistsAndReusesSession(t *testing.T) {
	t.Parallel()

	router := &fakeRouter{reply: "Here are some jackets."}
	svc, _ := newTestService(t, router)
	ctx := context.Background()

	first, err := svc.Handle(ctx, Request{Message: "show me jackets", SessionID: "web-1"})
	require.NoError(t, err)
	assert.Equal(t, "Here are some jackets.", first.Response)
	assert.Equal(t, "web-1", first.SessionID)
	assert.Equal(t, "fashion", first.State.Category)
	assert.Equal(t, "recommendation", first.State.ActiveWorker)

	second, err := svc.Handle(ctx, Request{Message: "in red?", SessionID: "web-1"})
	require.NoError(t, err)
	assert.Equal(t, first.ConversationID, second.ConversationID)

	require.Len(t, router.inputs, 2)
	in := router.inputs[1]
	require.Len(t, in.Messages, 3, "history plus the new message")
	assert.Equal(t, "show me jackets", in.Messages[0].Content)
	assert.Equal(t, statex.RoleAssistant, in.Messages[1].Role)
	assert.Equal(t, "in red?", in.Messages[2].Content)
	assert.Equal(t, 0, in.TurnCount)
	assert.Equal(t, "browse", in.Intent, "snapshot restored")

	history, err := svc.History(ctx, first.ConversationID)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestHandleNewConversationGetsSession(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t, &fakeRouter{reply: "hi"})
	out, err := svc.Handle(context.Background(), Request{Message: "hello"})
	require.NoError(t, err)
	assert.NotEmpty(t, out.ConversationID)
	assert.NotEmpty(t, out.SessionID)
}

func TestHandleRejectsBadRequests(t *testing.T) {
	t.Parallel()

	router := &fakeRouter{reply: "unused"}
	svc, _ := newTestService(t, router)

	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"blocked", Request{Message: "my credit card is 4111"}, contractx.ErrContentBlocked},
		{"bad user id", Request{Message: "hi", UserID: "not-a-uuid"}, contractx.ErrValidation},
		{"empty", Request{Message: "  "}, contractx.ErrValidation},
		{"bad channel", Request{Message: "hi", Channel: "sms"}, contractx.ErrValidation},
	}
	for _, tc := range cases {
		_, err := svc.Handle(context.Background(), tc.req)
		require.Error(t, err, tc.name)
		assert.True(t, errors.Is(err, tc.want), "%s: got %v", tc.name, err)

		var fe *FriendlyError
		require.True(t, errors.As(err, &fe), tc.name)
		assert.Equal(t, http.StatusBadRequest, fe.Status, tc.name)
	}
	assert.Empty(t, router.inputs, "rejected requests must not reach the graph")
}

func TestHandleMapsGraphFailures(t *testing.T) {
	t.Parallel()

	cases := []struct {
		err  error
		want string
	}{
		{contractx.ErrExecutionTimeout, MessageTimeout},
		{contractx.ErrRecursionLimit, MessageTooDeep},
		{errors.New("boom"), MessageInternal},
	}
	for _, tc := range cases {
		svc, _ := newTestService(t, &fakeRouter{err: tc.err})
		_, err := svc.Handle(context.Background(), Request{Message: "hi"})

		var fe *FriendlyError
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, tc.want, fe.Message)
		assert.Equal(t, http.StatusInternalServerError, fe.Status)
	}
}

func TestGuardrailsCheck(t *testing.T) {
	t.Parallel()

	g := NewGuardrails()
	blocked := []string{"Credit Card", "my SSN", "social  security", "PASSWORD reset", "pin number"}
	for _, msg := range blocked {
		assert.ErrorIs(t, g.Check(Request{Message: msg}), contractx.ErrContentBlocked, msg)
	}

	long := make([]rune, MaxMessageRunes+1)
	for i := range long {
		long[i] = 'é'
	}
	assert.ErrorIs(t, g.Check(Request{Message: string(long)}), contractx.ErrValidation)
	assert.NoError(t, g.Check(Request{Message: string(long[:MaxMessageRunes])}))
	assert.NoError(t, g.Check(Request{Message: "hi", UserID: "3f6c1f0a-7a77-4a8e-9d7c-1e2f3a4b5c6d"}))
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	t.Parallel()

	k := NewKeyedMutex()
	ctx := context.Background()

	unlock, err := k.Lock(ctx, "a")
	require.NoError(t, err)

	// A different key is independent.
	other, err := k.Lock(ctx, "b")
	require.NoError(t, err)
	other()

	acquired := make(chan struct{})
	go func() {
		u, err := k.Lock(ctx, "a")
		if err == nil {
			close(acquired)
			u()
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second holder acquired a held key")
	case <-time.After(30 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second holder never acquired the key")
	}
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	t.Parallel()

	k := NewKeyedMutex()
	unlock, err := k.Lock(context.Background(), "a")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewRedisLockerRequiresClient(t *testing.T) {
	t.Parallel()

	_, err := NewRedisLocker(nil, time.Second)
	assert.Error(t, err)
}

func TestConfigPolicy(t *testing.T) {
	t.Parallel()

	cfg := Config{
		AllowedCategories: "fashion, Electronics ,",
		ChatTimeout:       5 * time.Second,
		VoiceMaxSteps:     9,
	}
	p := cfg.Policy()
	assert.Equal(t, 5*time.Second, p.Chat.Timeout)
	assert.Equal(t, 25, p.Chat.MaxSteps)
	assert.Equal(t, 9, p.Voice.MaxSteps)
	assert.Equal(t, 500, p.Voice.MaxReplyChars)
	assert.Equal(t, []string{"fashion", "Electronics"}, cfg.Categories().Values())
}
