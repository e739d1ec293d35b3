package state

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParseChannel(t *testing.T) {
	t.Parallel()

	cases := map[string]Channel{"": ChannelChat, "chat": ChannelChat, " Voice ": ChannelVoice}
	for in, want := range cases {
		got, err := ParseChannel(in)
		if err != nil {
			t.Fatalf("ParseChannel(%q) error = %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseChannel(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := ParseChannel("sms"); !errors.Is(err, ErrInvalidChannel) {
		t.Fatalf("ParseChannel(sms) error = %v, want ErrInvalidChannel", err)
	}
}

func TestNormalizeMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		role string
		want Role
	}{
		{"assistant", RoleAssistant},
		{"AI", RoleAssistant},
		{"system", RoleSystem},
		{"human", RoleUser},
		{"tool", RoleUser},
	}
	for _, tc := range cases {
		got := NormalizeMessage(tc.role, "  text  ")
		if got.Role != tc.want {
			t.Fatalf("NormalizeMessage(%q).Role = %q, want %q", tc.role, got.Role, tc.want)
		}
		if got.Content != "text" {
			t.Fatalf("content not trimmed: %q", got.Content)
		}
	}
}

func TestLastUserMessageAndTail(t *testing.T) {
	t.Parallel()

	st := New(ChannelChat)
	st.Messages = []Message{
		UserMessage("one"),
		AssistantMessage("two"),
		UserMessage("three"),
		AssistantMessage("four"),
	}

	msg, ok := st.LastUserMessage()
	if !ok || msg.Content != "three" {
		t.Fatalf("LastUserMessage() = %#v, %v", msg, ok)
	}
	last, ok := st.LastMessage()
	if !ok || last.Role != RoleAssistant {
		t.Fatalf("LastMessage() = %#v, %v", last, ok)
	}

	tail := st.Tail(3)
	if len(tail) != 3 || tail[0].Content != "two" {
		t.Fatalf("Tail(3) = %#v", tail)
	}
	tail[0].Content = "changed"
	if st.Messages[1].Content != "two" {
		t.Fatal("Tail must return a copy")
	}
	if got := st.Tail(10); len(got) != 4 {
		t.Fatalf("Tail(10) len = %d, want 4", len(got))
	}
}

func TestValidateRejectsBadRole(t *testing.T) {
	t.Parallel()

	st := New(ChannelChat)
	st.Messages = []Message{{Role: "tool", Content: "x"}}
	if err := st.Validate(); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("Validate() error = %v, want ErrInvalidRole", err)
	}
}

func TestCategoriesSanitize(t *testing.T) {
	t.Parallel()

	cats := NewCategories("Fashion", "electronics", " ", "fashion")
	if got := cats.Values(); len(got) != 2 {
		t.Fatalf("Values() = %v", got)
	}
	got, ok := cats.Sanitize("FASHION")
	if !ok || got != "Fashion" {
		t.Fatalf("Sanitize(FASHION) = %q, %v", got, ok)
	}
	if cats.Allows("groceries") {
		t.Fatal("groceries must not be allowed")
	}
}

func TestSnapshotRestoreKeepsRequestIdentity(t *testing.T) {
	t.Parallel()

	src := New(ChannelChat)
	src.ConversationID = "conv-1"
	src.UserID = "old-user"
	src.Category = "fashion"
	src.OrderID = "order-1"
	src.Cart = []CartItem{{SKU: "A", Quantity: 2, Price: 5}}
	snap := SnapshotOf(src, time.Unix(0, 0))

	dst := New(ChannelVoice)
	dst.UserID = "new-user"
	snap.Restore(dst, NewCategories("electronics"))

	if dst.UserID != "new-user" {
		t.Fatalf("UserID = %q, want new-user", dst.UserID)
	}
	if dst.ConversationID != "conv-1" || dst.OrderID != "order-1" {
		t.Fatalf("snapshot fields not restored: %#v", dst)
	}
	if dst.Category != "" {
		t.Fatalf("disallowed category restored: %q", dst.Category)
	}
	if dst.CartTotal() != 10 {
		t.Fatalf("CartTotal() = %v, want 10", dst.CartTotal())
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryStore()

	if _, err := store.Load(ctx, "conv-1"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("Load() error = %v, want ErrSnapshotNotFound", err)
	}
	if err := store.Save(ctx, &Snapshot{ConversationID: "conv-1", PaymentStatus: "pending"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	snap, err := store.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.PaymentStatus != "pending" || snap.Version != 1 {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
	if err := store.Delete(ctx, "conv-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Load(ctx, "conv-1"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("Load() after delete error = %v", err)
	}
}
