package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, opts ...StoreOption) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store, err := NewRedisStore(rdb, opts...)
	if err != nil {
		t.Fatalf("NewRedisStore() error = %v", err)
	}
	return store, mr
}

func TestNewRedisStoreRequiresClient(t *testing.T) {
	t.Parallel()

	if _, err := NewRedisStore(nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestRedisStoreRoundTrip(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	st := New(ChannelVoice)
	st.ConversationID = "conv-1"
	st.UserID = "user-1"
	st.Category = "fashion"
	st.CartID = "cart-1"
	st.Cart = []CartItem{{SKU: "SKU-1", Quantity: 2, Price: 40}}
	st.PaymentStatus = "requires_payment_method"
	st.ActiveWorker = "payment"

	if err := store.Save(ctx, SnapshotOf(st, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if !mr.Exists("assistant:conversation:conv-1:snapshot") {
		t.Fatalf("snapshot key not written, keys = %v", mr.Keys())
	}

	snap, err := store.Load(ctx, "conv-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Channel != ChannelVoice || snap.Category != "fashion" || snap.CartID != "cart-1" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if len(snap.Cart) != 1 || snap.Cart[0].SKU != "SKU-1" || snap.Cart[0].Quantity != 2 {
		t.Fatalf("unexpected cart: %#v", snap.Cart)
	}
	if snap.ActiveWorker != "payment" || snap.Version != 1 {
		t.Fatalf("unexpected routing fields: %+v", snap)
	}
}

func TestRedisStoreAppliesTTL(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t, WithTTL(time.Hour), WithKeyPrefix("test:"))
	ctx := context.Background()

	if err := store.Save(ctx, &Snapshot{ConversationID: "conv-ttl"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	key := "test:conv-ttl:snapshot"
	if got := mr.TTL(key); got != time.Hour {
		t.Fatalf("TTL(%s) = %v, want 1h", key, got)
	}

	mr.FastForward(2 * time.Hour)
	if _, err := store.Load(ctx, "conv-ttl"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("Load() after expiry error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestRedisStoreDefaultTTL(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	if err := store.Save(context.Background(), &Snapshot{ConversationID: "conv-default"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if got := mr.TTL("assistant:conversation:conv-default:snapshot"); got != defaultStoreTTL {
		t.Fatalf("TTL = %v, want %v", got, defaultStoreTTL)
	}
}

func TestRedisStoreMissingAndDelete(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	if _, err := store.Load(ctx, "absent"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("Load(absent) error = %v, want ErrSnapshotNotFound", err)
	}

	if err := store.Save(ctx, &Snapshot{ConversationID: "conv-del"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Delete(ctx, "conv-del"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mr.Exists("assistant:conversation:conv-del:snapshot") {
		t.Fatal("snapshot key still present after Delete")
	}
	if _, err := store.Load(ctx, "conv-del"); !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("Load() after Delete error = %v, want ErrSnapshotNotFound", err)
	}
}

func TestRedisStoreRejectsBadInput(t *testing.T) {
	t.Parallel()

	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, nil); !errors.Is(err, ErrNilSnapshot) {
		t.Fatalf("Save(nil) error = %v, want ErrNilSnapshot", err)
	}
	if _, err := store.Load(ctx, "  "); !errors.Is(err, ErrInvalidConversation) {
		t.Fatalf("Load(blank) error = %v, want ErrInvalidConversation", err)
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	t.Parallel()

	store, mr := newTestRedisStore(t)
	mr.Close()

	if err := store.Save(context.Background(), &Snapshot{ConversationID: "conv-down"}); err == nil {
		t.Fatal("expected error when redis is down")
	}
}
