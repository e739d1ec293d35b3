package state

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidConversation = errors.New("conversation id is empty")

// Snapshot is the domain context of a conversation that outlives a request:
// everything in ConversationState except the message log and the per-request
// routing counters, which are rebuilt on every request.
type Snapshot struct {
	ConversationID string  `json:"conversation_id"`
	Channel        Channel `json:"channel"`
	UserID         string  `json:"user_id,omitempty"`
	SessionID      string  `json:"session_id,omitempty"`

	Intent    string `json:"intent,omitempty"`
	SubIntent string `json:"sub_intent,omitempty"`
	Category  string `json:"category,omitempty"`

	Cart             []CartItem           `json:"cart,omitempty"`
	CartID           string               `json:"cart_id,omitempty"`
	InventoryContext *InventoryContext    `json:"inventory_context,omitempty"`
	PaymentStatus    string               `json:"payment_status,omitempty"`
	PaymentIntentID  string               `json:"payment_intent_id,omitempty"`
	OrderID          string               `json:"order_id,omitempty"`
	Loyalty          *LoyaltyContext      `json:"loyalty,omitempty"`
	PostPurchase     *PostPurchaseContext `json:"post_purchase,omitempty"`

	ActiveWorker string `json:"active_worker,omitempty"`

	Version   int       `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SnapshotOf captures the persistent part of st.
func SnapshotOf(st *ConversationState, now time.Time) *Snapshot {
	if st == nil {
		return nil
	}
	return &Snapshot{
		ConversationID:   st.ConversationID,
		Channel:          st.Channel,
		UserID:           st.UserID,
		SessionID:        st.SessionID,
		Intent:           st.Intent,
		SubIntent:        st.SubIntent,
		Category:         st.Category,
		Cart:             append([]CartItem(nil), st.Cart...),
		CartID:           st.CartID,
		InventoryContext: st.InventoryContext,
		PaymentStatus:    st.PaymentStatus,
		PaymentIntentID:  st.PaymentIntentID,
		OrderID:          st.OrderID,
		Loyalty:          st.Loyalty,
		PostPurchase:     st.PostPurchase,
		ActiveWorker:     st.ActiveWorker,
		Version:          1,
		UpdatedAt:        now.UTC(),
	}
}

// Restore copies the snapshot into st. Identity fields already set on st
// (from the inbound request) win over the snapshot. A category that is no
// longer allowed is dropped.
func (s *Snapshot) Restore(st *ConversationState, allowed Categories) {
	if s == nil || st == nil {
		return
	}
	if st.UserID == "" {
		st.UserID = s.UserID
	}
	if st.SessionID == "" {
		st.SessionID = s.SessionID
	}
	if st.ConversationID == "" {
		st.ConversationID = s.ConversationID
	}
	st.Intent = s.Intent
	st.SubIntent = s.SubIntent
	if c, ok := allowed.Sanitize(s.Category); ok {
		st.Category = c
	}
	st.Cart = append([]CartItem(nil), s.Cart...)
	st.CartID = s.CartID
	st.InventoryContext = s.InventoryContext
	st.PaymentStatus = s.PaymentStatus
	st.PaymentIntentID = s.PaymentIntentID
	st.OrderID = s.OrderID
	st.Loyalty = s.Loyalty
	st.PostPurchase = s.PostPurchase
	if s.ActiveWorker != "" {
		st.ActiveWorker = s.ActiveWorker
	}
}

func (s *Snapshot) Validate() error {
	if s == nil {
		return ErrNilSnapshot
	}
	if strings.TrimSpace(s.ConversationID) == "" {
		return ErrInvalidConversation
	}
	if s.Channel != "" {
		if _, err := ParseChannel(string(s.Channel)); err != nil {
			return err
		}
	}
	return nil
}
