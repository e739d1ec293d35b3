package state

import (
	"errors"
	"fmt"
	"strings"
)

// ConversationState is the shared state threaded through every step of the
// conversation graph. A single writer owns it for the duration of one request.
type ConversationState struct {
	Messages  []Message `json:"messages"`
	TurnCount int       `json:"turn_count"`

	// Identity
	Channel        Channel `json:"channel"`
	UserID         string  `json:"user_id,omitempty"`
	SessionID      string  `json:"session_id,omitempty"`
	ConversationID string  `json:"conversation_id,omitempty"`

	// Classification
	Intent    string `json:"intent,omitempty"`
	SubIntent string `json:"sub_intent,omitempty"`
	Category  string `json:"category,omitempty"`

	// Commerce context
	Cart             []CartItem           `json:"cart,omitempty"`
	CartID           string               `json:"cart_id,omitempty"`
	InventoryContext *InventoryContext    `json:"inventory_context,omitempty"`
	PaymentStatus    string               `json:"payment_status,omitempty"`
	PaymentIntentID  string               `json:"payment_intent_id,omitempty"`
	OrderID          string               `json:"order_id,omitempty"`
	Loyalty          *LoyaltyContext      `json:"loyalty,omitempty"`
	PostPurchase     *PostPurchaseContext `json:"post_purchase,omitempty"`

	// Routing
	ActiveWorker string `json:"active_worker,omitempty"`
	Next         string `json:"next,omitempty"`
}

type Channel string

const (
	ChannelChat  Channel = "chat"
	ChannelVoice Channel = "voice"
)

// ParseChannel maps an inbound channel value to a Channel. Empty means chat.
func ParseChannel(v string) (Channel, error) {
	switch Channel(strings.ToLower(strings.TrimSpace(v))) {
	case "", ChannelChat:
		return ChannelChat, nil
	case ChannelVoice:
		return ChannelVoice, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, v)
	}
}

type CartItem struct {
	SKU       string  `json:"sku"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type InventoryContext struct {
	Availability    map[string]any `json:"availability,omitempty"`
	DeliveryOptions []any          `json:"delivery_options,omitempty"`
}

type LoyaltyContext struct {
	Points           *float64 `json:"points,omitempty"`
	Tier             string   `json:"tier,omitempty"`
	ApplicableOffers []any    `json:"applicable_offers,omitempty"`
}

type PostPurchaseContext struct {
	ReturnEligibility bool `json:"return_eligibility"`
	RepairInfo        any  `json:"repair_info,omitempty"`
	TrackingInfo      any  `json:"tracking_info,omitempty"`
}

/* -------------------------- ConversationState helpers ------------------------- */

var (
	ErrNilState       = errors.New("conversation state is nil")
	ErrInvalidChannel = errors.New("invalid channel")
	ErrNegativeTurn   = errors.New("turn count is negative")
)

// New returns an empty state for the given channel.
func New(channel Channel) *ConversationState {
	if channel == "" {
		channel = ChannelChat
	}
	return &ConversationState{
		Channel:      channel,
		Messages:     make([]Message, 0, 8),
		ActiveWorker: "orchestrator",
	}
}

// CartTotal sums price*quantity over the cart lines held in state.
func (s *ConversationState) CartTotal() float64 {
	if s == nil {
		return 0
	}
	var total float64
	for _, it := range s.Cart {
		total += it.Price * float64(it.Quantity)
	}
	return total
}

// Clone returns a copy that shares no slices with s. Context records are
// copied shallowly; they are replaced wholesale and never mutated in place.
func (s *ConversationState) Clone() *ConversationState {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = append([]Message(nil), s.Messages...)
	if s.Cart != nil {
		out.Cart = append([]CartItem(nil), s.Cart...)
	}
	return &out
}

func (s *ConversationState) Validate() error {
	if s == nil {
		return ErrNilState
	}
	if s.TurnCount < 0 {
		return ErrNegativeTurn
	}
	if _, err := ParseChannel(string(s.Channel)); err != nil {
		return err
	}
	for i, m := range s.Messages {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: message %d has role %q", ErrInvalidRole, i, m.Role)
		}
	}
	return nil
}
