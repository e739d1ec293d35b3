package state

// Delta is the partial update an agent returns after one turn. A nil field is
// "undefined" and leaves the running state untouched.
type Delta struct {
	Messages  []Message
	TurnCount *int

	Channel        *Channel
	UserID         *string
	SessionID      *string
	ConversationID *string

	Intent    *string
	SubIntent *string
	Category  *string

	Cart             []CartItem
	CartID           *string
	InventoryContext *InventoryContext
	PaymentStatus    *string
	PaymentIntentID  *string
	OrderID          *string
	Loyalty          *LoyaltyContext
	PostPurchase     *PostPurchaseContext

	ActiveWorker *string
	Next         *string
}

// Strategy is how a field of a Delta is folded into ConversationState.
type Strategy string

const (
	// OverwriteIfDefined replaces the prior value only when the new one is defined.
	OverwriteIfDefined Strategy = "overwrite_if_defined"
	// Concatenate appends the new sequence to the prior one.
	Concatenate Strategy = "concatenate"
	// Max keeps the larger of the two values.
	Max Strategy = "max"
	// Replace swaps a sequence or record wholesale when the new one is defined.
	Replace Strategy = "replace"
)

// FieldRule binds one state field to its merge strategy.
type FieldRule struct {
	Field    string
	Strategy Strategy
	apply    func(dst *ConversationState, d *Delta)
}

// mergeTable is the single source of truth for reducer semantics. Adding a
// state field means adding a row here; nothing else needs to change.
var mergeTable = []FieldRule{
	concatenate("messages", func(d *Delta) []Message { return d.Messages }, func(s *ConversationState) *[]Message { return &s.Messages }),
	maximum("turn_count", func(d *Delta) *int { return d.TurnCount }, func(s *ConversationState) *int { return &s.TurnCount }),

	overwrite("channel", func(d *Delta) *Channel { return d.Channel }, func(s *ConversationState) *Channel { return &s.Channel }),
	overwrite("user_id", func(d *Delta) *string { return d.UserID }, func(s *ConversationState) *string { return &s.UserID }),
	overwrite("session_id", func(d *Delta) *string { return d.SessionID }, func(s *ConversationState) *string { return &s.SessionID }),
	overwrite("conversation_id", func(d *Delta) *string { return d.ConversationID }, func(s *ConversationState) *string { return &s.ConversationID }),

	overwrite("intent", func(d *Delta) *string { return d.Intent }, func(s *ConversationState) *string { return &s.Intent }),
	overwrite("sub_intent", func(d *Delta) *string { return d.SubIntent }, func(s *ConversationState) *string { return &s.SubIntent }),
	overwrite("category", func(d *Delta) *string { return d.Category }, func(s *ConversationState) *string { return &s.Category }),

	replaceSlice("cart", func(d *Delta) []CartItem { return d.Cart }, func(s *ConversationState) *[]CartItem { return &s.Cart }),
	overwrite("cart_id", func(d *Delta) *string { return d.CartID }, func(s *ConversationState) *string { return &s.CartID }),
	replaceRecord("inventory_context", func(d *Delta) *InventoryContext { return d.InventoryContext }, func(s *ConversationState) **InventoryContext { return &s.InventoryContext }),
	overwrite("payment_status", func(d *Delta) *string { return d.PaymentStatus }, func(s *ConversationState) *string { return &s.PaymentStatus }),
	overwrite("payment_intent_id", func(d *Delta) *string { return d.PaymentIntentID }, func(s *ConversationState) *string { return &s.PaymentIntentID }),
	overwrite("order_id", func(d *Delta) *string { return d.OrderID }, func(s *ConversationState) *string { return &s.OrderID }),
	replaceRecord("loyalty", func(d *Delta) *LoyaltyContext { return d.Loyalty }, func(s *ConversationState) **LoyaltyContext { return &s.Loyalty }),
	replaceRecord("post_purchase", func(d *Delta) *PostPurchaseContext { return d.PostPurchase }, func(s *ConversationState) **PostPurchaseContext { return &s.PostPurchase }),

	overwrite("active_worker", func(d *Delta) *string { return d.ActiveWorker }, func(s *ConversationState) *string { return &s.ActiveWorker }),
	overwrite("next", func(d *Delta) *string { return d.Next }, func(s *ConversationState) *string { return &s.Next }),
}

// Merge folds d into dst field by field, following the merge table.
func Merge(dst *ConversationState, d Delta) {
	if dst == nil {
		return
	}
	for _, rule := range mergeTable {
		rule.apply(dst, &d)
	}
}

// Rules exposes the merge table for inspection.
func Rules() []FieldRule {
	return append([]FieldRule(nil), mergeTable...)
}

func overwrite[T any](field string, get func(*Delta) *T, set func(*ConversationState) *T) FieldRule {
	return FieldRule{
		Field:    field,
		Strategy: OverwriteIfDefined,
		apply: func(dst *ConversationState, d *Delta) {
			if v := get(d); v != nil {
				*set(dst) = *v
			}
		},
	}
}

func concatenate[T any](field string, get func(*Delta) []T, set func(*ConversationState) *[]T) FieldRule {
	return FieldRule{
		Field:    field,
		Strategy: Concatenate,
		apply: func(dst *ConversationState, d *Delta) {
			if v := get(d); len(v) > 0 {
				target := set(dst)
				*target = append(*target, v...)
			}
		},
	}
}

func maximum(field string, get func(*Delta) *int, set func(*ConversationState) *int) FieldRule {
	return FieldRule{
		Field:    field,
		Strategy: Max,
		apply: func(dst *ConversationState, d *Delta) {
			if v := get(d); v != nil && *v > *set(dst) {
				*set(dst) = *v
			}
		},
	}
}

func replaceSlice[T any](field string, get func(*Delta) []T, set func(*ConversationState) *[]T) FieldRule {
	return FieldRule{
		Field:    field,
		Strategy: Replace,
		apply: func(dst *ConversationState, d *Delta) {
			if v := get(d); v != nil {
				*set(dst) = append([]T(nil), v...)
			}
		},
	}
}

func replaceRecord[T any](field string, get func(*Delta) *T, set func(*ConversationState) **T) FieldRule {
	return FieldRule{
		Field:    field,
		Strategy: Replace,
		apply: func(dst *ConversationState, d *Delta) {
			if v := get(d); v != nil {
				*set(dst) = v
			}
		},
	}
}

// Ptr returns a pointer to v. Deltas use it for defined scalar fields.
func Ptr[T any](v T) *T {
	return &v
}
