package chatnode

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
	"github.com/tanpawarit/Chative-Retail-Assistant/conversation"
)

// HydrateState rebuilds the graph input from the persisted log and the
// domain snapshot, refreshes the cart from the commerce store, then appends
// the new user message. Turn count always starts at zero.
func HydrateState(
	ctx context.Context,
	in *TurnState,
	history conversation.Store,
	snapshots statex.Store,
	carts CartSource,
	categories statex.Categories,
) (*TurnState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, ErrNoConversation)
	}
	conv := in.Conversation

	st := statex.New(in.Channel)
	st.ConversationID = conv.ID
	st.SessionID = conv.SessionID
	st.UserID = in.Input.UserID
	if st.UserID == "" {
		st.UserID = conv.UserID
	}

	if !in.Created {
		rows, err := history.Messages(ctx, conv.ID)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			st.Messages = append(st.Messages, statex.NormalizeMessage(row.Role, row.Content))
		}

		snap, err := snapshots.Load(ctx, conv.ID)
		switch {
		case err == nil:
			snap.Restore(st, categories)
		case errors.Is(err, statex.ErrSnapshotNotFound):
		default:
			log.Warn().Err(err).Str("conversation_id", conv.ID).Msg("snapshot load failed, continuing without it")
		}
	}

	refreshCart(ctx, st, carts)

	st.Messages = append(st.Messages, statex.NormalizeMessage(string(statex.RoleUser), in.Input.Message))
	st.TurnCount = 0
	st.Next = ""

	if err := st.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	in.State = st
	return in, nil
}

// refreshCart replaces the snapshot cart with the user's active cart. A
// completed cart is dropped so payment never reuses it. Lookup failures keep
// whatever the snapshot held.
func refreshCart(ctx context.Context, st *statex.ConversationState, carts CartSource) {
	if carts == nil || st.UserID == "" {
		return
	}
	cartID, items, err := carts.ActiveCart(ctx, st.UserID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", st.UserID).Msg("active cart lookup failed, keeping snapshot cart")
		return
	}
	st.CartID = cartID
	st.Cart = items
}
