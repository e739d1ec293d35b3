package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	toolx "github.com/tanpawarit/Chative-Retail-Assistant/agent/tool"
	"github.com/tanpawarit/Chative-Retail-Assistant/commerce"
	obsx "github.com/tanpawarit/Chative-Retail-Assistant/pkg/observability"
	"go.opentelemetry.io/otel/attribute"
)

type handler func(ctx context.Context, args map[string]any) (any, error)

// Local dispatches tool calls to the commerce service in process.
type Local struct {
	catalog  *toolx.Catalog
	handlers map[contractx.ToolName]handler
}

func NewLocal(svc *commerce.Service, catalog *toolx.Catalog) (*Local, error) {
	if svc == nil {
		return nil, errors.New("commerce service is required")
	}
	if catalog == nil {
		return nil, errors.New("tool catalog is required")
	}
	return &Local{
		catalog: catalog,
		handlers: map[contractx.ToolName]handler{
			contractx.ToolQueryProducts:       bind(svc.QueryProducts),
			contractx.ToolGetInventory:        bind(svc.GetInventory),
			contractx.ToolCreatePaymentIntent: bind(svc.CreatePaymentIntent),
			contractx.ToolCreateOrder:         bind(svc.CreateOrder),
			contractx.ToolGetLoyaltySummary:   bind(svc.GetLoyaltySummary),
			contractx.ToolApplyOffer:          bind(svc.ApplyOffer),
			contractx.ToolGetOrderStatus:      bind(svc.GetOrderStatus),
		},
	}, nil
}

func (l *Local) Catalog() *toolx.Catalog {
	return l.catalog
}

func (l *Local) Call(ctx context.Context, name contractx.ToolName, args map[string]any) (out json.RawMessage, err error) {
	started := time.Now()
	ctx, span := obsx.StartSpan(ctx, "tool.call", attribute.String("tool", string(name)))
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		obsx.RecordToolCall(string(name), status, int(time.Since(started).Milliseconds()))
		obsx.EndSpan(span, err)
	}()

	h, ok := l.handlers[name]
	if !ok {
		return nil, &contractx.ToolError{Tool: name, Message: fmt.Sprintf("Unknown tool: %s", name), Err: contractx.ErrUnknownTool}
	}
	if err := l.catalog.Validate(name, args); err != nil {
		return nil, err
	}

	result, err := h(ctx, args)
	if err != nil {
		log.Warn().Err(err).Str("tool", string(name)).Msg("tool call failed")
		return nil, &contractx.ToolError{Tool: name, Message: err.Error(), Err: err}
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, &contractx.ToolError{Tool: name, Message: "encode result", Err: err}
	}
	log.Debug().Str("tool", string(name)).Int("bytes", len(raw)).Msg("tool call completed")
	return raw, nil
}

func bind[In any, Out any](fn func(context.Context, In) (Out, error)) handler {
	return func(ctx context.Context, args map[string]any) (any, error) {
		in, err := toolx.Decode[In](args)
		if err != nil {
			return nil, err
		}
		return fn(ctx, in)
	}
}
