package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/jsonschema-go/jsonschema"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
	"github.com/tanpawarit/Chative-Retail-Assistant/commerce"
)

// Spec describes one gateway operation: its wire name, description, and the
// argument schema derived from the commerce input struct.
type Spec struct {
	Name     contractx.ToolName
	Desc     string
	Schema   *jsonschema.Schema
	resolved *jsonschema.Resolved
}

// Catalog is the closed set of tool specs shared by every transport and agent.
type Catalog struct {
	specs map[contractx.ToolName]*Spec
	order []contractx.ToolName
}

func NewCatalog(categories statex.Categories) (*Catalog, error) {
	c := &Catalog{specs: make(map[contractx.ToolName]*Spec, 7)}

	queryProducts, err := schemaFor[commerce.QueryProductsInput]()
	if err != nil {
		return nil, err
	}
	if prop := queryProducts.Properties["category"]; prop != nil && !categories.Empty() {
		prop.Enum = make([]any, 0, len(categories.Values()))
		for _, v := range categories.Values() {
			prop.Enum = append(prop.Enum, v)
		}
	}

	getInventory, err := schemaFor[commerce.GetInventoryInput]()
	if err != nil {
		return nil, err
	}
	createPaymentIntent, err := schemaFor[commerce.CreatePaymentIntentInput]()
	if err != nil {
		return nil, err
	}
	createOrder, err := schemaFor[commerce.CreateOrderInput]()
	if err != nil {
		return nil, err
	}
	getLoyaltySummary, err := schemaFor[commerce.GetLoyaltySummaryInput]()
	if err != nil {
		return nil, err
	}
	applyOffer, err := schemaFor[commerce.ApplyOfferInput]()
	if err != nil {
		return nil, err
	}
	getOrderStatus, err := schemaFor[commerce.GetOrderStatusInput]()
	if err != nil {
		return nil, err
	}

	defs := []struct {
		name   contractx.ToolName
		desc   string
		schema *jsonschema.Schema
	}{
		{contractx.ToolQueryProducts, "Query products from the catalog. Supports filtering by category, price range, and a search query matched against name and description.", queryProducts},
		{contractx.ToolGetInventory, "Get inventory information for products by SKU, product_id, or location_id.", getInventory},
		{contractx.ToolCreatePaymentIntent, "Create a payment intent for a cart. Returns payment intent ID and client secret.", createPaymentIntent},
		{contractx.ToolCreateOrder, "Create an order from a cart. Automatically creates order items and updates cart status.", createOrder},
		{contractx.ToolGetLoyaltySummary, "Get loyalty account summary for a user, including points balance and tier.", getLoyaltySummary},
		{contractx.ToolApplyOffer, "Find and apply the best available offer to a cart based on cart value.", applyOffer},
		{contractx.ToolGetOrderStatus, "Get order status and fulfillment information including tracking details.", getOrderStatus},
	}
	for _, d := range defs {
		resolved, err := d.schema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("resolve schema for tool=%s: %w", d.name, err)
		}
		c.specs[d.name] = &Spec{Name: d.name, Desc: d.desc, Schema: d.schema, resolved: resolved}
		c.order = append(c.order, d.name)
	}
	return c, nil
}

func (c *Catalog) Spec(name contractx.ToolName) (*Spec, bool) {
	s, ok := c.specs[name]
	return s, ok
}

// Specs returns every tool in declaration order.
func (c *Catalog) Specs() []*Spec {
	out := make([]*Spec, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.specs[n])
	}
	return out
}

// Validate checks args against the tool's schema.
func (c *Catalog) Validate(name contractx.ToolName, args map[string]any) error {
	spec, ok := c.specs[name]
	if !ok {
		return &contractx.ToolError{Tool: name, Message: fmt.Sprintf("unknown tool %q", name), Err: contractx.ErrUnknownTool}
	}
	normalized, err := normalizeArgs(args)
	if err != nil {
		return &contractx.ToolError{Tool: name, Message: err.Error(), Err: contractx.ErrValidation}
	}
	if err := spec.resolved.Validate(normalized); err != nil {
		return &contractx.ToolError{Tool: name, Message: err.Error(), Err: contractx.ErrValidation}
	}
	return nil
}

// InfosFor builds the eino tool descriptions bound to an agent's model.
func (c *Catalog) InfosFor(names ...contractx.ToolName) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, n := range names {
		spec, ok := c.specs[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", contractx.ErrUnknownTool, n)
		}
		infos = append(infos, spec.ToolInfo())
	}
	return infos, nil
}

func (s *Spec) ToolInfo() *schema.ToolInfo {
	required := make(map[string]bool, len(s.Schema.Required))
	for _, r := range s.Schema.Required {
		required[r] = true
	}
	params := make(map[string]*schema.ParameterInfo, len(s.Schema.Properties))
	for name, prop := range s.Schema.Properties {
		p := &schema.ParameterInfo{
			Type:     dataType(prop),
			Desc:     prop.Description,
			Required: required[name],
		}
		for _, e := range prop.Enum {
			if v, ok := e.(string); ok {
				p.Enum = append(p.Enum, v)
			}
		}
		params[name] = p
	}
	return &schema.ToolInfo{
		Name:        string(s.Name),
		Desc:        s.Desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(params),
	}
}

// RawSchema is the JSON document advertised as the tool's input schema.
func (s *Spec) RawSchema() (json.RawMessage, error) {
	raw, err := json.Marshal(s.Schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema for tool=%s: %w", s.Name, err)
	}
	return raw, nil
}

// Decode converts validated args into the typed input of a tool.
func Decode[T any](args map[string]any) (T, error) {
	var out T
	raw, err := json.Marshal(args)
	if err != nil {
		return out, fmt.Errorf("%w: marshal tool args: %v", contractx.ErrValidation, err)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("%w: decode tool args: %v", contractx.ErrValidation, err)
	}
	return out, nil
}

// Executor runs one tool request and reports the outcome as data. Failures
// never escape as errors; they are carried in ToolResult.Error.
type Executor func(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult

// NewExecutor validates each request against the catalog and the allowed
// set, then forwards it to the gateway.
func (c *Catalog) NewExecutor(gw contractx.ToolGateway, allowed ...contractx.ToolName) Executor {
	permitted := make(map[contractx.ToolName]struct{}, len(allowed))
	for _, n := range allowed {
		permitted[n] = struct{}{}
	}
	return func(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
		res := contractx.ToolResult{Tool: req.Tool}
		if _, ok := permitted[req.Tool]; !ok {
			res.Error = (&contractx.ToolError{Tool: req.Tool, Message: "tool is not bound to this agent", Err: contractx.ErrToolNotAllowed}).Error()
			return res
		}
		if err := c.Validate(req.Tool, req.Args); err != nil {
			res.Error = err.Error()
			return res
		}
		if gw == nil {
			res.Error = "tool gateway is unavailable"
			return res
		}
		out, err := gw.Call(ctx, req.Tool, req.Args)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		if !json.Valid(out) {
			res.Error = "tool returned invalid JSON"
			return res
		}
		res.Result = out
		return res
	}
}

/* ---------------------------------- helpers --------------------------------- */

func schemaFor[T any]() (*jsonschema.Schema, error) {
	s, err := jsonschema.For[T](&jsonschema.ForOptions{})
	if err != nil {
		var zero T
		return nil, fmt.Errorf("derive schema for %T: %w", zero, err)
	}
	// Extra arguments from the model are ignored rather than rejected.
	s.AdditionalProperties = nil
	return s, nil
}

func normalizeArgs(args map[string]any) (map[string]any, error) {
	if args == nil {
		return map[string]any{}, nil
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func dataType(prop *jsonschema.Schema) schema.DataType {
	typ := prop.Type
	if typ == "" {
		for _, t := range prop.Types {
			if t != "null" && t != "" {
				typ = t
				break
			}
		}
	}
	switch strings.ToLower(typ) {
	case "integer":
		return schema.Integer
	case "number":
		return schema.Number
	case "boolean":
		return schema.Boolean
	case "array":
		return schema.Array
	case "object":
		return schema.Object
	default:
		return schema.String
	}
}

