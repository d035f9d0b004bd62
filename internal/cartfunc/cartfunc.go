// Package cartfunc translates between the host platform's cart transform
// documents and the engine's types.
//
// Input:  {"cart":{"lines":[{id, quantity, attribute{key,value}, cost{amountPerQuantity{amount,currencyCode}}, merchandise{__typename,id}}]}}
// Output: {"operations":[{"lineUpdate":{...}} | {"lineExpand":{...}}]}
//
// The engine owns the decisions; this package owns the marshaling.
package cartfunc

import (
	"encoding/json"
	"fmt"

	"cartpromo/internal/carttransform"
	"cartpromo/internal/model"
)

// variantTypename is the merchandise type that carries a usable variant id.
const variantTypename = "ProductVariant"

// Input is the host invocation document.
type Input struct {
	Cart InputCart `json:"cart"`
}

// InputCart holds the cart lines in host order.
type InputCart struct {
	Lines []InputLine `json:"lines"`
}

// InputLine is one cart line as the host sends it.
type InputLine struct {
	ID          string            `json:"id"`
	Quantity    int               `json:"quantity"`
	Attribute   *InputAttribute   `json:"attribute,omitempty"`
	Cost        InputCost         `json:"cost"`
	Merchandise *InputMerchandise `json:"merchandise,omitempty"`
}

// InputAttribute is the queried line attribute; Value is null when unset.
type InputAttribute struct {
	Key   string  `json:"key,omitempty"`
	Value *string `json:"value,omitempty"`
}

// InputCost carries the per-unit cost.
type InputCost struct {
	AmountPerQuantity InputAmount `json:"amountPerQuantity"`
}

// InputAmount is a decimal string amount with currency.
type InputAmount struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode,omitempty"`
}

// InputMerchandise identifies what the line sells.
type InputMerchandise struct {
	Typename string `json:"__typename"`
	ID       string `json:"id,omitempty"`
}

// Output is the document returned to the host.
type Output struct {
	Operations []Operation `json:"operations"`
}

// Operation holds exactly one of LineUpdate or LineExpand.
type Operation struct {
	LineUpdate *LineUpdate `json:"lineUpdate,omitempty"`
	LineExpand *LineExpand `json:"lineExpand,omitempty"`
}

// LineUpdate overrides a line's unit price.
type LineUpdate struct {
	CartLineID string `json:"cartLineId"`
	Title      string `json:"title,omitempty"`
	Price      Price  `json:"price"`
}

// LineExpand replaces a line with expanded items.
type LineExpand struct {
	CartLineID        string             `json:"cartLineId"`
	ExpandedCartItems []ExpandedCartItem `json:"expandedCartItems"`
}

// ExpandedCartItem is one item of a LineExpand.
type ExpandedCartItem struct {
	MerchandiseID string `json:"merchandiseId"`
	Quantity      int    `json:"quantity"`
	Price         Price  `json:"price"`
}

// Price wraps a fixed per-unit price adjustment.
type Price struct {
	Adjustment PriceAdjustment `json:"adjustment"`
}

// PriceAdjustment sets a fixed price per unit.
type PriceAdjustment struct {
	FixedPricePerUnit FixedAmount `json:"fixedPricePerUnit"`
}

// FixedAmount is a two-decimal amount string.
type FixedAmount struct {
	Amount string `json:"amount"`
}

// Codec converts host documents. AttributeKey names the widget attribute and
// is used when the host omits the key in the attribute object.
type Codec struct {
	AttributeKey string
}

// NewCodec returns a Codec for the given widget attribute key.
func NewCodec(attributeKey string) Codec {
	if attributeKey == "" {
		attributeKey = carttransform.DefaultWidgetAttribute
	}
	return Codec{AttributeKey: attributeKey}
}

// DecodeInput validates raw and converts it to a CartSnapshot.
func (c Codec) DecodeInput(raw []byte) (model.CartSnapshot, error) {
	if err := Validate(raw); err != nil {
		return model.CartSnapshot{}, err
	}

	var in Input
	if err := json.Unmarshal(raw, &in); err != nil {
		return model.CartSnapshot{}, model.NewValidationError("cart", "malformed JSON")
	}
	return c.Snapshot(in)
}

// Snapshot converts an already-decoded Input. Callers that did not go
// through DecodeInput get no schema validation, only amount parsing.
func (c Codec) Snapshot(in Input) (model.CartSnapshot, error) {
	lines := make([]model.CartLine, 0, len(in.Cart.Lines))
	for i, l := range in.Cart.Lines {
		cost, err := model.ParseMoney(l.Cost.AmountPerQuantity.Amount, l.Cost.AmountPerQuantity.CurrencyCode)
		if err != nil {
			return model.CartSnapshot{}, model.NewValidationError(
				fmt.Sprintf("cart.lines[%d].cost", i), err.Error())
		}

		line := model.CartLine{
			ID:       l.ID,
			Quantity: l.Quantity,
			UnitCost: cost,
		}
		if l.Merchandise != nil && l.Merchandise.Typename == variantTypename {
			line.MerchandiseID = l.Merchandise.ID
		}
		if l.Attribute != nil && l.Attribute.Value != nil {
			key := l.Attribute.Key
			if key == "" {
				key = c.AttributeKey
			}
			line.Tags = map[string]string{key: *l.Attribute.Value}
		}
		lines = append(lines, line)
	}
	return model.CartSnapshot{Lines: lines}, nil
}

// BuildOutput converts an engine result to the host document.
// An empty result yields {"operations":[]}.
func BuildOutput(res carttransform.Result) Output {
	out := Output{Operations: make([]Operation, 0, len(res.Operations))}
	for _, op := range res.Operations {
		switch o := op.(type) {
		case model.PriceOverride:
			out.Operations = append(out.Operations, Operation{LineUpdate: &LineUpdate{
				CartLineID: o.LineID,
				Title:      o.Title,
				Price:      fixedPrice(o.UnitPrice),
			}})
		case model.LineExpansion:
			items := make([]ExpandedCartItem, 0, len(o.Items))
			for _, it := range o.Items {
				items = append(items, ExpandedCartItem{
					MerchandiseID: it.MerchandiseID,
					Quantity:      it.Quantity,
					Price:         fixedPrice(it.UnitPrice),
				})
			}
			out.Operations = append(out.Operations, Operation{LineExpand: &LineExpand{
				CartLineID:        o.LineID,
				ExpandedCartItems: items,
			}})
		default:
			// Unknown variants would silently drop a cart change.
			panic(fmt.Sprintf("cartfunc: unsupported line operation %T", op))
		}
	}
	return out
}

// EncodeOutput marshals the host document. Output is byte-stable for equal results.
func EncodeOutput(res carttransform.Result) ([]byte, error) {
	return json.Marshal(BuildOutput(res))
}

func fixedPrice(m model.Money) Price {
	return Price{Adjustment: PriceAdjustment{FixedPricePerUnit: FixedAmount{Amount: m.String()}}}
}
