// Package carttransform decides the cart mutations for the widget promotion.
//
// The host commerce platform calls Transform on every cart change, possibly
// speculatively, so Transform is a pure function of its input: no logging,
// no I/O, no retained state, and it never fails for a well-formed cart.
//
// Rules:
//  1. Every widget line (tag "_added_via_widget" == "true") gets its unit
//     price overridden to 80% of cost, rounded half-up to two decimals.
//  2. When widget lines hold at least two units in total, the first widget
//     line in cart order is expanded into itself (at the discounted price)
//     plus one unit of the configured gift at 0.00. Skipped when that line
//     has no variant reference.
//
// Output order: price overrides in cart line order, then the expansion.
package carttransform

import (
	"errors"

	"github.com/shopspring/decimal"

	"cartpromo/internal/model"
)

const (
	// DefaultWidgetAttribute marks lines added through the promotional widget.
	DefaultWidgetAttribute = "_added_via_widget"

	// DefaultDiscountTitle is the line title shown on discounted lines.
	DefaultDiscountTitle = "Widget Snowboard (20% off)"

	// GiftThreshold is the summed widget quantity that unlocks the gift.
	GiftThreshold = 2

	widgetTagValue = "true"
	pricePlaces    = 2
)

// discountFactor is the share of cost the customer pays on widget lines.
var discountFactor = decimal.New(8, -1)

// Config configures an Engine. GiftMerchandiseID is required.
type Config struct {
	GiftMerchandiseID string
	WidgetAttribute   string
	DiscountTitle     string
}

// Engine applies the promotion rules. Safe for concurrent use.
type Engine struct {
	cfg Config
}

// New validates cfg and fills defaults.
func New(cfg Config) (*Engine, error) {
	if cfg.GiftMerchandiseID == "" {
		return nil, errors.New("gift merchandise id is required")
	}
	if cfg.WidgetAttribute == "" {
		cfg.WidgetAttribute = DefaultWidgetAttribute
	}
	if cfg.DiscountTitle == "" {
		cfg.DiscountTitle = DefaultDiscountTitle
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the effective configuration (defaults applied).
func (e *Engine) Config() Config {
	return e.cfg
}

// Result is the ordered list of operations for one invocation.
// An empty result is the canonical "no changes" answer; Operations is never nil.
type Result struct {
	Operations []model.LineOperation
}

// IsEmpty returns true if no cart changes are needed.
func (r Result) IsEmpty() bool {
	return len(r.Operations) == 0
}

// NoChanges returns the canonical empty result.
func NoChanges() Result {
	return Result{Operations: []model.LineOperation{}}
}

// Transform computes the operations for cart. The cart is not modified.
func (e *Engine) Transform(cart model.CartSnapshot) Result {
	var ops []model.LineOperation
	var target *model.CartLine
	qualifying := 0

	for i := range cart.Lines {
		line := &cart.Lines[i]
		if !e.qualifies(line) {
			continue
		}
		ops = append(ops, model.PriceOverride{
			LineID:    line.ID,
			Title:     e.cfg.DiscountTitle,
			UnitPrice: DiscountedPrice(line.UnitCost),
		})
		qualifying += line.Quantity
		if target == nil {
			target = line
		}
	}

	if qualifying >= GiftThreshold && target.HasMerchandise() {
		ops = append(ops, e.expand(target))
	}

	if len(ops) == 0 {
		return NoChanges()
	}
	return Result{Operations: ops}
}

// qualifies reports whether line was added through the widget.
func (e *Engine) qualifies(line *model.CartLine) bool {
	return line.Tag(e.cfg.WidgetAttribute) == widgetTagValue
}

// expand bundles the gift into target. The target keeps its own quantity at
// the discounted price; the expansion is authoritative for that line even
// though Rule 1 also emitted an override for it.
func (e *Engine) expand(target *model.CartLine) model.LineExpansion {
	return model.LineExpansion{
		LineID: target.ID,
		Items: []model.ExpandedItem{
			{
				MerchandiseID: target.MerchandiseID,
				Quantity:      target.Quantity,
				UnitPrice:     DiscountedPrice(target.UnitCost),
			},
			{
				MerchandiseID: e.cfg.GiftMerchandiseID,
				Quantity:      1,
				UnitPrice:     model.ZeroMoney(target.UnitCost.CurrencyCode),
			},
		},
	}
}

// DiscountedPrice returns round(cost * 0.8, 2), rounding halves away from
// zero. Zero and negative costs pass through the same arithmetic.
func DiscountedPrice(cost model.Money) model.Money {
	return cost.Mul(discountFactor).Round(pricePlaces)
}
