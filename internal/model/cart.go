package model

// CartLine is one line of the cart as the host platform sees it.
// The engine only reads it.
type CartLine struct {
	ID       string
	Quantity int
	UnitCost Money

	// MerchandiseID is empty when the line is not a product variant
	// (custom or non-variant merchandise). Line expansion needs it.
	MerchandiseID string

	// Tags holds line attributes by key, e.g. "_added_via_widget" → "true".
	Tags map[string]string
}

// HasMerchandise reports whether the line carries a variant reference.
func (l CartLine) HasMerchandise() bool {
	return l.MerchandiseID != ""
}

// Tag returns the attribute value for key, or "" when absent.
func (l CartLine) Tag(key string) string {
	if l.Tags == nil {
		return ""
	}
	return l.Tags[key]
}

// CartSnapshot is the full cart at invocation time, in host line order.
type CartSnapshot struct {
	Lines []CartLine
}

// LineOperation is a single cart mutation emitted by the transform engine.
// Concrete types: PriceOverride, LineExpansion.
type LineOperation interface {
	// CartLineID is the input line the operation applies to.
	CartLineID() string
	lineOperation()
}

// PriceOverride replaces the per-unit price of an existing line.
type PriceOverride struct {
	LineID    string
	Title     string
	UnitPrice Money
}

func (o PriceOverride) CartLineID() string { return o.LineID }
func (PriceOverride) lineOperation()       {}

// LineExpansion replaces one cart line with several resulting items.
type LineExpansion struct {
	LineID string
	Items  []ExpandedItem
}

func (o LineExpansion) CartLineID() string { return o.LineID }
func (LineExpansion) lineOperation()       {}

// ExpandedItem is one purchasable item produced by a LineExpansion.
type ExpandedItem struct {
	MerchandiseID string
	Quantity      int
	UnitPrice     Money
}
