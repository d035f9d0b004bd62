package model

import "time"

// SavedProduct is the locally persisted record of a product a merchant saved
// from the catalog. Created by the save action, then mutated only by
// inventory reconciliation.
type SavedProduct struct {
	ID                int64     `json:"id,omitempty"`
	Shop              string    `json:"shop"`
	ProductID         string    `json:"product_id"` // remote GID, e.g. gid://shopify/Product/1
	Title             string    `json:"title"`
	Handle            string    `json:"handle"`
	Image             string    `json:"image,omitempty"`
	AvailableQuantity int       `json:"available_quantity"`
	IsAvailable       bool      `json:"is_available"`
	CreatedAt         time.Time `json:"created_at"`
}

// ProductUpdate is an inventory-change notification for one product.
type ProductUpdate struct {
	Shop      string
	ProductID string
	Variants  []VariantInventory
}

// VariantInventory is the per-variant quantity carried by a notification.
// Quantity is nil when the platform omitted it.
type VariantInventory struct {
	VariantID string
	Quantity  *int
}

// TotalInventory sums variant quantities, counting missing ones as zero.
func (u ProductUpdate) TotalInventory() int {
	total := 0
	for _, v := range u.Variants {
		if v.Quantity != nil {
			total += *v.Quantity
		}
	}
	return total
}
