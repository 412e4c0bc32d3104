package domain

// Product is the catalog-level SPU. InStock aggregates the quantity of
// every SKU under it.
type Product struct {
	SPU     string
	Name    string
	Brand   string
	InStock int
}

// Sku is a purchasable variant of a product.
type Sku struct {
	SPU      string
	SKU      string
	Price    int64
	Quantity int
}
