package product

import (
	"fmt"

	"github.com/example/ec-cart-offers/internal/apperr"
	"github.com/shopspring/decimal"
)

var ErrProductNotFound = fmt.Errorf("%w: product not found", apperr.ErrNotFound)

// Product is the catalog view the cart snapshots when an item is added.
// The catalog itself is owned by another service.
type Product struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	ImageURL string          `json:"image_url"`
	Price    decimal.Decimal `json:"price"`
}
