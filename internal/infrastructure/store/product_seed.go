package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/example/ec-cart-offers/internal/domain/product"
)

// LoadProducts decodes a JSON array of catalog entries for the in-memory
// product store:
//
//	[{"id": "P1", "name": "Mug", "price": "12.50"}]
func LoadProducts(r io.Reader) ([]product.Product, error) {
	var products []product.Product
	if err := json.NewDecoder(r).Decode(&products); err != nil {
		return nil, fmt.Errorf("decode product seed: %w", err)
	}
	seen := make(map[string]struct{}, len(products))
	for i, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("product seed entry %d: missing id", i)
		}
		if p.Price.IsNegative() {
			return nil, fmt.Errorf("product seed entry %q: negative price", p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("product seed entry %q: duplicate id", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return products, nil
}

func LoadProductsFile(path string) ([]product.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadProducts(f)
}
