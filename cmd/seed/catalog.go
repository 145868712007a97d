package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/service"
)

type categoryPath struct {
	top, second, third string
}

var categoryPaths = []categoryPath{
	{"Men", "Clothing", "Mens Kurta"},
	{"Men", "Clothing", "Shirt"},
	{"Men", "Clothing", "Jeans"},
	{"Women", "Clothing", "Saree"},
	{"Women", "Clothing", "Lengha Choli"},
	{"Women", "Clothing", "Dress"},
	{"Women", "Footwear", "Heels"},
	{"Kids", "Clothing", "T-Shirt"},
}

var (
	brands     = []string{"Manyavar", "Fabindia", "Biba", "Libas", "Peter England", "Roadster", "Jaipur Kurti", "Allen Solly"}
	colors     = []string{"White", "Black", "Red", "Blue", "Green", "Yellow", "Maroon", "Beige"}
	sizeNames  = []string{"S", "M", "L", "XL"}
	adjectives = []string{"Classic", "Printed", "Embroidered", "Solid", "Woven", "Festive", "Casual", "Slim Fit"}
)

// loadProducts reads the fixture at path, or generates n products when path
// is empty.
func loadProducts(path string, n int, seed uint64) ([]service.CreateProductInput, error) {
	if path == "" {
		return generateProducts(n, seed), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var products []service.CreateProductInput
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return products, nil
}

// generateProducts builds n products. The same seed yields the same catalog.
// Prices are in minor units.
func generateProducts(n int, seed uint64) []service.CreateProductInput {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	products := make([]service.CreateProductInput, n)

	for i := range products {
		path := categoryPaths[rng.IntN(len(categoryPaths))]
		brand := brands[rng.IntN(len(brands))]
		color := colors[rng.IntN(len(colors))]

		price := int64(500+rng.IntN(4500)) * 100
		discount := rng.IntN(71)
		discounted := price * int64(100-discount) / 100

		sizes := make([]domain.Size, 0, len(sizeNames))
		quantity := 0
		for _, name := range sizeNames {
			q := rng.IntN(25)
			quantity += q
			sizes = append(sizes, domain.Size{Name: name, Quantity: q})
		}

		products[i] = service.CreateProductInput{
			Title:               fmt.Sprintf("%s %s %s", brand, adjectives[rng.IntN(len(adjectives))], path.third),
			Description:         fmt.Sprintf("%s %s from %s.", color, path.third, brand),
			Price:               price,
			DiscountedPrice:     discounted,
			DiscountPercentage:  discount,
			Quantity:            quantity,
			Brand:               brand,
			Color:               color,
			Sizes:               sizes,
			ImageURL:            fmt.Sprintf("https://images.storefront.local/products/%05d.jpg", i+1),
			TopLevelCategory:    path.top,
			SecondLevelCategory: path.second,
			ThirdLevelCategory:  path.third,
		}
	}
	return products
}
