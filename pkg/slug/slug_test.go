package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Men", "men"},
		{"Top Wear", "top-wear"},
		{"  Men's Kurta  ", "men-s-kurta"},
		{"T-Shirts & Polos", "t-shirts-polos"},
		{"Çocuk Ürünleri", "cocuk-urunleri"},
		{"Şeker Bayramı", "seker-bayrami"},
		{"Crème Brûlée", "creme-brulee"},
		{"--Already--Slugged--", "already-slugged"},
		{"Size 42", "size-42"},
		{"", ""},
		{"!!!", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Generate(tt.input))
		})
	}
}
