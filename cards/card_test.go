package cards

import (
	"testing"
)

func TestCard_ForSale(t *testing.T) {
	tests := []struct {
		name  string
		price int
		want  bool
	}{
		{name: "positive price", price: 50, want: true},
		{name: "zero price is still listed", price: 0, want: true},
		{name: "minus one", price: -1, want: false},
		{name: "any negative is off-market", price: -7, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Card{Price: tt.price}
			if got := c.ForSale(); got != tt.want {
				t.Errorf("ForSale() with price %d = %v, want %v", tt.price, got, tt.want)
			}
		})
	}
}

func TestSplitBySaleStatus(t *testing.T) {
	owned := []Card{
		{ID: 1, Price: 50},
		{ID: 2, Price: -1},
		{ID: 3, Price: 0},
		{ID: 4, Price: -12},
	}

	forSale, notForSale := SplitBySaleStatus(owned)

	if len(forSale) != 2 || forSale[0].ID != 1 || forSale[1].ID != 3 {
		t.Errorf("forSale = %v, want cards 1 and 3", forSale)
	}
	if len(notForSale) != 2 || notForSale[0].ID != 2 || notForSale[1].ID != 4 {
		t.Errorf("notForSale = %v, want cards 2 and 4", notForSale)
	}
}
