package cards

// Card is a uniquely-owned collectible mirrored from the authority.
type Card struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Owner         int64  `json:"owner"`
	OwnerUsername string `json:"owner_username"`
	Price         int    `json:"price"`
}

// NotForSalePrice is the only off-market sentinel the client ever sends. On
// read, any negative price means off-market; -1 is not special.
const NotForSalePrice = -1

func (c Card) ForSale() bool {
	return c.Price >= 0
}

// SplitBySaleStatus partitions owned cards into the listed and unlisted
// views the UI renders as tabs.
func SplitBySaleStatus(cards []Card) (forSale, notForSale []Card) {
	for _, c := range cards {
		if c.ForSale() {
			forSale = append(forSale, c)
		} else {
			notForSale = append(notForSale, c)
		}
	}
	return forSale, notForSale
}
