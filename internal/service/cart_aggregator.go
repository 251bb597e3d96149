package service

import "strconv"

// CartItemInput is a cart line as the storefront submits it
type CartItemInput struct {
	ProductID int64      `json:"productId"`
	SKU       string     `json:"sku"`
	Title     string     `json:"title"`
	Quantity  int        `json:"quantity"`
	Price     int64      `json:"price"`
	VenueID   FlexString `json:"venueId"`
}

// VenueGroup is the set of cart items destined for one venue
type VenueGroup struct {
	VenueID int64
	Items   []CartItemInput
}

// ParseVenueID returns the numeric venue id for a cart item. Empty, "0",
// non-numeric and non-positive values mean the item has no venue.
func ParseVenueID(raw string) (int64, bool) {
	if raw == "" || raw == "0" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// GroupByVenue splits cart items by destination venue. Groups come back in
// the order each venue first appears; items without a venue are counted in
// dropped and left out.
func GroupByVenue(items []CartItemInput) (groups []VenueGroup, dropped int) {
	index := make(map[int64]int)

	for _, item := range items {
		venueID, ok := ParseVenueID(item.VenueID.String())
		if !ok {
			dropped++
			continue
		}

		i, seen := index[venueID]
		if !seen {
			i = len(groups)
			index[venueID] = i
			groups = append(groups, VenueGroup{VenueID: venueID})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	return groups, dropped
}
