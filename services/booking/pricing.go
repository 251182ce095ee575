package booking

// unitSessionPrice is the price of a single session in minor currency units.
const unitSessionPrice = 999

// packagePrices are the discounted bundle prices by session count.
var packagePrices = map[int]int64{
	1:  999,
	3:  2899,
	7:  6299,
	15: 12735,
	30: 23970,
}

// PriceFor returns the amount charged for n sessions. Counts without a
// bundle price are charged per session.
func PriceFor(sessions int) int64 {
	if sessions <= 0 {
		return 0
	}
	if p, ok := packagePrices[sessions]; ok {
		return p
	}
	return int64(sessions) * unitSessionPrice
}
