package finance

// OwnershipPercent returns shares as a fraction of fully diluted shares.
func OwnershipPercent(shares, totalFDS string) string {
	return formula(safeDiv(shares, totalFDS))
}

// PricePerShare returns valuation divided by share count.
func PricePerShare(valuation, shares string) string {
	return formula(safeDiv(valuation, shares))
}
