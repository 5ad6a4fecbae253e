package finance

// ProRataTotalShares solves for the post-round total T when every pro-rata holder
// tops up to its target percentage:
//
//	T = (P + B - sum(C)) / (1 - sum(R))
//
// P is pre-round shares, B the base round's new shares, C current holdings and R
// target percentages of the participants.
func ProRataTotalShares(preRoundShares, baseRoundShares, sumCurrentShares, sumTargetPercent string) string {
	num := paren(preRoundShares) + "+" + paren(baseRoundShares) + "-" + paren(sumCurrentShares)
	return formula(safeDiv(num, "1-"+paren(sumTargetPercent)))
}

// ProRataShares returns a participant's additional shares:
// max(0, target*T - current).
func ProRataShares(targetPercent, totalShares, currentShares string) string {
	return formula("MAX(0," + paren(targetPercent) + "*" + paren(totalShares) + "-" + paren(currentShares) + ")")
}
