package finance

// PercentageShares returns the shares to issue so a holder ends the round at
// targetPercent of the company:
//
//	(C + n) / (P + n) = p   =>   n = max(0, (p*P - C) / (1 - p))
//
// where P is pre-round shares and C the holder's current shares.
func PercentageShares(targetPercent, preRoundShares, currentShares string) string {
	p := paren(targetPercent)
	num := p + "*" + paren(preRoundShares) + "-" + paren(currentShares)
	return formula("MAX(0," + safeDiv(num, "1-"+p) + ")")
}

// PreMoneyShares prices the investment off the pre-money valuation:
// (investment+interest)*pre_round_shares/pre_money. interest may be empty.
func PreMoneyShares(investment, interest, preRoundShares, preMoney string) string {
	return formula(safeDiv(invested(investment, interest)+"*"+paren(preRoundShares), preMoney))
}

// PostMoneyShares fixes the investor's ownership at (investment+interest)/post_money
// and scales pre-round shares to it: o*pre/(1-o). interest may be empty.
func PostMoneyShares(investment, interest, preRoundShares, postMoney string) string {
	own := "(" + invested(investment, interest) + "/" + paren(postMoney) + ")"
	return formula(safeDiv(own+"*"+paren(preRoundShares), "1-"+own))
}

func invested(investment, interest string) string {
	if interest == "" {
		return paren(investment)
	}
	return "(" + paren(investment) + "+" + paren(interest) + ")"
}

// PoolTopUp returns the additional option pool shares that make the pool
// targetPercent of the post-round total: pre_round_fds*t/(1-t).
func PoolTopUp(preRoundFDS, targetPercent string) string {
	t := paren(targetPercent)
	return formula(safeDiv(paren(preRoundFDS)+"*"+t, "1-"+t))
}
