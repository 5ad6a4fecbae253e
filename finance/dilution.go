package finance

// Treasury stock method. Options in the money are assumed exercised and the
// exercise proceeds buy back shares at the current price.

// InTheMoneyShares returns quantity when currentPrice exceeds strike, else 0.
func InTheMoneyShares(quantity, currentPrice, strike string) string {
	return formula(itm(quantity, currentPrice, strike))
}

func itm(quantity, currentPrice, strike string) string {
	return "IF(" + paren(currentPrice) + ">" + paren(strike) + "," + quantity + ",0)"
}

// TSMProceeds returns gross in-the-money shares times strike.
func TSMProceeds(itmShares, strike string) string {
	return formula(paren(itmShares) + "*" + paren(strike))
}

// TSMRepurchased returns proceeds/current_price.
func TSMRepurchased(proceeds, currentPrice string) string {
	return formula(safeDiv(proceeds, currentPrice))
}

// TSMNetDilution returns gross in-the-money shares less the shares repurchased.
func TSMNetDilution(quantity, currentPrice, strike string) string {
	gross := itm(quantity, currentPrice, strike)
	return formula(gross + "-" + safeDiv(gross+"*"+paren(strike), currentPrice))
}
