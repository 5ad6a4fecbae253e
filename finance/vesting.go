package finance

// VestedFraction returns clamp(0, 1, max(0, days_elapsed - cliff_days) / period_days)
// with days_elapsed = currentDate - grantDate.
func VestedFraction(currentDate, grantDate, cliffDays, periodDays string) string {
	return formula(vestedFraction(currentDate, grantDate, cliffDays, periodDays))
}

func vestedFraction(currentDate, grantDate, cliffDays, periodDays string) string {
	elapsed := "MAX(0,DAYS(" + currentDate + "," + grantDate + ")-" + paren(cliffDays) + ")"
	return "MIN(1,MAX(0," + safeDiv(elapsed, periodDays) + "))"
}

// VestedShares returns total_granted times the vested fraction. A grant without a
// grant date has vested nothing.
func VestedShares(totalGranted, currentDate, grantDate, cliffDays, periodDays string) string {
	frac := vestedFraction(currentDate, grantDate, cliffDays, periodDays)
	return formula("IF(ISBLANK(" + grantDate + "),0," + paren(totalGranted) + "*" + frac + ")")
}
