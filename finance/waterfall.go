package finance

// LiquidationPreference returns invested capital times the preference multiple.
func LiquidationPreference(invested, multiple string) string {
	return formula(paren(invested) + "*" + paren(multiple))
}

// NonParticipatingPayout returns the greater of the preference and the as-converted
// share of the exit: MAX(preference, exit*ownership).
func NonParticipatingPayout(preference, exitValue, ownership string) string {
	return formula("MAX(" + preference + "," + paren(exitValue) + "*" + paren(ownership) + ")")
}

// ParticipatingPayout returns the preference plus the ownership share of what is
// left after senior payments: preference + (exit - prior)*ownership.
func ParticipatingPayout(preference, exitValue, priorPayments, ownership string) string {
	return formula(paren(preference) + "+(" + paren(exitValue) + "-" + paren(priorPayments) + ")*" + paren(ownership))
}

// SeniorPayments sums the preferences of rows whose seniority rank is lower (more
// senior) than seniority.
func SeniorPayments(seniorityRange, seniority, preferenceRange string) string {
	return SumIf(seniorityRange, `"<"&`+seniority, preferenceRange)
}

// ClassPayout returns a share class's exit proceeds: the participating or
// non-participating payout chosen by the participating flag, capped at what is left
// after senior classes are paid.
func ClassPayout(participating, preference, exitValue, priorPayments, ownership string) string {
	remaining := "MAX(0," + paren(exitValue) + "-" + paren(priorPayments) + ")"
	payout := "IF(" + participating + "," +
		Expr(ParticipatingPayout(preference, exitValue, priorPayments, ownership)) + "," +
		Expr(NonParticipatingPayout(preference, exitValue, ownership)) + ")"
	return formula("MIN(" + remaining + "," + payout + ")")
}
