package finance

import "fmt"

// InterestType is how a convertible note accrues interest.
type InterestType string

const (
	NoInterest      InterestType = "no_interest"
	SimpleInterest  InterestType = "simple"
	YearlyCompound  InterestType = "yearly"
	MonthlyCompound InterestType = "monthly"
	DailyCompound   InterestType = "daily"
)

const daysPerYear = "365"

// periodsPerYear is the compounding frequency of each compounding type.
var periodsPerYear = map[InterestType]string{
	YearlyCompound:  "1",
	MonthlyCompound: "12",
	DailyCompound:   "365",
}

func years(start, end string) string {
	return "(DAYS(" + end + "," + start + ")/" + daysPerYear + ")"
}

func simpleInterest(principal, rate, start, end string) string {
	return paren(principal) + "*" + paren(rate) + "*" + years(start, end)
}

func compoundInterest(principal, rate, start, end, n string) string {
	return paren(principal) + "*(POWER(1+" + paren(rate) + "/" + n + "," + years(start, end) + "*" + n + ")-1)"
}

// Interest returns the interest accrued on principal between start and end. Years
// are days/365; compounding types use principal*((1+rate/n)^(years*n)-1). A blank
// start date accrues nothing.
func Interest(kind InterestType, principal, rate, start, end string) (string, error) {
	switch kind {
	case NoInterest, "":
		return formula("0"), nil
	case SimpleInterest:
		return formula(accrued(start, simpleInterest(principal, rate, start, end))), nil
	}
	n, ok := periodsPerYear[kind]
	if !ok {
		return "", fmt.Errorf("interest: unknown interest type %q", kind)
	}
	return formula(accrued(start, compoundInterest(principal, rate, start, end, n))), nil
}

// accrued is zero when no start date is set.
func accrued(start, expr string) string {
	return "IF(ISBLANK(" + start + "),0," + expr + ")"
}

// InterestByType is Interest with the type read from a cell, so the choice can be
// changed in the workbook. A blank or unknown type accrues nothing.
func InterestByType(typeRef, principal, rate, start, end string) string {
	expr := "0"
	for _, kind := range []InterestType{DailyCompound, MonthlyCompound, YearlyCompound} {
		expr = "IF(" + typeRef + `="` + string(kind) + `",` +
			compoundInterest(principal, rate, start, end, periodsPerYear[kind]) + "," + expr + ")"
	}
	expr = "IF(" + typeRef + `="` + string(SimpleInterest) + `",` + simpleInterest(principal, rate, start, end) + "," + expr + ")"
	return formula("IF(OR(ISBLANK(" + typeRef + "),ISBLANK(" + start + ")),0," + expr + ")")
}
