package model

import (
	"fmt"
	"strconv"

	"github.com/javajack/xlcap/finance"
)

// Issue is one problem found in a cap table.
type Issue struct {
	Path    string // JSON pointer of the offending member
	Message string
}

func (i Issue) String() string {
	return fmt.Sprintf("[ERROR] %s: %s", i.Path, i.Message)
}

// Validate checks referential integrity and value ranges and returns every problem
// found.
func (ct *CapTable) Validate() []Issue {
	v := &validator{ct: ct, ids: make(map[string]string)}
	v.run()
	return v.issues
}

type validator struct {
	ct     *CapTable
	ids    map[string]string // id → pointer of the entity that declared it
	issues []Issue
}

func (v *validator) addf(path, format string, args ...any) {
	v.issues = append(v.issues, Issue{Path: path, Message: fmt.Sprintf(format, args...)})
}

func at(list string, i int) string {
	return "/" + list + "/" + strconv.Itoa(i)
}

// id records a declared entity id. Ids share one namespace because they all bind
// into the same layout map.
func (v *validator) id(path, id string) {
	if id == "" {
		v.addf(path+"/id", "missing id")
		return
	}
	if prev, dup := v.ids[id]; dup {
		v.addf(path+"/id", "duplicate id %q, first declared at %s", id, prev)
		return
	}
	v.ids[id] = path
}

func (v *validator) stakeholder(path, id string) {
	for _, s := range v.ct.Stakeholders {
		if s.ID == id {
			return
		}
	}
	v.addf(path+"/stakeholder_id", "unknown stakeholder %q", id)
}

func (v *validator) fraction(path string, f float64) {
	if f < 0 || f >= 1 {
		v.addf(path, "must be in [0, 1), got %g", f)
	}
}

func (v *validator) nonNegative(path string, f float64) {
	if f < 0 {
		v.addf(path, "must not be negative, got %g", f)
	}
}

func (v *validator) run() {
	ct := v.ct
	if ct.Company.Name == "" {
		v.addf("/company/name", "missing company name")
	}
	v.nonNegative("/exit_value", ct.ExitValue)

	for i, c := range ct.ShareClasses {
		p := at("share_classes", i)
		v.id(p, c.ID)
		v.nonNegative(p+"/preference_multiple", c.PreferenceMultiple)
	}
	for i, s := range ct.Stakeholders {
		v.id(at("stakeholders", i), s.ID)
	}
	for i, is := range ct.Issuances {
		p := at("issuances", i)
		v.id(p, is.ID)
		v.stakeholder(p, is.StakeholderID)
		if _, ok := ct.ShareClass(is.ShareClassID); !ok {
			v.addf(p+"/share_class_id", "unknown share class %q", is.ShareClassID)
		}
		v.nonNegative(p+"/shares", is.Shares)
		v.nonNegative(p+"/price_per_share", is.PricePerShare)
	}
	for i, g := range ct.OptionGrants {
		p := at("option_grants", i)
		v.id(p, g.ID)
		v.stakeholder(p, g.StakeholderID)
		v.nonNegative(p+"/quantity", g.Quantity)
		v.nonNegative(p+"/strike_price", g.Strike)
		if g.CliffMonths < 0 || g.VestingMonths < 0 {
			v.addf(p, "cliff and vesting months must not be negative")
		} else if g.CliffMonths > g.VestingMonths {
			v.addf(p+"/cliff_months", "cliff of %d months exceeds vesting of %d months", g.CliffMonths, g.VestingMonths)
		}
	}
	for i, c := range ct.Convertibles {
		v.convertible(at("convertibles", i), c)
	}
	if ct.Round != nil {
		v.round(ct.Round)
	}
	for i, c := range ct.Calculations {
		p := at("calculations", i)
		v.id(p, c.ID)
		if len(c.Value) == 0 {
			v.addf(p+"/value", "missing value")
		}
	}
}

func (v *validator) convertible(p string, c Convertible) {
	v.id(p, c.ID)
	v.stakeholder(p, c.StakeholderID)
	switch c.Kind {
	case KindSAFE, KindNote:
	default:
		v.addf(p+"/kind", "kind must be %q or %q, got %q", KindSAFE, KindNote, c.Kind)
	}
	v.nonNegative(p+"/principal", c.Principal)
	v.fraction(p+"/discount", c.Discount)
	v.nonNegative(p+"/valuation_cap", c.ValuationCap)
	switch c.CapType {
	case "", finance.CapPreConversion, finance.CapPostConversionOwn, finance.CapPostConversionTotal, finance.CapDefault:
	default:
		v.addf(p+"/cap_type", "unknown cap type %q", c.CapType)
	}
	switch c.InterestType {
	case "", finance.NoInterest, finance.SimpleInterest, finance.YearlyCompound, finance.MonthlyCompound, finance.DailyCompound:
	default:
		v.addf(p+"/interest_type", "unknown interest type %q", c.InterestType)
	}
	if c.Kind == KindSAFE && c.InterestType != "" && c.InterestType != finance.NoInterest {
		v.addf(p+"/interest_type", "a SAFE does not accrue interest")
	}
	v.nonNegative(p+"/interest_rate", c.InterestRate)
}

func (v *validator) round(r *Round) {
	if r.PreMoney <= 0 {
		v.addf("/round/pre_money_valuation", "must be positive, got %g", r.PreMoney)
	}
	if r.ShareClassID != "" {
		if _, ok := v.ct.ShareClass(r.ShareClassID); !ok {
			v.addf("/round/share_class_id", "unknown share class %q", r.ShareClassID)
		}
	}
	v.fraction("/round/option_pool_target", r.OptionPoolTarget)
	v.nonNegative("/round/valuation_cap", r.ValuationCap)

	for i, is := range r.Issuances {
		p := "/round" + at("issuances", i)
		v.id(p, is.ID)
		v.stakeholder(p, is.StakeholderID)
		v.nonNegative(p+"/investment", is.Investment)
		v.fraction(p+"/target_percentage", is.TargetPercent)
		if is.Investment > 0 && is.TargetPercent > 0 {
			v.addf(p, "set either investment or target_percentage, not both")
		}
	}
	total := 0.0
	for i, pr := range r.ProRata {
		p := "/round" + at("pro_rata", i)
		v.id(p, pr.ID)
		v.stakeholder(p, pr.StakeholderID)
		v.fraction(p+"/target_percentage", pr.TargetPercent)
		total += pr.TargetPercent
	}
	if total >= 1 {
		v.addf("/round/pro_rata", "target percentages sum to %g, must be below 1", total)
	}
}
