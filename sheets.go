package xlcap

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/javajack/xlcap/finance"
	"github.com/javajack/xlcap/model"
)

// Global names defined on the summary sheet.
const (
	NameCurrentDate      = "Current_Date"
	NameExitValue        = "Exit_Value"
	NamePreMoney         = "Pre_Money"
	NameRoundCap         = "Round_Cap"
	NamePoolTarget       = "Pool_Target"
	NamePreRoundShares   = "Pre_Round_Shares"
	NameCurrentPPS       = "Current_PPS"
	NameTotalConversion  = "Total_Conversion"
	NameConversionShares = "Conversion_Shares"
	NameRoundShares      = "Round_Shares"
	NamePoolTopUp        = "Pool_Top_Up"
	NameProRataTotal     = "ProRata_Total"
	NameProRataShares    = "ProRata_Shares"
	NameTotalFDS         = "Total_FDS"
)

// Table names.
const (
	TableStakeholders = "Stakeholders"
	TableLedger       = "Ledger"
	TableOptions      = "Options"
	TableConvertibles = "Convertibles"
	TableRound        = "RoundIssuances"
	TableProRata      = "ProRata"
	TableWaterfall    = "Waterfall"
	TableCalculations = "Calculations"
)

const (
	summaryLabelCol    = 0
	summaryValueCol    = 1
	summaryContentsCol = 3
)

// cell is one planned cell: a literal value or a formula encoding object.
type cell struct {
	value   any
	formula *Formula
	format  string
}

func lit(v any, format string) cell {
	return cell{value: v, format: format}
}

func calc(f *Formula, format string) cell {
	return cell{formula: f, format: format}
}

// summaryRow is a labelled value on the summary sheet. name and pointer are the
// identifiers it is registered under; either may be empty.
type summaryRow struct {
	name    string
	pointer string
	label   string
	cell    cell
}

type tablePlan struct {
	name    string
	sheet   string
	title   string
	columns []string
	rows    []rowPlan
}

type rowPlan struct {
	uuid    string
	pointer string
	cells   []cell
}

// Dependency constructors.

func onRow(placeholder, table, column string) Dependency {
	return Dependency{Placeholder: placeholder, Path: table + "." + column, RefType: RefStructured}
}

func wholeColumn(placeholder, table, column string) Dependency {
	return Dependency{Placeholder: placeholder, Path: columnRef(table, column), RefType: RefStructured}
}

func global(placeholder, name string) Dependency {
	return Dependency{Placeholder: placeholder, Path: name, RefType: RefNamedRange}
}

func feo(template, outputType string, deps ...Dependency) *Formula {
	return &Formula{Template: template, Dependencies: deps, OutputType: outputType}
}

// holderShares sums a table's column over the rows of the stakeholder in idPlaceholder.
func holderShares(idPlaceholder, table, column string) (string, []Dependency) {
	byPh, sumPh := table+"_holder", table+"_"+column
	deps := []Dependency{
		wholeColumn(byPh, table, "stakeholder"),
		wholeColumn(sumPh, table, column),
	}
	return finance.Expr(finance.SumIf(byPh, idPlaceholder, sumPh)), deps
}

// plan builds every sheet of the run from the cap table.
func (r *Run) plan() error {
	r.summary = r.summaryPlan()
	builders := []func() (*tablePlan, error){
		r.stakeholdersPlan,
		r.ledgerPlan,
		r.optionsPlan,
		r.convertiblesPlan,
		r.roundPlan,
		r.proRataPlan,
		r.waterfallPlan,
		r.calculationsPlan,
	}
	for _, build := range builders {
		t, err := build()
		if err != nil {
			return err
		}
		r.tables = append(r.tables, t)
	}
	return nil
}

func (r *Run) round() *model.Round {
	if r.ct.Round != nil {
		return r.ct.Round
	}
	return &model.Round{}
}

func (r *Run) summaryPlan() []summaryRow {
	f := r.cfg.Formats
	ct := r.ct
	round := r.round()

	sum := func(table, column string) *Formula {
		return feo(finance.Sum("v"), "shares", wholeColumn("v", table, column))
	}

	return []summaryRow{
		{pointer: "/company/name", label: "Company", cell: lit(ct.Company.Name, "")},
		{name: NameCurrentDate, pointer: "/company/as_of_date", label: "As of", cell: lit(ct.AsOf(), f.Date)},
		{name: NameExitValue, pointer: "/exit_value", label: "Exit value", cell: lit(ct.ExitValue, f.Currency)},
		{name: NamePreMoney, pointer: "/round/pre_money_valuation", label: "Pre-money valuation", cell: lit(round.PreMoney, f.Currency)},
		{name: NameRoundCap, pointer: "/round/valuation_cap", label: "Round valuation cap", cell: lit(round.ValuationCap, f.Currency)},
		{name: NamePoolTarget, pointer: "/round/option_pool_target", label: "Option pool target", cell: lit(round.OptionPoolTarget, f.Percent)},
		{name: NamePreRoundShares, label: "Pre-round shares", cell: calc(feo(
			finance.Add(finance.Expr(finance.Sum("issued")), finance.Expr(finance.Sum("granted"))), "shares",
			wholeColumn("issued", TableLedger, "shares"),
			wholeColumn("granted", TableOptions, "granted"),
		), f.Shares)},
		{name: NameCurrentPPS, label: "Price per share", cell: calc(feo(
			finance.PricePerShare("pre_money", "shares"), "price",
			global("pre_money", NamePreMoney),
			global("shares", NamePreRoundShares),
		), f.Price)},
		{name: NameTotalConversion, label: "Total converting", cell: calc(feo(
			finance.Add(finance.Expr(finance.Sum("principal")), finance.Expr(finance.Sum("interest"))), "currency",
			wholeColumn("principal", TableConvertibles, "principal"),
			wholeColumn("interest", TableConvertibles, "accrued_interest"),
		), f.Currency)},
		{name: NameConversionShares, label: "Conversion shares", cell: calc(sum(TableConvertibles, "conversion_shares"), f.Shares)},
		{name: NameRoundShares, label: "Round shares", cell: calc(sum(TableRound, "new_shares"), f.Shares)},
		{name: NamePoolTopUp, label: "Option pool top-up", cell: calc(feo(
			finance.PoolTopUp(finance.Expr(finance.Add("pre", "conv", "round")), "target"), "shares",
			global("pre", NamePreRoundShares),
			global("conv", NameConversionShares),
			global("round", NameRoundShares),
			global("target", NamePoolTarget),
		), f.Shares)},
		{name: NameProRataTotal, label: "Post-round shares with pro-rata", cell: calc(feo(
			finance.ProRataTotalShares(
				finance.Expr(finance.Add("pre", "conv", "pool")),
				"round",
				finance.Expr(finance.Sum("current")),
				finance.Expr(finance.Sum("target")),
			), "shares",
			global("pre", NamePreRoundShares),
			global("conv", NameConversionShares),
			global("pool", NamePoolTopUp),
			global("round", NameRoundShares),
			wholeColumn("current", TableProRata, "current_shares"),
			wholeColumn("target", TableProRata, "target_pct"),
		), f.Shares)},
		{name: NameProRataShares, label: "Pro-rata shares", cell: calc(sum(TableProRata, "additional_shares"), f.Shares)},
		{name: NameTotalFDS, label: "Fully diluted shares", cell: calc(feo(
			finance.Add("pre", "conv", "round", "pool", "prorata"), "shares",
			global("pre", NamePreRoundShares),
			global("conv", NameConversionShares),
			global("round", NameRoundShares),
			global("pool", NamePoolTopUp),
			global("prorata", NameProRataShares),
		), f.Shares)},
	}
}

func (r *Run) stakeholdersPlan() (*tablePlan, error) {
	f := r.cfg.Formats
	t := &tablePlan{
		name:    TableStakeholders,
		sheet:   r.cfg.Sheets.Stakeholders,
		title:   "Stakeholders",
		columns: []string{"id", "name", "type", "shares", "ownership"},
	}

	var terms []string
	deps := []Dependency{onRow("id", TableStakeholders, "id")}
	for _, src := range []struct{ table, column string }{
		{TableLedger, "shares"},
		{TableOptions, "granted"},
		{TableConvertibles, "conversion_shares"},
		{TableRound, "new_shares"},
		{TableProRata, "additional_shares"},
	} {
		term, d := holderShares("id", src.table, src.column)
		terms = append(terms, term)
		deps = append(deps, d...)
	}
	shares := feo(finance.Add(terms...), "shares", deps...)

	for i, s := range r.ct.Stakeholders {
		t.rows = append(t.rows, rowPlan{
			uuid:    s.ID,
			pointer: fmt.Sprintf("/stakeholders/%d", i),
			cells: []cell{
				lit(s.ID, ""),
				lit(s.Name, ""),
				lit(s.Type, ""),
				calc(shares, f.Shares),
				calc(feo(finance.OwnershipPercent("shares", "total"), "percent",
					onRow("shares", TableStakeholders, "shares"),
					global("total", NameTotalFDS),
				), f.Percent),
			},
		})
	}
	return t, nil
}

func (r *Run) ledgerPlan() (*tablePlan, error) {
	f := r.cfg.Formats
	t := &tablePlan{
		name:    TableLedger,
		sheet:   r.cfg.Sheets.Ledger,
		title:   "Share ledger",
		columns: []string{"id", "stakeholder", "holder", "share_class", "date", "shares", "price", "invested", "ownership"},
	}
	invested := feo(finance.Product("shares", "price"), "currency",
		onRow("shares", TableLedger, "shares"),
		onRow("price", TableLedger, "price"),
	)
	ownership := feo(finance.OwnershipPercent("shares", "total"), "percent",
		onRow("shares", TableLedger, "shares"),
		global("total", NameTotalFDS),
	)
	for i, is := range r.ct.Issuances {
		t.rows = append(t.rows, rowPlan{
			uuid:    is.ID,
			pointer: fmt.Sprintf("/issuances/%d", i),
			cells: []cell{
				lit(is.ID, ""),
				lit(is.StakeholderID, ""),
				lit(r.ct.StakeholderName(is.StakeholderID), ""),
				lit(is.ShareClassID, ""),
				lit(is.Date.Value(), f.Date),
				lit(is.Shares, f.Shares),
				lit(is.PricePerShare, f.Price),
				calc(invested, f.Currency),
				calc(ownership, f.Percent),
			},
		})
	}
	return t, nil
}

func (r *Run) optionsPlan() (*tablePlan, error) {
	f := r.cfg.Formats
	t := &tablePlan{
		name:  TableOptions,
		sheet: r.cfg.Sheets.Options,
		title: "Option grants",
		columns: []string{"id", "stakeholder", "holder", "granted", "strike", "grant_date",
			"cliff_days", "vesting_days", "vested", "in_the_money", "net_dilution"},
	}
	row := func(ph, column string) Dependency { return onRow(ph, TableOptions, column) }
	vested := feo(finance.VestedShares("granted", "as_of", "grant_date", "cliff", "period"), "shares",
		row("granted", "granted"),
		global("as_of", NameCurrentDate),
		row("grant_date", "grant_date"),
		row("cliff", "cliff_days"),
		row("period", "vesting_days"),
	)
	itm := feo(finance.InTheMoneyShares("granted", "pps", "strike"), "shares",
		row("granted", "granted"),
		global("pps", NameCurrentPPS),
		row("strike", "strike"),
	)
	net := feo(finance.TSMNetDilution("granted", "pps", "strike"), "shares",
		row("granted", "granted"),
		global("pps", NameCurrentPPS),
		row("strike", "strike"),
	)

	for i, g := range r.ct.OptionGrants {
		base := r.ct.AsOf()
		if !g.GrantDate.IsZero() {
			base = g.GrantDate.Time
		}
		cliffDays := daysBetween(base, base.AddDate(0, g.CliffMonths, 0))
		vestingDays := daysBetween(base, base.AddDate(0, g.VestingMonths, 0))
		t.rows = append(t.rows, rowPlan{
			uuid:    g.ID,
			pointer: fmt.Sprintf("/option_grants/%d", i),
			cells: []cell{
				lit(g.ID, ""),
				lit(g.StakeholderID, ""),
				lit(r.ct.StakeholderName(g.StakeholderID), ""),
				lit(g.Quantity, f.Shares),
				lit(g.Strike, f.Price),
				lit(g.GrantDate.Value(), f.Date),
				lit(cliffDays, f.Number),
				lit(vestingDays, f.Number),
				calc(vested, f.Shares),
				calc(itm, f.Shares),
				calc(net, f.Shares),
			},
		})
	}
	return t, nil
}

func (r *Run) convertiblesPlan() (*tablePlan, error) {
	f := r.cfg.Formats
	t := &tablePlan{
		name:  TableConvertibles,
		sheet: r.cfg.Sheets.Convertibles,
		title: "Convertibles",
		columns: []string{"id", "stakeholder", "holder", "kind", "principal", "discount", "valuation_cap",
			"cap_type", "interest_type", "interest_rate", "start_date", "accrued_interest", "conversion_shares"},
	}
	row := func(ph, column string) Dependency { return onRow(ph, TableConvertibles, column) }
	interest := feo(finance.InterestByType("kind", "principal", "rate", "start", "as_of"), "currency",
		row("kind", "interest_type"),
		row("principal", "principal"),
		row("rate", "interest_rate"),
		row("start", "start_date"),
		global("as_of", NameCurrentDate),
	)
	round := r.round()

	for i, c := range r.ct.Convertibles {
		terms := finance.ConvertibleTerms{
			Principal:       "principal",
			Interest:        "interest",
			CapType:         c.CapType,
			RoundPreMoney:   "pre_money",
			TotalConversion: "total",
			PreRoundShares:  "pre_shares",
			PostMoney:       round.PostMoneyCap,
		}
		if c.Discount > 0 {
			terms.Discount = "discount"
		}
		if c.ValuationCap > 0 {
			terms.ValuationCap = "cap"
		}
		if round.ValuationCap > 0 {
			terms.RoundCap = "round_cap"
		}
		template, err := finance.ConvertibleShares(terms)
		if err != nil {
			return nil, fmt.Errorf("convertible %q: %w", c.ID, err)
		}
		shares := feo(template, "shares",
			row("principal", "principal"),
			row("interest", "accrued_interest"),
			row("discount", "discount"),
			row("cap", "valuation_cap"),
			global("pre_money", NamePreMoney),
			global("round_cap", NameRoundCap),
			global("total", NameTotalConversion),
			global("pre_shares", NamePreRoundShares),
		)

		interestType := c.InterestType
		if interestType == "" {
			interestType = finance.NoInterest
		}
		t.rows = append(t.rows, rowPlan{
			uuid:    c.ID,
			pointer: fmt.Sprintf("/convertibles/%d", i),
			cells: []cell{
				lit(c.ID, ""),
				lit(c.StakeholderID, ""),
				lit(r.ct.StakeholderName(c.StakeholderID), ""),
				lit(c.Kind, ""),
				lit(c.Principal, f.Currency),
				lit(c.Discount, f.Percent),
				lit(c.ValuationCap, f.Currency),
				lit(string(c.CapType), ""),
				lit(string(interestType), ""),
				lit(c.InterestRate, f.Percent),
				lit(c.StartDate.Value(), f.Date),
				calc(interest, f.Currency),
				calc(shares, f.Shares),
			},
		})
	}
	return t, nil
}

func (r *Run) roundPlan() (*tablePlan, error) {
	f := r.cfg.Formats
	t := &tablePlan{
		name:  TableRound,
		sheet: r.cfg.Sheets.Round,
		title: "Round",
		columns: []string{"id", "stakeholder", "holder", "basis", "investment", "target_pct",
			"current_shares", "new_shares"},
	}
	round := r.round()
	if round.Name != "" {
		t.title = round.Name
	}
	row := func(ph, column string) Dependency { return onRow(ph, TableRound, column) }

	sumCurrent, deps := holderShares("id", TableLedger, "shares")
	current := feo("="+sumCurrent, "shares", append(deps, row("id", "stakeholder"))...)

	byInvestment := feo(finance.PreMoneyShares("investment", "", "pre_shares", "pre_money"), "shares",
		row("investment", "investment"),
		global("pre_shares", NamePreRoundShares),
		global("pre_money", NamePreMoney),
	)
	byPercentage := feo(finance.PercentageShares("target", "pre_shares", "current"), "shares",
		row("target", "target_pct"),
		global("pre_shares", NamePreRoundShares),
		row("current", "current_shares"),
	)
	impliedInvestment := feo(finance.Product("shares", "pps"), "currency",
		row("shares", "new_shares"),
		global("pps", NameCurrentPPS),
	)

	for i, is := range round.Issuances {
		investment, newShares := lit(is.Investment, f.Currency), calc(byInvestment, f.Shares)
		if is.Basis() == model.BasisPercentage {
			investment, newShares = calc(impliedInvestment, f.Currency), calc(byPercentage, f.Shares)
		}
		t.rows = append(t.rows, rowPlan{
			uuid:    is.ID,
			pointer: fmt.Sprintf("/round/issuances/%d", i),
			cells: []cell{
				lit(is.ID, ""),
				lit(is.StakeholderID, ""),
				lit(r.ct.StakeholderName(is.StakeholderID), ""),
				lit(is.Basis(), ""),
				investment,
				lit(is.TargetPercent, f.Percent),
				calc(current, f.Shares),
				newShares,
			},
		})
	}
	return t, nil
}

func (r *Run) proRataPlan() (*tablePlan, error) {
	f := r.cfg.Formats
	t := &tablePlan{
		name:    TableProRata,
		sheet:   r.cfg.Sheets.ProRata,
		title:   "Pro-rata rights",
		columns: []string{"id", "stakeholder", "holder", "target_pct", "current_shares", "additional_shares"},
	}
	row := func(ph, column string) Dependency { return onRow(ph, TableProRata, column) }

	var terms []string
	deps := []Dependency{row("id", "stakeholder")}
	for _, src := range []struct{ table, column string }{
		{TableLedger, "shares"},
		{TableConvertibles, "conversion_shares"},
		{TableRound, "new_shares"},
	} {
		term, d := holderShares("id", src.table, src.column)
		terms = append(terms, term)
		deps = append(deps, d...)
	}
	current := feo(finance.Add(terms...), "shares", deps...)
	additional := feo(finance.ProRataShares("target", "total", "current"), "shares",
		row("target", "target_pct"),
		global("total", NameProRataTotal),
		row("current", "current_shares"),
	)

	for i, pr := range r.round().ProRata {
		t.rows = append(t.rows, rowPlan{
			uuid:    pr.ID,
			pointer: fmt.Sprintf("/round/pro_rata/%d", i),
			cells: []cell{
				lit(pr.ID, ""),
				lit(pr.StakeholderID, ""),
				lit(r.ct.StakeholderName(pr.StakeholderID), ""),
				lit(pr.TargetPercent, f.Percent),
				calc(current, f.Shares),
				calc(additional, f.Shares),
			},
		})
	}
	return t, nil
}

func (r *Run) waterfallPlan() (*tablePlan, error) {
	f := r.cfg.Formats
	t := &tablePlan{
		name:  TableWaterfall,
		sheet: r.cfg.Sheets.Waterfall,
		title: "Exit waterfall",
		columns: []string{"id", "share_class", "seniority", "invested", "multiple", "participating",
			"preference", "shares", "ownership", "prior_payments", "payout"},
	}
	row := func(ph, column string) Dependency { return onRow(ph, TableWaterfall, column) }
	roundClass := r.round().ShareClassID
	commonClass := ""
	for _, c := range r.ct.ShareClasses {
		if !c.Preferred {
			commonClass = c.ID
			break
		}
	}

	preference := feo(finance.LiquidationPreference("invested", "multiple"), "currency",
		row("invested", "invested"),
		row("multiple", "multiple"),
	)
	ownership := feo(finance.OwnershipPercent("shares", "total"), "percent",
		row("shares", "shares"),
		global("total", NameTotalFDS),
	)
	prior := feo(finance.SeniorPayments("seniorities", "seniority", "preferences"), "currency",
		wholeColumn("seniorities", TableWaterfall, "seniority"),
		row("seniority", "seniority"),
		wholeColumn("preferences", TableWaterfall, "preference"),
	)
	payout := feo(finance.ClassPayout("participating", "preference", "exit", "prior", "ownership"), "currency",
		row("participating", "participating"),
		row("preference", "preference"),
		global("exit", NameExitValue),
		row("prior", "prior_payments"),
		row("ownership", "ownership"),
	)

	for i, c := range r.ct.ShareClasses {
		investedTerms := []string{finance.Expr(finance.SumIf("classes", "class", "ledger_invested"))}
		investedDeps := []Dependency{
			row("class", "id"),
			wholeColumn("classes", TableLedger, "share_class"),
			wholeColumn("ledger_invested", TableLedger, "invested"),
		}
		sharesTerms := []string{finance.Expr(finance.SumIf("classes", "class", "ledger_shares"))}
		sharesDeps := []Dependency{
			row("class", "id"),
			wholeColumn("classes", TableLedger, "share_class"),
			wholeColumn("ledger_shares", TableLedger, "shares"),
		}
		if c.ID == roundClass {
			investedTerms = append(investedTerms, finance.Expr(finance.Sum("round_invested")), finance.Expr(finance.Sum("converted")))
			investedDeps = append(investedDeps,
				wholeColumn("round_invested", TableRound, "investment"),
				wholeColumn("converted", TableConvertibles, "principal"),
			)
			sharesTerms = append(sharesTerms, "round", "conv", "prorata")
			sharesDeps = append(sharesDeps,
				global("round", NameRoundShares),
				global("conv", NameConversionShares),
				global("prorata", NameProRataShares),
			)
		}
		if c.ID == commonClass {
			sharesTerms = append(sharesTerms, finance.Expr(finance.Sum("granted")), "pool")
			sharesDeps = append(sharesDeps,
				wholeColumn("granted", TableOptions, "granted"),
				global("pool", NamePoolTopUp),
			)
		}
		multiple := c.PreferenceMultiple
		if !c.Preferred {
			multiple = 0
		}

		t.rows = append(t.rows, rowPlan{
			uuid:    c.ID,
			pointer: fmt.Sprintf("/share_classes/%d", i),
			cells: []cell{
				lit(c.ID, ""),
				lit(c.Name, ""),
				lit(c.Seniority, f.Number),
				calc(feo(finance.Add(investedTerms...), "currency", investedDeps...), f.Currency),
				lit(multiple, f.Number),
				lit(c.Participating, ""),
				calc(preference, f.Currency),
				calc(feo(finance.Add(sharesTerms...), "shares", sharesDeps...), f.Shares),
				calc(ownership, f.Percent),
				calc(prior, f.Currency),
				calc(payout, f.Currency),
			},
		})
	}
	return t, nil
}

func (r *Run) calculationsPlan() (*tablePlan, error) {
	t := &tablePlan{
		name:    TableCalculations,
		sheet:   r.cfg.Sheets.Calculations,
		title:   "Calculations",
		columns: []string{"id", "label", "value"},
	}
	for i, c := range r.ct.Calculations {
		pointer := fmt.Sprintf("/calculations/%d", i)
		if len(c.Value) == 0 {
			t.rows = append(t.rows, rowPlan{
				uuid:    c.ID,
				pointer: pointer,
				cells:   []cell{lit(c.ID, ""), lit(c.Label, ""), lit(nil, "")},
			})
			continue
		}
		v, err := DecodeValue(c.Value)
		if err != nil {
			return nil, fmt.Errorf("calculation %s: %w", pointer, err)
		}
		var value cell
		switch n := v.(type) {
		case *Formula:
			value = calc(n, r.cfg.Formats.Format(n.OutputType))
		case Literal:
			value = lit(n.V, "")
		default:
			// nested containers are shown as their JSON text
			text, err := json.Marshal(c.Value)
			if err != nil {
				return nil, fmt.Errorf("calculation %s: %w", pointer, err)
			}
			value = lit(string(text), "")
		}
		t.rows = append(t.rows, rowPlan{
			uuid:    c.ID,
			pointer: pointer,
			cells:   []cell{lit(c.ID, ""), lit(c.Label, ""), value},
		})
	}
	return t, nil
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}
