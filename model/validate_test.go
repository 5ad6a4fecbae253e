package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCapTable() *CapTable {
	return &CapTable{
		Company:      Company{Name: "Acme"},
		ShareClasses: []ShareClass{{ID: "common"}, {ID: "pref", Preferred: true, PreferenceMultiple: 1}},
		Stakeholders: []Stakeholder{{ID: "sh-1"}, {ID: "sh-2"}},
		Issuances:    []Issuance{{ID: "iss-1", StakeholderID: "sh-1", ShareClassID: "common", Shares: 100}},
		OptionGrants: []OptionGrant{{ID: "opt-1", StakeholderID: "sh-2", Quantity: 10, CliffMonths: 12, VestingMonths: 48}},
		Convertibles: []Convertible{{ID: "safe-1", StakeholderID: "sh-2", Kind: KindSAFE, Principal: 100, Discount: 0.2}},
		Round: &Round{
			PreMoney:     1000,
			ShareClassID: "pref",
			Issuances:    []RoundIssuance{{ID: "ri-1", StakeholderID: "sh-2", Investment: 50}},
			ProRata:      []ProRataRight{{ID: "pr-1", StakeholderID: "sh-1", TargetPercent: 0.1}},
		},
		Calculations: []Calculation{{ID: "calc-1", Value: json.RawMessage(`1`)}},
	}
}

func messages(issues []Issue) string {
	var b strings.Builder
	for _, is := range issues {
		b.WriteString(is.String())
		b.WriteByte('\n')
	}
	return b.String()
}

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, validCapTable().Validate())
}

func TestValidate_DuplicateIDsAcrossLists(t *testing.T) {
	ct := validCapTable()
	ct.OptionGrants[0].ID = "iss-1"
	ct.Round.ProRata[0].ID = "sh-1"

	out := messages(ct.Validate())
	assert.Contains(t, out, `[ERROR] /option_grants/0/id: duplicate id "iss-1", first declared at /issuances/0`)
	assert.Contains(t, out, `[ERROR] /round/pro_rata/0/id: duplicate id "sh-1", first declared at /stakeholders/0`)
}

func TestValidate_References(t *testing.T) {
	ct := validCapTable()
	ct.Issuances[0].StakeholderID = "ghost"
	ct.Issuances[0].ShareClassID = "series-z"
	ct.Round.ShareClassID = "series-z"

	out := messages(ct.Validate())
	assert.Contains(t, out, `/issuances/0/stakeholder_id: unknown stakeholder "ghost"`)
	assert.Contains(t, out, `/issuances/0/share_class_id: unknown share class "series-z"`)
	assert.Contains(t, out, `/round/share_class_id: unknown share class "series-z"`)
}

func TestValidate_Ranges(t *testing.T) {
	ct := validCapTable()
	ct.Company.Name = ""
	ct.ExitValue = -1
	ct.Issuances[0].Shares = -5
	ct.OptionGrants[0].CliffMonths = 60
	ct.Convertibles[0].Discount = 1
	ct.Round.PreMoney = 0
	ct.Round.OptionPoolTarget = 1.5

	issues := ct.Validate()
	out := messages(issues)
	assert.Contains(t, out, "/company/name: missing company name")
	assert.Contains(t, out, "/exit_value: must not be negative, got -1")
	assert.Contains(t, out, "/issuances/0/shares: must not be negative, got -5")
	assert.Contains(t, out, "/option_grants/0/cliff_months: cliff of 60 months exceeds vesting of 48 months")
	assert.Contains(t, out, "/convertibles/0/discount: must be in [0, 1), got 1")
	assert.Contains(t, out, "/round/pre_money_valuation: must be positive, got 0")
	assert.Contains(t, out, "/round/option_pool_target: must be in [0, 1), got 1.5")
	assert.Len(t, issues, 7)
}

func TestValidate_Convertibles(t *testing.T) {
	ct := validCapTable()
	ct.Convertibles = append(ct.Convertibles,
		Convertible{ID: "c-2", StakeholderID: "sh-1", Kind: "warrant"},
		Convertible{ID: "c-3", StakeholderID: "sh-1", Kind: KindSAFE, InterestType: "simple"},
		Convertible{ID: "c-4", StakeholderID: "sh-1", Kind: KindNote, CapType: "sideways", InterestType: "hourly"},
	)

	out := messages(ct.Validate())
	assert.Contains(t, out, `/convertibles/1/kind: kind must be "safe" or "note", got "warrant"`)
	assert.Contains(t, out, "/convertibles/2/interest_type: a SAFE does not accrue interest")
	assert.Contains(t, out, `/convertibles/3/cap_type: unknown cap type "sideways"`)
	assert.Contains(t, out, `/convertibles/3/interest_type: unknown interest type "hourly"`)
}

func TestValidate_Round(t *testing.T) {
	ct := validCapTable()
	ct.Round.Issuances[0].TargetPercent = 0.1
	ct.Round.ProRata = append(ct.Round.ProRata,
		ProRataRight{ID: "pr-2", StakeholderID: "sh-2", TargetPercent: 0.9})

	out := messages(ct.Validate())
	assert.Contains(t, out, "/round/issuances/0: set either investment or target_percentage, not both")
	assert.Contains(t, out, "/round/pro_rata: target percentages sum to 1, must be below 1")
}

func TestValidate_Calculations(t *testing.T) {
	ct := validCapTable()
	ct.Calculations = append(ct.Calculations, Calculation{ID: ""}, Calculation{ID: "calc-1", Value: json.RawMessage(`2`)})

	issues := ct.Validate()
	require.Len(t, issues, 3)
	out := messages(issues)
	assert.Contains(t, out, "/calculations/1/id: missing id")
	assert.Contains(t, out, "/calculations/1/value: missing value")
	assert.Contains(t, out, `/calculations/2/id: duplicate id "calc-1"`)
}
