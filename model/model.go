// Package model is the cap-table document read by the generator.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/javajack/xlcap/finance"
)

// CapTable is one company's capitalization as of a date.
type CapTable struct {
	Company      Company         `json:"company"`
	ShareClasses []ShareClass    `json:"share_classes"`
	Stakeholders []Stakeholder   `json:"stakeholders"`
	Issuances    []Issuance      `json:"issuances"`
	OptionGrants []OptionGrant   `json:"option_grants"`
	Convertibles []Convertible   `json:"convertibles"`
	Round        *Round          `json:"round,omitempty"`
	ExitValue    float64         `json:"exit_value"`
	Calculations []Calculation   `json:"calculations"`
	Raw          json.RawMessage `json:"-"` // the document as read
}

// Company identifies the issuer.
type Company struct {
	Name string `json:"name"`
	AsOf Date   `json:"as_of_date"`
}

// ShareClass is a class of stock. Lower Seniority is paid first in a liquidation.
type ShareClass struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Preferred          bool    `json:"preferred"`
	Seniority          int     `json:"seniority"`
	PreferenceMultiple float64 `json:"preference_multiple"`
	Participating      bool    `json:"participating"`
}

// Stakeholder holds securities.
type Stakeholder struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // founder, employee, investor, ...
}

// Issuance is one ledger row of issued shares.
type Issuance struct {
	ID            string  `json:"id"`
	StakeholderID string  `json:"stakeholder_id"`
	ShareClassID  string  `json:"share_class_id"`
	Shares        float64 `json:"shares"`
	PricePerShare float64 `json:"price_per_share"`
	Date          Date    `json:"date"`
}

// OptionGrant is an option award vesting monthly after a cliff.
type OptionGrant struct {
	ID            string  `json:"id"`
	StakeholderID string  `json:"stakeholder_id"`
	Quantity      float64 `json:"quantity"`
	Strike        float64 `json:"strike_price"`
	GrantDate     Date    `json:"grant_date"`
	CliffMonths   int     `json:"cliff_months"`
	VestingMonths int     `json:"vesting_months"`
}

// Convertible kinds.
const (
	KindSAFE = "safe"
	KindNote = "note"
)

// Convertible is a SAFE or convertible note converting in the round.
type Convertible struct {
	ID            string               `json:"id"`
	StakeholderID string               `json:"stakeholder_id"`
	Kind          string               `json:"kind"`
	Principal     float64              `json:"principal"`
	Discount      float64              `json:"discount"`
	ValuationCap  float64              `json:"valuation_cap"`
	CapType       finance.CapType      `json:"cap_type"`
	InterestType  finance.InterestType `json:"interest_type"`
	InterestRate  float64              `json:"interest_rate"`
	StartDate     Date                 `json:"start_date"`
}

// Round is the priced round being modeled.
type Round struct {
	Name             string          `json:"name"`
	Date             Date            `json:"date"`
	ShareClassID     string          `json:"share_class_id"`
	PreMoney         float64         `json:"pre_money_valuation"`
	PostMoneyCap     bool            `json:"post_money_cap"` // the round cap of default-cap convertibles is post-money
	ValuationCap     float64         `json:"valuation_cap"`
	OptionPoolTarget float64         `json:"option_pool_target"`
	Issuances        []RoundIssuance `json:"issuances"`
	ProRata          []ProRataRight  `json:"pro_rata"`
}

// Round issuance bases.
const (
	BasisInvestment = "investment"
	BasisPercentage = "percentage"
)

// RoundIssuance is new money in the round, sized either by amount invested or by a
// target ownership percentage.
type RoundIssuance struct {
	ID            string  `json:"id"`
	StakeholderID string  `json:"stakeholder_id"`
	Investment    float64 `json:"investment"`
	TargetPercent float64 `json:"target_percentage"`
}

// Basis reports how the issuance is sized.
func (r RoundIssuance) Basis() string {
	if r.TargetPercent > 0 {
		return BasisPercentage
	}
	return BasisInvestment
}

// ProRataRight lets an existing holder top up to a target ownership in the round.
type ProRataRight struct {
	ID            string  `json:"id"`
	StakeholderID string  `json:"stakeholder_id"`
	TargetPercent float64 `json:"target_percentage"`
}

// Calculation is a free-form output row: a literal or a formula encoding object.
type Calculation struct {
	ID    string          `json:"id"`
	Label string          `json:"label"`
	Value json.RawMessage `json:"value"`
}

// Date is a calendar date written as "2006-01-02". The zero Date is blank.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate returns the Date of year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// UnmarshalJSON accepts "2006-01-02", an RFC 3339 timestamp, "" or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, s); err != nil {
			return fmt.Errorf("parse date %q: want YYYY-MM-DD", s)
		}
	}
	*d = Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
	return nil
}

// MarshalJSON writes the date as "2006-01-02", or null when blank.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// Value returns the date for a cell, or nil for a blank date.
func (d Date) Value() any {
	if d.IsZero() {
		return nil
	}
	return d.Time
}

// Decode parses a cap-table document.
func Decode(data []byte) (*CapTable, error) {
	var ct CapTable
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&ct); err != nil {
		return nil, fmt.Errorf("decode cap table: %w", err)
	}
	ct.Raw = append(json.RawMessage(nil), data...)
	return &ct, nil
}

// Load reads and parses a cap-table file.
func Load(path string) (*CapTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cap table %q: %w", path, err)
	}
	ct, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", path, err)
	}
	return ct, nil
}

// AsOf returns the valuation date: the company as-of date, else the round date,
// else today.
func (ct *CapTable) AsOf() time.Time {
	switch {
	case !ct.Company.AsOf.IsZero():
		return ct.Company.AsOf.Time
	case ct.Round != nil && !ct.Round.Date.IsZero():
		return ct.Round.Date.Time
	default:
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// StakeholderName returns the name of a stakeholder id, or the id itself.
func (ct *CapTable) StakeholderName(id string) string {
	for _, s := range ct.Stakeholders {
		if s.ID == id {
			return s.Name
		}
	}
	return id
}

// ShareClass returns a share class by id.
func (ct *CapTable) ShareClass(id string) (ShareClass, bool) {
	for _, c := range ct.ShareClasses {
		if c.ID == id {
			return c, true
		}
	}
	return ShareClass{}, false
}
