package model

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajack/xlcap/finance"
)

func TestLoad_Sample(t *testing.T) {
	ct, err := Load("../testdata/captable.json")
	require.NoError(t, err)

	assert.Equal(t, "Acme Robotics, Inc.", ct.Company.Name)
	assert.Equal(t, NewDate(2024, time.June, 30), ct.Company.AsOf)
	assert.Len(t, ct.ShareClasses, 3)
	assert.Len(t, ct.Stakeholders, 8)
	assert.Len(t, ct.Issuances, 3)
	assert.True(t, ct.OptionGrants[1].GrantDate.IsZero())
	assert.Equal(t, finance.CapPreConversion, ct.Convertibles[0].CapType)
	assert.Equal(t, finance.SimpleInterest, ct.Convertibles[1].InterestType)

	require.NotNil(t, ct.Round)
	assert.Equal(t, 20000000.0, ct.Round.PreMoney)
	assert.Equal(t, BasisInvestment, ct.Round.Issuances[0].Basis())
	assert.Equal(t, BasisPercentage, ct.Round.Issuances[1].Basis())
	assert.Equal(t, 0.08, ct.Round.ProRata[0].TargetPercent)

	assert.Len(t, ct.Calculations, 3)
	assert.JSONEq(t, `"Finance team"`, string(ct.Calculations[2].Value))
	assert.NotEmpty(t, ct.Raw)
	assert.Empty(t, ct.Validate())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "read cap table")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"company": {"as_of_date": "30/06/2024"}}`), 0o644))
	_, err = Load(bad)
	assert.ErrorContains(t, err, "want YYYY-MM-DD")
}

func TestDate_JSON(t *testing.T) {
	var d struct {
		A Date `json:"a"`
		B Date `json:"b"`
		C Date `json:"c"`
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": "2024-02-29", "b": "2024-03-01T15:04:05+02:00", "c": "", "d": null}`), &d))
	assert.Equal(t, NewDate(2024, time.February, 29), d.A)
	assert.Equal(t, NewDate(2024, time.March, 1), d.B)
	assert.True(t, d.C.IsZero())
	assert.True(t, d.D.IsZero())

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": "2024-02-29", "b": "2024-03-01", "c": null, "d": null}`, string(out))
}

func TestDate_Value(t *testing.T) {
	assert.Nil(t, Date{}.Value())
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), NewDate(2024, time.June, 30).Value())
}

func TestCapTable_AsOf(t *testing.T) {
	ct := &CapTable{Company: Company{AsOf: NewDate(2024, 1, 1)}, Round: &Round{Date: NewDate(2024, 7, 1)}}
	assert.Equal(t, NewDate(2024, 1, 1).Time, ct.AsOf())

	ct.Company.AsOf = Date{}
	assert.Equal(t, NewDate(2024, 7, 1).Time, ct.AsOf())

	ct.Round = nil
	now := ct.AsOf()
	assert.Equal(t, 0, now.Hour())
	assert.WithinDuration(t, time.Now(), now, 48*time.Hour)
}

func TestCapTable_Lookups(t *testing.T) {
	ct := &CapTable{
		Stakeholders: []Stakeholder{{ID: "sh-1", Name: "Ada"}},
		ShareClasses: []ShareClass{{ID: "common", Name: "Common"}},
	}
	assert.Equal(t, "Ada", ct.StakeholderName("sh-1"))
	assert.Equal(t, "sh-9", ct.StakeholderName("sh-9"))

	c, ok := ct.ShareClass("common")
	assert.True(t, ok)
	assert.Equal(t, "Common", c.Name)
	_, ok = ct.ShareClass("preferred")
	assert.False(t, ok)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte(`{"issuances": {}}`))
	assert.ErrorContains(t, err, "decode cap table")
}
