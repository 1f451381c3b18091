package market

import (
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestDescribeWithCompanyName(t *testing.T) {
	q := Quote{
		Symbol:        "ACME",
		CompanyName:   "Acme Corp",
		Current:       101.5,
		Change:        1.5,
		ChangePercent: 1.5,
		DayHigh:       102,
		DayLow:        99.8,
		PreviousClose: 100,
	}

	desc := q.Describe()

	assert.Equal(t, true, strings.Contains(desc, "Acme Corp (ACME)"))
	assert.Equal(t, true, strings.Contains(desc, "101.50"))
	assert.Equal(t, true, strings.Contains(desc, "+1.50%"))
}

func TestDescribeFallsBackToSymbol(t *testing.T) {
	q := Quote{Symbol: "ACME", Current: 50}

	assert.Equal(t, true, strings.HasPrefix(q.Describe(), "ACME (ACME)"))
}
