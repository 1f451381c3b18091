package market

import (
	"context"
	"fmt"
	"strings"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// Quote is a point-in-time snapshot of one symbol.
type Quote struct {
	Symbol        string  `json:"symbol"`
	CompanyName   string  `json:"company_name"`
	Current       float64 `json:"current"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	DayHigh       float64 `json:"day_high"`
	DayLow        float64 `json:"day_low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previous_close"`
	MarketCap     float64 `json:"market_cap"`
	Industry      string  `json:"industry"`
}

type FinnHubClient struct {
	client *finnhub.DefaultApiService
}

func NewFinnHubClient(apiKey string) *FinnHubClient {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)
	client := finnhub.NewAPIClient(cfg).DefaultApi
	return &FinnHubClient{client: client}
}

func (c *FinnHubClient) Lookup(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}

	res, _, err := c.client.Quote(ctx).Symbol(symbol).Execute()
	if err != nil {
		return nil, fmt.Errorf("finnhub quote %s: %w", symbol, err)
	}

	q := &Quote{Symbol: symbol}

	if res.C != nil {
		q.Current = float64(*res.C)
	}

	if res.D != nil {
		q.Change = float64(*res.D)
	}

	if res.Dp != nil {
		q.ChangePercent = float64(*res.Dp)
	}

	if res.H != nil {
		q.DayHigh = float64(*res.H)
	}

	if res.L != nil {
		q.DayLow = float64(*res.L)
	}

	if res.O != nil {
		q.Open = float64(*res.O)
	}

	if res.Pc != nil {
		q.PreviousClose = float64(*res.Pc)
	}

	// An unknown symbol comes back as an all-zero quote rather than an error.
	if q.Current == 0 && q.PreviousClose == 0 && q.Open == 0 {
		return nil, fmt.Errorf("no quote data for %s", symbol)
	}

	profile, _, err := c.client.CompanyProfile2(ctx).Symbol(symbol).Execute()
	if err == nil {
		if profile.Name != nil {
			q.CompanyName = *profile.Name
		}
		if profile.MarketCapitalization != nil {
			q.MarketCap = float64(*profile.MarketCapitalization)
		}
		if profile.FinnhubIndustry != nil {
			q.Industry = *profile.FinnhubIndustry
		}
	}

	return q, nil
}

// Describe renders a quote as a short human-readable line, used as the quote
// stage's summary text.
func (q Quote) Describe() string {
	name := q.CompanyName
	if name == "" {
		name = q.Symbol
	}
	return fmt.Sprintf("%s (%s): %.2f (%+.2f, %+.2f%%), day range %.2f-%.2f, previous close %.2f",
		name, q.Symbol, q.Current, q.Change, q.ChangePercent, q.DayLow, q.DayHigh, q.PreviousClose)
}
