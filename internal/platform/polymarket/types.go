package polymarket

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/liqlens/liqlens/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// priceToCents parses a dollar-probability string like "0.48" into integer
// cents. The APIs quote prices on a cent grid, so rounding only absorbs
// float formatting noise.
func priceToCents(s string) (int, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int(math.Round(f * 100)), nil
}

// sizeToContracts parses a size string like "220.12" into whole contracts,
// truncating any fractional remainder.
func sizeToContracts(s string) (int64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// Token is one outcome token inside an APIMarket.
type Token struct {
	TokenID string `json:"token_id"`
	Outcome string `json:"outcome"`
	Winner  bool   `json:"winner"`
}

// APIMarket represents a market as returned by the Gamma API.
type APIMarket struct {
	ID           string   `json:"id"`
	Question     string   `json:"question"`
	ConditionID  string   `json:"condition_id"`
	Slug         string   `json:"slug"`
	Active       flexBool `json:"active"` // API may send bool or "true"/"false" string
	Closed       bool     `json:"closed"`
	Outcomes     string   `json:"outcomes"`      // JSON-encoded: e.g. "[\"Yes\",\"No\"]"
	ClobTokenIDs string   `json:"clobTokenIds"`  // JSON-encoded array of token IDs
	Volume24hr   float64  `json:"volume24hr"`
	OpenInterest float64  `json:"openInterest"`
	Tokens       []Token  `json:"tokens"`
	EndDateISO   string   `json:"end_date_iso"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// ToDomainMarket converts an APIMarket to a domain.Market.
func (m *APIMarket) ToDomainMarket() domain.Market {
	out := domain.Market{
		ID:           m.ID,
		Question:     m.Question,
		Slug:         m.Slug,
		ConditionID:  m.ConditionID,
		Volume24h:    int64(m.Volume24hr),
		OpenInterest: int64(m.OpenInterest),
	}

	var outcomes []string
	if err := json.Unmarshal([]byte(m.Outcomes), &outcomes); err == nil && len(outcomes) >= 2 {
		out.Outcomes[0], out.Outcomes[1] = outcomes[0], outcomes[1]
	}
	var tokenIDs []string
	if err := json.Unmarshal([]byte(m.ClobTokenIDs), &tokenIDs); err == nil && len(tokenIDs) >= 2 {
		out.TokenIDs[0], out.TokenIDs[1] = tokenIDs[0], tokenIDs[1]
	}
	// Prefer the explicit token list when present.
	for _, tok := range m.Tokens {
		switch {
		case strings.EqualFold(tok.Outcome, out.Outcomes[0]):
			out.TokenIDs[0] = tok.TokenID
		case strings.EqualFold(tok.Outcome, out.Outcomes[1]):
			out.TokenIDs[1] = tok.TokenID
		}
	}

	switch {
	case m.Closed:
		out.Status = domain.MarketStatusClosed
	case bool(m.Active):
		out.Status = domain.MarketStatusActive
	default:
		out.Status = domain.MarketStatusSettled
	}

	if t, err := time.Parse(time.RFC3339, m.CreatedAt); err == nil {
		out.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339, m.UpdatedAt); err == nil {
		out.UpdatedAt = t
	}
	return out
}

// --------------------------------------------------------------------------
// CLOB API DTOs
// --------------------------------------------------------------------------

// APIBookLevel is one price level in a CLOB book response.
type APIBookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// APIBook is the CLOB GET /book response for a single token.
type APIBook struct {
	Market    string         `json:"market"`
	AssetID   string         `json:"asset_id"`
	Timestamp string         `json:"timestamp"` // unix milliseconds
	Bids      []APIBookLevel `json:"bids"`
	Asks      []APIBookLevel `json:"asks"`
}

// BidLevels converts the book's bid side to validated-input form: integer
// cents and whole contracts. Levels that carry no analyzable liquidity are
// skipped rather than passed on: sizes that truncate to zero contracts, and
// sub-cent tail bids (or 0.995+ quotes) whose price rounds off the [1,99]
// cent grid. Thin longshot markets routinely quote such tails, and one of
// them must not invalidate the whole snapshot.
func (b *APIBook) BidLevels() ([]domain.PriceLevel, error) {
	levels := make([]domain.PriceLevel, 0, len(b.Bids))
	for _, lvl := range b.Bids {
		price, err := priceToCents(lvl.Price)
		if err != nil {
			return nil, err
		}
		qty, err := sizeToContracts(lvl.Size)
		if err != nil {
			return nil, err
		}
		if qty == 0 || price < 1 || price > 99 {
			continue
		}
		levels = append(levels, domain.PriceLevel{Price: price, Quantity: qty})
	}
	return levels, nil
}

// CapturedAt parses the book's millisecond timestamp, falling back to the
// zero time when absent or malformed.
func (b *APIBook) CapturedAt() time.Time {
	ms, err := strconv.ParseInt(b.Timestamp, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// --------------------------------------------------------------------------
// Data API DTOs
// --------------------------------------------------------------------------

// APIPosition represents one holding as returned by the Data API.
type APIPosition struct {
	Market   string  `json:"conditionId"`
	Asset    string  `json:"asset"`
	Outcome  string  `json:"outcome"`
	Size     float64 `json:"size"`
	AvgPrice float64 `json:"avgPrice"` // dollars
}

// ToDomainPosition converts an APIPosition to a domain.Position.
func (p *APIPosition) ToDomainPosition() domain.Position {
	outcome := domain.OutcomeYes
	if strings.EqualFold(p.Outcome, "no") {
		outcome = domain.OutcomeNo
	}
	return domain.Position{
		MarketID: p.Market,
		TokenID:  p.Asset,
		Outcome:  outcome,
		Quantity: int64(p.Size),
		AvgPrice: p.AvgPrice * 100,
	}
}
