package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/liqlens/liqlens/internal/domain"
)

// ClobClient is the read-only REST client for the CLOB API's public market
// data endpoints.
type ClobClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewClobClient creates a new CLOB market data client.
//
// baseURL is the CLOB API root, e.g. "https://clob.polymarket.com".
func NewClobClient(baseURL string) *ClobClient {
	return &ClobClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetBook fetches the raw book for a single outcome token.
func (c *ClobClient) GetBook(ctx context.Context, tokenID string) (APIBook, error) {
	params := url.Values{}
	params.Set("token_id", tokenID)

	body, err := c.doGet(ctx, "/book?"+params.Encode())
	if err != nil {
		return APIBook{}, fmt.Errorf("polymarket/clob: get book %s: %w", tokenID, err)
	}

	var book APIBook
	if err := json.Unmarshal(body, &book); err != nil {
		return APIBook{}, fmt.Errorf("polymarket/clob: decode book: %w", err)
	}
	return book, nil
}

// FetchOrderbook fetches both outcome tokens' bid sides and assembles a
// validated two-sided domain book. The snapshot timestamp is the later of the
// two book timestamps; the caller owns consistency policy across the pair.
func (c *ClobClient) FetchOrderbook(ctx context.Context, market domain.Market) (domain.Orderbook, error) {
	yesBook, err := c.GetBook(ctx, market.TokenID(domain.OutcomeYes))
	if err != nil {
		return domain.Orderbook{}, err
	}
	noBook, err := c.GetBook(ctx, market.TokenID(domain.OutcomeNo))
	if err != nil {
		return domain.Orderbook{}, err
	}

	yesLevels, err := yesBook.BidLevels()
	if err != nil {
		return domain.Orderbook{}, fmt.Errorf("polymarket/clob: parse yes levels: %w", err)
	}
	noLevels, err := noBook.BidLevels()
	if err != nil {
		return domain.Orderbook{}, fmt.Errorf("polymarket/clob: parse no levels: %w", err)
	}

	capturedAt := yesBook.CapturedAt()
	if noTS := noBook.CapturedAt(); noTS.After(capturedAt) {
		capturedAt = noTS
	}
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}

	ob, err := domain.NewOrderbook(yesLevels, noLevels, capturedAt)
	if err != nil {
		return domain.Orderbook{}, fmt.Errorf("polymarket/clob: market %s: %w", market.ID, err)
	}
	return ob, nil
}

// doGet sends an unauthenticated GET request to the CLOB API.
func (c *ClobClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}
