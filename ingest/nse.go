package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	models "smartflow/database/models_pkg"
)

// NSE rejects requests that do not look like a browser, so every call
// carries these headers and reuses the cookies handed out by the
// landing page.
var nseHeaders = map[string]string{
	"User-Agent":       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":           "application/json, text/javascript, */*; q=0.01",
	"Accept-Language":  "en-US,en;q=0.9",
	"Connection":       "keep-alive",
	"X-Requested-With": "XMLHttpRequest",
}

// NSEClient talks to the NSE JSON endpoints over one cookie-carrying
// session.
type NSEClient struct {
	baseURL string
	http    *http.Client
}

// NewNSEClient creates a client with a fresh cookie jar.
func NewNSEClient(baseURL string, timeout time.Duration) *NSEClient {
	jar, _ := cookiejar.New(nil)
	return &NSEClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
	}
}

// InitSession visits the landing page to collect the session cookies
// the API endpoints require. Must be called before any fetch.
func (c *NSEClient) InitSession(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("nse session: %w", err)
	}
	applyNSEHeaders(req, c.baseURL)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("nse session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nse session: status %d", resp.StatusCode)
	}
	return nil
}

// nseDeal mirrors one entry of the block/bulk deal feeds. NSE is not
// consistent about numeric types, so quantity and price decode via
// json.Number.
type nseDeal struct {
	Date       string      `json:"date"`
	TradedDate string      `json:"tradedDate"`
	Symbol     string      `json:"symbol"`
	Name       string      `json:"name"`
	ClientName string      `json:"clientName"`
	BuyOrSell  string      `json:"buyOrSell"`
	Quantity   json.Number `json:"quantityTraded"`
	Price      json.Number `json:"tradePrice"`
}

func (d nseDeal) toRaw() RawDeal {
	date := d.Date
	if date == "" {
		date = d.TradedDate
	}
	qty, _ := d.Quantity.Int64()
	price, _ := d.Price.Float64()
	return RawDeal{
		Date:        date,
		Symbol:      d.Symbol,
		CompanyName: d.Name,
		ClientName:  d.ClientName,
		BuyOrSell:   d.BuyOrSell,
		Quantity:    qty,
		Price:       price,
	}
}

// FetchBlockDeals returns today's published NSE block deals.
func (c *NSEClient) FetchBlockDeals(ctx context.Context) ([]RawDeal, error) {
	return c.fetchDeals(ctx, "/api/block-deal")
}

// FetchBulkDeals returns today's published NSE bulk deals.
func (c *NSEClient) FetchBulkDeals(ctx context.Context) ([]RawDeal, error) {
	return c.fetchDeals(ctx, "/api/bulk-deal")
}

func (c *NSEClient) fetchDeals(ctx context.Context, path string) ([]RawDeal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?index=equities", nil)
	if err != nil {
		return nil, fmt.Errorf("nse %s: %w", path, err)
	}
	applyNSEHeaders(req, c.baseURL+"/report-detail/eq_security")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nse %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nse %s: status %d", path, resp.StatusCode)
	}

	var feed []nseDeal
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("nse %s: decode: %w", path, err)
	}

	raws := make([]RawDeal, 0, len(feed))
	for _, d := range feed {
		raws = append(raws, d.toRaw())
	}
	return raws, nil
}

// quoteEquity is the slice of the quote response we care about.
type quoteEquity struct {
	SecurityWiseDP struct {
		QuantityTraded           json.Number `json:"quantityTraded"`
		DeliveryQuantity         json.Number `json:"deliveryQuantity"`
		DeliveryToTradedQuantity json.Number `json:"deliveryToTradedQuantity"`
	} `json:"securityWiseDP"`
}

// FetchDelivery returns today's delivery statistic for one symbol, or
// nil when the quote carries no delivery section. The percentage is
// clamped to [0, 100]; the feed occasionally reports junk outside it.
func (c *NSEClient) FetchDelivery(ctx context.Context, symbol string) (*models.DeliveryData, error) {
	// Symbols like M&M and J&KBANK carry characters with query-string
	// meaning, so the symbol always goes through url.Values.
	query := url.Values{"symbol": {symbol}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/quote-equity?"+query, nil)
	if err != nil {
		return nil, fmt.Errorf("nse delivery %s: %w", symbol, err)
	}
	applyNSEHeaders(req, c.baseURL+"/get-quotes/equity?"+query)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nse delivery %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nse delivery %s: status %d", symbol, resp.StatusCode)
	}

	var quote quoteEquity
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		return nil, fmt.Errorf("nse delivery %s: decode: %w", symbol, err)
	}

	traded, _ := quote.SecurityWiseDP.QuantityTraded.Int64()
	delivered, _ := quote.SecurityWiseDP.DeliveryQuantity.Int64()
	percent, _ := quote.SecurityWiseDP.DeliveryToTradedQuantity.Float64()
	if traded == 0 && delivered == 0 && percent == 0 {
		return nil, nil
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	return &models.DeliveryData{
		Symbol:            symbol,
		TradeDate:         time.Now(),
		Exchange:          models.ExchangeNSE,
		TradedQuantity:    traded,
		DeliveredQuantity: delivered,
		DeliveryPercent:   percent,
	}, nil
}

func applyNSEHeaders(req *http.Request, referer string) {
	for k, v := range nseHeaders {
		req.Header.Set(k, v)
	}
	req.Header.Set("Referer", referer)
}
