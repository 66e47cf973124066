package ingest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// BSE has no JSON feed for large deals; the daily reports are scraped
// from the same ASP.NET grid tables the website renders.
const (
	bseBulkDealsPath  = "/markets/equity/EQReports/bulk_deals.aspx"
	bseBlockDealsPath = "/markets/equity/EQReports/block_deals.aspx"

	bseBulkTableID  = "#ContentPlaceHolder1_gvbulk_deals"
	bseBlockTableID = "#ContentPlaceHolder1_gvblock_deals"
)

// BSEClient scrapes the BSE deal report pages.
type BSEClient struct {
	baseURL string
	http    *http.Client
}

// NewBSEClient creates a new BSE scraper client.
func NewBSEClient(baseURL string, timeout time.Duration) *BSEClient {
	return &BSEClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchBulkDeals scrapes today's BSE bulk deal report.
func (c *BSEClient) FetchBulkDeals(ctx context.Context) ([]RawDeal, error) {
	return c.scrape(ctx, bseBulkDealsPath, bseBulkTableID)
}

// FetchBlockDeals scrapes today's BSE block deal report.
func (c *BSEClient) FetchBlockDeals(ctx context.Context) ([]RawDeal, error) {
	return c.scrape(ctx, bseBlockDealsPath, bseBlockTableID)
}

// scrape walks the report grid. Column layout, fixed by the page:
// 0 date, 1 scrip code, 2 symbol, 3 client name, 4 buy/sell,
// 5 quantity, 6 price. The first row is the header.
func (c *BSEClient) scrape(ctx context.Context, path, tableID string) ([]RawDeal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("bse %s: %w", path, err)
	}
	req.Header.Set("User-Agent", nseHeaders["User-Agent"])

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bse %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bse %s: status %d", path, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bse %s: parse: %w", path, err)
	}

	var deals []RawDeal
	doc.Find(tableID + " tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cols := row.Find("td")
		if cols.Length() < 7 {
			return
		}

		cell := func(n int) string {
			return strings.TrimSpace(cols.Eq(n).Text())
		}

		quantity, _ := strconv.ParseInt(strings.ReplaceAll(cell(5), ",", ""), 10, 64)
		price, _ := strconv.ParseFloat(strings.ReplaceAll(cell(6), ",", ""), 64)

		symbol := cell(2)
		clientName := cell(3)
		if symbol == "" || clientName == "" || quantity == 0 || price == 0 {
			return
		}

		deals = append(deals, RawDeal{
			Date:        cell(0),
			Symbol:      symbol,
			CompanyName: symbol, // the report carries no separate company name
			ClientName:  clientName,
			BuyOrSell:   cell(4),
			Quantity:    quantity,
			Price:       price,
		})
	})

	return deals, nil
}
