// Package scraper searches the House Clerk financial-disclosure registry
// for a politician's filings and downloads filing PDFs. It is the
// document source collaborator: the extraction core never touches the
// network.
package scraper

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/tradewatch/src/logger"
	"github.com/username/tradewatch/src/models"
)

const (
	searchPath     = "/FinancialDisclosure/ViewMemberSearchResult"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	maxSearchHits  = 20
	downloadPerm   = 0o644
	requestTimeout = 30 * time.Second
)

var filingIDRe = regexp.MustCompile(`/(\d+)\.pdf$`)

// Client talks to the disclosure registry. Requests are rate limited to
// stay polite, and per-year search results are cached for the lifetime
// of a run so overlapping politician searches do not hammer the site.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	searchCache *cache.Cache
}

func New(baseURL string, requestInterval time.Duration, burst int) *Client {
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: requestTimeout},
		limiter:     rate.NewLimiter(rate.Every(requestInterval), burst),
		searchCache: cache.New(15*time.Minute, 30*time.Minute),
	}
}

// SearchFilings queries the registry for a politician's filings over the
// last yearsBack years plus the current one, newest filing id first.
func (c *Client) SearchFilings(ctx context.Context, p models.Politician, yearsBack int) ([]models.Filing, error) {
	var filings []models.Filing

	currentYear := time.Now().Year()
	for year := currentYear; year >= currentYear-yearsBack; year-- {
		yearFilings, err := c.searchYear(ctx, p, year)
		if err != nil {
			logger.L.Error("Registry search failed for year",
				"politician", p.Key, "year", year, "error", err)
			continue
		}
		filings = append(filings, yearFilings...)
		if len(filings) > maxSearchHits {
			break
		}
	}

	// Higher filing id means newer filing.
	sort.Slice(filings, func(i, j int) bool {
		a, _ := strconv.Atoi(filings[i].FilingID)
		b, _ := strconv.Atoi(filings[j].FilingID)
		return a > b
	})

	logger.L.Info("Registry search complete",
		"politician", p.Key, "filings", len(filings))
	return filings, nil
}

func (c *Client) searchYear(ctx context.Context, p models.Politician, year int) ([]models.Filing, error) {
	cacheKey := fmt.Sprintf("%s:%d", p.Key, year)
	if cached, found := c.searchCache.Get(cacheKey); found {
		return cached.([]models.Filing), nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	lastName := strings.TrimSpace(strings.Split(p.SearchName, ",")[0])
	form := url.Values{
		"LastName":   {lastName},
		"FilingYear": {strconv.Itoa(year)},
		"State":      {p.State},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+searchPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scraper: searching %s in %d: %w", p.Key, year, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scraper: searching %s in %d: unexpected status %s", p.Key, year, resp.Status)
	}

	filings, err := c.parseSearchResults(resp.Body, p, year)
	if err != nil {
		return nil, err
	}

	c.searchCache.Set(cacheKey, filings, cache.DefaultExpiration)
	return filings, nil
}

// parseSearchResults extracts filing rows from the registry's search
// result table. Rows missing a document link are skipped.
func (c *Client) parseSearchResults(body io.Reader, p models.Politician, year int) ([]models.Filing, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("scraper: parsing search results: %w", err)
	}

	var filings []models.Filing
	doc.Find("table.library-table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return // header or malformed row
		}

		href, ok := cells.Eq(0).Find("a").Attr("href")
		if !ok || href == "" {
			return
		}
		documentURL := c.absoluteURL(href)
		filingType := strings.TrimSpace(cells.Eq(3).Text())

		filings = append(filings, models.Filing{
			FilingID:      FilingIDFromURL(documentURL),
			PoliticianKey: p.Key,
			FilingType:    filingType,
			FilingDate:    strconv.Itoa(year),
			DocumentURL:   documentURL,
			IsPTR:         strings.Contains(strings.ToUpper(filingType), "PTR"),
		})
	})

	logger.L.Debug("Parsed search result rows",
		"politician", p.Key, "year", year, "filings", len(filings))
	return filings, nil
}

func (c *Client) absoluteURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return href
	}
	return base.ResolveReference(u).String()
}

// FilingIDFromURL derives the registry-assigned filing id from the
// document URL, e.g. ".../ptr-pdfs/2025/20026590.pdf" -> "20026590".
// URLs without the numeric form fall back to a short content hash.
func FilingIDFromURL(documentURL string) string {
	if m := filingIDRe.FindStringSubmatch(documentURL); m != nil {
		return m[1]
	}
	sum := md5.Sum([]byte(documentURL))
	return fmt.Sprintf("%x", sum)[:8]
}

// DownloadPDF fetches a filing document to the given path.
func (c *Client) DownloadPDF(ctx context.Context, documentURL, destPath string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, documentURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("scraper: downloading %s: %w", documentURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scraper: downloading %s: unexpected status %s", documentURL, resp.Status)
	}

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, downloadPerm)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("scraper: writing %s: %w", destPath, err)
	}

	logger.L.Info("Downloaded filing document", "url", documentURL, "dest", destPath)
	return nil
}
