package intake

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const htmlExtractorName = "html"

// HTMLExtractor collects anchor targets and bare links from HTML, such as a
// saved search-results page.
type HTMLExtractor struct {
	client *http.Client
}

// NewHTMLExtractor wires an HTTP client used by FetchPage; nil gets a default.
func NewHTMLExtractor(client *http.Client) *HTMLExtractor {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLExtractor{client: client}
}

// Name identifies the strategy inside the registry.
func (h *HTMLExtractor) Name() string {
	return htmlExtractorName
}

// Extract parses in.Content and returns absolute http(s) links in document order.
func (h *HTMLExtractor) Extract(_ context.Context, in Input) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in.Content))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return extractDocument(doc, in.BaseURL), nil
}

// FetchPage downloads pageURL and extracts its links.
func (h *HTMLExtractor) FetchPage(ctx context.Context, pageURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "JobTriage/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("page returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return extractDocument(doc, pageURL), nil
}

func extractDocument(doc *goquery.Document, baseURL string) []string {
	base, _ := url.Parse(baseURL)
	set := newLinkSet()

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		set.add(absoluteLink(base, href))
	})
	doc.Find("*").Not("script, style").Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "#text" {
			collectText(set, node.Text())
		}
	})

	return set.links
}

func absoluteLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if !ref.IsAbs() {
		if base == nil || !base.IsAbs() {
			return ""
		}
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return ""
	}
	ref.Fragment = ""
	return ref.String()
}
