package usecase

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// fallbackSnapshotChars is the page prefix used when no spec region is found
const fallbackSnapshotChars = 5000

// specRegionSelectors are tried in order; the first selector with a match wins
var specRegionSelectors = []string{
	"div.spec", "table.spec",
	"div.details", "table.details",
	"div.specs", "table.specs",
	"div.product-description", "table.product-description",
	"div.product-specs", "table.product-specs",
	"div.product-details", "table.product-details",
	"div.product-bullets", "table.product-bullets",
	"ul.product-specs",
}

// pricePattern lists the price classes one retailer family renders its displayed price with
type pricePattern struct {
	retailer string
	classes  []string
}

// pricePatterns are tried in order. Each class is looked up as li, then div, then span.
var pricePatterns = []pricePattern{
	{retailer: "newegg", classes: []string{"price-current", "price", "price-value"}},
	{retailer: "bestbuy", classes: []string{"priceView-customer-price", "pricing-price__regular-price"}},
	{retailer: "canadacomputers", classes: []string{"pq-hdr-price", "price"}},
}

var priceTagOrder = []string{"li", "div", "span"}

var priceNoise = strings.NewReplacer("CAD", "", "USD", "", "$", "", ",", "")

// ContentExtractor locates the spec region and displayed price of a product page
type ContentExtractor struct {
	converter *CurrencyConverter
	log       logrus.FieldLogger
}

// NewContentExtractor creates a content extractor. converter may be nil to skip conversion.
func NewContentExtractor(converter *CurrencyConverter, log logrus.FieldLogger) *ContentExtractor {
	return &ContentExtractor{
		converter: converter,
		log:       log.WithField("component", "content-extractor"),
	}
}

// Extract returns the spec markup and the displayed price converted into requesterCurrency.
// It never fails on a page that lacks a spec region or a price.
func (e *ContentExtractor) Extract(ctx context.Context, page *domain.SourcePage, requesterCurrency string) (*domain.SpecExtractionResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Body))
	if err != nil {
		return nil, err
	}

	result := &domain.SpecExtractionResult{
		SpecsMarkup: findSpecRegion(doc, page.Body),
	}

	price, ok := findPatternPrice(doc)
	if !ok {
		price, ok = findTextNodePrice(doc)
	}
	if !ok {
		e.log.WithField("url", page.URL).Warn("no displayed price found on page")
		return result, nil
	}

	if e.converter != nil && requesterCurrency != "" {
		storeCurrency := e.converter.StoreCurrency(ctx, page.Host)
		price = e.converter.Convert(ctx, price, storeCurrency, requesterCurrency)
	}
	result.PrebuiltPrice = &price

	e.log.WithFields(logrus.Fields{"url": page.URL, "price": price, "specs_chars": len(result.SpecsMarkup)}).Debug("extracted page content")
	return result, nil
}

// findSpecRegion returns the first matching spec region, or a page prefix
func findSpecRegion(doc *goquery.Document, body string) string {
	for _, selector := range specRegionSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			if markup, err := goquery.OuterHtml(sel); err == nil && markup != "" {
				return markup
			}
		}
	}
	return truncateRunes(body, fallbackSnapshotChars)
}

func findPatternPrice(doc *goquery.Document) (float64, bool) {
	for _, pattern := range pricePatterns {
		for _, class := range pattern.classes {
			for _, tag := range priceTagOrder {
				sel := doc.Find(tag + "." + class).First()
				if sel.Length() == 0 {
					continue
				}
				if price, ok := parsePrice(sel.Text()); ok {
					return price, true
				}
				break
			}
		}
	}
	return 0, false
}

// findTextNodePrice scans text nodes containing a dollar sign in document order
func findTextNodePrice(doc *goquery.Document) (float64, bool) {
	var price float64
	var found bool

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found {
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode && strings.Contains(n.Data, "$") {
			if p, ok := parsePrice(n.Data); ok {
				price, found = p, true
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return price, found
}

// parsePrice strips currency markers and separators and requires a positive number
func parsePrice(text string) (float64, bool) {
	cleaned := strings.Join(strings.Fields(priceNoise.Replace(text)), "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
