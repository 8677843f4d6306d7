// Package parser extracts product records from WooCommerce listing pages.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/JakeFAU/productscraper/internal/crawler"
	"github.com/JakeFAU/productscraper/internal/logging"
	"github.com/JakeFAU/productscraper/internal/metrics"
	"github.com/JakeFAU/productscraper/internal/product"
)

// Fallback values used when a product element lacks a field.
const (
	UnknownTitle      = "Unknown"
	PriceNotAvailable = "Price not available"
)

// Selectors locate product fields inside a listing page.
type Selectors struct {
	Product   string
	Title     string
	SalePrice string
	Price     string
	Thumbnail string
}

// DefaultSelectors matches the stock WooCommerce product loop.
func DefaultSelectors() Selectors {
	return Selectors{
		Product:   "div.product-inner",
		Title:     "h2.woo-loop-product__title",
		SalePrice: "ins",
		Price:     "span.woocommerce-Price-amount",
		Thumbnail: ".mf-product-thumbnail",
	}
}

// Parser implements crawler.Extractor.
type Parser struct {
	sel    Selectors
	logger *zap.Logger
}

var _ crawler.Extractor = (*Parser)(nil)

// New builds a Parser using DefaultSelectors.
func New(logger *zap.Logger) *Parser {
	return NewWithSelectors(DefaultSelectors(), logger)
}

// NewWithSelectors builds a Parser with custom selectors.
func NewWithSelectors(sel Selectors, logger *zap.Logger) *Parser {
	return &Parser{sel: sel, logger: logging.OrNop(logger)}
}

// Candidate holds the raw fields scraped from one product element.
type Candidate struct {
	Title string
	Price string
	Image string
}

// Extract returns the valid records on the page in document order. Invalid
// candidates are logged and skipped.
func (p *Parser) Extract(body []byte) ([]product.Record, error) {
	candidates, err := p.Candidates(body)
	if err != nil {
		return nil, err
	}

	records := make([]product.Record, 0, len(candidates))
	for _, c := range candidates {
		rec, err := product.Parse(c.Title, c.Price, c.Image)
		if err != nil {
			p.logger.Warn("skipping invalid product",
				zap.Error(err),
				zap.String("title", c.Title),
				zap.String("price", c.Price),
				zap.String("image", c.Image),
			)
			metrics.ObserveDroppedProduct()
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Candidates returns the raw fields of every product element, before validation.
func (p *Parser) Candidates(body []byte) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	var out []Candidate
	doc.Find(p.sel.Product).Each(func(_ int, s *goquery.Selection) {
		out = append(out, Candidate{
			Title: p.title(s),
			Price: p.price(s),
			Image: p.image(s),
		})
	})
	return out, nil
}

func (p *Parser) title(s *goquery.Selection) string {
	node := s.Find(p.sel.Title).First()
	if node.Length() == 0 {
		return UnknownTitle
	}
	return strings.TrimSpace(node.Text())
}

func (p *Parser) price(s *goquery.Selection) string {
	node := s.Find(p.sel.SalePrice).First()
	if node.Length() == 0 {
		node = s.Find(p.sel.Price).First()
	}
	if node.Length() == 0 {
		return PriceNotAvailable
	}
	return strings.Trim(strings.TrimSpace(node.Text()), "₹")
}

func (p *Parser) image(s *goquery.Selection) string {
	img := s.Find(p.sel.Thumbnail).Find("img").First()
	if img.Length() == 0 {
		return ""
	}
	if lazy, ok := img.Attr("data-lazy-src"); ok && lazy != "" {
		return lazy
	}
	src, _ := img.Attr("src")
	return src
}
