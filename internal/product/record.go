// Package product defines the validated product record produced by the scraper.
package product

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// imagePattern accepts https://<host>/<path>.<ext> for the supported image extensions.
var imagePattern = regexp.MustCompile(`(?i)^https://[^/\s]+/\S+\.(jpg|jpeg|png|gif|bmp|webp)$`)

// Record is a normalized product scraped from a listing page.
type Record struct {
	Title     string `json:"product_title"`
	Price     int    `json:"product_price"`
	ImagePath string `json:"path_to_image"`
}

// Key identifies a product across crawls.
type Key struct {
	Title     string
	ImagePath string
}

// ValidationError reports a field that failed record validation.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

// New builds a Record and validates every field.
func New(title string, price int, imagePath string) (Record, error) {
	rec := Record{
		Title:     strings.TrimSpace(title),
		Price:     price,
		ImagePath: strings.TrimSpace(imagePath),
	}
	if err := rec.Validate(); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Parse builds a Record from the raw text scraped off a page.
func Parse(title, rawPrice, imagePath string) (Record, error) {
	price, err := ParsePrice(rawPrice)
	if err != nil {
		return Record{}, err
	}
	return New(title, price, imagePath)
}

// ParsePrice converts scraped price text such as "₹1,299" into whole units.
func ParsePrice(raw string) (int, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, "₹")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	price, err := strconv.Atoi(cleaned)
	if err != nil {
		return 0, &ValidationError{Field: "price", Value: raw, Reason: "not an integer"}
	}
	if price < 0 {
		return 0, &ValidationError{Field: "price", Value: raw, Reason: "must not be negative"}
	}
	return price, nil
}

// Validate checks the record invariants.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return &ValidationError{Field: "title", Value: r.Title, Reason: "must not be empty"}
	}
	if r.Price < 0 {
		return &ValidationError{Field: "price", Value: strconv.Itoa(r.Price), Reason: "must not be negative"}
	}
	if !imagePattern.MatchString(r.ImagePath) {
		return &ValidationError{
			Field:  "image",
			Value:  r.ImagePath,
			Reason: "must be an https URL ending in jpg, jpeg, png, gif, bmp or webp",
		}
	}
	return nil
}

// Key returns the identity used to match stored records.
func (r Record) Key() Key {
	return Key{Title: r.Title, ImagePath: r.ImagePath}
}
