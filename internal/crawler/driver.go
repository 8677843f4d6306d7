package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/productscraper/internal/logging"
	"github.com/JakeFAU/productscraper/internal/product"
)

// DriverConfig describes the listing to walk.
type DriverConfig struct {
	// PageURLTemplate must contain exactly one %d verb for the page number.
	PageURLTemplate string
	// PageCount bounds the crawl; 0 means unbounded.
	PageCount int
}

// Validate checks the driver configuration.
func (c DriverConfig) Validate() error {
	if strings.Count(c.PageURLTemplate, "%d") != 1 {
		return fmt.Errorf("page url template %q must contain exactly one %%d", c.PageURLTemplate)
	}
	if c.PageCount < 0 {
		return errors.New("page count must not be negative")
	}
	return nil
}

// Result is the outcome of one crawl.
type Result struct {
	Products []product.Record
	// Pages is the number of fetch calls made.
	Pages  int
	Reason StopReason
	// Err is set when Reason is StopError or StopCanceled.
	Err error
}

// Driver walks listing pages sequentially until a terminal state.
type Driver struct {
	cfg       DriverConfig
	fetcher   Fetcher
	extractor Extractor
	logger    *zap.Logger
}

// NewDriver constructs a Driver.
func NewDriver(cfg DriverConfig, fetcher Fetcher, extractor Extractor, logger *zap.Logger) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	return &Driver{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		logger:    logging.OrNop(logger),
	}, nil
}

// PageURL renders the listing URL for page p.
func (d *Driver) PageURL(p int) string {
	return fmt.Sprintf(d.cfg.PageURLTemplate, p)
}

// Run crawls from page 1. Records gathered before a failure are kept.
func (d *Driver) Run(ctx context.Context) Result {
	res := Result{Products: []product.Record{}}

	for p := 1; d.cfg.PageCount == 0 || p <= d.cfg.PageCount; p++ {
		if err := ctx.Err(); err != nil {
			res.Reason = StopCanceled
			res.Err = err
			d.finish(res)
			return res
		}

		url := d.PageURL(p)
		res.Pages++
		page, err := d.fetcher.Fetch(ctx, url)
		if err != nil {
			res.Reason = StopError
			res.Err = fmt.Errorf("page %d: %w", p, err)
			if ctx.Err() != nil {
				res.Reason = StopCanceled
			}
			d.logger.Error("fetch failed; stopping crawl",
				zap.Int("page", p), zap.String("url", url), zap.Error(err))
			d.finish(res)
			return res
		}

		if page.NotFound {
			res.Reason = StopNotFound
			d.finish(res)
			return res
		}

		records, err := d.extractor.Extract(page.Body)
		if err != nil {
			res.Reason = StopError
			res.Err = fmt.Errorf("page %d: parse: %w", p, err)
			d.logger.Error("parse failed; stopping crawl",
				zap.Int("page", p), zap.String("url", url), zap.Error(err))
			d.finish(res)
			return res
		}
		if len(records) == 0 {
			d.logger.Info("page has no products; end of listing", zap.Int("page", p), zap.String("url", url))
			res.Reason = StopEmptyPage
			d.finish(res)
			return res
		}

		d.logger.Info("page scraped",
			zap.Int("page", p),
			zap.String("url", url),
			zap.Int("products", len(records)),
			zap.Bool("from_cache", page.FromCache),
		)
		res.Products = append(res.Products, records...)
	}

	res.Reason = StopBound
	d.finish(res)
	return res
}

func (d *Driver) finish(res Result) {
	d.logger.Info("crawl finished",
		zap.String("reason", string(res.Reason)),
		zap.Int("pages", res.Pages),
		zap.Int("products", len(res.Products)),
	)
}
