package main

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/JakeFAU/productscraper/internal/app"
	"github.com/JakeFAU/productscraper/internal/config"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Config config.Config
	Logger *zap.Logger
	App    *app.App
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config string `short:"c" env:"PRODUCTSCRAPER_CONFIG" type:"path" help:"Path to a YAML config file"`

	Crawl CrawlCmd `cmd:"" help:"Scrape the listing and merge the products into the store"`
	Serve ServeCmd `cmd:"" help:"Serve the stored products over HTTP"`
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	Pages *int   `short:"n" help:"Number of pages to scrape (0 = until the listing ends)"`
	Proxy string `help:"Proxy URL for page requests"`
}

// ServeCmd is the "serve" subcommand.
type ServeCmd struct {
	Port int `short:"p" help:"Port to listen on (overrides server.port)"`
}
