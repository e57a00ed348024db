package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/odyssey-erp/quotedesk/internal/document"
	"github.com/odyssey-erp/quotedesk/internal/document/pdf"
)

const testModeEnv = "QUOTEDESK_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// detectTestMode reads the QUOTEDESK_TEST_MODE flag once.
func detectTestMode() {
	testModeFlag.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether the binaries should skip runtime side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode updates the cached flag after environment changes.
func RefreshTestMode() {
	detectTestMode()
}

// NewDocumentEngine builds the layout engine with the PDF encoder from configuration.
func NewDocumentEngine(cfg *Config) (*document.Engine, error) {
	unit, err := cfg.Currency()
	if err != nil {
		return nil, err
	}
	return document.New(pdf.New(),
		document.WithCurrency(unit),
		document.WithMaxPages(cfg.QuoteMaxPages),
		document.WithFooterText(cfg.QuoteFooterText),
	), nil
}

// RenderVariant fingerprints the settings that change rendered output, for cache keys.
func RenderVariant(cfg *Config) string {
	footer := cfg.QuoteFooterText
	if footer == "" {
		footer = document.DefaultFooterText
	}
	return cfg.QuoteCurrency + "|" + strconv.Itoa(cfg.QuoteMaxPages) + "|" + footer
}
