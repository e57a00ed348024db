package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/currency"

	"github.com/odyssey-erp/quotedesk/internal/document"
	"github.com/odyssey-erp/quotedesk/internal/document/pdf"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	input    string
	output   string
	currency string
	maxPages int
	footer   string
	compress bool
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{currency: "NGN", compress: true}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a quotation payload to PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.input, "in", "i", "", "quotation payload (.json or .toml)")
	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "output PDF path (default: derived from the quote number)")
	cmd.Flags().StringVar(&opts.currency, "currency", opts.currency, "ISO 4217 currency code for amounts")
	cmd.Flags().IntVar(&opts.maxPages, "max-pages", 0, "fail when the document needs more pages (0 = unlimited)")
	cmd.Flags().StringVar(&opts.footer, "footer", "", "override the footer terms")
	cmd.Flags().BoolVar(&opts.compress, "compress", opts.compress, "compress PDF streams")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, opts renderOpts) error {
	unit, err := currency.ParseISO(strings.TrimSpace(opts.currency))
	if err != nil {
		return fmt.Errorf("currency %q: %w", opts.currency, err)
	}
	req, err := readRequest(opts.input)
	if err != nil {
		return err
	}

	engine := document.New(pdf.New(pdf.WithCompression(opts.compress)),
		document.WithCurrency(unit),
		document.WithMaxPages(opts.maxPages),
		document.WithFooterText(opts.footer),
	)
	artifact, err := engine.Render(req.Record())
	if err != nil {
		return err
	}

	out := opts.output
	if out == "" {
		out = artifact.Filename
	}
	if err := os.WriteFile(out, artifact.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	if artifact.Truncated {
		c.Logger.Warn("an oversized line item was clipped to fit one page")
	}
	c.Logger.Info("rendered quotation", "out", out, "pages", artifact.PageCount, "sha256", artifact.Checksum)
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
