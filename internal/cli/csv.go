package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

func (c *CLI) csvCommand() *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Export a quotation payload as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readRequest(input)
			if err != nil {
				return err
			}
			data, err := quotation.CSV(req)
			if err != nil {
				return err
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			c.Logger.Info("wrote csv", "out", output, "items", len(req.Items))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "in", "i", "", "quotation payload (.json or .toml)")
	cmd.Flags().StringVarP(&output, "out", "o", "", "output path (default: stdout)")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}
