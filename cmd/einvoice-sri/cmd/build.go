package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-sri/internal/document"
	"github.com/rezonia/einvoice-sri/internal/model"
)

var (
	buildOutput  string
	buildVersion string
)

var buildCmd = &cobra.Command{
	Use:   "build <invoice.json>",
	Short: "Assemble the canonical factura XML from invoice JSON",
	Long: `Assemble invoice data into the canonical SRI factura XML.

The input file carries an invoice in the JSON shape produced by this tool's
model; totals are recomputed from the lines before assembly.

Examples:
  # Build to stdout
  einvoice-sri build invoice.json

  # Build a specific schema version to a file
  einvoice-sri build invoice.json --schema-version 2.0.0 -o factura.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringVarP(&buildOutput, "output", "o", "", "Output file (default stdout)")
	buildCmd.Flags().StringVar(&buildVersion, "schema-version", string(document.SchemaV210), "Factura schema version")
}

func runBuild(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	var inv model.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return fmt.Errorf("failed to parse invoice JSON: %w", err)
	}
	inv.CalculateTotals()

	printVerbose("building %s (schema %s)\n", inv.Number, buildVersion)

	builder := document.NewBuilder(document.Config{Version: document.SchemaVersion(buildVersion)})
	doc, err := builder.Build(&inv)
	if err != nil {
		return err
	}

	xml, err := doc.XML()
	if err != nil {
		return err
	}

	if buildOutput == "" {
		_, err = os.Stdout.Write(xml)
		return err
	}
	return os.WriteFile(buildOutput, xml, 0o644)
}
