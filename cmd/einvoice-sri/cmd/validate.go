package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-sri/internal/compliance"
	"github.com/rezonia/einvoice-sri/internal/model"
	"github.com/rezonia/einvoice-sri/internal/signature/xmldsig"
)

var validateSignedFile string

var validateCmd = &cobra.Command{
	Use:   "validate <invoice.json>",
	Short: "Run compliance checks on an invoice",
	Long: `Run every compliance check on an invoice and report all violations.

Checks the access key, the document number pattern, the totals arithmetic,
the line completeness and the receiver identifier. When --signed is given,
the signed document's signature is verified as well.

Examples:
  # Validate invoice data only
  einvoice-sri validate invoice.json

  # Validate together with the signed document
  einvoice-sri validate invoice.json --signed factura-firmada.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateSignedFile, "signed", "", "Signed factura XML to verify alongside")
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	var inv model.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return fmt.Errorf("failed to parse invoice JSON: %w", err)
	}

	var signedDoc []byte
	if validateSignedFile != "" {
		signedDoc, err = os.ReadFile(validateSignedFile)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", validateSignedFile, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	validator := compliance.NewValidator(xmldsig.NewVerifier())
	violations := validator.Validate(ctx, &inv, signedDoc)

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(map[string]interface{}{
			"compliant":  len(violations) == 0,
			"violations": violations,
		}); err != nil {
			return err
		}
	} else {
		if len(violations) == 0 {
			fmt.Println("compliant")
		}
		for _, v := range violations {
			fmt.Println(v.String())
		}
	}

	if len(violations) > 0 {
		os.Exit(1)
	}
	return nil
}
