package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-sri/internal/accesskey"
	"github.com/rezonia/einvoice-sri/internal/model"
)

var (
	keygenDate         string
	keygenDocType      string
	keygenRUC          string
	keygenEnvironment  string
	keygenSerial       string
	keygenSequence     int
	keygenNumericCode  string
	keygenEmissionType string
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate or check a 49-digit access key",
	Long: `Generate the SRI access key for a document, or validate an existing one.

Examples:
  # Generate a key for today's invoice number 123 of point of sale 001-001
  einvoice-sri keygen --ruc 1792146739001 --serial 001001 --sequence 123

  # Generate for a specific date and production environment
  einvoice-sri keygen --ruc 1792146739001 --serial 001001 --sequence 123 \
      --date 2026-08-25 --environment 2

  # Validate an existing key
  einvoice-sri keygen --check 2508202501179214673900110010010000001231234567817`,
	RunE: runKeygen,
}

var keygenCheck string

func init() {
	rootCmd.AddCommand(keygenCmd)

	keygenCmd.Flags().StringVar(&keygenDate, "date", "", "Emission date YYYY-MM-DD (default today)")
	keygenCmd.Flags().StringVar(&keygenDocType, "doc-type", "01", "Document type code")
	keygenCmd.Flags().StringVar(&keygenRUC, "ruc", "", "Emitter RUC")
	keygenCmd.Flags().StringVar(&keygenEnvironment, "environment", "1", "Environment (1=test, 2=production)")
	keygenCmd.Flags().StringVar(&keygenSerial, "serial", "", "Establishment + emission point, 6 digits")
	keygenCmd.Flags().IntVar(&keygenSequence, "sequence", 0, "Document sequence number")
	keygenCmd.Flags().StringVar(&keygenNumericCode, "numeric-code", "", "8-digit numeric code (default random)")
	keygenCmd.Flags().StringVar(&keygenEmissionType, "emission-type", "1", "Emission type (1=normal, 2=contingency)")
	keygenCmd.Flags().StringVar(&keygenCheck, "check", "", "Validate this key instead of generating")
}

func runKeygen(cmd *cobra.Command, args []string) error {
	if keygenCheck != "" {
		return runKeygenCheck(keygenCheck)
	}

	issuedAt := time.Now()
	if keygenDate != "" {
		var err error
		issuedAt, err = time.Parse("2006-01-02", keygenDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	key, err := accesskey.Generate(accesskey.Fields{
		IssuedAt:     issuedAt,
		DocumentType: model.DocumentType(keygenDocType),
		RUC:          keygenRUC,
		Environment:  model.Environment(keygenEnvironment),
		Serial:       keygenSerial,
		Sequence:     keygenSequence,
		NumericCode:  keygenNumericCode,
		EmissionType: model.EmissionType(keygenEmissionType),
	})
	if err != nil {
		return err
	}

	fmt.Println(key)
	return nil
}

func runKeygenCheck(key string) error {
	if !accesskey.Validate(key) {
		fmt.Println("invalid")
		os.Exit(1)
	}

	parsed, err := accesskey.Parse(key)
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"valid":         true,
			"issued_at":     parsed.IssuedAt.Format("2006-01-02"),
			"document_type": parsed.DocumentType,
			"ruc":           parsed.RUC,
			"environment":   parsed.Environment,
			"serial":        parsed.Serial,
			"sequence":      parsed.Sequence,
			"numeric_code":  parsed.NumericCode,
			"emission_type": parsed.EmissionType,
			"check_digit":   parsed.CheckDigit,
		})
	}

	fmt.Println("valid")
	return nil
}
