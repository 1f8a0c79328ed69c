package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-sri/internal/signature"
	"github.com/rezonia/einvoice-sri/internal/signature/xmldsig"
)

var verifyCAFile string

var verifyCmd = &cobra.Command{
	Use:   "verify [files...]",
	Short: "Verify enveloped digital signatures",
	Long: `Verify the enveloped signature on signed factura XML files.

Verifies:
  - the digest over the canonicalized document content
  - the signature value against the embedded certificate
  - optionally, that the certificate chains to a pinned CA

Examples:
  # Verify a signed document
  einvoice-sri verify factura-firmada.xml

  # Verify against a pinned CA certificate
  einvoice-sri verify --ca-file bce.crt factura-firmada.xml

  # JSON output
  einvoice-sri verify -f json factura-firmada.xml`,
	Args: cobra.MinimumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVar(&verifyCAFile, "ca-file", "", "Pinned CA certificate file (PEM format)")
}

func runVerify(cmd *cobra.Command, args []string) error {
	var opts []xmldsig.Option
	if verifyCAFile != "" {
		ca, err := signature.LoadPEMCertificates(verifyCAFile)
		if err != nil {
			return err
		}
		opts = append(opts, xmldsig.WithTrustedRoots(ca...))
	}
	verifier := xmldsig.NewVerifier(opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	allValid := true
	for _, file := range args {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", file, err)
		}

		result, err := verifier.Verify(ctx, data)
		if err != nil {
			return err
		}
		if !result.Valid {
			allValid = false
		}

		if err := printVerifyResult(file, result); err != nil {
			return err
		}
	}

	if !allValid {
		os.Exit(1)
	}
	return nil
}

func printVerifyResult(file string, result *signature.VerificationResult) error {
	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{"file": file, "result": result})
	}

	status := "INVALID"
	if result.Valid {
		status = "VALID"
	}
	fmt.Printf("%s: %s\n", file, status)
	if result.Signer != nil {
		fmt.Printf("  signer: %s (serial %s)\n", result.Signer.Name, result.Signer.SerialNumber)
	}
	for _, w := range result.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	for _, e := range result.Errors {
		fmt.Printf("  error: %s\n", e)
	}
	return nil
}
