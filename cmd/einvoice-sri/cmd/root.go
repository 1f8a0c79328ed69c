package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"

	// Global flags
	verbose      bool
	outputFormat string
	certPath     string
	certPassword string
	keyPath      string
	certPEMPath  string
)

var rootCmd = &cobra.Command{
	Use:   "einvoice-sri",
	Short: "Issue and verify SRI electronic invoices (Ecuador)",
	Long: `einvoice-sri is a CLI tool for the SRI electronic invoicing pipeline.

Supports:
  - cedula / RUC checksum validation
  - 49-digit access key generation and validation
  - canonical factura XML assembly (schema 1.1.0 / 2.0.0 / 2.1.0)
  - enveloped XMLDSig signing with PKCS#12 or PEM credentials
  - compliance validation before transmission

Examples:
  # Generate an access key
  einvoice-sri keygen --ruc 1792146739001 --serial 001001 --sequence 123

  # Build the canonical XML from invoice JSON
  einvoice-sri build invoice.json -o factura.xml

  # Sign a document
  einvoice-sri sign factura.xml --cert firma.p12 --cert-password secret

  # Verify a signed document
  einvoice-sri verify factura-firmada.xml`,
	Version: version,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "format", "f", "json", "Output format (json, table)")
	rootCmd.PersistentFlags().StringVar(&certPath, "cert", "", "PKCS#12 signing credential (env: SRI_CERT_PATH)")
	rootCmd.PersistentFlags().StringVar(&certPassword, "cert-password", "", "PKCS#12 password (env: SRI_CERT_PASSWORD)")
	rootCmd.PersistentFlags().StringVar(&keyPath, "key-pem", "", "PEM private key file (env: SRI_KEY_PEM)")
	rootCmd.PersistentFlags().StringVar(&certPEMPath, "cert-pem", "", "PEM certificate file (env: SRI_CERT_PEM)")

	// Load from environment variables if not set via flags
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if certPath == "" {
		certPath = os.Getenv("SRI_CERT_PATH")
	}
	if certPassword == "" {
		certPassword = os.Getenv("SRI_CERT_PASSWORD")
	}
	if keyPath == "" {
		keyPath = os.Getenv("SRI_KEY_PEM")
	}
	if certPEMPath == "" {
		certPEMPath = os.Getenv("SRI_CERT_PEM")
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}
