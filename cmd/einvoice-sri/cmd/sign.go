package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-sri/internal/signature"
	"github.com/rezonia/einvoice-sri/internal/signature/xmldsig"
)

var signOutput string

var signCmd = &cobra.Command{
	Use:   "sign <factura.xml>",
	Short: "Sign a factura XML with an enveloped digital signature",
	Long: `Sign a canonical factura XML with the configured credential.

The credential comes from --cert/--cert-password (PKCS#12) or from
--key-pem/--cert-pem (PEM files), or the matching SRI_* environment
variables.

Examples:
  # Sign with a .p12 credential
  einvoice-sri sign factura.xml --cert firma.p12 --cert-password secret

  # Sign with PEM files to a specific output
  einvoice-sri sign factura.xml --key-pem key.pem --cert-pem cert.pem \
      -o factura-firmada.xml`,
	Args: cobra.ExactArgs(1),
	RunE: runSign,
}

func init() {
	rootCmd.AddCommand(signCmd)

	signCmd.Flags().StringVarP(&signOutput, "output", "o", "", "Output file (default stdout)")
}

func runSign(cmd *cobra.Command, args []string) error {
	doc, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	cred, err := loadCredential()
	if err != nil {
		return err
	}
	printVerbose("signing as %s\n", cred.Certificate.Subject.CommonName)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	signed, err := xmldsig.NewSigner().Sign(ctx, doc, cred)
	if err != nil {
		return err
	}

	if signOutput == "" {
		_, err = os.Stdout.Write(signed)
		return err
	}
	return os.WriteFile(signOutput, signed, 0o644)
}

// loadCredential resolves the signing credential from the global flags.
func loadCredential() (*signature.Credential, error) {
	switch {
	case certPath != "":
		return signature.LoadPKCS12(certPath, certPassword)
	case keyPath != "" && certPEMPath != "":
		return signature.LoadPEM(keyPath, certPEMPath)
	default:
		return nil, fmt.Errorf("no credential configured: set --cert or --key-pem/--cert-pem")
	}
}
