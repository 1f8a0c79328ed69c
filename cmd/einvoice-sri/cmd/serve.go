package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/einvoice-sri/internal/document"
	"github.com/rezonia/einvoice-sri/internal/server"
	"github.com/rezonia/einvoice-sri/internal/signature"
)

var (
	serverAddr    string
	serverDebug   bool
	serverVersion string
	readTimeout   time.Duration
	writeTimeout  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start an HTTP API server exposing the issuing core.

The API provides endpoints for:
  - POST /api/v1/identifiers/validate - Validate cedula / RUC
  - POST /api/v1/keys/generate        - Generate access key
  - POST /api/v1/keys/validate        - Validate access key
  - POST /api/v1/documents/build      - Assemble canonical XML
  - POST /api/v1/documents/sign       - Sign a document
  - POST /api/v1/documents/verify     - Verify a signed document
  - POST /api/v1/documents/validate   - Run compliance checks
  - POST /api/v1/documents/issue      - Full issuing pipeline
  - GET  /health                      - Health check

Examples:
  # Start server on default port
  einvoice-sri serve

  # Start with a signing credential
  einvoice-sri serve --cert firma.p12 --cert-password secret

  # Start in debug mode on a custom port
  einvoice-sri serve --address :9000 --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", ":8080", "Server listen address")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug mode")
	serveCmd.Flags().StringVar(&serverVersion, "schema-version", string(document.SchemaV210), "Factura schema version")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 60*time.Second, "HTTP write timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	config := &server.Config{
		Address:       serverAddr,
		SchemaVersion: document.SchemaVersion(serverVersion),
		ReadTimeout:   readTimeout,
		WriteTimeout:  writeTimeout,
		Debug:         serverDebug,
	}

	var provider signature.Provider
	if certPath != "" || (keyPath != "" && certPEMPath != "") {
		cred, err := loadCredential()
		if err != nil {
			return err
		}
		provider = signature.NewRotatingProvider(cred)
		printVerbose("signing credential loaded: %s\n", cred.Certificate.Subject.CommonName)
	}

	srv := server.NewServer(config, provider)

	fmt.Printf("Starting server on %s\n", serverAddr)
	return srv.Run()
}
