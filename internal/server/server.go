package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rezonia/einvoice-sri/internal/accesskey"
	"github.com/rezonia/einvoice-sri/internal/compliance"
	"github.com/rezonia/einvoice-sri/internal/document"
	"github.com/rezonia/einvoice-sri/internal/identity"
	"github.com/rezonia/einvoice-sri/internal/model"
	"github.com/rezonia/einvoice-sri/internal/signature"
	"github.com/rezonia/einvoice-sri/internal/signature/xmldsig"
)

// Config holds server configuration
type Config struct {
	Address       string
	SchemaVersion document.SchemaVersion
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	Debug         bool
}

// Server represents the HTTP API server
type Server struct {
	config    *Config
	router    *gin.Engine
	builder   *document.Builder
	signer    signature.Signer
	verifier  signature.Verifier
	validator *compliance.Validator
	provider  signature.Provider
}

// NewServer creates a new API server. provider may be nil, in which case
// the signing endpoint reports the credential as unavailable.
func NewServer(config *Config, provider signature.Provider) *Server {
	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if config.Debug {
		router.Use(gin.Logger())
	}

	verifier := xmldsig.NewVerifier()

	s := &Server{
		config:    config,
		router:    router,
		builder:   document.NewBuilder(document.Config{Version: config.SchemaVersion}),
		signer:    xmldsig.NewSigner(),
		verifier:  verifier,
		validator: compliance.NewValidator(verifier),
		provider:  provider,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", s.handleHealth)

	// API v1
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/identifiers/validate", s.handleValidateIdentifier)

		v1.POST("/keys/generate", s.handleGenerateKey)
		v1.POST("/keys/validate", s.handleValidateKey)

		v1.POST("/documents/build", s.handleBuild)
		v1.POST("/documents/sign", s.handleSign)
		v1.POST("/documents/verify", s.handleVerify)
		v1.POST("/documents/validate", s.handleValidate)
		v1.POST("/documents/issue", s.handleIssue)
	}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	srv := &http.Server{
		Addr:         s.config.Address,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}
	return srv.ListenAndServe()
}

// Handler returns the http.Handler for use with custom servers
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleValidateIdentifier(c *gin.Context) {
	var req IdentifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var resp IdentifierResponse
	switch req.Type {
	case "cedula":
		resp.Valid = identity.ValidateNationalID(req.Value)
	case "ruc":
		resp.Valid = identity.ValidateTaxID(req.Value)
		if resp.Valid {
			resp.Kind = identity.KindOf(req.Value).String()
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be cedula or ruc"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGenerateKey(c *gin.Context) {
	var req KeyGenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	issuedAt, err := time.Parse("2006-01-02", req.IssuedAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "issued_at must be YYYY-MM-DD"})
		return
	}

	fields := accesskey.Fields{
		IssuedAt:     issuedAt,
		DocumentType: model.DocumentType(defaultString(req.DocumentType, string(model.DocumentTypeInvoice))),
		RUC:          req.RUC,
		Environment:  model.Environment(defaultString(req.Environment, string(model.EnvironmentTest))),
		Serial:       req.Serial,
		Sequence:     req.Sequence,
		NumericCode:  req.NumericCode,
		EmissionType: model.EmissionType(defaultString(req.EmissionType, string(model.EmissionNormal))),
	}

	key, err := accesskey.Generate(fields)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, KeyResponse{AccessKey: key})
}

func (s *Server) handleValidateKey(c *gin.Context) {
	var req KeyValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !accesskey.Validate(req.AccessKey) {
		c.JSON(http.StatusOK, KeyValidateResponse{Valid: false})
		return
	}

	resp := KeyValidateResponse{Valid: true}
	if parsed, err := accesskey.Parse(req.AccessKey); err == nil {
		resp.Fields = &KeyFieldsOutput{
			IssuedAt:     parsed.IssuedAt.Format("2006-01-02"),
			DocumentType: string(parsed.DocumentType),
			RUC:          parsed.RUC,
			Environment:  string(parsed.Environment),
			Serial:       parsed.Serial,
			Sequence:     parsed.Sequence,
			NumericCode:  parsed.NumericCode,
			EmissionType: string(parsed.EmissionType),
			CheckDigit:   parsed.CheckDigit,
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleBuild(c *gin.Context) {
	var inv model.Invoice
	if err := c.ShouldBindJSON(&inv); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := s.builder.Build(&inv)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	xml, err := doc.XML()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/xml", xml)
}

func (s *Server) handleSign(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return
	}
	if s.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no signing credential configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	cred, err := s.provider.SigningCredential(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	signed, err := s.signer.Sign(ctx, body, cred)
	if err != nil {
		status := http.StatusUnprocessableEntity
		var credErr *model.CredentialError
		if errors.As(err, &credErr) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/xml", signed)
}

func (s *Server) handleVerify(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty request body"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	result, err := s.verifier.Verify(ctx, body)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	response := VerifyResponse{
		Valid:          result.Valid,
		SignatureFound: result.SignatureFound,
		DigestValid:    result.DigestValid,
		SignatureValid: result.SignatureValid,
		SignedAt:       result.SignedAt,
		Warnings:       result.Warnings,
		Errors:         result.Errors,
	}
	if result.Signer != nil {
		response.Signer = &SignerInfoOutput{
			Name:         result.Signer.Name,
			Organization: result.Signer.Organization,
			SerialNumber: result.Signer.SerialNumber,
			Issuer:       result.Signer.Issuer,
			ValidFrom:    &result.Signer.ValidFrom,
			ValidTo:      &result.Signer.ValidTo,
		}
	}

	if result.Valid {
		c.JSON(http.StatusOK, response)
	} else {
		c.JSON(http.StatusUnprocessableEntity, response)
	}
}

func (s *Server) handleValidate(c *gin.Context) {
	var req ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	violations := s.validator.Validate(ctx, req.Invoice, req.SignedXML)

	c.JSON(http.StatusOK, ValidationResponse{
		Compliant:  len(violations) == 0,
		Violations: violations,
	})
}

// handleIssue runs the whole pipeline: totals, access key, canonical
// document, enveloped signature, compliance checks.
func (s *Server) handleIssue(c *gin.Context) {
	var inv model.Invoice
	if err := c.ShouldBindJSON(&inv); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.provider == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no signing credential configured"})
		return
	}

	inv.CalculateTotals()

	if inv.AccessKey == "" {
		key, err := accesskey.Generate(accesskey.Fields{
			IssuedAt:     inv.IssuedAt,
			DocumentType: inv.DocumentType,
			RUC:          inv.Emitter.Identifier,
			Environment:  inv.Environment,
			Serial:       inv.Establishment() + inv.EmissionPoint(),
			Sequence:     sequenceNumber(inv.Sequence()),
			EmissionType: inv.EmissionType,
		})
		if err != nil {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		inv.AccessKey = key
	}

	doc, err := s.builder.Build(&inv)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	xml, err := doc.XML()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	cred, err := s.provider.SigningCredential(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	signed, err := s.signer.Sign(ctx, xml, cred)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	violations := s.validator.Validate(ctx, &inv, signed)

	c.JSON(http.StatusOK, IssueResponse{
		ID:         uuid.NewString(),
		AccessKey:  inv.AccessKey,
		SignedXML:  string(signed),
		Violations: violations,
	})
}

func sequenceNumber(segment string) int {
	n := 0
	for i := 0; i < len(segment); i++ {
		n = n*10 + int(segment[i]-'0')
	}
	return n
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
