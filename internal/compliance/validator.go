// Package compliance runs the final structural and arithmetic checks on an
// invoice and its signed document. Every check executes; the caller sees all
// problems at once.
package compliance

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rezonia/einvoice-sri/internal/accesskey"
	money "github.com/rezonia/einvoice-sri/internal/decimal"
	"github.com/rezonia/einvoice-sri/internal/identity"
	"github.com/rezonia/einvoice-sri/internal/model"
	"github.com/rezonia/einvoice-sri/internal/signature"
)

// Violation codes reported by Validate.
const (
	CodeAccessKey       = "ACCESS_KEY_INVALID"
	CodeDocumentNumber  = "DOCUMENT_NUMBER_INVALID"
	CodeTotalsMismatch  = "TOTALS_MISMATCH"
	CodeLineIncomplete  = "LINE_INCOMPLETE"
	CodeReceiverInvalid = "RECEIVER_ID_INVALID"
	CodeSignatureBroken = "SIGNATURE_INVALID"
)

// Violation is one failed compliance check.
type Violation struct {
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", v.Code, v.Field, v.Message)
	}
	return fmt.Sprintf("[%s] %s", v.Code, v.Message)
}

var (
	numberPattern = regexp.MustCompile(`^\d{3}-\d{3}-\d{9}$`)

	// grand total tolerance of one cent
	totalTolerance = decimal.New(1, -2)
)

// Validator runs the compliance checks. A nil verifier skips the signature
// check (used when validating before signing).
type Validator struct {
	verifier signature.Verifier
}

// NewValidator creates a compliance validator. verifier may be nil.
func NewValidator(verifier signature.Verifier) *Validator {
	return &Validator{verifier: verifier}
}

// Validate runs every check against the invoice and, when given, its signed
// document bytes. An empty slice means compliant. Validate never fails with
// an error; problems become violations.
func (v *Validator) Validate(ctx context.Context, inv *model.Invoice, signedDoc []byte) []Violation {
	violations := make([]Violation, 0)

	if inv == nil {
		return append(violations, Violation{Code: CodeDocumentNumber, Message: "no invoice supplied"})
	}

	violations = append(violations, checkAccessKey(inv)...)
	violations = append(violations, checkDocumentNumber(inv)...)
	violations = append(violations, checkTotals(inv)...)
	violations = append(violations, checkLines(inv)...)
	violations = append(violations, checkReceiver(inv)...)
	violations = append(violations, v.checkSignature(ctx, signedDoc)...)

	return violations
}

func checkAccessKey(inv *model.Invoice) []Violation {
	if !accesskey.Validate(inv.AccessKey) {
		return []Violation{{
			Code:    CodeAccessKey,
			Field:   "access_key",
			Message: "access key is not a structurally valid 49-digit key",
		}}
	}
	return nil
}

func checkDocumentNumber(inv *model.Invoice) []Violation {
	if !numberPattern.MatchString(inv.Number) {
		return []Violation{{
			Code:    CodeDocumentNumber,
			Field:   "number",
			Message: "document number must match EEE-PPP-NNNNNNNNN",
		}}
	}
	var out []Violation
	for i, segment := range strings.SplitN(inv.Number, "-", 3) {
		if strings.Trim(segment, "0") == "" {
			names := []string{"establishment", "emission point", "sequence"}
			out = append(out, Violation{
				Code:    CodeDocumentNumber,
				Field:   "number",
				Message: fmt.Sprintf("%s segment must not be zero", names[i]),
			})
		}
	}
	return out
}

func checkTotals(inv *model.Invoice) []Violation {
	sum := decimal.Zero
	for _, line := range inv.Lines {
		sum = sum.Add(line.Base).Add(line.Tax.TaxAmount)
	}
	sum = sum.Add(inv.Tip)
	if !money.WithinTolerance(sum, inv.GrandTotal, totalTolerance) {
		return []Violation{{
			Code:  CodeTotalsMismatch,
			Field: "grand_total",
			Message: fmt.Sprintf("declared grand total %s differs from recomputed %s by more than 0.01",
				inv.GrandTotal.StringFixed(2), sum.StringFixed(2)),
		}}
	}
	return nil
}

func checkLines(inv *model.Invoice) []Violation {
	var out []Violation
	for i, line := range inv.Lines {
		field := func(name string) string { return fmt.Sprintf("lines[%d].%s", i, name) }
		if line.ItemCode == "" {
			out = append(out, Violation{Code: CodeLineIncomplete, Field: field("item_code"), Message: "item code is empty"})
		}
		if line.Description == "" {
			out = append(out, Violation{Code: CodeLineIncomplete, Field: field("description"), Message: "description is empty"})
		}
		if !money.IsPositive(line.Quantity) {
			out = append(out, Violation{Code: CodeLineIncomplete, Field: field("quantity"), Message: "quantity must be positive"})
		}
		if !money.IsPositive(line.UnitPrice) {
			out = append(out, Violation{Code: CodeLineIncomplete, Field: field("unit_price"), Message: "unit price must be positive"})
		}
		if line.Discount.IsNegative() {
			out = append(out, Violation{Code: CodeLineIncomplete, Field: field("discount"), Message: "discount must not be negative"})
		} else if line.Discount.GreaterThan(line.Quantity.Mul(line.UnitPrice)) {
			out = append(out, Violation{Code: CodeLineIncomplete, Field: field("discount"), Message: "discount exceeds quantity times unit price"})
		}
	}
	return out
}

func checkReceiver(inv *model.Invoice) []Violation {
	switch inv.Receiver.IdentifierType {
	case model.IdentifierRUC:
		if !identity.ValidateTaxID(inv.Receiver.Identifier) {
			return []Violation{{Code: CodeReceiverInvalid, Field: "receiver.identifier", Message: "receiver RUC failed validation"}}
		}
	case model.IdentifierCedula:
		if !identity.ValidateNationalID(inv.Receiver.Identifier) {
			return []Violation{{Code: CodeReceiverInvalid, Field: "receiver.identifier", Message: "receiver cedula failed validation"}}
		}
	}
	return nil
}

func (v *Validator) checkSignature(ctx context.Context, signedDoc []byte) []Violation {
	if v.verifier == nil || len(signedDoc) == 0 {
		return nil
	}
	result, err := v.verifier.Verify(ctx, signedDoc)
	if err != nil {
		return []Violation{{Code: CodeSignatureBroken, Message: fmt.Sprintf("signature verification failed: %v", err)}}
	}
	if !result.Valid {
		msg := "signed document failed verification"
		if len(result.Errors) > 0 {
			msg = result.Errors[0]
		}
		return []Violation{{Code: CodeSignatureBroken, Message: msg}}
	}
	return nil
}
