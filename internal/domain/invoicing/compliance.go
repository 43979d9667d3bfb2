package invoicing

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/domain/shared"
)

// ErrMissingTaxID is returned when the seller has no tax registration number
var ErrMissingTaxID = shared.NewDomainError("MISSING_TAX_ID", "Seller tax ID is required for the compliance code")

// PayloadEncoding selects how a compliance payload is serialized
type PayloadEncoding string

const (
	// PayloadEncodingTLV is the tag-length-value layout read by tax-authority scanners
	PayloadEncodingTLV PayloadEncoding = "tlv"
	// PayloadEncodingJSON is a plain JSON object
	PayloadEncodingJSON PayloadEncoding = "json"
)

// IsValid checks if the encoding is known
func (e PayloadEncoding) IsValid() bool {
	return e == PayloadEncodingTLV || e == PayloadEncodingJSON
}

// TLV tags in payload order
const (
	tagSellerName byte = iota + 1
	tagTaxID
	tagIssueDate
	tagTotal
	tagTaxAmount
)

// maxTLVValue is the largest value a single-byte length can describe
const maxTLVValue = 255

// CompliancePayload is the content encoded into an invoice's scannable code
type CompliancePayload struct {
	SellerName string `json:"sellerName"`
	TaxID      string `json:"vatNumber"`
	IssueDate  string `json:"invoiceDate"` // YYYY-MM-DD
	Total      string `json:"total"`       // two decimals
	TaxAmount  string `json:"vatAmount"`   // two decimals
}

// BuildCompliancePayload derives the compliance payload of an invoice issued by tenant
func BuildCompliancePayload(inv *Invoice, tenant *identity.Tenant) (CompliancePayload, error) {
	if inv == nil || tenant == nil {
		return CompliancePayload{}, shared.NewDomainError("INVALID_INPUT", "Invoice and tenant are required")
	}
	if !tenant.HasTaxID() {
		return CompliancePayload{}, ErrMissingTaxID
	}

	return CompliancePayload{
		SellerName: tenant.Name,
		TaxID:      tenant.TaxID,
		IssueDate:  inv.IssueDate().UTC().Format("2006-01-02"),
		Total:      FormatAmount(inv.Total),
		TaxAmount:  FormatAmount(inv.TaxAmount),
	}, nil
}

// Encode serializes the payload with the given encoding
func (p CompliancePayload) Encode(encoding PayloadEncoding) (string, error) {
	switch encoding {
	case PayloadEncodingJSON:
		return p.EncodeJSON()
	case PayloadEncodingTLV, "":
		return p.EncodeTLV()
	}
	return "", shared.NewDomainError("INVALID_ENCODING", fmt.Sprintf("Unknown payload encoding %q", encoding))
}

// EncodeJSON renders the payload as a JSON object
func (p CompliancePayload) EncodeJSON() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal compliance payload: %w", err)
	}
	return string(b), nil
}

// EncodeTLV renders the payload as base64 of consecutive tag, length, value triples
func (p CompliancePayload) EncodeTLV() (string, error) {
	fields := []struct {
		tag   byte
		value string
	}{
		{tagSellerName, p.SellerName},
		{tagTaxID, p.TaxID},
		{tagIssueDate, p.IssueDate},
		{tagTotal, p.Total},
		{tagTaxAmount, p.TaxAmount},
	}

	buf := make([]byte, 0, 128)
	for _, f := range fields {
		value := []byte(f.value)
		if len(value) > maxTLVValue {
			return "", shared.NewDomainError("PAYLOAD_FIELD_TOO_LONG",
				fmt.Sprintf("Compliance field %d exceeds %d bytes", f.tag, maxTLVValue))
		}
		buf = append(buf, f.tag, byte(len(value)))
		buf = append(buf, value...)
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// DecodeTLV parses a base64 TLV payload back into its fields
func DecodeTLV(encoded string) (CompliancePayload, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return CompliancePayload{}, fmt.Errorf("decode compliance payload: %w", err)
	}

	var p CompliancePayload
	for pos := 0; pos < len(raw); {
		if pos+2 > len(raw) {
			return CompliancePayload{}, fmt.Errorf("truncated TLV header at offset %d", pos)
		}
		tag, length := raw[pos], int(raw[pos+1])
		pos += 2
		if pos+length > len(raw) {
			return CompliancePayload{}, fmt.Errorf("truncated TLV value for tag %d", tag)
		}
		value := string(raw[pos : pos+length])
		pos += length

		switch tag {
		case tagSellerName:
			p.SellerName = value
		case tagTaxID:
			p.TaxID = value
		case tagIssueDate:
			p.IssueDate = value
		case tagTotal:
			p.Total = value
		case tagTaxAmount:
			p.TaxAmount = value
		}
	}
	return p, nil
}
