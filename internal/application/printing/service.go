// Package printing renders stored invoices as HTML pages or PDF files.
package printing

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/shared"
	infra "github.com/erp/invoicing/internal/infrastructure/printing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Format is the output format of a rendered document
type Format string

const (
	FormatHTML Format = "html"
	FormatPDF  Format = "pdf"
)

// ParseFormat reads a format name; empty means HTML
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", shared.NewDomainError("INVALID_FORMAT", fmt.Sprintf("Unknown document format %q", raw))
}

// InvoiceFinder loads a tenant's invoice
type InvoiceFinder interface {
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error)
}

// TenantFinder loads the issuing tenant
type TenantFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error)
}

// DocumentArchive keeps a copy of rendered PDFs
type DocumentArchive interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
}

// Document is a rendered invoice
type Document struct {
	Format      Format
	ContentType string
	FileName    string
	Body        []byte
	// ArchiveKey is set when the PDF was archived
	ArchiveKey string
}

// DocumentService renders invoices for display, download and archiving
type DocumentService struct {
	invoices InvoiceFinder
	tenants  TenantFinder
	renderer *infra.DocumentRenderer
	pdf      infra.PDFRenderer
	archive  DocumentArchive
	encoding invoicing.PayloadEncoding
	logger   *zap.Logger
}

// NewDocumentService creates a DocumentService; a nil pdf renderer disables PDF output
func NewDocumentService(
	invoices InvoiceFinder,
	tenants TenantFinder,
	renderer *infra.DocumentRenderer,
	pdf infra.PDFRenderer,
	logger *zap.Logger,
) *DocumentService {
	if pdf == nil {
		pdf = infra.DisabledRenderer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		invoices: invoices,
		tenants:  tenants,
		renderer: renderer,
		pdf:      pdf,
		encoding: invoicing.PayloadEncodingTLV,
		logger:   logger,
	}
}

// SetArchive enables archiving of rendered PDFs
func (s *DocumentService) SetArchive(archive DocumentArchive) {
	s.archive = archive
}

// SetPayloadEncoding sets how the QR compliance payload is encoded
func (s *DocumentService) SetPayloadEncoding(encoding invoicing.PayloadEncoding) {
	if encoding.IsValid() {
		s.encoding = encoding
	}
}

// RenderInvoice renders one of the tenant's invoices
func (s *DocumentService) RenderInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID, format Format) (*Document, error) {
	invoice, err := s.invoices.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	seller, err := s.tenants.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	html, err := s.renderer.RenderInvoice(infra.InvoiceDocument{
		Invoice:           invoice,
		Seller:            seller,
		CompliancePayload: s.compliancePayload(invoice, seller),
	})
	if err != nil {
		return nil, err
	}

	if format != FormatPDF {
		return &Document{
			Format:      FormatHTML,
			ContentType: "text/html; charset=utf-8",
			FileName:    invoice.InvoiceNumber + ".html",
			Body:        html,
		}, nil
	}

	result, err := s.pdf.Render(ctx, &infra.RenderRequest{
		HTML:    string(html),
		Title:   s.renderer.Title(invoice),
		Margins: infra.DefaultMargins(),
	})
	if err != nil {
		return nil, err
	}

	doc := &Document{
		Format:      FormatPDF,
		ContentType: "application/pdf",
		FileName:    invoice.InvoiceNumber + ".pdf",
		Body:        result.PDFData,
	}
	s.archivePDF(ctx, invoice, doc)
	return doc, nil
}

// compliancePayload returns the encoded QR content, or empty when the invoice shows no code
func (s *DocumentService) compliancePayload(invoice *invoicing.Invoice, seller *identity.Tenant) string {
	if !invoice.IncludeQR {
		return ""
	}
	payload, err := invoicing.BuildCompliancePayload(invoice, seller)
	if err != nil {
		s.logger.Debug("Invoice printed without compliance code",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err))
		return ""
	}
	encoded, err := payload.Encode(s.encoding)
	if err != nil {
		s.logger.Warn("Failed to encode compliance payload",
			zap.String("invoice_id", invoice.ID.String()),
			zap.Error(err))
		return ""
	}
	return encoded
}

// archivePDF stores the PDF best-effort; the caller still gets the document on failure
func (s *DocumentService) archivePDF(ctx context.Context, invoice *invoicing.Invoice, doc *Document) {
	if s.archive == nil {
		return
	}
	key := path.Join("invoices", invoice.TenantID.String(), doc.FileName)
	if err := s.archive.Upload(ctx, key, doc.Body, doc.ContentType); err != nil {
		s.logger.Warn("Failed to archive invoice PDF",
			zap.String("invoice_id", invoice.ID.String()),
			zap.String("key", key),
			zap.Error(err))
		return
	}
	doc.ArchiveKey = key
}
