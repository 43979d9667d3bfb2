package printing_test

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/invoicing/internal/application/printing"
	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/shared"
	infra "github.com/erp/invoicing/internal/infrastructure/printing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockInvoiceFinder struct {
	mock.Mock
}

func (m *MockInvoiceFinder) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*invoicing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invoicing.Invoice), args.Error(1)
}

type MockTenantFinder struct {
	mock.Mock
}

func (m *MockTenantFinder) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

type MockPDFRenderer struct {
	mock.Mock
}

func (m *MockPDFRenderer) Render(ctx context.Context, req *infra.RenderRequest) (*infra.RenderResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*infra.RenderResult), args.Error(1)
}

func (m *MockPDFRenderer) Close() error { return nil }

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	return m.Called(ctx, key, data, contentType).Error(0)
}

type fixture struct {
	invoices *MockInvoiceFinder
	tenants  *MockTenantFinder
	pdf      *MockPDFRenderer
	service  *printing.DocumentService
	invoice  *invoicing.Invoice
	seller   *identity.Tenant
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tenantID := uuid.New()
	seller, err := identity.NewTenant(tenantID, "Northwind Studio", "hello@northwind.test")
	require.NoError(t, err)

	client, err := invoicing.NewClient("Contoso", "ap@contoso.test", "1 Main St", "")
	require.NoError(t, err)
	invoice, err := invoicing.NewInvoice(tenantID, "INV-2026-00042", client, decimal.NewFromInt(15))
	require.NoError(t, err)
	item, err := invoicing.NewLineItem(invoicing.LineItemKindProduct, "Poster", decimal.NewFromInt(2), decimal.NewFromInt(50))
	require.NoError(t, err)
	require.NoError(t, invoice.AddItem(*item))

	renderer, err := infra.NewDocumentRenderer()
	require.NoError(t, err)

	f := &fixture{
		invoices: new(MockInvoiceFinder),
		tenants:  new(MockTenantFinder),
		pdf:      new(MockPDFRenderer),
		invoice:  invoice,
		seller:   seller,
	}
	f.service = printing.NewDocumentService(f.invoices, f.tenants, renderer, f.pdf, zap.NewNop())
	f.invoices.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)
	f.tenants.On("FindByID", mock.Anything, tenantID).Return(seller, nil)
	return f
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		raw     string
		want    printing.Format
		wantErr bool
	}{
		{"", printing.FormatHTML, false},
		{"html", printing.FormatHTML, false},
		{" PDF ", printing.FormatPDF, false},
		{"docx", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := printing.ParseFormat(tt.raw)
			if tt.wantErr {
				var domainErr *shared.DomainError
				require.True(t, errors.As(err, &domainErr))
				assert.Equal(t, "INVALID_FORMAT", domainErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDocumentService_RenderHTML(t *testing.T) {
	f := newFixture(t)

	doc, err := f.service.RenderInvoice(context.Background(), f.seller.ID, f.invoice.ID, printing.FormatHTML)
	require.NoError(t, err)

	assert.Equal(t, printing.FormatHTML, doc.Format)
	assert.Equal(t, "text/html; charset=utf-8", doc.ContentType)
	assert.Equal(t, "INV-2026-00042.html", doc.FileName)
	assert.Contains(t, string(doc.Body), "Northwind Studio")
	f.pdf.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)
}

func TestDocumentService_QRRequiresSellerTaxID(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.invoice.SetPresentation(invoicing.TemplateEnglish, true))

	doc, err := f.service.RenderInvoice(context.Background(), f.seller.ID, f.invoice.ID, printing.FormatHTML)
	require.NoError(t, err)
	assert.NotContains(t, string(doc.Body), "data:image/png", "seller without tax id gets no code")

	f.seller.TaxID = "300000000000003"
	f.service.SetPayloadEncoding(invoicing.PayloadEncodingJSON)
	doc, err = f.service.RenderInvoice(context.Background(), f.seller.ID, f.invoice.ID, printing.FormatHTML)
	require.NoError(t, err)
	assert.Contains(t, string(doc.Body), "data:image/png")
}

func TestDocumentService_RenderPDFAndArchive(t *testing.T) {
	f := newFixture(t)
	archive := new(MockArchive)
	f.service.SetArchive(archive)

	f.pdf.On("Render", mock.Anything, mock.MatchedBy(func(req *infra.RenderRequest) bool {
		return req.Title == "INVOICE INV-2026-00042" && req.Margins == infra.DefaultMargins()
	})).Return(&infra.RenderResult{PDFData: []byte("%PDF-1.7"), PageCount: 1}, nil)

	key := "invoices/" + f.seller.ID.String() + "/INV-2026-00042.pdf"
	archive.On("Upload", mock.Anything, key, []byte("%PDF-1.7"), "application/pdf").Return(nil)

	doc, err := f.service.RenderInvoice(context.Background(), f.seller.ID, f.invoice.ID, printing.FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "INV-2026-00042.pdf", doc.FileName)
	assert.Equal(t, key, doc.ArchiveKey)
	archive.AssertExpectations(t)
}

func TestDocumentService_ArchiveFailureStillReturnsPDF(t *testing.T) {
	f := newFixture(t)
	archive := new(MockArchive)
	f.service.SetArchive(archive)

	f.pdf.On("Render", mock.Anything, mock.Anything).Return(&infra.RenderResult{PDFData: []byte("%PDF")}, nil)
	archive.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("bucket missing"))

	doc, err := f.service.RenderInvoice(context.Background(), f.seller.ID, f.invoice.ID, printing.FormatPDF)
	require.NoError(t, err)
	assert.Empty(t, doc.ArchiveKey)
	assert.Equal(t, []byte("%PDF"), doc.Body)
}

func TestDocumentService_PDFDisabled(t *testing.T) {
	f := newFixture(t)
	renderer, err := infra.NewDocumentRenderer()
	require.NoError(t, err)
	service := printing.NewDocumentService(f.invoices, f.tenants, renderer, nil, nil)

	_, err = service.RenderInvoice(context.Background(), f.seller.ID, f.invoice.ID, printing.FormatPDF)
	var renderErr *infra.RenderError
	require.True(t, errors.As(err, &renderErr))
	assert.Equal(t, infra.ErrCodeRenderingDisabled, renderErr.Code)
}

func TestDocumentService_InvoiceNotFound(t *testing.T) {
	f := newFixture(t)
	missing := uuid.New()
	f.invoices.On("FindByIDForTenant", mock.Anything, f.seller.ID, missing).Return(nil, shared.ErrNotFound)

	_, err := f.service.RenderInvoice(context.Background(), f.seller.ID, missing, printing.FormatHTML)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	f.tenants.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}
