package invoicing

import (
	"context"
	"time"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// InvoiceService handles invoice business operations
type InvoiceService struct {
	invoiceRepo     invoicing.InvoiceRepository
	paymentRepo     invoicing.PaymentRepository
	tenantRepo      identity.TenantRepository
	resolver        *DocumentResolver
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(
	invoiceRepo invoicing.InvoiceRepository,
	paymentRepo invoicing.PaymentRepository,
	tenantRepo identity.TenantRepository,
	resolver *DocumentResolver,
	logger *zap.Logger,
) *InvoiceService {
	if resolver == nil {
		resolver = NewDocumentResolver(nil, nil, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		invoiceRepo: invoiceRepo,
		paymentRepo: paymentRepo,
		tenantRepo:  tenantRepo,
		resolver:    resolver,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for live updates and integrations
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics recorder
func (s *InvoiceService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Create creates a draft invoice without a quote
func (s *InvoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	client, customerID, err := s.resolver.Client(ctx, tenantID, req.ClientInput)
	if err != nil {
		return nil, err
	}
	items, err := s.resolver.Items(ctx, tenantID, req.Items)
	if err != nil {
		return nil, err
	}

	invoiceNumber, err := s.invoiceRepo.GenerateInvoiceNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	invoice, err := invoicing.NewInvoice(tenantID, invoiceNumber, client, req.TaxRate.OrZero())
	if err != nil {
		return nil, err
	}
	invoice.CustomerID = customerID
	if err := invoice.ReplaceItems(items); err != nil {
		return nil, err
	}
	if req.DueDate != nil {
		if err := invoice.SetDueDate(*req.DueDate); err != nil {
			return nil, err
		}
	}
	if req.Template != "" || req.IncludeQR {
		template := invoicing.Template(req.Template)
		if template == "" {
			template = invoicing.TemplateEnglish
		}
		if err := invoice.SetPresentation(template, req.IncludeQR); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		invoice.SetNotes(req.Notes)
	}

	if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
		return nil, err
	}

	s.publish(ctx, invoice)
	s.businessMetrics.RecordInvoiceCreated(ctx, tenantID, telemetry.InvoiceSourceDirect)

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// GetByID retrieves an invoice with its payments
func (s *InvoiceService) GetByID(ctx context.Context, tenantID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// GetDocument retrieves the domain invoice, for rendering
func (s *InvoiceService) GetDocument(ctx context.Context, tenantID, invoiceID uuid.UUID) (*invoicing.Invoice, error) {
	return s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
}

// List retrieves invoices with filtering and pagination
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, filter InvoiceListFilter) ([]InvoiceListItemResponse, int64, error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Status != "" {
		status, err := invoicing.ParseInvoiceStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Filters["status"] = string(status)
	}
	if err := filterID(domainFilter.Filters, "customer_id", filter.CustomerID); err != nil {
		return nil, 0, err
	}
	if err := filterID(domainFilter.Filters, "quote_id", filter.QuoteID); err != nil {
		return nil, 0, err
	}
	if filter.DueBefore != nil {
		domainFilter.Filters["due_before"] = *filter.DueBefore
	}
	domainFilter = domainFilter.Normalize()

	invoices, err := s.invoiceRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoiceRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToInvoiceListItemResponses(invoices), total, nil
}

// Update edits an invoice. Items, tax rate and client change only while draft.
func (s *InvoiceService) Update(ctx context.Context, tenantID, invoiceID uuid.UUID, req UpdateInvoiceRequest) (*InvoiceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	if req.Client != nil {
		client, customerID, err := s.resolver.Client(ctx, tenantID, *req.Client)
		if err != nil {
			return nil, err
		}
		if err := invoice.SetClient(client, customerID); err != nil {
			return nil, err
		}
	}
	if req.Items != nil {
		items, err := s.resolver.Items(ctx, tenantID, *req.Items)
		if err != nil {
			return nil, err
		}
		if err := invoice.ReplaceItems(items); err != nil {
			return nil, err
		}
	}
	if req.TaxRate != nil {
		if err := invoice.SetTaxRate(req.TaxRate.OrZero()); err != nil {
			return nil, err
		}
	}
	if req.DueDate != nil {
		if err := invoice.SetDueDate(*req.DueDate); err != nil {
			return nil, err
		}
	}
	if req.Template != nil || req.IncludeQR != nil {
		template, includeQR := invoice.Template, invoice.IncludeQR
		if req.Template != nil {
			template = invoicing.Template(*req.Template)
		}
		if req.IncludeQR != nil {
			includeQR = *req.IncludeQR
		}
		if err := invoice.SetPresentation(template, includeQR); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		invoice.SetNotes(*req.Notes)
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	s.publish(ctx, invoice)

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// ChangeStatus moves an invoice along its lifecycle
func (s *InvoiceService) ChangeStatus(ctx context.Context, tenantID, invoiceID uuid.UUID, req ChangeStatusRequest) (*InvoiceResponse, error) {
	target, err := invoicing.ParseInvoiceStatus(req.Status)
	if err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if err := invoice.ChangeStatus(target); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	s.publish(ctx, invoice)
	s.businessMetrics.RecordInvoiceStatus(ctx, tenantID, string(target))

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// RecordPayment registers funds received against an invoice.
// The invoice status is not changed; marking it paid is a separate step.
func (s *InvoiceService) RecordPayment(ctx context.Context, tenantID, invoiceID uuid.UUID, req RecordPaymentRequest) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "record_payment",
		telemetry.AttrDocumentID.String(invoiceID.String()))
	defer span.End()

	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, span.Fail(err)
	}

	var paidOn time.Time
	if req.PaymentDate != nil {
		paidOn = *req.PaymentDate
	}
	payment, err := invoice.RecordPayment(req.Amount.OrZero(), paidOn, req.Method, req.Reference, req.Notes)
	if err != nil {
		return nil, span.Fail(err)
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, span.Fail(err)
	}

	s.publish(ctx, invoice)
	s.businessMetrics.RecordPayment(ctx, tenantID, payment.Method, payment.Amount)

	span.Succeed(
		telemetry.AttrPaymentID.String(payment.ID.String()),
		telemetry.AttrAmount.String(payment.Amount.String()),
	)

	response := ToInvoiceResponse(invoice)
	return &response, nil
}

// ListPayments lists the payments of one invoice, oldest first
func (s *InvoiceService) ListPayments(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	if _, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID); err != nil {
		return nil, err
	}
	payments, err := s.paymentRepo.FindByInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	return ToPaymentResponses(payments), nil
}

// Compliance builds the invoice's compliance payload in the requested encoding
func (s *InvoiceService) Compliance(ctx context.Context, tenantID, invoiceID uuid.UUID, encoding invoicing.PayloadEncoding) (*ComplianceResponse, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	payload, err := invoicing.BuildCompliancePayload(invoice, tenant)
	if err != nil {
		return nil, err
	}
	if encoding == "" {
		encoding = invoicing.PayloadEncodingTLV
	}
	encoded, err := payload.Encode(encoding)
	if err != nil {
		return nil, err
	}

	return &ComplianceResponse{
		Payload:  payload,
		Encoding: string(encoding),
		Encoded:  encoded,
	}, nil
}

// SweepOverdue marks unpaid invoices past their due date as overdue, across tenants.
// It returns how many invoices changed; failures on single invoices do not stop the sweep.
func (s *InvoiceService) SweepOverdue(ctx context.Context, asOf time.Time, batchSize int) (int, error) {
	candidates, err := s.invoiceRepo.FindOverdueCandidates(ctx, asOf, batchSize)
	if err != nil {
		return 0, err
	}

	var result *multierror.Error
	marked := 0
	for idx := range candidates {
		invoice := &candidates[idx]
		if !invoice.MarkOverdue(asOf) {
			continue
		}
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			s.logger.Warn("Failed to mark invoice overdue",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err))
			result = multierror.Append(result, err)
			continue
		}
		marked++
		s.publish(ctx, invoice)
		s.businessMetrics.RecordInvoiceStatus(ctx, invoice.TenantID, string(invoicing.InvoiceStatusOverdue))
	}

	if marked > 0 {
		s.logger.Info("Overdue sweep finished", zap.Int("marked", marked), zap.Int("candidates", len(candidates)))
	}
	return marked, result.ErrorOrNil()
}

func (s *InvoiceService) publish(ctx context.Context, aggregates ...eventSource) {
	if err := publishEvents(ctx, s.eventPublisher, aggregates...); err != nil {
		s.logger.Warn("Failed to publish invoice events", zap.Error(err))
	}
}
