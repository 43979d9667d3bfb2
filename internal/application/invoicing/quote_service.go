package invoicing

import (
	"context"
	"time"

	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/erp/invoicing/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuoteService handles quote business operations
type QuoteService struct {
	quoteRepo       invoicing.QuoteRepository
	invoiceRepo     invoicing.InvoiceRepository
	resolver        *DocumentResolver
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
	logger          *zap.Logger
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	quoteRepo invoicing.QuoteRepository,
	invoiceRepo invoicing.InvoiceRepository,
	resolver *DocumentResolver,
	logger *zap.Logger,
) *QuoteService {
	if resolver == nil {
		resolver = NewDocumentResolver(nil, nil, nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuoteService{
		quoteRepo:   quoteRepo,
		invoiceRepo: invoiceRepo,
		resolver:    resolver,
		logger:      logger,
	}
}

// SetEventPublisher sets the event publisher for live updates and integrations
func (s *QuoteService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics recorder
func (s *QuoteService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// Create drafts a new quote
func (s *QuoteService) Create(ctx context.Context, tenantID uuid.UUID, req CreateQuoteRequest) (*QuoteResponse, error) {
	client, customerID, err := s.resolver.Client(ctx, tenantID, req.ClientInput)
	if err != nil {
		return nil, err
	}
	items, err := s.resolver.Items(ctx, tenantID, req.Items)
	if err != nil {
		return nil, err
	}

	quoteNumber, err := s.quoteRepo.GenerateQuoteNumber(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	quote, err := invoicing.NewQuote(tenantID, quoteNumber, client, req.TaxRate.OrZero())
	if err != nil {
		return nil, err
	}
	quote.CustomerID = customerID
	if err := quote.ReplaceItems(items); err != nil {
		return nil, err
	}
	if req.ValidUntil != nil {
		if err := quote.SetValidUntil(req.ValidUntil); err != nil {
			return nil, err
		}
	}
	if req.Notes != "" {
		if err := quote.SetNotes(req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.quoteRepo.Save(ctx, quote); err != nil {
		return nil, err
	}

	s.publish(ctx, quote)
	s.businessMetrics.RecordQuoteCreated(ctx, tenantID)

	response := ToQuoteResponse(quote)
	return &response, nil
}

// GetByID retrieves a quote by ID
func (s *QuoteService) GetByID(ctx context.Context, tenantID, quoteID uuid.UUID) (*QuoteResponse, error) {
	quote, err := s.quoteRepo.FindByIDForTenant(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}
	response := ToQuoteResponse(quote)
	return &response, nil
}

// List retrieves quotes with filtering and pagination
func (s *QuoteService) List(ctx context.Context, tenantID uuid.UUID, filter QuoteListFilter) ([]QuoteListItemResponse, int64, error) {
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
		status, err := invoicing.ParseQuoteStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Filters["status"] = string(status)
	}
	if err := filterID(domainFilter.Filters, "customer_id", filter.CustomerID); err != nil {
		return nil, 0, err
	}
	domainFilter = domainFilter.Normalize()

	quotes, err := s.quoteRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.quoteRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToQuoteListItemResponses(quotes), total, nil
}

// Update edits a quote. Items, tax rate and client change only while draft.
func (s *QuoteService) Update(ctx context.Context, tenantID, quoteID uuid.UUID, req UpdateQuoteRequest) (*QuoteResponse, error) {
	quote, err := s.quoteRepo.FindByIDForTenant(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}

	if req.Client != nil {
		client, customerID, err := s.resolver.Client(ctx, tenantID, *req.Client)
		if err != nil {
			return nil, err
		}
		if err := quote.SetClient(client, customerID); err != nil {
			return nil, err
		}
	}
	if req.Items != nil {
		items, err := s.resolver.Items(ctx, tenantID, *req.Items)
		if err != nil {
			return nil, err
		}
		if err := quote.ReplaceItems(items); err != nil {
			return nil, err
		}
	}
	if req.TaxRate != nil {
		if err := quote.SetTaxRate(req.TaxRate.OrZero()); err != nil {
			return nil, err
		}
	}
	if req.ValidUntil != nil {
		if err := quote.SetValidUntil(req.ValidUntil); err != nil {
			return nil, err
		}
	}
	if req.Notes != nil {
		if err := quote.SetNotes(*req.Notes); err != nil {
			return nil, err
		}
	}

	if err := s.quoteRepo.SaveWithLock(ctx, quote); err != nil {
		return nil, err
	}

	s.publish(ctx, quote)

	response := ToQuoteResponse(quote)
	return &response, nil
}

// ChangeStatus moves a quote along its lifecycle
func (s *QuoteService) ChangeStatus(ctx context.Context, tenantID, quoteID uuid.UUID, req ChangeStatusRequest) (*QuoteResponse, error) {
	target, err := invoicing.ParseQuoteStatus(req.Status)
	if err != nil {
		return nil, err
	}

	quote, err := s.quoteRepo.FindByIDForTenant(ctx, tenantID, quoteID)
	if err != nil {
		return nil, err
	}
	if err := quote.ChangeStatus(target); err != nil {
		return nil, err
	}
	if err := s.quoteRepo.SaveWithLock(ctx, quote); err != nil {
		return nil, err
	}

	s.publish(ctx, quote)

	response := ToQuoteResponse(quote)
	return &response, nil
}

// Convert turns a quote into a draft invoice.
// The quote update and the invoice insert commit together or not at all.
func (s *QuoteService) Convert(ctx context.Context, tenantID, quoteID uuid.UUID) (*ConversionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "quote", "convert",
		telemetry.AttrDocumentID.String(quoteID.String()))
	defer span.End()

	quote, err := s.quoteRepo.FindByIDForTenant(ctx, tenantID, quoteID)
	if err != nil {
		return nil, span.Fail(err)
	}
	if quote.IsConverted() {
		err := shared.NewStateError("Quote " + quote.QuoteNumber + " has already been converted")
		return nil, span.Fail(err)
	}
	if !quote.Status.CanTransitionTo(invoicing.QuoteStatusConverted) {
		err := shared.NewStateError("Cannot convert a quote in " + quote.Status.String() + " status")
		return nil, span.Fail(err)
	}

	invoiceNumber, err := s.invoiceRepo.GenerateInvoiceNumber(ctx, tenantID)
	if err != nil {
		return nil, span.Fail(err)
	}

	invoice, err := invoicing.ConvertToInvoice(quote, invoiceNumber, time.Now())
	if err != nil {
		return nil, span.Fail(err)
	}

	if err := s.quoteRepo.SaveConversion(ctx, quote, invoice); err != nil {
		s.logger.Warn("Quote conversion rolled back",
			zap.String("quote_id", quoteID.String()),
			zap.Error(err))
		return nil, span.Fail(err)
	}

	s.publish(ctx, quote, invoice)
	s.businessMetrics.RecordQuoteConverted(ctx, tenantID)
	s.businessMetrics.RecordInvoiceCreated(ctx, tenantID, telemetry.InvoiceSourceQuote)

	span.Succeed(
		telemetry.AttrDocumentNumber.String(invoice.InvoiceNumber),
		telemetry.AttrInvoiceID.String(invoice.ID.String()),
	)

	return &ConversionResponse{
		Quote:   ToQuoteResponse(quote),
		Invoice: ToInvoiceResponse(invoice),
	}, nil
}

func (s *QuoteService) publish(ctx context.Context, aggregates ...eventSource) {
	if err := publishEvents(ctx, s.eventPublisher, aggregates...); err != nil {
		s.logger.Warn("Failed to publish quote events", zap.Error(err))
	}
}
