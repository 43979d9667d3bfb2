package identity

import (
	"context"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantService manages the signed-in tenant's profile
type TenantService struct {
	tenantRepo     identity.TenantRepository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewTenantService creates a new tenant service
func NewTenantService(tenantRepo identity.TenantRepository, logger *zap.Logger) *TenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TenantService{
		tenantRepo: tenantRepo,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher
func (s *TenantService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Get returns the tenant profile
func (s *TenantService) Get(ctx context.Context, tenantID uuid.UUID) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	response := ToTenantResponse(tenant)
	return &response, nil
}

// UpdateProfile replaces the seller details, including the tax ID used for compliance codes
func (s *TenantService) UpdateProfile(ctx context.Context, tenantID uuid.UUID, input UpdateTenantInput) (*TenantResponse, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if err := tenant.UpdateProfile(input.Name, input.Email, input.Phone, input.Address, input.TaxID); err != nil {
		return nil, err
	}
	if err := s.tenantRepo.Save(ctx, tenant); err != nil {
		return nil, err
	}

	events := tenant.GetDomainEvents()
	tenant.ClearDomainEvents()
	if s.eventPublisher != nil && len(events) > 0 {
		if err := s.eventPublisher.Publish(ctx, events...); err != nil {
			s.logger.Warn("Failed to publish tenant events", zap.Error(err))
		}
	}

	s.logger.Info("Tenant profile updated", zap.String("tenant_id", tenantID.String()))

	response := ToTenantResponse(tenant)
	return &response, nil
}
