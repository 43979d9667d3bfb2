package partner

import (
	"context"
	"strings"

	"github.com/erp/invoicing/internal/domain/partner"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
)

type contactRepository[T any] interface {
	shared.TenantRepository[T]
	ExistsByEmail(ctx context.Context, tenantID uuid.UUID, email string) (bool, error)
}

// contactAggregate is satisfied by *partner.Customer and *partner.Supplier
type contactAggregate[T any] interface {
	*T
	Profile() *partner.Party
	Update(contact partner.Contact, notes string) error
	MarkDeleted()
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// contactBook implements the CRUD flow shared by customers and suppliers.
// Emails are unique per tenant and per role.
type contactBook[T any, P contactAggregate[T]] struct {
	repo      contactRepository[T]
	noun      string
	construct func(tenantID uuid.UUID, contact partner.Contact) (*T, error)
	publisher shared.EventPublisher
}

// SetEventPublisher sets the event publisher for live updates
func (b *contactBook[T, P]) SetEventPublisher(publisher shared.EventPublisher) {
	b.publisher = publisher
}

func (b *contactBook[T, P]) errDuplicate() error {
	return shared.NewDomainError("ALREADY_EXISTS", b.noun+" with this email already exists")
}

func (b *contactBook[T, P]) create(ctx context.Context, tenantID uuid.UUID, req ContactRequest) (*ContactResponse, error) {
	contact, err := req.toContact()
	if err != nil {
		return nil, err
	}

	exists, err := b.repo.ExistsByEmail(ctx, tenantID, contact.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, b.errDuplicate()
	}

	created, err := b.construct(tenantID, contact)
	if err != nil {
		return nil, err
	}
	agg := P(created)
	agg.Profile().Notes = req.Notes

	if err := b.repo.Save(ctx, created); err != nil {
		return nil, err
	}
	b.publish(ctx, agg)
	return toContactResponse(agg.Profile()), nil
}

func (b *contactBook[T, P]) get(ctx context.Context, tenantID, id uuid.UUID) (*ContactResponse, error) {
	found, err := b.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return toContactResponse(P(found).Profile()), nil
}

func (b *contactBook[T, P]) list(ctx context.Context, tenantID uuid.UUID, filter ListFilter) ([]ContactResponse, int64, error) {
	domainFilter := filter.toDomain()

	rows, err := b.repo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := b.repo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	out := make([]ContactResponse, len(rows))
	for i := range rows {
		out[i] = *toContactResponse(P(&rows[i]).Profile())
	}
	return out, total, nil
}

func (b *contactBook[T, P]) update(ctx context.Context, tenantID, id uuid.UUID, req ContactRequest) (*ContactResponse, error) {
	found, err := b.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	agg := P(found)

	contact, err := req.toContact()
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(contact.Email, agg.Profile().Email) {
		exists, err := b.repo.ExistsByEmail(ctx, tenantID, contact.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, b.errDuplicate()
		}
	}

	if err := agg.Update(contact, req.Notes); err != nil {
		return nil, err
	}
	if err := b.repo.Save(ctx, found); err != nil {
		return nil, err
	}
	b.publish(ctx, agg)
	return toContactResponse(agg.Profile()), nil
}

// delete leaves quotes and invoices untouched; they hold a copy of the client details
func (b *contactBook[T, P]) delete(ctx context.Context, tenantID, id uuid.UUID) error {
	found, err := b.repo.FindByIDForTenant(ctx, tenantID, id)
	if err != nil {
		return err
	}
	agg := P(found)
	agg.MarkDeleted()
	if err := b.repo.DeleteForTenant(ctx, tenantID, id); err != nil {
		return err
	}
	b.publish(ctx, agg)
	return nil
}

func (b *contactBook[T, P]) publish(ctx context.Context, agg P) {
	if b.publisher != nil {
		// best effort, the change is already committed
		_ = b.publisher.Publish(ctx, agg.GetDomainEvents()...)
	}
	agg.ClearDomainEvents()
}
