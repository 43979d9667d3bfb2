package partner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContact(t *testing.T) {
	tests := []struct {
		name    string
		cname   string
		email   string
		phone   string
		wantErr string
	}{
		{"valid", "Acme", "Billing@Acme.test", "+1 (555) 010-0000", ""},
		{"empty name", " ", "a@acme.test", "", "Name cannot be empty"},
		{"empty email", "Acme", "", "", "Email cannot be empty"},
		{"bad email", "Acme", "acme.test", "", "Invalid email format"},
		{"bad phone", "Acme", "a@acme.test", "call me", "Invalid phone number format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewContact(tt.cname, tt.email, tt.phone, "", "")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "billing@acme.test", c.Email)
		})
	}
}

func TestCustomer(t *testing.T) {
	tenantID := uuid.New()
	contact, err := NewContact("Acme", "billing@acme.test", "", "1 Main St", "300")
	require.NoError(t, err)

	customer, err := NewCustomer(tenantID, contact)
	require.NoError(t, err)
	assert.Equal(t, tenantID, customer.TenantID)
	assert.Equal(t, "Acme", customer.Name)
	require.Len(t, customer.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeCustomerCreated, customer.GetDomainEvents()[0].EventType())

	updated, err := NewContact("Acme Intl", "ap@acme.test", "", "", "")
	require.NoError(t, err)
	require.NoError(t, customer.Update(updated, "net 15"))
	assert.Equal(t, "Acme Intl", customer.Name)
	assert.Equal(t, "net 15", customer.Notes)

	assert.Error(t, customer.Update(Contact{Name: "x"}, ""))
	assert.Equal(t, "Acme Intl", customer.Name)

	customer.MarkDeleted()
	events := customer.GetDomainEvents()
	assert.Equal(t, EventTypeCustomerDeleted, events[len(events)-1].EventType())
}

func TestSupplier(t *testing.T) {
	contact, err := NewContact("Parts Co", "sales@parts.test", "", "", "")
	require.NoError(t, err)

	supplier, err := NewSupplier(uuid.New(), contact)
	require.NoError(t, err)
	assert.Equal(t, EventTypeSupplierCreated, supplier.GetDomainEvents()[0].EventType())

	_, err = NewSupplier(uuid.New(), Contact{})
	assert.Error(t, err)
}
