package invoicing

import (
	"net/mail"
	"strings"

	"github.com/erp/invoicing/internal/domain/shared"
)

// Client holds the identity of the party a quote or invoice is addressed to
type Client struct {
	Name    string
	Email   string
	Address string
	TaxID   string // Only printed on invoices
}

// NewClient validates and normalizes client identity fields
func NewClient(name, email, address, taxID string) (Client, error) {
	c := Client{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Address: strings.TrimSpace(address),
		TaxID:   strings.TrimSpace(taxID),
	}
	if err := c.Validate(); err != nil {
		return Client{}, err
	}
	return c, nil
}

// Validate checks required client fields
func (c Client) Validate() error {
	if c.Name == "" {
		return shared.NewDomainError("INVALID_CLIENT_NAME", "Client name cannot be empty")
	}
	if len(c.Name) > 200 {
		return shared.NewDomainError("INVALID_CLIENT_NAME", "Client name cannot exceed 200 characters")
	}
	if c.Email == "" {
		return shared.NewDomainError("INVALID_CLIENT_EMAIL", "Client email cannot be empty")
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return shared.NewDomainError("INVALID_CLIENT_EMAIL", "Client email is not a valid address")
	}
	return nil
}
