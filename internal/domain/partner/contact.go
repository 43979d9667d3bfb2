package partner

import (
	"regexp"
	"strings"

	"github.com/erp/invoicing/internal/domain/shared"
)

var (
	validPhone = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	validEmail = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Contact holds the details shared by customers and suppliers.
// They pre-fill the client fields of quotes and invoices.
type Contact struct {
	Name    string
	Email   string
	Phone   string
	Address string
	TaxID   string
}

// NewContact trims and validates contact details
func NewContact(name, email, phone, address, taxID string) (Contact, error) {
	c := Contact{
		Name:    strings.TrimSpace(name),
		Email:   strings.ToLower(strings.TrimSpace(email)),
		Phone:   strings.TrimSpace(phone),
		Address: strings.TrimSpace(address),
		TaxID:   strings.TrimSpace(taxID),
	}
	if err := c.validate(); err != nil {
		return Contact{}, err
	}
	return c, nil
}

func (c Contact) validate() error {
	if c.Name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if len(c.Name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	if c.Email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(c.Email) > 200 || !validEmail.MatchString(c.Email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}
	if c.Phone != "" && (len(c.Phone) > 50 || !validPhone.MatchString(c.Phone)) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format")
	}
	if len(c.Address) > 500 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address cannot exceed 500 characters")
	}
	if len(c.TaxID) > 50 {
		return shared.NewDomainError("INVALID_TAX_ID", "Tax ID cannot exceed 50 characters")
	}
	return nil
}
