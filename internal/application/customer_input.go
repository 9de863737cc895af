package application

import (
	"strings"
	"unicode/utf8"

	"github.com/oksasatya/clientsphere/internal/domain/entity"
	"github.com/oksasatya/clientsphere/pkg/validation"
)

// CustomerInput is the client-writable part of a customer.
type CustomerInput struct {
	Name    string `json:"name" validate:"required,utf8,max=100"`
	Email   string `json:"email" validate:"required,utf8,max=254,basic_email"`
	Phone   string `json:"phone" validate:"utf8,max=20"`
	Company string `json:"company" validate:"utf8,max=100"`
	Address string `json:"address" validate:"utf8,max=200"`
	Status  string `json:"status" validate:"oneof=lead prospect customer former inactive ceo"`
}

// Normalize trims every field, lowercases the email and applies the default status.
func (in CustomerInput) Normalize() CustomerInput {
	out := CustomerInput{
		Name:    strings.TrimSpace(in.Name),
		Email:   lowerEmail(strings.TrimSpace(in.Email)),
		Phone:   strings.TrimSpace(in.Phone),
		Company: strings.TrimSpace(in.Company),
		Address: strings.TrimSpace(in.Address),
		Status:  strings.TrimSpace(in.Status),
	}
	if out.Status == "" {
		out.Status = string(entity.DefaultStatus)
	}
	return out
}

// lowerEmail leaves malformed UTF-8 untouched so validation can reject it;
// strings.ToLower would silently replace the bad bytes.
func lowerEmail(s string) string {
	if !utf8.ValidString(s) {
		return s
	}
	return strings.ToLower(s)
}

// ValidateCustomerInput normalizes in and reports one message per violated field.
func ValidateCustomerInput(v *validation.Validator, in CustomerInput) (CustomerInput, []validation.FieldError) {
	in = in.Normalize()
	return in, v.Struct(in)
}

func (in CustomerInput) applyTo(c *entity.Customer) {
	c.Name = in.Name
	c.Email = in.Email
	c.Phone = in.Phone
	c.Company = in.Company
	c.Address = in.Address
	c.Status = entity.CustomerStatus(in.Status)
}
