package validation

import (
	"testing"

	"github.com/whatsmynameidontknow/crm-admin/internal/entity"
)

func validClient() map[string]string {
	return map[string]string{
		"client_name":   "Acme",
		"user_name":     "acme",
		"password":      "s3cret",
		"industry":      "Retail",
		"email":         "ops@acme.io",
		"mobile_number": "+14155552671",
	}
}

func TestEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a@b.co", true},
		{"first.last@sub.example.org", true},
		{"no-at.example.org", false},
		{"two@@example.org", false},
		{"spaces in@example.org", false},
		{"missing@tld", false},
	}
	for _, tt := range tests {
		if got := Email(tt.in); got != tt.want {
			t.Errorf("Email(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestPhone(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"+14155552671", true},
		{"4155552671", true},
		{"+0123", false},
		{"12", true},
		{"1", false},
		{"+1 415 555", false},
		{"1234567890123456", false},
	}
	for _, tt := range tests {
		if got := Phone(tt.in); got != tt.want {
			t.Errorf("Phone(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestForm_Valid(t *testing.T) {
	errs := Form(entity.Clients, validClient(), false)
	if !errs.Valid() {
		t.Errorf("Expected no errors, got %v", errs)
	}
}

func TestForm_RequiredMessages(t *testing.T) {
	errs := Form(entity.Clients, map[string]string{}, false)

	want := map[string]string{
		"client_name":   "Client name is required",
		"user_name":     "User name is required",
		"password":      "Password is required",
		"industry":      "Industry is required",
		"email":         "Email is required",
		"mobile_number": "Mobile number is required",
	}
	for field, msg := range want {
		if errs[field] != msg {
			t.Errorf("errs[%q] = %q, want %q", field, errs[field], msg)
		}
	}
	if len(errs) != len(want) {
		t.Errorf("Expected %d errors, got %d: %v", len(want), len(errs), errs.Fields())
	}
}

func TestForm_PasswordOptionalWhenEditing(t *testing.T) {
	values := validClient()
	delete(values, "password")

	if errs := Form(entity.Clients, values, true); !errs.Valid() {
		t.Errorf("Expected password to be optional on edit, got %v", errs)
	}
	if errs := Form(entity.Clients, values, false); errs["password"] == "" {
		t.Error("Expected password to be required on create")
	}
}

func TestForm_Formats(t *testing.T) {
	values := validClient()
	values["email"] = "not-an-email"
	values["mobile_number"] = "phone"

	errs := Form(entity.Clients, values, false)
	if errs["email"] != "Invalid email format" {
		t.Errorf("email error = %q", errs["email"])
	}
	if errs["mobile_number"] != "Invalid phone number format" {
		t.Errorf("mobile_number error = %q", errs["mobile_number"])
	}
	if got := errs.Fields(); len(got) != 2 || got[0] != "email" || got[1] != "mobile_number" {
		t.Errorf("Fields() = %v", got)
	}
}

func TestForm_WhitespaceIsEmpty(t *testing.T) {
	values := validClient()
	values["industry"] = "   "

	errs := Form(entity.Clients, values, false)
	if errs["industry"] != "Industry is required" {
		t.Errorf("industry error = %q", errs["industry"])
	}
}

func TestForm_CustomerNeedsClient(t *testing.T) {
	values := map[string]string{
		"customer_name": "Bob",
		"user_name":     "bob",
		"password":      "pw",
		"email":         "bob@example.com",
		"mobile_number": "+447911123456",
	}
	errs := Form(entity.Customers, values, false)
	if errs["client_username"] != "Client is required" {
		t.Errorf("client_username error = %q", errs["client_username"])
	}
}
