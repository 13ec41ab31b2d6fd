// Package validation checks user input before it reaches the network.
package validation

import (
	"regexp"
	"sort"
	"strings"

	"github.com/whatsmynameidontknow/crm-admin/internal/entity"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// E.164
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// Email reports whether s looks like an email address.
func Email(s string) bool {
	return emailPattern.MatchString(s)
}

// Phone reports whether s is an E.164 phone number.
func Phone(s string) bool {
	return phonePattern.MatchString(s)
}

// Errors maps a field name to its inline message. Empty means valid.
type Errors map[string]string

func (e Errors) Valid() bool { return len(e) == 0 }

// Fields returns the names of fields in error, sorted.
func (e Errors) Fields() []string {
	names := make([]string, 0, len(e))
	for k := range e {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Form validates values against the fields of d. Fields marked CreateOnly
// are only required when editing is false.
func Form(d entity.Descriptor, values map[string]string, editing bool) Errors {
	errs := Errors{}
	for _, f := range d.Fields {
		v := strings.TrimSpace(values[f.Name])
		required := f.Required && !(f.CreateOnly && editing)

		if v == "" {
			if required {
				errs[f.Name] = requiredMessage(f.Label)
			}
			continue
		}

		switch f.Kind {
		case entity.KindEmail:
			if !Email(v) {
				errs[f.Name] = "Invalid email format"
			}
		case entity.KindPhone:
			if !Phone(v) {
				errs[f.Name] = "Invalid phone number format"
			}
		}
	}
	return errs
}

// "Mobile Number" -> "Mobile number is required"
func requiredMessage(label string) string {
	if label == "" {
		return "This field is required"
	}
	return label[:1] + strings.ToLower(label[1:]) + " is required"
}
