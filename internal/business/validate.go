package business

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

// Philippine phone numbers: optional +63 or 0 prefix, 3-3-4 digit groups with
// flexible separators. Anything with at least 7 digits also passes, matching
// the tolerance of the web form.
var phonePattern = regexp.MustCompile(`^(\+63|0)?[\s.-]?\d{3}[\s.-]?\d{3}[\s.-]?\d{4}$`)

// ValidationError reports every rejected field at once so the form can show
// all problems in a single round trip.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// validator collects field errors.
type validator struct {
	fields map[string]string
}

func (v *validator) fail(field, msg string) {
	if v.fields == nil {
		v.fields = map[string]string{}
	}
	if _, seen := v.fields[field]; !seen {
		v.fields[field] = msg
	}
}

func (v *validator) err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: v.fields}
}

// Validate checks an input structurally and against value ranges. Photo URLs
// must point at one of the allowed image hosts.
func Validate(input *Input, allowedImageHosts []string) error {
	v := &validator{}

	if strings.TrimSpace(input.Name.English) == "" {
		v.fail("name.english", "English name is required")
	}
	if strings.TrimSpace(input.Name.Tagalog) == "" {
		v.fail("name.tagalog", "Tagalog name is required")
	}

	if len(strings.TrimSpace(input.Description.English)) < 10 {
		v.fail("description.english", "description must be at least 10 characters")
	}
	if len(strings.TrimSpace(input.Description.Tagalog)) < 10 {
		v.fail("description.tagalog", "description must be at least 10 characters")
	}

	if strings.TrimSpace(input.Category.Primary) == "" {
		v.fail("category.primary", "primary category is required")
	}

	validatePhone(v, input.Contact.Phone)
	if input.Contact.Email != "" {
		if _, err := mail.ParseAddress(input.Contact.Email); err != nil {
			v.fail("contact.email", "invalid email")
		}
	}
	if input.Contact.Website != "" {
		if !isHTTPURL(input.Contact.Website) {
			v.fail("contact.website", "invalid URL")
		}
	}

	if strings.TrimSpace(input.Address.Street) == "" {
		v.fail("address.street", "street address is required")
	}
	if strings.TrimSpace(input.Address.Barangay) == "" {
		v.fail("address.barangay", "barangay is required")
	}

	lat := input.Address.Coordinates.Latitude
	if lat < -90 || lat > 90 {
		v.fail("address.coordinates.latitude", "latitude must be between -90 and 90")
	}
	lng := input.Address.Coordinates.Longitude
	if lng < -180 || lng > 180 {
		v.fail("address.coordinates.longitude", "longitude must be between -180 and 180")
	}

	if !input.Metadata.Status.Valid() {
		v.fail("metadata.status", fmt.Sprintf("status must be one of %s, %s, %s", StatusActive, StatusInactive, StatusPending))
	}

	for i, photo := range input.Photos {
		field := fmt.Sprintf("photos[%d].url", i)
		if photo.URL == "" {
			continue
		}
		parsed, err := url.Parse(photo.URL)
		if err != nil || !isHTTPURL(photo.URL) {
			v.fail(field, "invalid image URL")
			continue
		}
		if len(allowedImageHosts) > 0 && !hostAllowed(parsed.Hostname(), allowedImageHosts) {
			v.fail(field, "image host not allowed")
		}
	}

	return v.err()
}

func validatePhone(v *validator, phone string) {
	if strings.TrimSpace(phone) == "" {
		v.fail("contact.phone", "phone number is required")
		return
	}
	if phonePattern.MatchString(phone) {
		return
	}
	digits := 0
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < 7 {
		v.fail("contact.phone", "please enter a valid Philippine phone number")
	}
}

func isHTTPURL(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func hostAllowed(host string, allowed []string) bool {
	for _, h := range allowed {
		if strings.EqualFold(host, h) {
			return true
		}
	}
	return false
}
