package business

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAcceptsCompleteInput(t *testing.T) {
	require.NoError(t, Validate(validInput(), nil))
}

func TestValidateRequiredFields(t *testing.T) {
	input := validInput()
	input.Name = BilingualText{}
	input.Category.Primary = ""
	input.Address.Street = ""
	input.Address.Barangay = ""

	err := Validate(input, nil)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "name.english")
	require.Contains(t, validationErr.Fields, "name.tagalog")
	require.Contains(t, validationErr.Fields, "category.primary")
	require.Contains(t, validationErr.Fields, "address.street")
	require.Contains(t, validationErr.Fields, "address.barangay")
}

func TestValidateCoordinateBounds(t *testing.T) {
	input := validInput()
	input.Address.Coordinates.Latitude = 91

	err := Validate(input, nil)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "address.coordinates.latitude")

	input = validInput()
	input.Address.Coordinates.Longitude = -181
	err = Validate(input, nil)
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "address.coordinates.longitude")
}

func TestValidatePhone(t *testing.T) {
	for _, phone := range []string{"+63 912 345 6789", "0912-345-6789", "9123456789", "555 1234"} {
		input := validInput()
		input.Contact.Phone = phone
		require.NoError(t, Validate(input, nil), "phone %q should be accepted", phone)
	}

	input := validInput()
	input.Contact.Phone = "12345"
	err := Validate(input, nil)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "contact.phone")

	input.Contact.Phone = ""
	require.ErrorAs(t, Validate(input, nil), &validationErr)
	require.Contains(t, validationErr.Fields, "contact.phone")
}

func TestValidateStatusEnum(t *testing.T) {
	input := validInput()
	input.Metadata.Status = "archived"

	err := Validate(input, nil)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "metadata.status")
}

func TestValidatePhotoHostAllowList(t *testing.T) {
	allowed := []string{"lh6.googleusercontent.com"}

	input := validInput()
	input.Photos = []Photo{{URL: "https://lh6.googleusercontent.com/p/abc", Alt: "storefront", IsPrimary: true}}
	require.NoError(t, Validate(input, allowed))

	input.Photos = []Photo{{URL: "https://evil.example.com/p/abc", Alt: "storefront"}}
	err := Validate(input, allowed)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "photos[0].url")

	// Empty URLs are tolerated; the form submits placeholder rows
	input.Photos = []Photo{{URL: ""}}
	require.NoError(t, Validate(input, allowed))
}

func TestValidateWebsiteAndEmail(t *testing.T) {
	input := validInput()
	input.Contact.Website = "not-a-url"
	input.Contact.Email = "not-an-email"

	err := Validate(input, nil)
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Contains(t, validationErr.Fields, "contact.website")
	require.Contains(t, validationErr.Fields, "contact.email")
}
