package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	valid := []string{
		"ivan@example.com",
		"ivan.petrov+work@mail.ru",
		"a@b.io",
	}
	for _, email := range valid {
		assert.NoError(t, ValidateEmail(email), email)
	}

	invalid := []string{
		"",
		"no-at-sign",
		"two@@example.com",
		"ivan@localhost",
		"ив ан@example.com",
		"ivan@",
		"@example.com",
	}
	for _, email := range invalid {
		assert.Error(t, ValidateEmail(email), email)
	}
}

func TestValidateLength_CountsRunes(t *testing.T) {
	assert.NoError(t, ValidateLength("имя", "Ян", MinNameLength, MaxNameLength))
	assert.Error(t, ValidateLength("имя", "Я", MinNameLength, MaxNameLength))
	assert.Error(t, ValidateLength("имя", strings.Repeat("а", 101), MinNameLength, MaxNameLength))
}

func TestValidateBudget(t *testing.T) {
	assert.NoError(t, ValidateBudget(0))
	assert.NoError(t, ValidateBudget(500000))
	assert.Error(t, ValidateBudget(-1))
	assert.Error(t, ValidateBudget(MaxBudget+1))
}

func TestValidateQuote(t *testing.T) {
	assert.NoError(t, ValidateQuote(150000))
	assert.Error(t, ValidateQuote(0))
	assert.Error(t, ValidateQuote(-10))
}

func TestValidatePhone(t *testing.T) {
	assert.NoError(t, ValidatePhone(nil))

	empty := ""
	assert.NoError(t, ValidatePhone(&empty))

	ok := "+7 (921) 123-45-67"
	assert.NoError(t, ValidatePhone(&ok))

	letters := "phone-number"
	assert.Error(t, ValidatePhone(&letters))

	long := strings.Repeat("1", MaxPhoneLength+1)
	assert.Error(t, ValidatePhone(&long))
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress("г. Москва, ул. Ленина, д. 1"))
	assert.Error(t, ValidateAddress(""))
	assert.Error(t, ValidateAddress("кв 1"))
}

func TestValidateRating(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		assert.NoError(t, ValidateRating(rating))
	}
	assert.Error(t, ValidateRating(0))
	assert.Error(t, ValidateRating(6))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Password123"))

	invalid := []string{
		"short1A",
		"alllowercase1",
		"ALLUPPERCASE1",
		"NoDigitsHere",
	}
	for _, password := range invalid {
		assert.Error(t, ValidatePassword(password), password)
	}
}
