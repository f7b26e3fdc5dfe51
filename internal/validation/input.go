package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinNameLength           = 2
	MaxNameLength           = 100
	MinMessageLength        = 1
	MaxMessageLength        = 5000
	MinProgressNoteLength   = 1
	MaxProgressNoteLength   = 2000
	MinAddressLength        = 5
	MaxAddressLength        = 300
	MaxDescriptionLength    = 5000
	MaxReviewCommentLength  = 2000
	MinBudget               = 0.0
	MaxBudget               = 1000000000.0 // миллиард рублей
	MaxPhoneLength          = 20
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	if !strings.Contains(email, "@") {
		return fmt.Errorf("email должен содержать символ @")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	if !strings.Contains(domainPart, ".") {
		return fmt.Errorf("доменная часть email должна содержать точку")
	}

	// Проверка на валидные символы в локальной части
	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	// Проверка на валидные символы в доменной части
	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateBudget проверяет бюджет заявки.
func ValidateBudget(budget float64) error {
	if budget < MinBudget {
		return fmt.Errorf("бюджет не может быть отрицательным")
	}
	if budget > MaxBudget {
		return fmt.Errorf("бюджет не может превышать %.0f", MaxBudget)
	}
	return nil
}

// ValidateQuote проверяет предложенную исполнителем цену.
func ValidateQuote(quote float64) error {
	if quote <= 0 {
		return fmt.Errorf("цена должна быть положительной")
	}
	if quote > MaxBudget {
		return fmt.Errorf("цена не может превышать %.0f", MaxBudget)
	}
	return nil
}

// ValidatePhone проверяет номер телефона.
func ValidatePhone(phone *string) error {
	if phone == nil || *phone == "" {
		return nil
	}

	value := strings.TrimSpace(*phone)
	if utf8.RuneCountInString(value) > MaxPhoneLength {
		return fmt.Errorf("телефон не может быть длиннее %d символов", MaxPhoneLength)
	}

	phoneRegex := regexp.MustCompile(`^\+?[0-9\s\-()]{5,}$`)
	if !phoneRegex.MatchString(value) {
		return fmt.Errorf("некорректный формат телефона")
	}

	return nil
}

// ValidateAddress проверяет адрес объекта недвижимости.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("адрес обязателен")
	}

	address = strings.TrimSpace(address)

	if err := ValidateLength("адрес", address, MinAddressLength, MaxAddressLength); err != nil {
		return err
	}

	return nil
}

// ValidateRating проверяет оценку в отзыве.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("оценка должна быть от 1 до 5")
	}
	return nil
}
