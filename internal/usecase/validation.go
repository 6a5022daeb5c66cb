package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	zipRe   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	stateRe = regexp.MustCompile(`^[A-Za-z]{2}$`)
)

func ValidateCreateQuoteInput(input CreateQuoteInput) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(input.Name) == "" {
		errors = append(errors, ValidationError{"name", "is required"})
	} else if len(input.Name) > 200 {
		errors = append(errors, ValidationError{"name", "must not exceed 200 characters"})
	}

	if strings.TrimSpace(input.Email) == "" {
		errors = append(errors, ValidationError{"email", "is required"})
	} else if _, err := mail.ParseAddress(input.Email); err != nil {
		errors = append(errors, ValidationError{"email", "is invalid"})
	}

	if input.Phone != "" && !isValidPhoneNumber(input.Phone) {
		errors = append(errors, ValidationError{"phone", "must be a valid phone number"})
	}

	errors = append(errors, validateLocation(input.StreetAddress, input.City, input.State, input.ZipCode)...)
	errors = append(errors, validateService(input.Speed, input.Term)...)

	return errors
}

func validateLocation(street, city, state, zip string) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(street) == "" {
		errors = append(errors, ValidationError{"street_address", "is required"})
	}
	if strings.TrimSpace(city) == "" {
		errors = append(errors, ValidationError{"city", "is required"})
	}
	if !stateRe.MatchString(strings.TrimSpace(state)) {
		errors = append(errors, ValidationError{"state", "must be a 2-letter state code"})
	}
	if !zipRe.MatchString(strings.TrimSpace(zip)) {
		errors = append(errors, ValidationError{"zip_code", "must be a valid zip code (XXXXX or XXXXX-XXXX)"})
	}

	return errors
}

func validateService(speed, term string) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(speed) == "" {
		errors = append(errors, ValidationError{"speed", "is required"})
	} else if v, err := strconv.Atoi(speed); err != nil || v <= 0 {
		errors = append(errors, ValidationError{"speed", "must be a positive number of Mbps"})
	}

	if strings.TrimSpace(term) == "" {
		errors = append(errors, ValidationError{"term", "is required"})
	} else if v, err := strconv.Atoi(term); err != nil || v <= 0 {
		errors = append(errors, ValidationError{"term", "must be a positive number of months"})
	}

	return errors
}

func isValidPhoneNumber(phone string) bool {
	cleaned := regexp.MustCompile(`\D`).ReplaceAllString(phone, "")
	return len(cleaned) >= 10 && len(cleaned) <= 11
}

func joinValidationErrors(errs []ValidationError) string {
	msg := "validation failed: "
	for _, e := range errs {
		msg += e.Field + " (" + e.Message + "), "
	}
	return strings.TrimSuffix(msg, ", ")
}
