package utils

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
	"github.com/nyaruka/phonenumbers"
)

var (
	// rxPhone is used to validate phone numbers according to the E.164 standard.
	rxPhone                   = regexp.MustCompile(`^\+[1-9]{1}[0-9]{9,14}$`)
	ErrInvalidE164PhoneNumber = fmt.Errorf("the provided phone number is not a valid E.164 number")
	ErrEmptyPhoneNumber       = fmt.Errorf("phone number cannot be empty")
)

func ValidatePhoneNumber(phoneNumberStr string) error {
	if phoneNumberStr == "" {
		return ErrEmptyPhoneNumber
	}

	if !rxPhone.MatchString(phoneNumberStr) {
		return ErrInvalidE164PhoneNumber
	}

	parsedNumber, err := phonenumbers.Parse(phoneNumberStr, "")
	if err != nil || !phonenumbers.IsValidNumber(parsedNumber) {
		return ErrInvalidE164PhoneNumber
	}

	return nil
}

func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}

	if !govalidator.IsEmail(email) {
		return fmt.Errorf("the provided email is not valid")
	}

	return nil
}

// ValidateLength checks the number of characters of s, not bytes.
func ValidateLength(s string, minLength, maxLength int) error {
	n := utf8.RuneCountInString(s)
	if n < minLength {
		return fmt.Errorf("must be at least %d characters long", minLength)
	}
	if maxLength > 0 && n > maxLength {
		return fmt.Errorf("must be at most %d characters long", maxLength)
	}
	return nil
}
