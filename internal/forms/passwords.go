package forms

import (
	"fmt"
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest password accepted
const MinPasswordLength = 8

var commonPasswords = map[string]bool{
	"password": true, "password1": true, "password123": true, "12345678": true,
	"123456789": true, "1234567890": true, "qwerty123": true, "qwertyuiop": true,
	"iloveyou": true, "sunshine": true, "princess": true, "football": true,
	"baseball": true, "welcome1": true, "abc12345": true, "letmein1": true,
	"passw0rd": true, "trustno1": true, "11111111": true, "00000000": true,
	"superman": true, "starwars": true, "whatever": true, "dragon12": true,
}

// ValidatePassword returns every rule the password breaks
func ValidatePassword(password string) []string {
	var msgs []string
	if len([]rune(password)) < MinPasswordLength {
		msgs = append(msgs, fmt.Sprintf(
			"This password is too short. It must contain at least %d characters.", MinPasswordLength))
	}
	if commonPasswords[strings.ToLower(password)] {
		msgs = append(msgs, "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		msgs = append(msgs, "This password is entirely numeric.")
	}
	return msgs
}

// checkNewPassword validates a password pair; messages go to the confirmation field
func (f *Form) checkNewPassword(password, confirmation, confirmField string) {
	if f.HasError(confirmField) || password == "" {
		return
	}
	if password != confirmation {
		f.AddError(confirmField, MsgPasswordMismatch)
		return
	}
	for _, msg := range ValidatePassword(password) {
		f.AddError(confirmField, msg)
	}
}
