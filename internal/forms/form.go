// Package forms binds submitted form values, validates them and keeps the
// messages shown next to each field.
package forms

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// NonFieldErrors is the key of errors that belong to the form as a whole
const NonFieldErrors = "__all__"

const (
	MsgRequired         = "This field is required."
	MsgInvalidEmail     = "Enter a valid email address."
	MsgInvalidDate      = "Enter a valid date."
	MsgPasswordMismatch = "Passwords do not match."
	MsgEmailInUse       = "Email already in use!"
	MsgUnknownEmail     = "This email address does not correspond to an existing user account."
	MsgWrongOldPassword = "Your old password was entered incorrectly."
	MsgWrongPassword    = "Your password was entered incorrectly."
	MsgInvalidCurrency  = "Enter a valid currency code."
	MsgInvalidChoice    = "Select a valid choice. That choice is not one of the available choices."
)

// Errors maps a field name to its messages
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get returns the first message of field
func (e Errors) Get(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Form holds the raw submitted values and the validation errors
type Form struct {
	Values url.Values
	Errors Errors
}

// New wraps submitted values. A nil map gives an empty, unbound form.
func New(values url.Values) *Form {
	if values == nil {
		values = url.Values{}
	}
	return &Form{Values: values, Errors: Errors{}}
}

// Value returns the submitted value of field
func (f *Form) Value(field string) string {
	return f.Values.Get(field)
}

// Clean returns the submitted value of field without surrounding whitespace
func (f *Form) Clean(field string) string {
	return strings.TrimSpace(f.Values.Get(field))
}

// Error returns the first message of field
func (f *Form) Error(field string) string {
	return f.Errors.Get(field)
}

// FieldErrors returns every message of field
func (f *Form) FieldErrors(field string) []string {
	return f.Errors[field]
}

func (f *Form) HasError(field string) bool {
	return len(f.Errors[field]) > 0
}

func (f *Form) NonFieldErrors() []string {
	return f.Errors[NonFieldErrors]
}

func (f *Form) AddError(field, msg string) {
	f.Errors.Add(field, msg)
}

func (f *Form) Valid() bool {
	return len(f.Errors) == 0
}

// Set replaces a submitted value, used to pre-fill forms
func (f *Form) Set(field, value string) {
	f.Values.Set(field, value)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// check runs the struct's validate tags and records one message per failing field
func (f *Form) check(s any) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		f.AddError(NonFieldErrors, err.Error())
		return
	}
	for _, fe := range verrs {
		f.AddError(fe.Field(), message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "email":
		return MsgInvalidEmail
	case "max":
		value, _ := fe.Value().(string)
		return fmt.Sprintf("Ensure this value has at most %s characters (it has %d).",
			fe.Param(), utf8.RuneCountInString(value))
	case "oneof":
		return fmt.Sprintf("Select a valid choice. %v is not one of the available choices.", fe.Value())
	case "datetime":
		return MsgInvalidDate
	case "iso4217":
		return MsgInvalidCurrency
	default:
		return "Enter a valid value."
	}
}
