package forms

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"tripplanner/models"
)

// EmailLookup reports whether an email address is registered, ignoring excludeID
type EmailLookup interface {
	EmailExists(ctx context.Context, email, excludeID string) (bool, error)
}

type SignUpForm struct {
	*Form     `validate:"-"`
	FirstName string `form:"first_name" validate:"required,max=150"`
	LastName  string `form:"last_name" validate:"required,max=150"`
	Email     string `form:"email" validate:"required,email,max=254"`
	Password1 string `form:"password1" validate:"required"`
	Password2 string `form:"password2" validate:"required"`
}

func NewSignUpForm(values url.Values) *SignUpForm {
	f := &SignUpForm{Form: New(values)}
	f.FirstName = f.Clean("first_name")
	f.LastName = f.Clean("last_name")
	f.Email = models.NormalizeEmail(f.Clean("email"))
	f.Password1 = f.Value("password1")
	f.Password2 = f.Value("password2")
	return f
}

func (f *SignUpForm) Validate(ctx context.Context, users EmailLookup) (bool, error) {
	f.check(f)
	if !f.HasError("email") {
		exists, err := users.EmailExists(ctx, f.Email, "")
		if err != nil {
			return false, err
		}
		if exists {
			f.AddError("email", MsgEmailInUse)
		}
	}
	f.checkNewPassword(f.Password1, f.Password2, "password2")
	return f.Valid(), nil
}

type SignInForm struct {
	*Form    `validate:"-"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

func NewSignInForm(values url.Values) *SignInForm {
	f := &SignInForm{Form: New(values)}
	f.Email = models.NormalizeEmail(f.Clean("email"))
	f.Password = f.Value("password")
	return f
}

func (f *SignInForm) Validate() bool {
	f.check(f)
	return f.Valid()
}

type ChangePasswordForm struct {
	*Form        `validate:"-"`
	OldPassword  string `form:"old_password" validate:"required"`
	NewPassword1 string `form:"new_password1" validate:"required"`
	NewPassword2 string `form:"new_password2" validate:"required"`
}

func NewChangePasswordForm(values url.Values) *ChangePasswordForm {
	f := &ChangePasswordForm{Form: New(values)}
	f.OldPassword = f.Value("old_password")
	f.NewPassword1 = f.Value("new_password1")
	f.NewPassword2 = f.Value("new_password2")
	return f
}

// Validate checks the new password; the old one is verified by the account service
func (f *ChangePasswordForm) Validate() bool {
	f.check(f)
	f.checkNewPassword(f.NewPassword1, f.NewPassword2, "new_password2")
	return f.Valid()
}

type SetPasswordForm struct {
	*Form        `validate:"-"`
	NewPassword1 string `form:"new_password1" validate:"required"`
	NewPassword2 string `form:"new_password2" validate:"required"`
}

func NewSetPasswordForm(values url.Values) *SetPasswordForm {
	f := &SetPasswordForm{Form: New(values)}
	f.NewPassword1 = f.Value("new_password1")
	f.NewPassword2 = f.Value("new_password2")
	return f
}

func (f *SetPasswordForm) Validate() bool {
	f.check(f)
	f.checkNewPassword(f.NewPassword1, f.NewPassword2, "new_password2")
	return f.Valid()
}

type UserEditForm struct {
	*Form     `validate:"-"`
	FirstName string `form:"first_name" validate:"required,max=150"`
	LastName  string `form:"last_name" validate:"required,max=150"`
	Email     string `form:"email" validate:"required,email,max=254"`
}

func NewUserEditForm(values url.Values) *UserEditForm {
	f := &UserEditForm{Form: New(values)}
	f.FirstName = f.Clean("first_name")
	f.LastName = f.Clean("last_name")
	f.Email = models.NormalizeEmail(f.Clean("email"))
	return f
}

// UserEditFormFor pre-fills the form with the user's current data
func UserEditFormFor(user *models.User) *UserEditForm {
	return NewUserEditForm(url.Values{
		"first_name": {user.FirstName},
		"last_name":  {user.LastName},
		"email":      {user.Email},
	})
}

func (f *UserEditForm) Validate(ctx context.Context, users EmailLookup, userID string) (bool, error) {
	f.check(f)
	if !f.HasError("email") {
		exists, err := users.EmailExists(ctx, f.Email, userID)
		if err != nil {
			return false, err
		}
		if exists {
			f.AddError("email", MsgEmailInUse)
		}
	}
	return f.Valid(), nil
}

// AvatarExtensions lists the accepted avatar file types
var AvatarExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

const MsgInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// MaxAvatarSize limits avatar uploads to 5 MiB
const MaxAvatarSize = 5 << 20

type ProfileEditForm struct {
	*Form       `validate:"-"`
	Birthday    string `form:"birthday" validate:"omitempty,datetime=2006-01-02"`
	Description string `form:"description" validate:"omitempty,max=2000"`

	Avatar       *multipart.FileHeader `form:"-" validate:"-"`
	BirthdayDate *time.Time            `form:"-" validate:"-"`
}

func NewProfileEditForm(values url.Values, avatar *multipart.FileHeader) *ProfileEditForm {
	f := &ProfileEditForm{Form: New(values), Avatar: avatar}
	f.Birthday = f.Clean("birthday")
	f.Description = f.Clean("description")
	return f
}

// ProfileEditFormFor pre-fills the form with the profile's current data
func ProfileEditFormFor(profile *models.UserProfile) *ProfileEditForm {
	values := url.Values{}
	if profile.Birthday != nil {
		values.Set("birthday", profile.Birthday.Format("2006-01-02"))
	}
	if profile.Description != nil {
		values.Set("description", *profile.Description)
	}
	return NewProfileEditForm(values, nil)
}

// Validate requires an avatar only when the profile has none yet
func (f *ProfileEditForm) Validate(hasAvatar bool) bool {
	f.check(f)
	if f.Avatar == nil {
		if !hasAvatar {
			f.AddError("avatar", MsgRequired)
		}
	} else {
		ext := strings.ToLower(filepath.Ext(f.Avatar.Filename))
		switch {
		case !AvatarExtensions[ext]:
			f.AddError("avatar", MsgInvalidImage)
		case f.Avatar.Size > MaxAvatarSize:
			f.AddError("avatar", fmt.Sprintf("The file is too large, the limit is %d MB.", MaxAvatarSize>>20))
		}
	}
	if f.Birthday != "" && !f.HasError("birthday") {
		date, _ := time.Parse("2006-01-02", f.Birthday)
		f.BirthdayDate = &date
	}
	return f.Valid()
}

type ResendActivationLinkForm struct {
	*Form `validate:"-"`
	Email string `form:"email" validate:"required,email"`
}

func NewResendActivationLinkForm(values url.Values) *ResendActivationLinkForm {
	f := &ResendActivationLinkForm{Form: New(values)}
	f.Email = models.NormalizeEmail(f.Clean("email"))
	return f
}

func (f *ResendActivationLinkForm) Validate(ctx context.Context, users EmailLookup) (bool, error) {
	f.check(f)
	if f.Valid() {
		exists, err := users.EmailExists(ctx, f.Email, "")
		if err != nil {
			return false, err
		}
		if !exists {
			f.AddError(NonFieldErrors, MsgUnknownEmail)
		}
	}
	return f.Valid(), nil
}

type PasswordResetForm struct {
	*Form `validate:"-"`
	Email string `form:"email" validate:"required,email,max=254"`
}

func NewPasswordResetForm(values url.Values) *PasswordResetForm {
	f := &PasswordResetForm{Form: New(values)}
	f.Email = models.NormalizeEmail(f.Clean("email"))
	return f
}

func (f *PasswordResetForm) Validate() bool {
	f.check(f)
	return f.Valid()
}

type DeleteAccountForm struct {
	*Form    `validate:"-"`
	Password string `form:"password" validate:"required"`
}

func NewDeleteAccountForm(values url.Values) *DeleteAccountForm {
	f := &DeleteAccountForm{Form: New(values)}
	f.Password = f.Value("password")
	return f
}

func (f *DeleteAccountForm) Validate() bool {
	f.check(f)
	return f.Valid()
}

type SettingsForm struct {
	*Form              `validate:"-"`
	DefaultCurrency    string `form:"default_currency" validate:"required,iso4217"`
	EmailNotifications bool   `form:"email_notifications" validate:"-"`
}

func NewSettingsForm(values url.Values) *SettingsForm {
	f := &SettingsForm{Form: New(values)}
	f.DefaultCurrency = strings.ToUpper(f.Clean("default_currency"))
	f.EmailNotifications = isChecked(f.Value("email_notifications"))
	return f
}

// SettingsFormFor pre-fills the form with the stored settings
func SettingsFormFor(settings *models.Settings) *SettingsForm {
	values := url.Values{"default_currency": {settings.DefaultCurrency}}
	if settings.EmailNotifications {
		values.Set("email_notifications", "on")
	}
	return NewSettingsForm(values)
}

func (f *SettingsForm) Validate() bool {
	f.check(f)
	return f.Valid()
}

func isChecked(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
