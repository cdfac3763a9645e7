package web

import (
	"errors"
	"log"
	"mime/multipart"
	"net/http"

	"tripplanner/internal/account"
	"tripplanner/internal/domain"
	"tripplanner/internal/forms"
	"tripplanner/models"
)

const (
	MsgCheckEmail       = "Please confirm your email address to complete the registration."
	MsgActivated        = "Thank you for your email confirmation. Now you can login your account."
	MsgInvalidLogin     = "Please enter a correct email and password. Note that both fields may be case-sensitive."
	MsgInactiveLogin    = "Your account is not activated yet. Check your inbox or request a new activation link."
	MsgAlreadyActive    = "This account is already active, you can sign in."
	MsgActivationResent = "A new activation link has been sent to your email address."
	MsgPasswordChanged  = "Your password was successfully updated!"
	MsgUserUpdated      = "Your data has been updated."
	MsgProfileUpdated   = "Your profile has been updated."
	MsgAccountDeleted   = "Your account has been deleted."
	MsgSettingsSaved    = "Settings saved."
	MsgLoggedOut        = "You have been logged out."
)

func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	user := h.currentUser(r)
	if user == nil {
		h.render(w, r, http.StatusOK, "index.html", &PageData{Page: "index"})
		return
	}
	trips, err := h.Trips.ListForUser(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "trips.html", &PageData{Page: "trips", User: user, Trips: trips})
}

func (h *WebHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	if h.currentUser(r) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "signup.html", &PageData{Page: "signup", Form: forms.NewSignUpForm(nil)})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewSignUpForm(r.PostForm)
	valid, err := form.Validate(r.Context(), h.Accounts)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if !valid {
		h.render(w, r, http.StatusOK, "signup.html", &PageData{Page: "signup", Form: form})
		return
	}

	if _, err := h.Accounts.SignUp(r.Context(), form.FirstName, form.LastName, form.Email, form.Password1); err != nil {
		if domain.IsConflict(err) {
			form.AddError("email", forms.MsgEmailInUse)
			h.render(w, r, http.StatusOK, "signup.html", &PageData{Page: "signup", Form: form})
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.flash(r, "info", MsgCheckEmail)
	h.redirect(w, r, "/signin/")
}

func (h *WebHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	next := safeNext(r.URL.Query().Get("next"))
	if h.currentUser(r) != nil {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "signin.html", &PageData{Page: "signin", Form: forms.NewSignInForm(nil), Next: next})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	if v := r.PostForm.Get("next"); v != "" {
		next = safeNext(v)
	}
	form := forms.NewSignInForm(r.PostForm)
	if !form.Validate() {
		h.render(w, r, http.StatusOK, "signin.html", &PageData{Page: "signin", Form: form, Next: next})
		return
	}

	user, err := h.Accounts.Authenticate(r.Context(), form.Email, form.Password)
	switch {
	case errors.Is(err, account.ErrInvalidCredentials):
		form.AddError(forms.NonFieldErrors, MsgInvalidLogin)
	case errors.Is(err, account.ErrInactiveAccount):
		form.AddError(forms.NonFieldErrors, MsgInactiveLogin)
	case err != nil:
		h.serverError(w, r, err)
		return
	}
	if !form.Valid() {
		h.render(w, r, http.StatusOK, "signin.html", &PageData{Page: "signin", Form: form, Next: next})
		return
	}

	log.Printf("User %s signed in", user.ID)
	h.login(w, r, user)
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := h.session(r)
	delete(session.Values, "user_id")
	h.flash(r, "info", MsgLoggedOut)
	h.redirect(w, r, "/")
}

func (h *WebHandler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	_, err := h.Accounts.Activate(r.Context(), routeVar(r, "uidb64"), routeVar(r, "token"))
	if err != nil {
		if errors.Is(err, account.ErrInvalidLink) {
			h.render(w, r, http.StatusBadRequest, "activation_invalid.html", &PageData{Page: "activation_invalid", User: h.currentUser(r)})
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.flash(r, "success", MsgActivated)
	h.redirect(w, r, "/signin/")
}

func (h *WebHandler) ResendActivationLink(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "resend_activation.html", &PageData{Page: "resend_activation", Form: forms.NewResendActivationLinkForm(nil)})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewResendActivationLinkForm(r.PostForm)
	valid, err := form.Validate(r.Context(), h.Accounts)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if !valid {
		h.render(w, r, http.StatusOK, "resend_activation.html", &PageData{Page: "resend_activation", Form: form})
		return
	}

	err = h.Accounts.ResendActivation(r.Context(), form.Email)
	switch {
	case errors.Is(err, account.ErrAlreadyActive):
		h.flash(r, "info", MsgAlreadyActive)
	case domain.IsNotFound(err):
		form.AddError(forms.NonFieldErrors, forms.MsgUnknownEmail)
		h.render(w, r, http.StatusOK, "resend_activation.html", &PageData{Page: "resend_activation", Form: form})
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	default:
		h.flash(r, "info", MsgActivationResent)
	}
	h.redirect(w, r, "/signin/")
}

func (h *WebHandler) ChangePassword(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "change_password.html", &PageData{Page: "change_password", User: user, Form: forms.NewChangePasswordForm(nil)})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewChangePasswordForm(r.PostForm)
	if form.Validate() {
		err := h.Accounts.ChangePassword(r.Context(), user, form.OldPassword, form.NewPassword1)
		switch {
		case errors.Is(err, account.ErrWrongPassword):
			form.AddError("old_password", forms.MsgWrongOldPassword)
		case err != nil:
			h.serverError(w, r, err)
			return
		default:
			h.flash(r, "success", MsgPasswordChanged)
			h.redirect(w, r, "/")
			return
		}
	}
	h.render(w, r, http.StatusOK, "change_password.html", &PageData{Page: "change_password", User: user, Form: form})
}

func (h *WebHandler) EditUserData(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "edit_user.html", &PageData{Page: "edit_user", User: user, Form: forms.UserEditFormFor(user)})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewUserEditForm(r.PostForm)
	valid, err := form.Validate(r.Context(), h.Accounts, user.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	if valid {
		err := h.Accounts.UpdateUser(r.Context(), user, form.FirstName, form.LastName, form.Email)
		switch {
		case domain.IsConflict(err):
			form.AddError("email", forms.MsgEmailInUse)
		case err != nil:
			h.serverError(w, r, err)
			return
		default:
			h.flash(r, "success", MsgUserUpdated)
			h.redirect(w, r, "/edit_user_data")
			return
		}
	}
	h.render(w, r, http.StatusOK, "edit_user.html", &PageData{Page: "edit_user", User: user, Form: form})
}

func (h *WebHandler) EditUserAdditionalData(w http.ResponseWriter, r *http.Request, user *models.User) {
	profile, err := h.Accounts.GetProfile(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	data := &PageData{Page: "edit_profile", User: user, Profile: profile}

	if r.Method == http.MethodGet {
		data.Form = forms.ProfileEditFormFor(profile)
		h.render(w, r, http.StatusOK, "edit_profile.html", data)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, forms.MaxAvatarSize+1<<20)
	if err := r.ParseMultipartForm(forms.MaxAvatarSize + 1<<20); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	var avatar *multipart.FileHeader
	if _, fh, err := r.FormFile("avatar"); err == nil {
		avatar = fh
	} else if !errors.Is(err, http.ErrMissingFile) {
		http.Error(w, "Invalid upload", http.StatusBadRequest)
		return
	}

	form := forms.NewProfileEditForm(r.PostForm, avatar)
	data.Form = form
	hasAvatar := profile.Avatar != nil && *profile.Avatar != ""
	if form.Validate(hasAvatar) {
		updated, err := h.Accounts.UpdateProfile(r.Context(), user.ID, form.BirthdayDate, form.Description, form.Avatar)
		var verr domain.ValidationError
		switch {
		case errors.As(err, &verr):
			form.AddError(verr.Field, verr.Msg)
		case err != nil:
			h.serverError(w, r, err)
			return
		default:
			data.Profile = updated
			h.flash(r, "success", MsgProfileUpdated)
			h.redirect(w, r, "/edit_user_additional_data")
			return
		}
	}
	h.render(w, r, http.StatusOK, "edit_profile.html", data)
}

func (h *WebHandler) DeleteUserAccount(w http.ResponseWriter, r *http.Request, user *models.User) {
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "delete_account.html", &PageData{Page: "delete_account", User: user, Form: forms.NewDeleteAccountForm(nil)})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewDeleteAccountForm(r.PostForm)
	if form.Validate() {
		err := h.Accounts.DeleteAccount(r.Context(), user, form.Password)
		switch {
		case errors.Is(err, account.ErrWrongPassword):
			form.AddError("password", forms.MsgWrongPassword)
		case err != nil:
			h.serverError(w, r, err)
			return
		default:
			delete(h.session(r).Values, "user_id")
			h.flash(r, "info", MsgAccountDeleted)
			h.redirect(w, r, "/")
			return
		}
	}
	h.render(w, r, http.StatusOK, "delete_account.html", &PageData{Page: "delete_account", User: user, Form: form})
}

func (h *WebHandler) PasswordResetForm(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, http.StatusOK, "password_reset.html", &PageData{Page: "password_reset", User: h.currentUser(r), Form: forms.NewPasswordResetForm(nil)})
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewPasswordResetForm(r.PostForm)
	if !form.Validate() {
		h.render(w, r, http.StatusOK, "password_reset.html", &PageData{Page: "password_reset", User: h.currentUser(r), Form: form})
		return
	}
	if err := h.Accounts.RequestPasswordReset(r.Context(), form.Email); err != nil {
		// Never reveal whether the address is registered
		log.Printf("Error requesting password reset: %v", err)
	}
	h.redirect(w, r, "/password_reset/done/")
}

func (h *WebHandler) PasswordResetDone(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "password_reset_done.html", &PageData{Page: "password_reset_done", User: h.currentUser(r)})
}

func (h *WebHandler) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	uidb64, token := routeVar(r, "uidb64"), routeVar(r, "token")
	data := &PageData{Page: "password_reset_confirm", ValidLink: true}

	if _, err := h.Accounts.CheckResetLink(r.Context(), uidb64, token); err != nil {
		if !errors.Is(err, account.ErrInvalidLink) {
			h.serverError(w, r, err)
			return
		}
		data.ValidLink = false
		h.render(w, r, http.StatusOK, "password_reset_confirm.html", data)
		return
	}

	if r.Method == http.MethodGet {
		data.Form = forms.NewSetPasswordForm(nil)
		h.render(w, r, http.StatusOK, "password_reset_confirm.html", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewSetPasswordForm(r.PostForm)
	data.Form = form
	if !form.Validate() {
		h.render(w, r, http.StatusOK, "password_reset_confirm.html", data)
		return
	}
	if err := h.Accounts.ResetPassword(r.Context(), uidb64, token, form.NewPassword1); err != nil {
		if errors.Is(err, account.ErrInvalidLink) {
			data.ValidLink = false
			h.render(w, r, http.StatusOK, "password_reset_confirm.html", data)
			return
		}
		h.serverError(w, r, err)
		return
	}
	h.redirect(w, r, "/reset/done/")
}

func (h *WebHandler) PasswordResetComplete(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "password_reset_complete.html", &PageData{Page: "password_reset_complete", User: h.currentUser(r)})
}

func (h *WebHandler) UserSettings(w http.ResponseWriter, r *http.Request, user *models.User) {
	current, err := h.Settings.GetUserSettings(r.Context(), user.ID)
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	data := &PageData{Page: "settings", User: user, Settings: current}

	if r.Method == http.MethodGet {
		data.Form = forms.SettingsFormFor(current)
		h.render(w, r, http.StatusOK, "settings.html", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	form := forms.NewSettingsForm(r.PostForm)
	data.Form = form
	if form.Validate() {
		_, err := h.Settings.UpdateUserSettings(r.Context(), user.ID, form.DefaultCurrency, form.EmailNotifications)
		var verr domain.ValidationError
		switch {
		case errors.As(err, &verr):
			form.AddError(verr.Field, verr.Msg)
		case err != nil:
			h.serverError(w, r, err)
			return
		default:
			h.flash(r, "success", MsgSettingsSaved)
			h.redirect(w, r, "/settings")
			return
		}
	}
	h.render(w, r, http.StatusOK, "settings.html", data)
}
