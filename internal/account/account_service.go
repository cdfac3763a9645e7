package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"tripplanner/db"
	"tripplanner/internal/auth"
	"tripplanner/internal/config"
	"tripplanner/internal/domain"
	"tripplanner/internal/eventlog"
	"tripplanner/internal/mail"
	"tripplanner/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveAccount    = errors.New("account is not activated")
	ErrWrongPassword      = errors.New("wrong password")
	ErrInvalidLink        = errors.New("the link is invalid or has expired")
	ErrAlreadyActive      = errors.New("account is already active")
)

type AccountService struct {
	Config       *config.Config
	Users        db.UserRepository
	Trips        db.TripRepository
	Invitations  db.InvitationRepository
	Tx           db.TxRunner
	Mailer       mail.Mailer
	EventLogs    *eventlog.EventLogService
	PasswordCost int
	dbManager    *db.DBManager
}

func NewAccountService(
	cfg *config.Config,
	userRepo db.UserRepository,
	tripRepo db.TripRepository,
	invitationRepo db.InvitationRepository,
	txRunner db.TxRunner,
	mailer mail.Mailer,
	eventLogService *eventlog.EventLogService,
	dbManager *db.DBManager,
) *AccountService {
	return &AccountService{
		Config:       cfg,
		Users:        userRepo,
		Trips:        tripRepo,
		Invitations:  invitationRepo,
		Tx:           txRunner,
		Mailer:       mailer,
		EventLogs:    eventLogService,
		PasswordCost: bcrypt.DefaultCost,
		dbManager:    dbManager,
	}
}

// EmailExists lets forms check address uniqueness
func (s *AccountService) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	return s.Users.EmailExists(ctx, email, excludeID)
}

func (s *AccountService) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.PasswordCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the user's hash
func CheckPassword(user *models.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil
}

// SignUp creates an inactive account and mails the activation link
func (s *AccountService) SignUp(ctx context.Context, firstName, lastName, email, password string) (*models.User, error) {
	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        models.NormalizeEmail(email),
		PasswordHash: hash,
		IsActive:     false,
	}

	err = s.dbManager.ExecuteOperation(ctx, func() error {
		exists, err := s.Users.EmailExists(ctx, user.Email, "")
		if err != nil {
			return err
		}
		if exists {
			return domain.ConflictError{Resource: "user", Msg: "Email already in use!"}
		}
		return s.Users.Create(ctx, user, &models.UserProfile{})
	})
	if err != nil {
		return nil, err
	}
	log.Printf("New account %s signed up", user.ID)

	if err := s.SendActivation(ctx, user); err != nil {
		log.Printf("Error sending activation mail to %s: %v", user.Email, err)
	}
	return user, nil
}

// SendActivation mails a fresh activation link
func (s *AccountService) SendActivation(ctx context.Context, user *models.User) error {
	token, err := auth.NewEmailToken(s.Config.SecretKey, auth.PurposeActivate, user, s.Config.TokenTTL)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/activate-user/%s/%s", s.Config.SiteURL, auth.EncodeUID(user.ID), token)
	msg, err := mail.ActivationMessage(user.Email, user.FullName(), link, s.Config.TokenTTL)
	if err != nil {
		return err
	}
	return s.Mailer.Send(ctx, msg)
}

// ResendActivation mails a new link to an account that is not active yet
func (s *AccountService) ResendActivation(ctx context.Context, email string) error {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return domain.NotFoundError{Resource: "user", Err: err}
		}
		return err
	}
	if user.IsActive {
		return ErrAlreadyActive
	}
	return s.SendActivation(ctx, user)
}

func (s *AccountService) userFromLink(ctx context.Context, uidb64, token string, purpose auth.Purpose) (*models.User, error) {
	userID, err := auth.DecodeUID(uidb64)
	if err != nil {
		return nil, ErrInvalidLink
	}
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidLink
		}
		return nil, err
	}
	if err := auth.CheckEmailToken(s.Config.SecretKey, purpose, token, user); err != nil {
		return nil, ErrInvalidLink
	}
	return user, nil
}

// Activate checks an activation link, activates the account and turns the
// pending invitations for its email into trip memberships
func (s *AccountService) Activate(ctx context.Context, uidb64, token string) (*models.User, error) {
	user, err := s.userFromLink(ctx, uidb64, token, auth.PurposeActivate)
	if err != nil {
		return nil, err
	}

	var joined []*models.Invitation
	err = s.dbManager.ExecuteOperation(ctx, func() error {
		joined = nil
		return s.Tx.InTx(ctx, func(repos db.TxRepositories) error {
			activated := *user
			activated.IsActive = true
			if err := repos.Users.Update(ctx, &activated); err != nil {
				return err
			}
			profile, err := repos.Users.FindProfile(ctx, user.ID)
			if err != nil {
				return err
			}
			profile.EmailVerified = true
			if err := repos.Users.UpdateProfile(ctx, profile); err != nil {
				return err
			}

			invitations, err := repos.Invitations.FindPendingByEmail(ctx, user.Email)
			if err != nil {
				return err
			}
			for _, invitation := range invitations {
				added, err := repos.Trips.AddMember(ctx, invitation.TripID, user.ID)
				if err != nil {
					return err
				}
				if err := repos.Invitations.MarkAccepted(ctx, invitation.ID, db.Now()); err != nil {
					return err
				}
				if added {
					joined = append(joined, invitation)
				}
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	user.IsActive = true

	for _, invitation := range joined {
		s.EventLogs.Record(ctx, invitation.TripID, user, models.MemberJoined, user.FullName())
	}
	log.Printf("Account %s activated, joined %d trip(s)", user.ID, len(joined))
	return user, nil
}

// Authenticate checks credentials and records the login time
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPassword(user, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	now := db.Now()
	user.LastLogin = &now
	err = s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Users.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.Users.FindByID(ctx, id)
}

func (s *AccountService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return s.Users.FindProfile(ctx, userID)
}

// ChangePassword replaces the password after checking the old one
func (s *AccountService) ChangePassword(ctx context.Context, user *models.User, oldPassword, newPassword string) error {
	if !CheckPassword(user, oldPassword) {
		return ErrWrongPassword
	}
	return s.setPassword(ctx, user, newPassword)
}

func (s *AccountService) setPassword(ctx context.Context, user *models.User, password string) error {
	hash, err := s.hashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Users.Update(ctx, user)
	})
}

// UpdateUser stores new name and email address
func (s *AccountService) UpdateUser(ctx context.Context, user *models.User, firstName, lastName, email string) error {
	updated := *user
	updated.FirstName = firstName
	updated.LastName = lastName
	updated.Email = models.NormalizeEmail(email)
	err := s.dbManager.ExecuteOperation(ctx, func() error {
		exists, err := s.Users.EmailExists(ctx, updated.Email, updated.ID)
		if err != nil {
			return err
		}
		if exists {
			return domain.ConflictError{Resource: "user", Msg: "Email already in use!"}
		}
		return s.Users.Update(ctx, &updated)
	})
	if err != nil {
		return err
	}
	*user = updated
	return nil
}

// UpdateProfile stores the profile data and, when given, a new avatar
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, birthday *time.Time, description string, avatar *multipart.FileHeader) (*models.UserProfile, error) {
	profile, err := s.Users.FindProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldAvatar := profile.Avatar
	if avatar != nil {
		stored, err := s.saveAvatar(avatar)
		if err != nil {
			return nil, err
		}
		profile.Avatar = &stored
	}
	profile.Birthday = birthday
	profile.Description = nil
	if description != "" {
		profile.Description = &description
	}

	err = s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Users.UpdateProfile(ctx, profile)
	})
	if err != nil {
		return nil, err
	}

	if avatar != nil && oldAvatar != nil {
		s.removeMedia(*oldAvatar)
	}
	return profile, nil
}

// saveAvatar writes an upload to MEDIA_ROOT/user_avatars/YYYY/MM/DD/ and
// returns its path relative to MEDIA_ROOT
func (s *AccountService) saveAvatar(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	head := make([]byte, 512)
	n, err := io.ReadFull(src, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if !strings.HasPrefix(http.DetectContentType(head[:n]), "image/") {
		return "", domain.ValidationError{Field: "avatar",
			Msg: "Upload a valid image. The file you uploaded was either not an image or a corrupted image."}
	}

	now := time.Now().UTC()
	rel := path.Join("user_avatars", now.Format("2006/01/02"), db.GenerateID()+strings.ToLower(filepath.Ext(fh.Filename)))
	dst := filepath.Join(s.Config.MediaRoot, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create avatar directory: %w", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file: %w", err)
	}
	defer out.Close()
	if _, err := out.Write(head[:n]); err != nil {
		return "", fmt.Errorf("failed to write avatar: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("failed to write avatar: %w", err)
	}
	return rel, nil
}

func (s *AccountService) removeMedia(rel string) {
	p := filepath.Join(s.Config.MediaRoot, filepath.FromSlash(rel))
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Error removing media file %s: %v", p, err)
	}
}

// DeleteAccount removes the user after confirming the password. Owned trips
// and memberships go with it. Bills on other members' trips keep the user's
// payments and shares so those trips still balance.
func (s *AccountService) DeleteAccount(ctx context.Context, user *models.User, password string) error {
	if !CheckPassword(user, password) {
		return ErrWrongPassword
	}
	profile, err := s.Users.FindProfile(ctx, user.ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		return err
	}

	err = s.dbManager.ExecuteOperation(ctx, func() error {
		return s.Users.Delete(ctx, user.ID)
	})
	if err != nil {
		return err
	}
	if profile != nil && profile.Avatar != nil {
		s.removeMedia(*profile.Avatar)
	}
	log.Printf("Account %s deleted", user.ID)
	return nil
}

// RequestPasswordReset mails a reset link when an active account uses email.
// Unknown addresses are not reported to the caller.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		return err
	}
	if !user.IsActive {
		return nil
	}

	token, err := auth.NewEmailToken(s.Config.SecretKey, auth.PurposeReset, user, s.Config.TokenTTL)
	if err != nil {
		return err
	}
	link := fmt.Sprintf("%s/reset/%s/%s/", s.Config.SiteURL, auth.EncodeUID(user.ID), token)
	msg, err := mail.PasswordResetMessage(user.Email, user.FullName(), link)
	if err != nil {
		return err
	}
	return s.Mailer.Send(ctx, msg)
}

// CheckResetLink returns the user a password reset link belongs to
func (s *AccountService) CheckResetLink(ctx context.Context, uidb64, token string) (*models.User, error) {
	return s.userFromLink(ctx, uidb64, token, auth.PurposeReset)
}

// ResetPassword sets a new password through a reset link
func (s *AccountService) ResetPassword(ctx context.Context, uidb64, token, password string) error {
	user, err := s.CheckResetLink(ctx, uidb64, token)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, user, password)
}

// DeleteStaleAccounts removes accounts that were never activated before cutoff
func (s *AccountService) DeleteStaleAccounts(ctx context.Context, cutoff time.Time) (int64, error) {
	return db.Execute(ctx, s.dbManager, func() (int64, error) {
		return s.Users.DeleteInactiveBefore(ctx, cutoff)
	})
}
