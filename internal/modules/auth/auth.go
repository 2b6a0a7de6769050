// Package auth signs the site owner into the admin panel. Accounts are
// email + bcrypt password; every sign-in issues a JWT bound to a revocable
// session row.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/folio-space/core/internal/models"
	jwtpkg "github.com/folio-space/core/internal/pkg/jwt"
	sessionpkg "github.com/folio-space/core/internal/pkg/session"
)

const minPasswordLen = 6

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidLogin      = errors.New("invalid credentials")
	ErrEmailTaken        = errors.New("email already registered")
	ErrOwnerExists       = errors.New("an admin account already exists")
	ErrPasswordUnchanged = errors.New("new password equals the current one")
	ErrSessionNotFound   = errors.New("session not found")
)

// Overridden in tests.
var (
	failedSignInDelay = 3 * time.Second
	bcryptCost        = bcrypt.DefaultCost
)

var validate = validator.New()

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// Sessions is the subset of the session store the service drives.
type Sessions interface {
	Issue(ctx context.Context, userID, ip, ua string, ttl time.Duration) (string, *models.UserSession, error)
	Validate(ctx context.Context, token string) (*jwtpkg.Claims, error)
	Revoke(ctx context.Context, userID, sessionID string) error
	RevokeAllExcept(ctx context.Context, userID, keepSessionID string) error
	ListActive(ctx context.Context, userID string) ([]models.UserSession, error)
}

type SignInDTO struct {
	Email    string `json:"email"    form:"email"`
	Password string `json:"password" form:"password"`
}

type SignUpDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type ChangePasswordDTO struct {
	Current string `json:"current_password"`
	New     string `json:"new_password"`
}

// Client identifies where a sign-in came from.
type Client struct {
	IP string
	UA string
}

type Service struct {
	users    Users
	sessions Sessions
	ttl      time.Duration
	log      *zap.Logger
}

func NewService(users Users, sessions Sessions, ttl time.Duration, log *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = sessionpkg.DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{users: users, sessions: sessions, ttl: ttl, log: log}
}

// TTL is the lifetime of issued tokens.
func (s *Service) TTL() time.Duration { return s.ttl }

// SignIn checks the credentials and issues a session token. Unknown emails
// and wrong passwords both answer after failedSignInDelay.
func (s *Service) SignIn(ctx context.Context, dto SignInDTO, client Client) (string, *models.UserModel, error) {
	email := normalizeEmail(dto.Email)
	if email == "" || dto.Password == "" {
		return "", nil, &ValidationError{Field: "email", Message: "Informe e-mail e senha"}
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.slowDown(ctx)
			return "", nil, ErrInvalidLogin
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.Password)); err != nil {
		s.log.Info("admin sign-in rejected", zap.String("email", email), zap.String("ip", client.IP))
		s.slowDown(ctx)
		return "", nil, ErrInvalidLogin
	}

	token, _, err := s.sessions.Issue(ctx, u.ID, client.IP, client.UA, s.ttl)
	if err != nil {
		return "", nil, err
	}
	now := time.Now()
	if err := s.users.RecordLogin(ctx, u.ID, client.IP, now); err != nil {
		s.log.Warn("record last login failed", zap.String("user_id", u.ID), zap.Error(err))
	}
	u.LastLoginTime = &now
	u.LastLoginIP = client.IP
	return token, u, nil
}

func (s *Service) slowDown(ctx context.Context) {
	if failedSignInDelay <= 0 {
		return
	}
	t := time.NewTimer(failedSignInDelay)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// SignUp creates the first account. Once an account exists new admins can
// only be added with the create-admin command.
func (s *Service) SignUp(ctx context.Context, dto SignUpDTO) (*models.UserModel, error) {
	n, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrOwnerExists
	}
	return s.CreateAdmin(ctx, dto)
}

// CreateAdmin creates an account unconditionally.
func (s *Service) CreateAdmin(ctx context.Context, dto SignUpDTO) (*models.UserModel, error) {
	email := normalizeEmail(dto.Email)
	if err := validate.Var(email, "required,email,max=191"); err != nil {
		return nil, &ValidationError{Field: "email", Message: "Informe um e-mail válido"}
	}
	if len(dto.Password) < minPasswordLen {
		return nil, &ValidationError{Field: "password", Message: "A senha deve ter pelo menos 6 caracteres"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(dto.Name)
	if name == "" {
		name = email[:strings.IndexByte(email, '@')]
	}
	u := &models.UserModel{Email: email, Name: name, Password: string(hash)}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// SignOut revokes the session behind token. Unknown or expired tokens are ignored.
func (s *Service) SignOut(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.sessions.Validate(ctx, token)
	if err != nil {
		return nil
	}
	err = s.sessions.Revoke(ctx, claims.UserID, claims.SessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// Registered reports whether any account exists.
func (s *Service) Registered(ctx context.Context) (bool, error) {
	n, err := s.users.Count(ctx)
	return n > 0, err
}

func (s *Service) User(ctx context.Context, id string) (*models.UserModel, error) {
	return s.users.Get(ctx, id)
}

func (s *Service) Sessions(ctx context.Context, userID string) ([]models.UserSession, error) {
	return s.sessions.ListActive(ctx, userID)
}

func (s *Service) RevokeSession(ctx context.Context, userID, sessionID string) error {
	err := s.sessions.Revoke(ctx, userID, sessionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSessionNotFound
	}
	return err
}

func (s *Service) RevokeOthers(ctx context.Context, userID, currentSessionID string) error {
	return s.sessions.RevokeAllExcept(ctx, userID, currentSessionID)
}

// ChangePassword replaces the password and signs out every other session.
func (s *Service) ChangePassword(ctx context.Context, userID, currentSessionID string, dto ChangePasswordDTO) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(dto.Current)); err != nil {
		return &ValidationError{Field: "current_password", Message: "Senha atual incorreta"}
	}
	if len(dto.New) < minPasswordLen {
		return &ValidationError{Field: "new_password", Message: "A senha deve ter pelo menos 6 caracteres"}
	}
	if dto.New == dto.Current {
		return ErrPasswordUnchanged
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.New), bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.SetPassword(ctx, userID, string(hash)); err != nil {
		return err
	}
	return s.sessions.RevokeAllExcept(ctx, userID, currentSessionID)
}

func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
