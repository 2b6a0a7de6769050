// Package contact receives messages from the public contact form and lets
// the admin read and triage them.
package contact

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/pkg/events"
	"github.com/folio-space/core/internal/pkg/mail"
	"github.com/folio-space/core/internal/pkg/pagination"
	"github.com/folio-space/core/internal/pkg/response"
)

// RecentLimit bounds the admin inbox snapshot kept in memory.
const RecentLimit = 200

type SubmitDTO struct {
	Name    string `json:"sender_name"  form:"name"    validate:"required,max=255,singleline"`
	Email   string `json:"sender_email" form:"email"   validate:"required,email,max=255"`
	Message string `json:"message"      form:"message" validate:"required,max=5000"`
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

var fieldMessages = map[string]string{
	"Name":    "Informe seu nome",
	"Email":   "Informe um e-mail válido",
	"Message": "Escreva sua mensagem (até 5000 caracteres)",
}

const msgSingleLine = "O nome não pode conter quebras de linha"

var jsonNames = map[string]string{
	"Name":    "sender_name",
	"Email":   "sender_email",
	"Message": "message",
}

// Mailer delivers the owner notification for a new message.
type Mailer interface {
	SendContactNotify(data mail.ContactNotifyData) error
}

type Service struct {
	repo     Repository
	notify   events.Notifier
	mailer   Mailer
	log      *zap.Logger
	validate *validator.Validate

	wg sync.WaitGroup
}

func NewService(repo Repository, notify events.Notifier, mailer Mailer, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	v := validator.New()
	_ = v.RegisterValidation("singleline", singleLine)
	return &Service{repo: repo, notify: notify, mailer: mailer, log: log, validate: v}
}

// singleLine rejects control characters; the name ends up in mail headers.
func singleLine(fl validator.FieldLevel) bool {
	return !strings.ContainsFunc(fl.Field().String(), unicode.IsControl)
}

func (s *Service) Validate(dto *SubmitDTO) error {
	dto.Name = strings.TrimSpace(dto.Name)
	dto.Email = strings.TrimSpace(dto.Email)
	dto.Message = strings.TrimSpace(dto.Message)
	if err := s.validate.Struct(dto); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0].StructField()
			msg := fieldMessages[f]
			if verrs[0].Tag() == "singleline" {
				msg = msgSingleLine
			}
			return &ValidationError{Field: jsonNames[f], Message: msg}
		}
		return err
	}
	return nil
}

// Submit stores a new message and notifies the owner in the background.
func (s *Service) Submit(ctx context.Context, dto *SubmitDTO) (*models.ContactMessageModel, error) {
	if err := s.Validate(dto); err != nil {
		return nil, err
	}
	m := &models.ContactMessageModel{SenderName: dto.Name, SenderEmail: dto.Email, Message: dto.Message}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	s.notify.Publish(ctx, events.ChangeEvent{Table: events.TableContactMessages, Type: events.Insert, ID: m.ID})

	if s.mailer != nil {
		data := mail.ContactNotifyData{Name: m.SenderName, Email: m.SenderEmail, Message: m.Message, ReceivedAt: time.Now()}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			if err := s.mailer.SendContactNotify(data); err != nil {
				s.log.Warn("contact notification mail failed", zap.String("id", m.ID), zap.Error(err))
			}
		}()
	}
	return m, nil
}

// Wait blocks until pending notification mails are sent.
func (s *Service) Wait() { s.wg.Wait() }

func (s *Service) List(ctx context.Context, q pagination.Query, unreadOnly bool) ([]models.ContactMessageModel, response.Pagination, error) {
	return s.repo.List(ctx, q, unreadOnly)
}

// Recent returns the newest messages first.
func (s *Service) Recent(ctx context.Context) ([]models.ContactMessageModel, error) {
	return s.repo.Recent(ctx, RecentLimit)
}

func (s *Service) SetRead(ctx context.Context, id string, read bool) error {
	if err := s.repo.SetRead(ctx, id, read); err != nil {
		return err
	}
	s.notify.Publish(ctx, events.ChangeEvent{Table: events.TableContactMessages, Type: events.Update, ID: id})
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.notify.Publish(ctx, events.ChangeEvent{Table: events.TableContactMessages, Type: events.Delete, ID: id})
	return nil
}

func (s *Service) UnreadCount(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, true)
}

func (s *Service) Counts(ctx context.Context) (total, unread int64, err error) {
	if total, err = s.repo.Count(ctx, false); err != nil {
		return 0, 0, err
	}
	if unread, err = s.repo.Count(ctx, true); err != nil {
		return 0, 0, err
	}
	return total, unread, nil
}
