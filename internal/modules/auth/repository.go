package auth

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/folio-space/core/internal/database"
	"github.com/folio-space/core/internal/models"
)

// Users is the users table access.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*models.UserModel, error)
	Get(ctx context.Context, id string) (*models.UserModel, error)
	Count(ctx context.Context) (int64, error)
	Create(ctx context.Context, u *models.UserModel) error
	RecordLogin(ctx context.Context, id, ip string, at time.Time) error
	SetPassword(ctx context.Context, id, hash string) error
}

type gormUsers struct{ db *gorm.DB }

func NewUsers(db *gorm.DB) Users { return &gormUsers{db: db} }

func (r *gormUsers) FindByEmail(ctx context.Context, email string) (*models.UserModel, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *gormUsers) Get(ctx context.Context, id string) (*models.UserModel, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormUsers) first(ctx context.Context, query string, arg any) (*models.UserModel, error) {
	var u models.UserModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *gormUsers) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserModel{}).Count(&n).Error
	return n, err
}

func (r *gormUsers) Create(ctx context.Context, u *models.UserModel) error {
	err := r.db.WithContext(ctx).Create(u).Error
	if database.IsDuplicateKey(err) {
		return ErrEmailTaken
	}
	return err
}

func (r *gormUsers) RecordLogin(ctx context.Context, id, ip string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_login_time": at, "last_login_ip": ip}).Error
}

func (r *gormUsers) SetPassword(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).Model(&models.UserModel{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
