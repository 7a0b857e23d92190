package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"student-form-backend/internal/apperrors"
	"student-form-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	FormStore
	SubscriptionStore
	DB() *gorm.DB
}

// FormStore persists student forms.
type FormStore interface {
	CreateForm(ctx context.Context, form *model.StudentForm) error
	GetForm(ctx context.Context, id int64) (model.StudentForm, error)
	ListForms(ctx context.Context) ([]model.StudentForm, error)
	UpdateForm(ctx context.Context, id int64, fields FormFields) (UpdateResult, error)
	DeleteForm(ctx context.Context, id int64) error
}

// SubscriptionStore persists administrator push subscriptions.
type SubscriptionStore interface {
	SaveSubscription(ctx context.Context, sub *model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: time.Now}
}

// DB exposes the underlying connection.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// CreateForm inserts form and assigns its ID. A zero SubmittedAt is set to the current time.
func (s *gormStore) CreateForm(ctx context.Context, form *model.StudentForm) error {
	if form.SubmittedAt.IsZero() {
		form.SubmittedAt = s.now().UTC()
	}
	form.ID = 0

	if err := s.db.WithContext(ctx).Create(form).Error; err != nil {
		return fmt.Errorf("failed to create form: %w", err)
	}
	return nil
}

// GetForm returns the form with the given id or apperrors.ErrNotFound.
func (s *gormStore) GetForm(ctx context.Context, id int64) (model.StudentForm, error) {
	var form model.StudentForm
	err := s.db.WithContext(ctx).First(&form, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.StudentForm{}, fmt.Errorf("form %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return model.StudentForm{}, fmt.Errorf("failed to get form %d: %w", id, err)
	}
	return form, nil
}

// ListForms returns every form in creation order.
func (s *gormStore) ListForms(ctx context.Context) ([]model.StudentForm, error) {
	forms := make([]model.StudentForm, 0)
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&forms).Error; err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	return forms, nil
}

// UpdateForm replaces the editable columns of one form in a single statement.
// Zero matched rows means the form is gone, including when a concurrent delete won.
func (s *gormStore) UpdateForm(ctx context.Context, id int64, fields FormFields) (UpdateResult, error) {
	res := s.db.WithContext(ctx).
		Model(&model.StudentForm{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"first_name": fields.FirstName,
			"last_name":  fields.LastName,
			"faculty":    fields.Faculty,
			"motivation": fields.Motivation,
		})
	if res.Error != nil {
		if isConflict(res.Error) {
			return UpdateConflict, fmt.Errorf("update form %d: %w", id, res.Error)
		}
		return UpdateFailed, fmt.Errorf("failed to update form %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return UpdateNotFound, nil
	}
	return UpdateApplied, nil
}

// DeleteForm permanently removes a form.
func (s *gormStore) DeleteForm(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&model.StudentForm{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete form %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("form %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// SaveSubscription creates a subscription or replaces the keys of an existing one.
func (s *gormStore) SaveSubscription(ctx context.Context, sub *model.PushSubscription) error {
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = s.now().UTC()
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"p256dh", "auth"}),
	}).Create(sub).Error
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// GetSubscription returns the subscription for endpoint or apperrors.ErrNotFound.
func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PushSubscription{}, fmt.Errorf("subscription: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return model.PushSubscription{}, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

// ListSubscriptions returns every stored subscription.
func (s *gormStore) ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Order("created_at ASC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// DeleteSubscription removes a subscription. Deleting an unknown endpoint is not an error.
func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.db.WithContext(ctx).Delete(&model.PushSubscription{}, "endpoint = ?", endpoint).Error; err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

// isConflict reports serialization failures and deadlocks (SQLSTATE 40001, 40P01).
func isConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}
