package forms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"student-form-backend/internal/apperrors"
	"student-form-backend/internal/model"
	"student-form-backend/internal/store"
)

// Renderer produces the PDF document of a form.
type Renderer interface {
	Render(form model.StudentForm) ([]byte, error)
}

// Notifier is told about every new submission. Dispatch must not block.
type Notifier interface {
	Dispatch(form model.StudentForm)
}

// Archiver keeps a copy of generated documents.
type Archiver interface {
	Archive(ctx context.Context, form model.StudentForm, pdf []byte) error
	Remove(ctx context.Context, id int64) error
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the notifier used after each submission.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithArchiver sets the archive that receives each submitted document.
func WithArchiver(a Archiver) Option {
	return func(s *Service) { s.archiver = a }
}

// WithClock overrides the time source used for SubmittedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service implements the form use cases on top of a store and a renderer.
type Service struct {
	store    store.FormStore
	renderer Renderer
	log      zerolog.Logger
	notifier Notifier
	archiver Archiver
	now      func() time.Time
}

// NewService creates a Service.
func NewService(s store.FormStore, r Renderer, log zerolog.Logger, opts ...Option) *Service {
	svc := &Service{
		store:    s,
		renderer: r,
		log:      log.With().Str("component", "forms").Logger(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// List returns every form in creation order.
func (s *Service) List(ctx context.Context) ([]model.StudentForm, error) {
	forms, err := s.store.ListForms(ctx)
	if err != nil {
		return nil, persistence(err)
	}
	return forms, nil
}

// Get returns one form.
func (s *Service) Get(ctx context.Context, id int64) (model.StudentForm, error) {
	form, err := s.store.GetForm(ctx, id)
	if err != nil {
		return model.StudentForm{}, persistence(err)
	}
	return form, nil
}

// Document returns a stored form together with its rendered PDF.
func (s *Service) Document(ctx context.Context, id int64) (model.StudentForm, []byte, error) {
	form, err := s.Get(ctx, id)
	if err != nil {
		return model.StudentForm{}, nil, err
	}
	pdf, err := s.render(form)
	if err != nil {
		return form, nil, err
	}
	return form, pdf, nil
}

// Submit validates and stores a new form, then renders it.
//
// The record is kept when rendering fails; the returned form then carries
// its assigned ID alongside the error.
func (s *Service) Submit(ctx context.Context, in Input) (model.StudentForm, []byte, error) {
	in = in.Normalize()
	if err := Validate(in); err != nil {
		return model.StudentForm{}, nil, err
	}

	form := model.StudentForm{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Faculty:     in.Faculty,
		Motivation:  in.Motivation,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.store.CreateForm(ctx, &form); err != nil {
		return model.StudentForm{}, nil, persistence(err)
	}
	s.log.Info().Int64("form_id", form.ID).Msg("Form submitted")
	defer s.notify(form)

	pdf, err := s.render(form)
	if err != nil {
		return form, nil, err
	}

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, form, pdf); err != nil {
			s.log.Error().Err(err).Int64("form_id", form.ID).Msg("Failed to archive document")
		}
	}
	return form, pdf, nil
}

func (s *Service) notify(form model.StudentForm) {
	if s.notifier != nil {
		s.notifier.Dispatch(form)
	}
}

// Update replaces the editable fields of a form. SubmittedAt is left as is.
func (s *Service) Update(ctx context.Context, id int64, in Input) error {
	in = in.Normalize()
	if err := Validate(in); err != nil {
		return err
	}

	result, err := s.store.UpdateForm(ctx, id, in.Fields())
	switch result {
	case store.UpdateApplied:
		s.log.Info().Int64("form_id", id).Msg("Form updated")
		return nil
	case store.UpdateNotFound:
		return fmt.Errorf("form %d: %w", id, apperrors.ErrNotFound)
	case store.UpdateConflict:
		return fmt.Errorf("%w: %w", apperrors.ErrConflict, err)
	default:
		if err == nil {
			err = fmt.Errorf("update form %d: %s", id, result)
		}
		return persistence(err)
	}
}

// Delete permanently removes a form and its archived document.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteForm(ctx, id); err != nil {
		return persistence(err)
	}
	s.log.Info().Int64("form_id", id).Msg("Form deleted")

	if s.archiver != nil {
		if err := s.archiver.Remove(ctx, id); err != nil {
			s.log.Warn().Err(err).Int64("form_id", id).Msg("Failed to remove archived document")
		}
	}
	return nil
}

func (s *Service) render(form model.StudentForm) ([]byte, error) {
	pdf, err := s.renderer.Render(form)
	if err != nil {
		if !errors.Is(err, apperrors.ErrRendering) {
			err = fmt.Errorf("%w: %w", apperrors.ErrRendering, err)
		}
		return nil, err
	}
	return pdf, nil
}

// persistence tags unexpected store errors. Not-found passes through.
func persistence(err error) error {
	if apperrors.Is(err, apperrors.ErrNotFound, apperrors.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", apperrors.ErrPersistence, err)
}
