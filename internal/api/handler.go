package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"student-form-backend/internal/apperrors"
	"student-form-backend/internal/forms"
	"student-form-backend/internal/model"
	"student-form-backend/internal/mw"
	"student-form-backend/internal/store"
)

// FormService is the set of form use cases served over HTTP.
type FormService interface {
	List(ctx context.Context) ([]model.StudentForm, error)
	Get(ctx context.Context, id int64) (model.StudentForm, error)
	Document(ctx context.Context, id int64) (model.StudentForm, []byte, error)
	Submit(ctx context.Context, in forms.Input) (model.StudentForm, []byte, error)
	Update(ctx context.Context, id int64, in forms.Input) error
	Delete(ctx context.Context, id int64) error
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	forms   FormService
	subs    store.SubscriptionStore
	webpush *webpush.Options
	log     zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(svc FormService, subs store.SubscriptionStore, webpushOptions *webpush.Options, log zerolog.Logger) *Handler {
	return &Handler{
		forms:   svc,
		subs:    subs,
		webpush: webpushOptions,
		log:     log,
	}
}

// respondError maps err to a status code and a JSON body. Only unexpected
// failures are logged as errors.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date invalide", "fields": verr.Fields})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Fișa nu a fost găsită"})
	default:
		_ = c.Error(err)
		log := mw.Logger(c, h.log)
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Eroare internă a serverului"})
	}
}
