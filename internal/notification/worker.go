package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"student-form-backend/internal/model"
	"student-form-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// Payload is the JSON message shown by the admin service worker.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// NewPayload describes a new submission.
func NewPayload(form model.StudentForm) Payload {
	return Payload{
		Title: "Fișă nouă",
		Body:  fmt.Sprintf("%s %s (%s) a trimis o fișă.", form.FirstName, form.LastName, form.Faculty),
		URL:   fmt.Sprintf("/admin/forms/%d", form.ID),
	}
}

// WorkerPool manages a pool of workers that notify subscribed
// administrators about new submissions.
type WorkerPool struct {
	size    int
	jobs    chan model.StudentForm
	subs    store.SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
	log     zerolog.Logger
}

// NewWorkerPool creates a new worker pool with a queue of queueSize jobs.
func NewWorkerPool(size, queueSize int, subs store.SubscriptionStore, webpushOptions *webpush.Options, log zerolog.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	if queueSize < 1 {
		queueSize = size
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan model.StudentForm, queueSize),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{}, // Use the real sender by default
		log:     log.With().Str("component", "notification").Logger(),
	}
}

// Start launches the worker goroutines. They stop when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug().Int("worker", id).Msg("Worker started")
	for {
		select {
		case form := <-wp.jobs:
			wp.notifyAdmins(ctx, form)
		case <-ctx.Done():
			wp.log.Debug().Int("worker", id).Msg("Worker shutting down")
			return
		}
	}
}

// Dispatch queues a notification for form. It never blocks: when the
// queue is full the job is dropped.
func (wp *WorkerPool) Dispatch(form model.StudentForm) {
	select {
	case wp.jobs <- form:
	default:
		wp.log.Warn().Int64("form_id", form.ID).Msg("Notification queue full, dropping job")
	}
}

func (wp *WorkerPool) notifyAdmins(ctx context.Context, form model.StudentForm) {
	subscriptions, err := wp.subs.ListSubscriptions(ctx)
	if err != nil {
		wp.log.Error().Err(err).Int64("form_id", form.ID).Msg("Error fetching subscriptions")
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(NewPayload(form))
	if err != nil {
		wp.log.Error().Err(err).Msg("Error encoding payload")
		return
	}

	wp.log.Info().Int("count", len(subscriptions)).Int64("form_id", form.ID).Msg("Sending notifications")
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("Error sending notification")
		return
	}
	defer resp.Body.Close()

	// Expired or unknown subscriptions
	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		wp.log.Info().Str("endpoint", sub.Endpoint).Msg("Subscription expired, deleting")
		if err := wp.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil {
			wp.log.Error().Err(err).Str("endpoint", sub.Endpoint).Msg("Failed to delete expired subscription")
		}
	}
}
