package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/zerolog"

	"ppm-tracker-backend/internal/model"
	"ppm-tracker-backend/internal/store"
)

// Title is the heading of every reminder notification.
const Title = "Equipment Maintenance Reminder"

// Payload is the JSON document delivered to the browser.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Job is a single notification for a single subscription.
type Job struct {
	Subscription model.PushSubscription
	Payload      []byte
}

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

// WorkerPool manages a pool of workers for sending notifications.
type WorkerPool struct {
	size    int
	jobs    chan Job
	store   store.Store
	webpush *webpush.Options
	sender  NotificationSender
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, s store.Store, webpushOptions *webpush.Options, log zerolog.Logger) *WorkerPool {
	if size < 1 {
		size = 1
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Job, size*4),
		store:   s,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log.With().Str("component", "push").Logger(),
	}
}

// Start launches the worker goroutines. They exit when ctx is cancelled.
func (wp *WorkerPool) Start(ctx context.Context) {
	wp.wg.Add(wp.size)
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	defer wp.wg.Done()
	wp.log.Debug().Int("worker", id).Msg("worker started")
	for {
		select {
		case job := <-wp.jobs:
			wp.send(ctx, job)
		case <-ctx.Done():
			wp.log.Debug().Int("worker", id).Msg("worker shutting down")
			return
		}
	}
}

// Dispatch queues a job, blocking while the queue is full.
func (wp *WorkerPool) Dispatch(ctx context.Context, job Job) error {
	select {
	case wp.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewPayload encodes a reminder with the standard title.
func NewPayload(body string) []byte {
	b, _ := json.Marshal(Payload{Title: Title, Body: body})
	return b
}

func (wp *WorkerPool) send(ctx context.Context, job Job) {
	sub := job.Subscription
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(job.Payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Error().Err(err).Str("endpoint", short(sub.Endpoint)).Msg("sending notification failed")
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound:
		wp.log.Info().Int("status", resp.StatusCode).Str("endpoint", short(sub.Endpoint)).Msg("subscription expired, deleting")
		if err := wp.store.DeleteSubscription(ctx, sub.Endpoint); err != nil && !errors.Is(err, store.ErrNotFound) {
			wp.log.Error().Err(err).Str("endpoint", short(sub.Endpoint)).Msg("failed to delete expired subscription")
		}
	case resp.StatusCode >= 400:
		wp.log.Warn().Int("status", resp.StatusCode).Str("endpoint", short(sub.Endpoint)).Msg("push service rejected notification")
	default:
		wp.log.Debug().Str("endpoint", short(sub.Endpoint)).Msg("notification sent")
	}
}

func short(endpoint string) string {
	if len(endpoint) > 70 {
		return endpoint[:70]
	}
	return endpoint
}
