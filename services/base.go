package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/HSouheill/marketplace_backend/config"
	"github.com/HSouheill/marketplace_backend/metrics"
	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/HSouheill/marketplace_backend/utils"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators shared by the ledger services. Zero values get defaults:
// a discarded logger, the default retry policy, time.Now, UTC, and no-op events and notifications.
type Deps struct {
	Store    repositories.Store
	Logger   *logrus.Logger
	Retry    utils.RetryPolicy
	Now      func() time.Time
	Location *time.Location
	Events   EventPublisher
	Notifier Notifier
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = logrus.New()
		d.Logger.SetOutput(io.Discard)
	}
	if d.Retry.MaxAttempts == 0 {
		d.Retry = utils.DefaultRetryPolicy()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Events == nil {
		d.Events = NopPublisher{}
	}
	if d.Notifier == nil {
		d.Notifier = NopNotifier{}
	}
	return d
}

type base struct {
	module string
	Deps
}

func newBase(module string, d Deps) base {
	return base{module: module, Deps: d.withDefaults()}
}

func (b *base) now() time.Time {
	return b.Now().UTC()
}

// runTx runs fn in a store transaction, retrying transient failures with backoff.
func (b *base) runTx(ctx context.Context, op string, fn func(ctx context.Context, tx repositories.Tx) error) error {
	start := time.Now()
	defer func() {
		metrics.TransactionDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	policy := b.Retry
	policy.OnRetry = func(attempt int, err error) {
		metrics.TransactionRetriesTotal.WithLabelValues(op).Inc()
		b.Logger.WithFields(logrus.Fields{
			"module":   b.module,
			"funcName": op,
			"attempt":  attempt,
		}).WithError(err).Warn("retrying transaction")
	}
	return utils.Retry(ctx, policy, func(ctx context.Context) error {
		return b.Store.RunTransaction(ctx, fn)
	})
}

// failure maps an error to the display result. Expected outcomes return a nil error;
// anything else is logged and returned next to a generic message.
func (b *base) failure(op string, err error, generic string, data any) (models.OperationResult, error) {
	if models.IsExpected(err) {
		return models.FailedFrom(err, generic), nil
	}
	config.LogError(b.Logger, b.module, op, generic, data, err)
	if errors.Is(err, models.ErrTransient) {
		res := models.Failed(generic + ", please try again")
		res.Reason = models.ReasonUnavailable
		return res, err
	}
	res := models.Failed(generic)
	res.Reason = models.ReasonInternal
	return res, err
}

// degraded records a read that fell back to an empty result.
func (b *base) degraded(op string, err error, data any) {
	metrics.DegradedReadsTotal.WithLabelValues(op).Inc()
	config.LogError(b.Logger, b.module, op, "degraded read", data, err)
}

// publish is best-effort and runs after commit.
func (b *base) publish(ctx context.Context, eventType, key string, payload interface{}) {
	ev := NewEvent(eventType, key, payload, b.now())
	if err := b.Events.Publish(ctx, ev); err != nil {
		b.Logger.WithFields(logrus.Fields{
			"module":    b.module,
			"eventType": eventType,
			"key":       key,
		}).WithError(err).Warn("failed to publish event")
	}
}

// notify is best-effort and runs after commit.
func (b *base) notify(ctx context.Context, userID string, n models.Notification) {
	user, err := repositories.GetUser(ctx, b.Store, userID)
	if err != nil {
		b.Logger.WithError(err).WithField("userId", userID).Warn("notification skipped: user not readable")
		return
	}
	n.UserID = userID
	n.CreatedAt = b.now()
	if err := b.Notifier.Notify(ctx, user, n); err != nil {
		b.Logger.WithError(err).WithField("userId", userID).Warn("failed to send notification")
	}
}

func requireID(id, message string) error {
	if utils.IsBlank(id) {
		return models.Validation(message)
	}
	return nil
}

func requirePositive(amount float64, message string) error {
	if !(amount > 0) {
		return models.Validation(message)
	}
	return nil
}

// notFoundAs replaces a NotFound error's message, leaving other errors alone.
func notFoundAs(err error, message string) error {
	if errors.Is(err, models.ErrNotFound) {
		return models.NotFound(message)
	}
	return err
}

// clampLimit applies def when limit is not positive and caps it at max.
func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
