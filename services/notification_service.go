package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/HSouheill/marketplace_backend/config"
	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"gopkg.in/gomail.v2"
)

// Notifier delivers a notification to a user. Delivery is best-effort; callers log failures.
type Notifier interface {
	Notify(ctx context.Context, user *models.User, n models.Notification) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, *models.User, models.Notification) error { return nil }

// MultiNotifier fans out to every channel and joins their errors.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, user *models.User, n models.Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, user, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InAppNotifier saves the notification to the notifications collection
type InAppNotifier struct {
	store repositories.Store
}

func NewInAppNotifier(store repositories.Store) *InAppNotifier {
	return &InAppNotifier{store: store}
}

func (n *InAppNotifier) Notify(ctx context.Context, _ *models.User, notification models.Notification) error {
	return n.store.RunTransaction(ctx, func(ctx context.Context, tx repositories.Tx) error {
		_, err := tx.Create(ctx, repositories.CollectionNotifications, notification)
		return err
	})
}

// FCMNotifier sends a Firebase Cloud Messaging notification to the user's device
type FCMNotifier struct {
	client *messaging.Client
}

func NewFCMNotifier(ctx context.Context, app *firebase.App) (*FCMNotifier, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize messaging client: %w", err)
	}
	return &FCMNotifier{client: client}, nil
}

func (f *FCMNotifier) Notify(ctx context.Context, user *models.User, n models.Notification) error {
	// Users without a registered device are skipped
	if user.FCMToken == "" {
		return nil
	}

	data := map[string]string{
		"type":      n.Type,
		"timestamp": n.CreatedAt.Format(time.RFC3339),
	}
	for key, value := range n.Data {
		data[key] = value
	}

	msg := &messaging.Message{
		Token: user.FCMToken,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Message,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound:     "default",
				ChannelID: "ledger_fcm_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{
						Title: n.Title,
						Body:  n.Message,
					},
					Sound: "default",
				},
			},
		},
	}

	if _, err := f.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send FCM notification: %w", err)
	}
	return nil
}

// EmailNotifier sends a plain text email through SMTP
type EmailNotifier struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailNotifier(cfg config.SMTPConfig) *EmailNotifier {
	return &EmailNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		from:   cfg.User,
	}
}

func (e *EmailNotifier) Notify(_ context.Context, user *models.User, n models.Notification) error {
	if user.Email == "" {
		return nil
	}
	name := user.DisplayName
	if name == "" {
		name = user.Email
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.from)
	m.SetHeader("To", user.Email)
	m.SetHeader("Subject", n.Title)
	m.SetBody("text/plain", fmt.Sprintf("Dear %s,\n\n%s\n\nBest regards,\nThe Marketplace Team", name, n.Message))

	if err := e.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", user.Email, err)
	}
	return nil
}
