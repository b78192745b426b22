package models

import (
	"time"
)

// Notification model
type Notification struct {
	ID        string            `json:"id,omitempty" bson:"_id,omitempty"`
	UserID    string            `json:"userId" bson:"userId"`       // The user who receives the notification
	Title     string            `json:"title" bson:"title"`         // Notification title
	Message   string            `json:"message" bson:"message"`     // Notification message
	Type      string            `json:"type" bson:"type"`           // e.g. "receipt_approved"
	Data      map[string]string `json:"data,omitempty" bson:"data"` // Optional additional data
	IsRead    bool              `json:"isRead" bson:"isRead"`
	CreatedAt time.Time         `json:"createdAt" bson:"createdAt"`
}

const (
	NotificationReceiptApproved    = "receipt_approved"
	NotificationReceiptRejected    = "receipt_rejected"
	NotificationWithdrawalApproved = "withdrawal_approved"
	NotificationWithdrawalRejected = "withdrawal_rejected"
	NotificationDepositCompleted   = "deposit_completed"
)
