package models

import (
	"time"
)

type ActivityType string

// Receipt approval keeps the historical "withdrawal_approved" / "withdrawal_rejected" type names
// so existing activity feeds render unchanged.
const (
	ActivityReceiptApproved     ActivityType = "withdrawal_approved"
	ActivityReceiptRejected     ActivityType = "withdrawal_rejected"
	ActivityWithdrawalProcessed ActivityType = "withdrawal_processed"
	ActivityWithdrawalDeclined  ActivityType = "withdrawal_declined"
	ActivityDepositCompleted    ActivityType = "deposit_completed"
	ActivityProfitTransferred   ActivityType = "profit_transferred"
)

// Activity is an append-only audit record shown in the user's activity feed.
type Activity struct {
	ID              string       `bson:"_id,omitempty" json:"id"`
	UserID          string       `bson:"userId" json:"userId"`
	Type            ActivityType `bson:"type" json:"type"`
	Amount          float64      `bson:"amount" json:"amount"`
	ReceiptID       string       `bson:"receiptId,omitempty" json:"receiptId,omitempty"`
	WithdrawalID    string       `bson:"withdrawalId,omitempty" json:"withdrawalId,omitempty"`
	DepositID       string       `bson:"depositId,omitempty" json:"depositId,omitempty"`
	OrderID         string       `bson:"orderId,omitempty" json:"orderId,omitempty"`
	PerformedBy     string       `bson:"performedBy" json:"performedBy"`
	ReferenceNumber string       `bson:"referenceNumber,omitempty" json:"referenceNumber,omitempty"`
	Description     string       `bson:"description" json:"description"`
	CreatedAt       time.Time    `bson:"createdAt" json:"createdAt"`
}
