package models

import (
	"time"
)

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

type Withdrawal struct {
	ID                 string           `bson:"_id,omitempty" json:"id"`
	UserID             string           `bson:"userId" json:"userId"`
	Amount             float64          `bson:"amount" json:"amount"`
	Status             WithdrawalStatus `bson:"status" json:"status"` // pending, approved, rejected
	ProcessedBy        string           `bson:"processedBy,omitempty" json:"processedBy,omitempty"`
	ProcessedDate      *time.Time       `bson:"processedDate,omitempty" json:"processedDate,omitempty"`
	UserNote           string           `bson:"userNote,omitempty" json:"userNote,omitempty"`
	AdminNote          string           `bson:"adminNote,omitempty" json:"adminNote,omitempty"`
	RejectionReason    string           `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	ExcludeFromRevenue bool             `bson:"excludeFromRevenue,omitempty" json:"excludeFromRevenue,omitempty"`
	CreatedAt          time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// RevenueTime is the timestamp a withdrawal counts against: processing date, or creation for legacy rows.
func (w *Withdrawal) RevenueTime() time.Time {
	if w.ProcessedDate != nil {
		return *w.ProcessedDate
	}
	return w.CreatedAt
}

type WithdrawalResult struct {
	OperationResult
	WithdrawalID string  `json:"withdrawalId,omitempty"`
	NewBalance   float64 `json:"newBalance,omitempty"`
}
