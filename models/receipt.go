package models

import (
	"time"
)

type ReceiptStatus string

const (
	ReceiptPending  ReceiptStatus = "pending"
	ReceiptApproved ReceiptStatus = "approved"
	ReceiptRejected ReceiptStatus = "rejected"
)

// Receipt is a user-submitted proof of payment. Approved and rejected are terminal.
type Receipt struct {
	ID                      string        `bson:"_id,omitempty" json:"id"`
	UserID                  string        `bson:"userId" json:"userId"`
	Amount                  float64       `bson:"amount" json:"amount"`
	ReferenceNumber         string        `bson:"referenceNumber,omitempty" json:"referenceNumber,omitempty"`
	ImageURL                string        `bson:"imageUrl" json:"imageUrl"`
	ImagePath               string        `bson:"imagePath,omitempty" json:"-"`
	Status                  ReceiptStatus `bson:"status" json:"status"`
	ApprovedBy              string        `bson:"approvedBy,omitempty" json:"approvedBy,omitempty"`
	ApprovedAt              *time.Time    `bson:"approvedAt,omitempty" json:"approvedAt,omitempty"`
	RejectedBy              string        `bson:"rejectedBy,omitempty" json:"rejectedBy,omitempty"`
	RejectedAt              *time.Time    `bson:"rejectedAt,omitempty" json:"rejectedAt,omitempty"`
	RejectionReason         string        `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	Notes                   string        `bson:"notes,omitempty" json:"notes,omitempty"`
	ExcludeFromRevenue      bool          `bson:"excludeFromRevenue,omitempty" json:"excludeFromRevenue,omitempty"`
	CommissionTransactionID string        `bson:"commissionTransactionId,omitempty" json:"commissionTransactionId,omitempty"`
	CreatedAt               time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// SubmitReceiptResult is returned when a user uploads a receipt.
type SubmitReceiptResult struct {
	OperationResult
	ReceiptID string `json:"receiptId,omitempty"`
	ImageURL  string `json:"imageUrl,omitempty"`
}

// ApprovalResult is returned by ApproveReceipt.
type ApprovalResult struct {
	OperationResult
	NewBalance       float64 `json:"newBalance"`
	CommissionAmount float64 `json:"commissionAmount,omitempty"`
	CommissionAdmin  string  `json:"commissionAdminId,omitempty"`
}
