package models

import (
	"time"
)

type DepositStatus string

const (
	DepositPending   DepositStatus = "pending"
	DepositCompleted DepositStatus = "completed"
	DepositCancelled DepositStatus = "cancelled"
)

// PendingDeposit is a superadmin deposit into a seller account that has not been completed yet.
// AdminID is the admin the deposit's commission will be attributed to.
type PendingDeposit struct {
	ID                 string        `bson:"_id,omitempty" json:"id"`
	SellerID           string        `bson:"sellerId" json:"sellerId"`
	AdminID            string        `bson:"adminId" json:"adminId"`
	Amount             float64       `bson:"amount" json:"amount"`
	Status             DepositStatus `bson:"status" json:"status"`
	RequestedBy        string        `bson:"requestedBy" json:"requestedBy"`
	CompletedBy        string        `bson:"completedBy,omitempty" json:"completedBy,omitempty"`
	CompletedAt        *time.Time    `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CommissionEntryID  string        `bson:"commissionEntryId,omitempty" json:"commissionEntryId,omitempty"`
	ExcludeFromRevenue bool          `bson:"excludeFromRevenue,omitempty" json:"excludeFromRevenue,omitempty"`
	DummyMarked        bool          `bson:"dummyMarked,omitempty" json:"dummyMarked,omitempty"`
	CreatedAt          time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// CommissionHistory is the expected commission of a deposit. It is pending while the deposit is
// pending and points at the CommissionTransaction once completed.
type CommissionHistory struct {
	ID                      string        `bson:"_id,omitempty" json:"id"`
	AdminID                 string        `bson:"adminId" json:"adminId"`
	SellerID                string        `bson:"sellerId" json:"sellerId"`
	DepositID               string        `bson:"depositId" json:"depositId"`
	Amount                  float64       `bson:"amount" json:"amount"`
	Status                  DepositStatus `bson:"status" json:"status"`
	CommissionTransactionID string        `bson:"commissionTransactionId,omitempty" json:"commissionTransactionId,omitempty"`
	ExcludeFromRevenue      bool          `bson:"excludeFromRevenue,omitempty" json:"excludeFromRevenue,omitempty"`
	DummyMarked             bool          `bson:"dummyMarked,omitempty" json:"dummyMarked,omitempty"`
	CreatedAt               time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time     `bson:"updatedAt" json:"updatedAt"`
}

type DepositResult struct {
	OperationResult
	DepositID        string  `json:"depositId,omitempty"`
	AdminID          string  `json:"adminId,omitempty"`
	NewBalance       float64 `json:"newBalance,omitempty"`
	CommissionAmount float64 `json:"commissionAmount,omitempty"`
}
