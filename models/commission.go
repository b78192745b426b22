package models

import (
	"time"
)

type CommissionType string

const (
	CommissionTypeSuperadminDeposit CommissionType = "superadmin_deposit"
	CommissionTypeReceiptApproval   CommissionType = "receipt_approval"
)

const CommissionStatusCompleted = "completed"

// CommissionBalance is the cached running total for one admin. The document id is the admin id.
// It is a materialized view of CommissionTransaction and never the source of truth.
type CommissionBalance struct {
	AdminID                string    `bson:"_id" json:"adminId"`
	TotalCommissionBalance float64   `bson:"totalCommissionBalance" json:"totalCommissionBalance"`
	LastUpdated            time.Time `bson:"lastUpdated" json:"lastUpdated"`
	CreatedAt              time.Time `bson:"createdAt" json:"createdAt"`
}

// CommissionTransaction is append-only; once written it is never updated.
type CommissionTransaction struct {
	ID                 string         `bson:"_id,omitempty" json:"id"`
	AdminID            string         `bson:"adminId" json:"adminId"`
	SellerID           string         `bson:"sellerId" json:"sellerId"`
	Type               CommissionType `bson:"type" json:"type"`
	OriginalAmount     float64        `bson:"originalAmount" json:"originalAmount"`
	CommissionAmount   float64        `bson:"commissionAmount" json:"commissionAmount"`
	DepositedBy        string         `bson:"depositedBy,omitempty" json:"depositedBy,omitempty"`
	ReceiptID          string         `bson:"receiptId,omitempty" json:"receiptId,omitempty"`
	DepositID          string         `bson:"depositId,omitempty" json:"depositId,omitempty"`
	Description        string         `bson:"description" json:"description"`
	Status             string         `bson:"status" json:"status"`
	ExcludeFromRevenue bool           `bson:"excludeFromRevenue,omitempty" json:"excludeFromRevenue,omitempty"`
	CreatedAt          time.Time      `bson:"createdAt" json:"createdAt"`
}

// CommissionResult is returned by the accrual operations.
type CommissionResult struct {
	OperationResult
	CommissionAmount float64 `json:"commissionAmount"`
	TransactionID    string  `json:"transactionId,omitempty"`
}

// CommissionSummary is recomputed from the transaction log, with the cached balance alongside for cross-checking.
type CommissionSummary struct {
	AdminID                     string     `json:"adminId"`
	TotalFromSuperadminDeposits float64    `json:"totalFromSuperadminDeposits"`
	TotalFromReceiptApprovals   float64    `json:"totalFromReceiptApprovals"`
	TotalCommission             float64    `json:"totalCommission"`
	TransactionCount            int        `json:"transactionCount"`
	LastTransactionAt           *time.Time `json:"lastTransactionAt,omitempty"`
	CachedBalance               float64    `json:"cachedBalance"`
}

// TotalCommissionBalance is the superadmin-level view across every admin.
type TotalCommissionBalance struct {
	AdminCount                  int     `json:"adminCount"`
	TotalBalance                float64 `json:"totalBalance"`
	TotalFromSuperadminDeposits float64 `json:"totalFromSuperadminDeposits"`
	TotalFromReceiptApprovals   float64 `json:"totalFromReceiptApprovals"`
	TransactionCount            int     `json:"transactionCount"`
}

// ReconciliationResult compares the cached balance with the log.
type ReconciliationResult struct {
	OperationResult
	AdminID       string  `json:"adminId"`
	CachedBalance float64 `json:"cachedBalance"`
	LedgerBalance float64 `json:"ledgerBalance"`
	Drift         float64 `json:"drift"`
	Repaired      bool    `json:"repaired"`
}
