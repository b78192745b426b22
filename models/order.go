package models

import (
	"time"
)

// Order only carries the fields the profit-transfer flow reads and writes;
// the storefront owns the rest of the document.
type Order struct {
	ID                      string     `bson:"_id,omitempty" json:"id"`
	SellerID                string     `bson:"sellerId" json:"sellerId"`
	ProfitAmount            float64    `bson:"profitAmount" json:"profitAmount"`
	ProfitTransferredAmount float64    `bson:"profitTransferredAmount,omitempty" json:"profitTransferredAmount,omitempty"`
	ProfitTransferredDate   *time.Time `bson:"profitTransferredDate,omitempty" json:"profitTransferredDate,omitempty"`
	ExcludeFromRevenue      bool       `bson:"excludeFromRevenue,omitempty" json:"excludeFromRevenue,omitempty"`
	CreatedAt               time.Time  `bson:"createdAt" json:"createdAt"`
}

type ProfitTransferResult struct {
	OperationResult
	Amount     float64 `json:"amount,omitempty"`
	NewBalance float64 `json:"newBalance,omitempty"`
}
