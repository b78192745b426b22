package models

import (
	"time"
)

// MigrationHistoryEntry is the embedded copy of a migration on the seller document.
type MigrationHistoryEntry struct {
	MigrationID string    `bson:"migrationId" json:"migrationId"`
	FromAdminID string    `bson:"fromAdminId" json:"fromAdminId"`
	ToAdminID   string    `bson:"toAdminId" json:"toAdminId"`
	Reason      string    `bson:"reason" json:"reason"`
	PerformedBy string    `bson:"performedBy" json:"performedBy"`
	MigratedAt  time.Time `bson:"migratedAt" json:"migratedAt"`
}

// DummyAccountHistoryItem is the embedded copy of a dummy toggle on the seller document.
type DummyAccountHistoryItem struct {
	IsDummyAccount bool      `bson:"isDummyAccount" json:"isDummyAccount"`
	Reason         string    `bson:"reason" json:"reason"`
	PerformedBy    string    `bson:"performedBy" json:"performedBy"`
	ChangedAt      time.Time `bson:"changedAt" json:"changedAt"`
}

// MigrationRecord is the standalone, append-only audit of one seller migration.
type MigrationRecord struct {
	ID                        string    `bson:"_id,omitempty" json:"id"`
	SellerID                  string    `bson:"sellerId" json:"sellerId"`
	FromAdminID               string    `bson:"fromAdminId" json:"fromAdminId"`
	FromReferredBy            string    `bson:"fromReferredBy,omitempty" json:"fromReferredBy,omitempty"`
	ToAdminID                 string    `bson:"toAdminId" json:"toAdminId"`
	OriginalReferredBy        string    `bson:"originalReferredBy,omitempty" json:"originalReferredBy,omitempty"`
	Reason                    string    `bson:"reason" json:"reason"`
	PerformedBy               string    `bson:"performedBy" json:"performedBy"`
	PendingDepositsUpdated    int       `bson:"pendingDepositsUpdated" json:"pendingDepositsUpdated"`
	PendingCommissionsUpdated int       `bson:"pendingCommissionsUpdated" json:"pendingCommissionsUpdated"`
	CreatedAt                 time.Time `bson:"createdAt" json:"createdAt"`
}

// DummyAccountChange is the standalone, append-only audit of one dummy toggle.
type DummyAccountChange struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	SellerID       string    `bson:"sellerId" json:"sellerId"`
	IsDummyAccount bool      `bson:"isDummyAccount" json:"isDummyAccount"`
	Reason         string    `bson:"reason" json:"reason"`
	PerformedBy    string    `bson:"performedBy" json:"performedBy"`
	RowsUpdated    int       `bson:"rowsUpdated" json:"rowsUpdated"`
	CreatedAt      time.Time `bson:"createdAt" json:"createdAt"`
}

// SellerInfo is the ownership view of a seller.
type SellerInfo struct {
	SellerID           string                  `json:"sellerId"`
	DisplayName        string                  `json:"displayName"`
	Email              string                  `json:"email"`
	CurrentAdminID     string                  `json:"currentAdminId"`
	ReferredByAdminID  string                  `json:"referredByAdminId"`
	OriginalReferredBy string                  `json:"originalReferredBy,omitempty"`
	IsDummyAccount     bool                    `json:"isDummyAccount"`
	MigrationHistory   []MigrationHistoryEntry `json:"migrationHistory"`
}

func NewSellerInfo(u *User) *SellerInfo {
	history := u.MigrationHistory
	if history == nil {
		history = []MigrationHistoryEntry{}
	}
	return &SellerInfo{
		SellerID:           u.ID,
		DisplayName:        u.DisplayName,
		Email:              u.Email,
		CurrentAdminID:     u.AdminID,
		ReferredByAdminID:  u.ReferredBy,
		OriginalReferredBy: u.OriginalReferredBy,
		IsDummyAccount:     u.IsDummyAccount,
		MigrationHistory:   history,
	}
}

type MigrationResult struct {
	OperationResult
	MigrationID               string `json:"migrationId,omitempty"`
	PendingDepositsUpdated    int    `json:"pendingDepositsUpdated"`
	PendingCommissionsUpdated int    `json:"pendingCommissionsUpdated"`
}

type DummyToggleResult struct {
	OperationResult
	IsDummyAccount bool `json:"isDummyAccount"`
	RowsUpdated    int  `json:"rowsUpdated"`
}
