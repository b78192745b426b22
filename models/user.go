// models/user.go
package models

import (
	"time"
)

// Role is the role claim issued by the identity provider.
type Role string

const (
	RoleUser       Role = "user"
	RoleSeller     Role = "seller"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleSeller, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// User model. The document id is the identity provider's uid.
// Seller ownership fields are only populated for role == seller.
type User struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Email       string    `json:"email" bson:"email"`
	DisplayName string    `json:"displayName" bson:"displayName"`
	Role        Role      `json:"role" bson:"role"`
	Balance     float64   `json:"balance" bson:"balance"`
	FCMToken    string    `json:"-" bson:"fcmToken,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`

	// AdminID is the admin currently managing the seller.
	AdminID string `json:"adminId,omitempty" bson:"adminId,omitempty"`
	// ReferredBy is the admin credited with future commissions.
	ReferredBy string `json:"referredBy,omitempty" bson:"referredBy,omitempty"`
	// OriginalReferredBy is set once and never overwritten.
	OriginalReferredBy  string                    `json:"originalReferredBy,omitempty" bson:"originalReferredBy,omitempty"`
	IsDummyAccount      bool                      `json:"isDummyAccount" bson:"isDummyAccount"`
	MigrationHistory    []MigrationHistoryEntry   `json:"migrationHistory,omitempty" bson:"migrationHistory,omitempty"`
	DummyAccountHistory []DummyAccountHistoryItem `json:"dummyAccountHistory,omitempty" bson:"dummyAccountHistory,omitempty"`
}

// CommissionAdmin returns the admin entitled to commissions from this seller's activity.
func (u *User) CommissionAdmin() string {
	if u.ReferredBy != "" {
		return u.ReferredBy
	}
	return u.AdminID
}

// Response is the JSON envelope every endpoint returns.
type Response struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// OperationResult is the discriminated shape of every mutating operation.
// Callers branch on Success; Message is safe to display.
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
}

func Succeeded(message string) OperationResult {
	return OperationResult{Success: true, Message: message}
}

func Failed(message string) OperationResult {
	return OperationResult{Success: false, Message: message}
}
