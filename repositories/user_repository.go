package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/HSouheill/marketplace_backend/models"
)

// GetUser works both on the store and inside a transaction.
func GetUser(ctx context.Context, r Reader, userID string) (*models.User, error) {
	var user models.User
	if err := r.Get(ctx, CollectionUsers, userID, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserWithRole returns NotFound when the user exists under a different role.
func GetUserWithRole(ctx context.Context, r Reader, userID string, roles ...models.Role) (*models.User, error) {
	user, err := GetUser(ctx, r, userID)
	if err != nil {
		return nil, err
	}
	if len(roles) == 0 {
		return user, nil
	}
	for _, role := range roles {
		if user.Role == role {
			return user, nil
		}
	}
	return nil, models.NotFound(fmt.Sprintf("%s %s not found", roles[0], userID))
}

// FindAdminSellers lists the sellers currently managed by adminID.
func FindAdminSellers(ctx context.Context, r Reader, adminID string) ([]models.User, error) {
	var sellers []models.User
	err := r.Find(ctx, CollectionUsers, Query{
		Filters: []Filter{
			Where("role", OpEq, models.RoleSeller),
			Where("adminId", OpEq, adminID),
		},
		OrderBy: "createdAt",
	}, &sellers)
	return sellers, err
}

// UpdateBalance sets the user's balance. Callers compute the new value inside the same transaction.
func UpdateBalance(ctx context.Context, tx Tx, userID string, balance float64, now time.Time) error {
	return tx.Update(ctx, CollectionUsers, userID, Fields{
		"balance":   balance,
		"updatedAt": now,
	})
}

// TouchUser writes updatedAt so that any concurrent transaction which also writes the user
// (a dummy toggle, a migration) conflicts with this one.
func TouchUser(ctx context.Context, tx Tx, userID string, now time.Time) error {
	return tx.Update(ctx, CollectionUsers, userID, Fields{"updatedAt": now})
}
