package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/HSouheill/marketplace_backend/metrics"
	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/HSouheill/marketplace_backend/utils"
)

// Embedded history on the seller document keeps only the latest entries.
// The full history lives in sellerMigrations and dummyAccountChanges.
const maxEmbeddedHistory = 50

// SellerManagementService changes which admin a seller's future activity is attributed to,
// and whether the seller counts towards revenue. Completed history is never rewritten.
type SellerManagementService struct {
	base
}

func NewSellerManagementService(d Deps) *SellerManagementService {
	return &SellerManagementService{base: newBase("seller_management", d)}
}

func (s *SellerManagementService) MigrateSeller(ctx context.Context, sellerID, newAdminID, reason, performedBy string) (*models.MigrationResult, error) {
	reason = utils.SanitizeInput(reason)
	for _, check := range []error{
		requireID(sellerID, "Seller ID is required"),
		requireID(newAdminID, "New admin ID is required"),
		requireID(reason, "Migration reason is required"),
		requireID(performedBy, "Performer ID is required"),
	} {
		if check != nil {
			return &models.MigrationResult{OperationResult: models.FailedFrom(check, "")}, nil
		}
	}

	var (
		result models.MigrationResult
		record models.MigrationRecord
	)
	err := s.runTx(ctx, "MigrateSeller", func(ctx context.Context, tx repositories.Tx) error {
		result = models.MigrationResult{}

		seller, err := repositories.GetUserWithRole(ctx, tx, sellerID, models.RoleSeller)
		if err != nil {
			return notFoundAs(err, "Seller not found")
		}
		if _, err := repositories.GetUserWithRole(ctx, tx, newAdminID, models.RoleAdmin, models.RoleSuperadmin); err != nil {
			return notFoundAs(err, "Admin not found")
		}
		if seller.AdminID == newAdminID {
			return models.Conflict("Seller is already under this admin")
		}

		original := seller.OriginalReferredBy
		if original == "" {
			original = seller.ReferredBy
		}
		if original == "" {
			original = seller.AdminID
		}

		now := s.now()
		reassign := repositories.Fields{"adminId": newAdminID, "updatedAt": now}
		result.PendingDepositsUpdated, err = s.updatePending(ctx, tx, repositories.CollectionPendingDeposits, sellerID, reassign)
		if err != nil {
			return err
		}
		result.PendingCommissionsUpdated, err = s.updatePending(ctx, tx, repositories.CollectionCommissionHistory, sellerID, reassign)
		if err != nil {
			return err
		}

		record = models.MigrationRecord{
			SellerID:                  sellerID,
			FromAdminID:               seller.AdminID,
			FromReferredBy:            seller.ReferredBy,
			ToAdminID:                 newAdminID,
			OriginalReferredBy:        original,
			Reason:                    reason,
			PerformedBy:               performedBy,
			PendingDepositsUpdated:    result.PendingDepositsUpdated,
			PendingCommissionsUpdated: result.PendingCommissionsUpdated,
			CreatedAt:                 now,
		}
		record.ID, err = tx.Create(ctx, repositories.CollectionSellerMigrations, record)
		if err != nil {
			return err
		}
		result.MigrationID = record.ID

		history := capHistory(append(seller.MigrationHistory, models.MigrationHistoryEntry{
			MigrationID: record.ID,
			FromAdminID: seller.AdminID,
			ToAdminID:   newAdminID,
			Reason:      reason,
			PerformedBy: performedBy,
			MigratedAt:  now,
		}))
		fields := repositories.Fields{
			"adminId":          newAdminID,
			"referredBy":       newAdminID,
			"migrationHistory": history,
			"updatedAt":        now,
		}
		if original != "" {
			fields["originalReferredBy"] = original
		}
		return tx.Update(ctx, repositories.CollectionUsers, sellerID, fields)
	})
	if err != nil {
		res, err := s.failure("MigrateSeller", err, "Failed to migrate seller", map[string]string{
			"sellerId":   sellerID,
			"newAdminId": newAdminID,
		})
		return &models.MigrationResult{OperationResult: res}, err
	}

	metrics.SellerMigrationsTotal.Inc()
	s.publish(ctx, EventSellerMigrated, sellerID, record)

	result.OperationResult = models.Succeeded("Seller migrated successfully")
	return &result, nil
}

func (s *SellerManagementService) updatePending(ctx context.Context, tx repositories.Tx, collection, sellerID string, fields repositories.Fields) (int, error) {
	return s.updateWhere(ctx, tx, collection, fields,
		repositories.Where("sellerId", repositories.OpEq, sellerID),
		repositories.Where("status", repositories.OpEq, models.DepositPending),
	)
}

// updateWhere applies fields to every matching document and returns how many were updated.
func (s *SellerManagementService) updateWhere(ctx context.Context, tx repositories.Tx, collection string, fields repositories.Fields, filters ...repositories.Filter) (int, error) {
	var rows []struct {
		ID string `bson:"_id"`
	}
	if err := tx.Find(ctx, collection, repositories.Query{Filters: filters}, &rows); err != nil {
		return 0, err
	}
	for _, row := range rows {
		if err := tx.Update(ctx, collection, row.ID, fields); err != nil {
			return 0, err
		}
	}
	return len(rows), nil
}

func capHistory[T any](history []T) []T {
	if len(history) <= maxEmbeddedHistory {
		return history
	}
	return history[len(history)-maxEmbeddedHistory:]
}

// ToggleDummyAccount marks or unmarks a seller as a dummy account. Marking excludes the seller's
// deposit rows from revenue; unmarking only restores the rows this toggle excluded.
func (s *SellerManagementService) ToggleDummyAccount(ctx context.Context, sellerID string, isDummy bool, reason, performedBy string) (*models.DummyToggleResult, error) {
	reason = utils.SanitizeInput(reason)
	for _, check := range []error{
		requireID(sellerID, "Seller ID is required"),
		requireID(performedBy, "Performer ID is required"),
	} {
		if check != nil {
			return &models.DummyToggleResult{OperationResult: models.FailedFrom(check, "")}, nil
		}
	}

	var change models.DummyAccountChange
	err := s.runTx(ctx, "ToggleDummyAccount", func(ctx context.Context, tx repositories.Tx) error {
		seller, err := repositories.GetUserWithRole(ctx, tx, sellerID, models.RoleSeller)
		if err != nil {
			return notFoundAs(err, "Seller not found")
		}
		if seller.IsDummyAccount == isDummy {
			if isDummy {
				return models.Conflict("Seller is already marked as a dummy account")
			}
			return models.Conflict("Seller is not marked as a dummy account")
		}

		now := s.now()
		var (
			fields repositories.Fields
			match  repositories.Filter
		)
		if isDummy {
			fields = repositories.Fields{"excludeFromRevenue": true, "dummyMarked": true, "updatedAt": now}
			match = notExcluded
		} else {
			fields = repositories.Fields{"excludeFromRevenue": false, "dummyMarked": false, "updatedAt": now}
			match = repositories.Where("dummyMarked", repositories.OpEq, true)
		}

		rows := 0
		for _, collection := range []string{repositories.CollectionPendingDeposits, repositories.CollectionCommissionHistory} {
			n, err := s.updateWhere(ctx, tx, collection, fields,
				repositories.Where("sellerId", repositories.OpEq, sellerID), match)
			if err != nil {
				return err
			}
			rows += n
		}

		change = models.DummyAccountChange{
			SellerID:       sellerID,
			IsDummyAccount: isDummy,
			Reason:         reason,
			PerformedBy:    performedBy,
			RowsUpdated:    rows,
			CreatedAt:      now,
		}
		change.ID, err = tx.Create(ctx, repositories.CollectionDummyAccountChanges, change)
		if err != nil {
			return err
		}

		history := capHistory(append(seller.DummyAccountHistory, models.DummyAccountHistoryItem{
			IsDummyAccount: isDummy,
			Reason:         reason,
			PerformedBy:    performedBy,
			ChangedAt:      now,
		}))
		return tx.Update(ctx, repositories.CollectionUsers, sellerID, repositories.Fields{
			"isDummyAccount":      isDummy,
			"dummyAccountHistory": history,
			"updatedAt":           now,
		})
	})
	if err != nil {
		res, err := s.failure("ToggleDummyAccount", err, "Failed to update dummy account status", sellerID)
		return &models.DummyToggleResult{OperationResult: res}, err
	}

	metrics.DummyTogglesTotal.WithLabelValues(strconv.FormatBool(isDummy)).Inc()
	s.publish(ctx, EventSellerDummyToggled, sellerID, change)

	message := "Seller unmarked as dummy account"
	if isDummy {
		message = "Seller marked as dummy account"
	}
	return &models.DummyToggleResult{
		OperationResult: models.Succeeded(message),
		IsDummyAccount:  isDummy,
		RowsUpdated:     change.RowsUpdated,
	}, nil
}

func (s *SellerManagementService) GetSellerInfo(ctx context.Context, sellerID string) (*models.SellerInfo, error) {
	if err := requireID(sellerID, "Seller ID is required"); err != nil {
		return nil, err
	}
	seller, err := repositories.GetUserWithRole(ctx, s.Store, sellerID, models.RoleSeller)
	if err != nil {
		return nil, notFoundAs(err, "Seller not found")
	}
	return models.NewSellerInfo(seller), nil
}

// GetMigrationHistory reads the standalone migration log, newest first.
func (s *SellerManagementService) GetMigrationHistory(ctx context.Context, sellerID string, limit int) ([]models.MigrationRecord, error) {
	if err := requireID(sellerID, "Seller ID is required"); err != nil {
		return nil, err
	}
	records := []models.MigrationRecord{}
	err := s.Store.Find(ctx, repositories.CollectionSellerMigrations, repositories.Query{
		Filters:    []repositories.Filter{repositories.Where("sellerId", repositories.OpEq, sellerID)},
		OrderBy:    "createdAt",
		Descending: true,
		Limit:      clampLimit(limit, 50, 500),
	}, &records)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration history: %w", err)
	}
	return records, nil
}

func (s *SellerManagementService) GetAdminSellers(ctx context.Context, adminID string) ([]models.SellerInfo, error) {
	if err := requireID(adminID, "Admin ID is required"); err != nil {
		return nil, err
	}
	sellers, err := repositories.FindAdminSellers(ctx, s.Store, adminID)
	if err != nil {
		return nil, fmt.Errorf("failed to read admin sellers: %w", err)
	}
	infos := make([]models.SellerInfo, 0, len(sellers))
	for i := range sellers {
		infos = append(infos, *models.NewSellerInfo(&sellers[i]))
	}
	return infos, nil
}
