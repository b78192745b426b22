package services

import (
	"context"
	"fmt"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/HSouheill/marketplace_backend/utils"
)

// ProfitService moves an order's profit into the seller's balance, once per order.
type ProfitService struct {
	base
}

func NewProfitService(d Deps) *ProfitService {
	return &ProfitService{base: newBase("profit", d)}
}

func (s *ProfitService) TransferProfit(ctx context.Context, orderID, performedBy string) (*models.ProfitTransferResult, error) {
	for _, check := range []error{
		requireID(orderID, "Order ID is required"),
		requireID(performedBy, "Performer ID is required"),
	} {
		if check != nil {
			return &models.ProfitTransferResult{OperationResult: models.FailedFrom(check, "")}, nil
		}
	}

	var (
		order  models.Order
		result models.ProfitTransferResult
	)
	err := s.runTx(ctx, "TransferProfit", func(ctx context.Context, tx repositories.Tx) error {
		if err := tx.Get(ctx, repositories.CollectionOrders, orderID, &order); err != nil {
			return notFoundAs(err, "Order not found")
		}
		if order.SellerID == "" {
			return models.Validation("Order has no seller")
		}
		if !(order.ProfitAmount > 0) {
			return models.Validation("Order has no profit to transfer")
		}
		if order.ProfitTransferredAmount > 0 || order.ProfitTransferredDate != nil {
			return models.Conflict("Profit already transferred for this order")
		}
		seller, err := repositories.GetUser(ctx, tx, order.SellerID)
		if err != nil {
			return notFoundAs(err, "Seller not found")
		}

		now := s.now()
		amount := utils.RoundMoney(order.ProfitAmount)
		newBalance := utils.AddMoney(seller.Balance, amount)
		if err := repositories.UpdateBalance(ctx, tx, seller.ID, newBalance, now); err != nil {
			return err
		}
		if err := tx.Update(ctx, repositories.CollectionOrders, orderID, repositories.Fields{
			"profitTransferredAmount": amount,
			"profitTransferredDate":   now,
			"excludeFromRevenue":      seller.IsDummyAccount,
		}); err != nil {
			return err
		}
		if _, err := tx.Create(ctx, repositories.CollectionActivities, models.Activity{
			UserID:      seller.ID,
			Type:        models.ActivityProfitTransferred,
			Amount:      amount,
			OrderID:     orderID,
			PerformedBy: performedBy,
			Description: fmt.Sprintf("Profit of %.2f transferred", amount),
			CreatedAt:   now,
		}); err != nil {
			return err
		}
		result = models.ProfitTransferResult{Amount: amount, NewBalance: newBalance}
		return nil
	})
	if err != nil {
		res, err := s.failure("TransferProfit", err, "Failed to transfer profit", orderID)
		return &models.ProfitTransferResult{OperationResult: res}, err
	}

	s.publish(ctx, EventProfitTransferred, order.SellerID, map[string]interface{}{
		"orderId":  orderID,
		"sellerId": order.SellerID,
		"amount":   result.Amount,
	})

	result.OperationResult = models.Succeeded("Profit transferred successfully")
	return &result, nil
}
