package services

import (
	"context"
	"testing"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransferProfit_OncePerOrder(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	ctx := context.Background()
	ids := e.seed(t, repositories.CollectionOrders, models.Order{SellerID: "seller-1", ProfitAmount: 33.333, CreatedAt: jan10})
	svc := NewProfitService(e.deps)

	first, err := svc.TransferProfit(ctx, ids[0], "root")
	require.NoError(t, err)
	second, err := svc.TransferProfit(ctx, ids[0], "root")
	require.NoError(t, err)

	assert.True(t, first.Success)
	assert.Equal(t, 33.33, first.Amount)
	assert.Equal(t, 33.33, first.NewBalance)
	assert.False(t, second.Success)
	assert.Equal(t, "Profit already transferred for this order", second.Message)
	assert.Equal(t, 33.33, e.user(t, "seller-1").Balance)

	var order models.Order
	require.NoError(t, e.store.Get(ctx, repositories.CollectionOrders, ids[0], &order))
	assert.Equal(t, 33.33, order.ProfitTransferredAmount)
	require.NotNil(t, order.ProfitTransferredDate)

	acts := e.activities(t, "seller-1")
	require.Len(t, acts, 1)
	assert.Equal(t, models.ActivityProfitTransferred, acts[0].Type)
	assert.Equal(t, ids[0], acts[0].OrderID)
}

func TestTransferProfit_RejectsUnusableOrders(t *testing.T) {
	e := newEnv(t)
	e.standardUsers(t)
	ids := e.seed(t, repositories.CollectionOrders,
		models.Order{SellerID: "seller-1", ProfitAmount: 0, CreatedAt: jan10},
		models.Order{ProfitAmount: 5, CreatedAt: jan10},
	)
	svc := NewProfitService(e.deps)
	ctx := context.Background()

	res, err := svc.TransferProfit(ctx, ids[0], "root")
	require.NoError(t, err)
	assert.Equal(t, "Order has no profit to transfer", res.Message)

	res, err = svc.TransferProfit(ctx, ids[1], "root")
	require.NoError(t, err)
	assert.Equal(t, "Order has no seller", res.Message)

	res, err = svc.TransferProfit(ctx, "missing", "root")
	require.NoError(t, err)
	assert.Equal(t, "Order not found", res.Message)
}
