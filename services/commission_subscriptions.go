package services

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/HSouheill/marketplace_backend/metrics"
	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/sirupsen/logrus"
)

// Unsubscribe stops a subscription. It is idempotent and may be called from inside the callback.
type Unsubscribe func()

const defaultSubscriptionLimit = 10

type subscription struct {
	kind   string
	cancel context.CancelFunc
	closed atomic.Bool
	once   sync.Once
}

func (s *subscription) stop() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.cancel()
		metrics.ActiveSubscriptions.WithLabelValues(s.kind).Dec()
	})
}

// SubscribeToAdminCommissionBalance calls cb with the admin's cached balance right away and
// again after every committed change to it. Callbacks run on one goroutine, in order.
func (s *CommissionService) SubscribeToAdminCommissionBalance(ctx context.Context, adminID string, cb func(balance float64)) (Unsubscribe, error) {
	if err := requireID(adminID, "Admin ID is required"); err != nil {
		return nil, err
	}
	return s.subscribe(ctx, "balance", repositories.CollectionCommissionBalances,
		[]repositories.Filter{repositories.Where("_id", repositories.OpEq, adminID)},
		func(ctx context.Context) (func(), error) {
			balance, err := s.readBalance(ctx, adminID)
			if err != nil {
				return nil, err
			}
			return func() { cb(balance) }, nil
		})
}

// SubscribeToAdminCommissionTransactions calls cb with the admin's latest limit transactions,
// newest first, right away and after every new transaction.
func (s *CommissionService) SubscribeToAdminCommissionTransactions(ctx context.Context, adminID string, cb func(txns []models.CommissionTransaction), limit int) (Unsubscribe, error) {
	if err := requireID(adminID, "Admin ID is required"); err != nil {
		return nil, err
	}
	limit = clampLimit(limit, defaultSubscriptionLimit, 100)
	return s.subscribe(ctx, "transactions", repositories.CollectionCommissionTransactions,
		[]repositories.Filter{repositories.Where("adminId", repositories.OpEq, adminID)},
		func(ctx context.Context) (func(), error) {
			txns, err := s.recentTransactions(ctx, adminID, limit)
			if err != nil {
				return nil, err
			}
			return func() { cb(txns) }, nil
		})
}

// subscribe watches collection before the first read so no commit between the two is missed.
// load reads current state and returns the delivery to run.
func (s *CommissionService) subscribe(ctx context.Context, kind, collection string, filters []repositories.Filter, load func(ctx context.Context) (func(), error)) (Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(ctx)
	events, err := s.Store.Watch(subCtx, collection, filters...)
	if err != nil {
		cancel()
		return nil, err
	}

	sub := &subscription{kind: kind, cancel: cancel}
	metrics.ActiveSubscriptions.WithLabelValues(kind).Inc()

	deliver := func() {
		if sub.closed.Load() {
			return
		}
		fn, err := load(subCtx)
		if err != nil {
			if subCtx.Err() == nil {
				s.Logger.WithFields(logrus.Fields{"module": s.module, "kind": kind}).WithError(err).Warn("subscription read failed")
			}
			return
		}
		if !sub.closed.Load() {
			fn()
		}
	}

	go func() {
		defer sub.stop()
		deliver()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				// Coalesce a burst of changes into one read.
				drained := false
				for !drained {
					select {
					case _, ok := <-events:
						if !ok {
							return
						}
					default:
						drained = true
					}
				}
				deliver()
			}
		}
	}()

	return sub.stop, nil
}
