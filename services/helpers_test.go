package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/HSouheill/marketplace_backend/repositories"
	"github.com/HSouheill/marketplace_backend/utils"
	"github.com/stretchr/testify/require"
)

var jan10 = time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, _ *models.User, notification models.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification)
	return nil
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

type fakeStorage struct {
	mu         sync.Mutex
	failUpload bool
	objects    map[string][]byte
	deleted    []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(_ context.Context, objectPath string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpload {
		return "", errors.New("bucket unavailable")
	}
	s.objects[objectPath] = data
	return "https://storage.test/" + objectPath, nil
}

func (s *fakeStorage) Delete(_ context.Context, objectPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectPath)
	s.deleted = append(s.deleted, objectPath)
	return nil
}

// faultyStore injects transient transaction failures and read failures.
type faultyStore struct {
	repositories.Store
	txFailures atomic.Int32
	failReads  atomic.Bool
	txCalls    atomic.Int32
}

func (s *faultyStore) RunTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Tx) error) error {
	s.txCalls.Add(1)
	if s.txFailures.Add(-1) >= 0 {
		return models.Transient(errors.New("write conflict"))
	}
	return s.Store.RunTransaction(ctx, fn)
}

func (s *faultyStore) Find(ctx context.Context, collection string, q repositories.Query, out interface{}) error {
	if s.failReads.Load() {
		return errors.New("connection refused")
	}
	return s.Store.Find(ctx, collection, q, out)
}

func (s *faultyStore) Get(ctx context.Context, collection, id string, out interface{}) error {
	if s.failReads.Load() {
		return errors.New("connection refused")
	}
	return s.Store.Get(ctx, collection, id, out)
}

type env struct {
	store       *repositories.MemoryStore
	clock       *testClock
	events      *recordingPublisher
	notifier    *recordingNotifier
	storage     *fakeStorage
	deps        Deps
	commissions *CommissionService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store:    repositories.NewMemoryStore(),
		clock:    &testClock{now: jan10},
		events:   &recordingPublisher{},
		notifier: &recordingNotifier{},
		storage:  newFakeStorage(),
	}
	e.deps = Deps{
		Store:    e.store,
		Now:      e.clock.Now,
		Events:   e.events,
		Notifier: e.notifier,
		Retry:    utils.RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	}
	e.commissions = NewCommissionService(e.deps, 1.0)
	return e
}

func (e *env) seedUsers(t *testing.T, users ...models.User) {
	t.Helper()
	err := e.store.RunTransaction(context.Background(), func(ctx context.Context, tx repositories.Tx) error {
		for _, u := range users {
			if u.CreatedAt.IsZero() {
				u.CreatedAt = jan10
			}
			if u.UpdatedAt.IsZero() {
				u.UpdatedAt = jan10
			}
			if err := tx.Set(ctx, repositories.CollectionUsers, u.ID, u); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func (e *env) seed(t *testing.T, collection string, docs ...interface{}) []string {
	t.Helper()
	var ids []string
	err := e.store.RunTransaction(context.Background(), func(ctx context.Context, tx repositories.Tx) error {
		for _, d := range docs {
			id, err := tx.Create(ctx, collection, d)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

// receiptWithStatus stores a receipt for userID directly, bypassing the upload flow.
func (e *env) receiptWithStatus(t *testing.T, id, userID string, amount float64, status models.ReceiptStatus) string {
	t.Helper()
	return e.seed(t, repositories.CollectionReceipts, models.Receipt{
		ID:        id,
		UserID:    userID,
		Amount:    amount,
		ImageURL:  "https://storage.test/receipts/" + id + ".jpg",
		Status:    status,
		CreatedAt: jan10,
		UpdatedAt: jan10,
	})[0]
}

func (e *env) user(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := repositories.GetUser(context.Background(), e.store, id)
	require.NoError(t, err)
	return u
}

func (e *env) commissionTxns(t *testing.T, adminID string) []models.CommissionTransaction {
	t.Helper()
	var txns []models.CommissionTransaction
	require.NoError(t, e.store.Find(context.Background(), repositories.CollectionCommissionTransactions, repositories.Query{
		Filters: []repositories.Filter{repositories.Where("adminId", repositories.OpEq, adminID)},
		OrderBy: "createdAt",
	}, &txns))
	return txns
}

func (e *env) activities(t *testing.T, userID string) []models.Activity {
	t.Helper()
	var acts []models.Activity
	require.NoError(t, e.store.Find(context.Background(), repositories.CollectionActivities, repositories.Query{
		Filters: []repositories.Filter{repositories.Where("userId", repositories.OpEq, userID)},
	}, &acts))
	return acts
}

// standardUsers: superadmin "root", admins "admin-a" and "admin-b", seller "seller-1" under admin-a.
func (e *env) standardUsers(t *testing.T) {
	t.Helper()
	e.seedUsers(t,
		models.User{ID: "root", Role: models.RoleSuperadmin, Email: "root@example.com"},
		models.User{ID: "admin-a", Role: models.RoleAdmin, Email: "a@example.com"},
		models.User{ID: "admin-b", Role: models.RoleAdmin, Email: "b@example.com"},
		models.User{ID: "seller-1", Role: models.RoleSeller, Email: "s1@example.com", AdminID: "admin-a", ReferredBy: "admin-a"},
	)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
