package repositories

import (
	"context"
)

// Collection names.
const (
	CollectionUsers                  = "users"
	CollectionCommissionBalances     = "commissionBalances"
	CollectionCommissionTransactions = "commissionTransactions"
	CollectionReceipts               = "receipts"
	CollectionWithdrawals            = "withdrawals"
	CollectionActivities             = "activities"
	CollectionPendingDeposits        = "pendingDeposits"
	CollectionCommissionHistory      = "commissionHistory"
	CollectionOrders                 = "orders"
	CollectionSellerMigrations       = "sellerMigrations"
	CollectionDummyAccountChanges    = "dummyAccountChanges"
	CollectionNotifications          = "notifications"
)

type Op string

const (
	OpEq  Op = "=="
	OpNe  Op = "!="
	OpGt  Op = ">"
	OpGte Op = ">="
	OpLt  Op = "<"
	OpLte Op = "<="
	OpIn  Op = "in"
)

// Filter is a single field predicate. OpNe also matches documents where the field is absent.
type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

func Where(field string, op Op, value interface{}) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// Fields is a partial update with $set semantics. Nil values are dropped before persistence.
type Fields map[string]interface{}

type ChangeEvent struct {
	Collection string
	DocumentID string
	Operation  string
}

type Reader interface {
	// Get decodes the document into out. A missing document is an error wrapping models.ErrNotFound.
	Get(ctx context.Context, collection, id string, out interface{}) error
	// Find decodes every matching document into out, which must be a pointer to a slice.
	Find(ctx context.Context, collection string, q Query, out interface{}) error
}

// Tx is the write view handed to a transaction function. Reads see the transaction's own writes.
type Tx interface {
	Reader
	// Create inserts doc and returns its id, assigning one when the document has none.
	Create(ctx context.Context, collection string, doc interface{}) (string, error)
	// Set replaces the whole document.
	Set(ctx context.Context, collection, id string, doc interface{}) error
	// Update applies fields to an existing document.
	Update(ctx context.Context, collection, id string, fields Fields) error
}

// Store is the ledger store. RunTransaction makes a single attempt: every write commits or none does,
// and contention surfaces as an error wrapping models.ErrTransient for the caller to retry.
type Store interface {
	Reader
	RunTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Watch emits an event after every committed change to a matching document in collection.
	// Events are hints; consumers re-read current state. The channel closes when ctx is done.
	Watch(ctx context.Context, collection string, filters ...Filter) (<-chan ChangeEvent, error)
	Close(ctx context.Context) error
}
