package repositories

import (
	"errors"
	"testing"

	"github.com/HSouheill/marketplace_backend/models"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func labeled(labels ...string) error {
	return mongo.CommandError{Code: 1, Message: "boom", Labels: labels}
}

func TestClassifyMongoError_UnknownCommitIsNotTransient(t *testing.T) {
	// GIVEN a commit failure whose outcome the server could not confirm
	err := classifyMongoError(labeled("UnknownTransactionCommitResult"))

	// THEN it must not be retried by re-running the transaction body
	assert.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrTransient))
}

func TestClassifyMongoError_TransientTransaction(t *testing.T) {
	err := classifyMongoError(labeled("TransientTransactionError"))
	assert.True(t, errors.Is(err, models.ErrTransient))

	err = classifyMongoError(mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 112}}})
	assert.True(t, errors.Is(err, models.ErrTransient))

	assert.NoError(t, classifyMongoError(nil))
}

func TestCommitWithRetry_RetriesOnlyTheCommit(t *testing.T) {
	// GIVEN a commit that reports an unknown result twice, then succeeds
	calls := 0
	err := commitWithRetry(func() error {
		calls++
		if calls < 3 {
			return labeled("UnknownTransactionCommitResult")
		}
		return nil
	})

	// THEN the commit alone was repeated
	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestCommitWithRetry_GivesUpWithUnknownOutcome(t *testing.T) {
	calls := 0
	err := commitWithRetry(func() error {
		calls++
		return labeled("UnknownTransactionCommitResult")
	})

	assert.Equal(t, commitAttempts, calls)
	assert.True(t, errors.Is(err, ErrCommitUnknown))
	assert.False(t, errors.Is(err, models.ErrTransient))
}

func TestCommitWithRetry_OtherErrorsReturnImmediately(t *testing.T) {
	calls := 0
	err := commitWithRetry(func() error {
		calls++
		return labeled("TransientTransactionError")
	})

	assert.Equal(t, 1, calls)
	assert.True(t, hasErrorLabel(err, "TransientTransactionError"))
}
