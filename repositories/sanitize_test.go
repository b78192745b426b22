package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize_DropsNilFields(t *testing.T) {
	var missing *time.Time
	now := time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

	got, err := Canonicalize(Fields{
		"status":      "approved",
		"approvedAt":  &now,
		"rejectedAt":  missing,
		"notes":       nil,
		"amount":      10.5,
		"isDummy":     false,
		"emptyString": "",
	})
	require.NoError(t, err)

	assert.NotContains(t, got, "rejectedAt")
	assert.NotContains(t, got, "notes")
	assert.Equal(t, "approved", got["status"])
	assert.Equal(t, 10.5, got["amount"])
	assert.Equal(t, false, got["isDummy"])
	assert.Equal(t, "", got["emptyString"])
	assert.Contains(t, got, "approvedAt")
}

func TestCanonicalize_StructOmitsEmptyPointers(t *testing.T) {
	got, err := Canonicalize(testDoc{Owner: "a", Amount: 3})
	require.NoError(t, err)

	assert.NotContains(t, got, "_id")
	assert.NotContains(t, got, "doneAt")
	assert.NotContains(t, got, "excluded")
	assert.Equal(t, "a", got["owner"])
}

func TestCanonicalize_RejectsNil(t *testing.T) {
	_, err := Canonicalize(nil)
	assert.Error(t, err)

	var doc *testDoc
	_, err = Canonicalize(doc)
	assert.Error(t, err)
}
