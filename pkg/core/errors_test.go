package core_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ava-assistant/avamem-go/pkg/core"
	"github.com/ava-assistant/avamem-go/pkg/storage"
)

func TestMemoryError(t *testing.T) {
	err := core.NewMemoryError("AcceptFact", core.ErrConfigurationUnavailable)
	assert.EqualError(t, err, "avamem: AcceptFact: provider not configured")
	assert.ErrorIs(t, err, core.ErrConfigurationUnavailable)

	var memErr *core.MemoryError
	assert.True(t, errors.As(err, &memErr))
	assert.Equal(t, "AcceptFact", memErr.Op)

	assert.NoError(t, core.NewMemoryError("noop", nil))
}

func TestStorageErrorsAreShared(t *testing.T) {
	assert.ErrorIs(t, core.NewMemoryError("Load", storage.ErrStoreCorrupt), core.ErrStoreCorrupt)
	assert.ErrorIs(t, core.NewMemoryError("Save", storage.ErrPersistence), core.ErrPersistence)
	assert.ErrorIs(t, core.NewMemoryError("Scan", storage.ErrRecordIncomplete), core.ErrRecordIncomplete)
}
