package persistence

import (
	"context"
	"testing"

	"github.com/dtaikl/treeverify/blobstore"
	"github.com/dtaikl/treeverify/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolutionLedgerCurrentWithNoEntry(t *testing.T) {
	ledger := NewSolutionLedger(blobstore.NewMemoryStore(), nil, "")

	_, err := ledger.Current(context.Background())
	assert.ErrorIs(t, err, ErrNoEntry)
}

func TestSolutionLedgerPostAndCurrent(t *testing.T) {
	ledger := NewSolutionLedger(blobstore.NewMemoryStore(), nil, "")
	entry := LedgerEntry{SessionID: "worker-1", Solution: search.Solution{Output: 3.2}}

	require.NoError(t, ledger.Post(context.Background(), entry))

	got, err := ledger.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entry.SessionID, got.SessionID)
	assert.InDelta(t, entry.Solution.Output, got.Solution.Output, 1e-9)
}

func TestSolutionLedgerPostIfBetterIgnoresWorse(t *testing.T) {
	ledger := NewSolutionLedger(blobstore.NewMemoryStore(), nil, "")

	require.NoError(t, ledger.PostIfBetter(context.Background(), LedgerEntry{
		SessionID: "worker-1",
		Solution:  search.Solution{Output: 5.0},
	}))
	require.NoError(t, ledger.PostIfBetter(context.Background(), LedgerEntry{
		SessionID: "worker-2",
		Solution:  search.Solution{Output: 3.0},
	}))

	got, err := ledger.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "worker-1", got.SessionID)
	assert.InDelta(t, 5.0, got.Solution.Output, 1e-9)
}

func TestSolutionLedgerPostIfBetterAcceptsImprovement(t *testing.T) {
	ledger := NewSolutionLedger(blobstore.NewMemoryStore(), nil, "")

	require.NoError(t, ledger.PostIfBetter(context.Background(), LedgerEntry{
		SessionID: "worker-1",
		Solution:  search.Solution{Output: 2.0},
	}))
	require.NoError(t, ledger.PostIfBetter(context.Background(), LedgerEntry{
		SessionID: "worker-2",
		Solution:  search.Solution{Output: 9.0},
	}))

	got, err := ledger.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "worker-2", got.SessionID)
	assert.InDelta(t, 9.0, got.Solution.Output, 1e-9)
}
