package storage

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/prebuiltcheck/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndListComparisons(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	db.now = func() time.Time { return clock }

	first := &domain.ComparisonResult{
		PrebuiltName:    "Skytech Chronos",
		PrebuiltPrice:   1999.99,
		Parts:           []domain.ResolvedPart{{Name: "CPU", Type: "Ryzen 7 7800X3D", Price: 469.99, Link: "https://example.com/cpu"}},
		TotalPartsPrice: 469.99,
		PriceDifference: 1530,
	}
	require.NoError(t, db.SaveComparison(ctx, "https://www.newegg.ca/p/1", first))

	clock = clock.Add(time.Minute)
	second := &domain.ComparisonResult{PrebuiltName: "CyberPower Gamer", PrebuiltPrice: 1200, Parts: []domain.ResolvedPart{}}
	require.NoError(t, db.SaveComparison(ctx, "https://www.bestbuy.ca/p/2", second))

	got, err := db.RecentComparisons(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "CyberPower Gamer", got[0].PrebuiltName)
	assert.Equal(t, "Skytech Chronos", got[1].PrebuiltName)
	assert.Equal(t, "https://www.newegg.ca/p/1", got[1].URL)
	assert.InDelta(t, 1999.99, got[1].PrebuiltPrice, 1e-9)
	assert.InDelta(t, 1530, got[1].PriceDifference, 1e-9)
	assert.Contains(t, got[1].Parts, "Ryzen 7 7800X3D")
	assert.True(t, got[1].CreatedAt.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestRecentComparisons_Limit(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, db.SaveComparison(ctx, "https://www.newegg.ca/p/x", &domain.ComparisonResult{PrebuiltName: "PC"}))
	}

	got, err := db.RecentComparisons(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestRecentComparisons_Empty(t *testing.T) {
	got, err := openTestDB(t).RecentComparisons(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	body, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(body))
}
