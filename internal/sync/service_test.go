package sync

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warehouse-sync-backend/config"
	"warehouse-sync-backend/internal/base44"
	"warehouse-sync-backend/internal/model"
	"warehouse-sync-backend/internal/store"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Sync.Enabled = true
	cfg.Sync.ChunkSize = 10
	return cfg
}

func seedClosedTruckN(t *testing.T, s store.Store, number string, scans int) *model.Truck {
	t.Helper()
	ctx := context.Background()
	truck := &model.Truck{TruckNumber: number, OpenedBy: "alice"}
	require.NoError(t, s.CreateTruck(ctx, truck))
	for i := 0; i < scans; i++ {
		tn := fmt.Sprintf("96120190123456%s%02d", number[len(number)-1:], i)
		require.NoError(t, s.CreateScan(ctx, &model.Scan{
			TruckID:        truck.ID,
			TrackingNumber: tn,
			RawPayload:     "FDEG" + tn,
		}))
	}
	require.NoError(t, s.CloseTruck(ctx, truck.ID, "bob"))
	return truck
}

func TestSweepOnce(t *testing.T) {
	s := newTestStore(t)
	gw := newFakeGateway()

	clean := seedClosedTruckN(t, s, "T-1", 2)
	limited := seedClosedTruckN(t, s, "T-2", 3)
	empty := seedClosedTruckN(t, s, "T-3", 0)

	// The second truck's second line item call hits the rate limit. Manifest
	// creation order follows closed_at order, so T-1 uploads 2 items first.
	gw.itemErr = func(call int, tracking string) error {
		if call == 4 {
			return base44.ErrRateLimited
		}
		return nil
	}

	svc := NewService(testConfig(), s, gw)
	res := svc.SweepOnce(context.Background())

	assert.Equal(t, 3, res.Swept)
	assert.Equal(t, 2, res.FullySynced, "clean truck and zero-scan truck complete")
	assert.Equal(t, 1, res.Partial, "rate-limited truck is neither a success nor a failure")
	assert.Equal(t, 0, res.Failed)

	ctx := context.Background()
	loadedClean, _, err := s.GetTruckWithScans(ctx, clean.ID)
	require.NoError(t, err)
	assert.True(t, loadedClean.FullySynced)

	loadedLimited, _, err := s.GetTruckWithScans(ctx, limited.ID)
	require.NoError(t, err)
	assert.False(t, loadedLimited.FullySynced)
	assert.NotEmpty(t, loadedLimited.RemoteManifestID)

	loadedEmpty, _, err := s.GetTruckWithScans(ctx, empty.ID)
	require.NoError(t, err)
	assert.True(t, loadedEmpty.FullySynced)

	// The next sweep only sees the partially synced truck and finishes it.
	gw.itemErr = nil
	res = svc.SweepOnce(ctx)
	assert.Equal(t, 1, res.Swept)
	assert.Equal(t, 1, res.FullySynced)

	res = svc.SweepOnce(ctx)
	assert.Equal(t, 0, res.Swept, "a fully synced fleet is a no-op sweep")
}

func TestSweepOnceHardFailure(t *testing.T) {
	s := newTestStore(t)
	gw := newFakeGateway()
	gw.createManifestErr = fmt.Errorf("remote unreachable")
	seedClosedTruckN(t, s, "T-1", 1)

	svc := NewService(testConfig(), s, gw)
	res := svc.SweepOnce(context.Background())

	assert.Equal(t, 1, res.Swept)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 0, res.FullySynced)
	assert.Equal(t, 0, res.Partial)
}
