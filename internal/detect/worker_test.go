package detect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"warehouse-sync-backend/internal/model"
	"warehouse-sync-backend/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.Truck{}, &model.Scan{}, &model.ReturnItem{}))
	return store.NewGormStore(db, nil)
}

func TestWorkerPoolDispatch(t *testing.T) {
	wp := NewWorkerPool(1, nil)

	wp.Dispatch(123)

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, int64(123), job)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestFlagDuplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	truck := &model.Truck{TruckNumber: "T-1", OpenedBy: "alice"}
	require.NoError(t, s.CreateTruck(ctx, truck))
	require.NoError(t, s.CreateScan(ctx, &model.Scan{TruckID: truck.ID, TrackingNumber: "794658392013", RawPayload: "FDEG794658392013"}))
	require.NoError(t, s.CreateScan(ctx, &model.Scan{TruckID: truck.ID, TrackingNumber: "794658392099", RawPayload: "FDEG794658392099"}))
	repeat := &model.Scan{TruckID: truck.ID, TrackingNumber: "794658392013", RawPayload: "FDEG794658392013"}
	require.NoError(t, s.CreateScan(ctx, repeat))

	// Simulate an operator clearing the inline flag.
	cleared := false
	require.NoError(t, s.SetScanFlags(ctx, repeat.ID, nil, &cleared))

	wp := NewWorkerPool(1, s)
	wp.FlagDuplicates(ctx, truck.ID)

	scans, err := s.ListScans(ctx, truck.ID, true)
	require.NoError(t, err)
	require.Len(t, scans, 3)
	assert.False(t, scans[0].IsDuplicate, "earliest read stays unflagged")
	assert.False(t, scans[1].IsDuplicate)
	assert.True(t, scans[2].IsDuplicate, "repeat is re-flagged")
}

func TestWorkerProcessesDispatchedTruck(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	truck := &model.Truck{TruckNumber: "T-2", OpenedBy: "alice"}
	require.NoError(t, s.CreateTruck(ctx, truck))
	require.NoError(t, s.CreateScan(ctx, &model.Scan{TruckID: truck.ID, TrackingNumber: "794658392013", RawPayload: "FDEG794658392013"}))
	repeat := &model.Scan{TruckID: truck.ID, TrackingNumber: "794658392013", RawPayload: "FDEG794658392013"}
	require.NoError(t, s.CreateScan(ctx, repeat))
	cleared := false
	require.NoError(t, s.SetScanFlags(ctx, repeat.ID, nil, &cleared))

	wp := NewWorkerPool(1, s)
	wp.Start(ctx)
	wp.Dispatch(truck.ID)

	assert.Eventually(t, func() bool {
		scans, err := s.ListScans(ctx, truck.ID, true)
		if err != nil || len(scans) != 2 {
			return false
		}
		return scans[1].IsDuplicate
	}, 2*time.Second, 20*time.Millisecond)
}
