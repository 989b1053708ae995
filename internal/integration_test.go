package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"warehouse-sync-backend/config"
	"warehouse-sync-backend/internal/base44"
	"warehouse-sync-backend/internal/model"
	"warehouse-sync-backend/internal/store"
	"warehouse-sync-backend/internal/sync"
)

// fakeBase44 is an HTTP-level stand-in for the remote inventory API.
type fakeBase44 struct {
	manifests     int
	lineItems     map[string][]map[string]any // manifest id -> created items
	itemPOSTs     int
	rateLimitFrom int // rate-limit every item POST from this count on (0 = never)
}

func (f *fakeBase44) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/entities/OutboundManifest"):
			f.manifests++
			id := fmt.Sprintf("mf-%03d", f.manifests)
			f.lineItems[id] = nil
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"id": id})

		case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/entities/ManifestItem"):
			var filter map[string]string
			json.Unmarshal([]byte(r.URL.Query().Get("q")), &filter)
			items := f.lineItems[filter["manifest_id"]]
			if items == nil {
				items = []map[string]any{}
			}
			json.NewEncoder(w).Encode(items)

		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/entities/ManifestItem"):
			f.itemPOSTs++
			if f.rateLimitFrom > 0 && f.itemPOSTs >= f.rateLimitFrom {
				w.WriteHeader(http.StatusTooManyRequests)
				return
			}
			var item map[string]any
			json.NewDecoder(r.Body).Decode(&item)
			id, _ := item["manifest_id"].(string)
			f.lineItems[id] = append(f.lineItems[id], item)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]string{"id": fmt.Sprintf("li-%03d", f.itemPOSTs)})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

// TestOutboundSyncLifecycle walks a truck from opening through scanning,
// closing, a rate-limited first sweep, and a completing second sweep,
// verifying the remote and local state at each step.
func TestOutboundSyncLifecycle(t *testing.T) {
	testDB, err := gorm.Open(sqlite.Open("file:synclifecycle?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, testDB.AutoMigrate(&model.Truck{}, &model.Scan{}, &model.ReturnItem{}))

	remote := &fakeBase44{lineItems: make(map[string][]map[string]any)}
	server := httptest.NewServer(remote.handler())
	defer server.Close()

	cfg := &config.Config{}
	cfg.Sync.Enabled = true
	cfg.Sync.ChunkSize = 10
	cfg.Base44 = config.Base44Config{
		BaseURL:        server.URL,
		AppID:          "app-test",
		APIKey:         "test-key",
		TimeoutSeconds: 5,
	}

	appStore := store.NewGormStore(testDB, nil)
	gateway := base44.NewClient(&cfg.Base44)
	syncService := sync.NewService(cfg, appStore, gateway)

	ctx := context.Background()

	// Open a truck and ingest four scans, one of them a duplicate read.
	truck := &model.Truck{TruckNumber: "T-42", Carrier: "FedEx", OpenedBy: "alice"}
	require.NoError(t, appStore.CreateTruck(ctx, truck))
	for _, tn := range []string{"794658392010", "794658392011", "794658392012", "794658392010"} {
		require.NoError(t, appStore.CreateScan(ctx, &model.Scan{
			TruckID:        truck.ID,
			TrackingNumber: tn,
			RawPayload:     "FDEG" + tn,
			Destination:    "Reno, NV",
		}))
	}
	require.NoError(t, appStore.CloseTruck(ctx, truck.ID, "bob"))

	// First sweep: the remote rate-limits on the third item POST, so only
	// two of the three non-duplicate scans land.
	remote.rateLimitFrom = 3
	res := syncService.SweepOnce(ctx)
	assert.Equal(t, 1, res.Swept)
	assert.Equal(t, 1, res.Partial)
	assert.Equal(t, 0, res.FullySynced)

	loaded, _, err := appStore.GetTruckWithScans(ctx, truck.ID)
	require.NoError(t, err)
	assert.Equal(t, "mf-001", loaded.RemoteManifestID, "the anchor is persisted despite the rate-limit stop")
	assert.False(t, loaded.FullySynced)
	assert.Len(t, remote.lineItems["mf-001"], 2)

	// Second sweep: the rate limit clears and only the missing item is
	// uploaded; nothing already present is re-created.
	remote.rateLimitFrom = 0
	postsBefore := remote.itemPOSTs
	res = syncService.SweepOnce(ctx)
	assert.Equal(t, 1, res.FullySynced)
	assert.Equal(t, 1, remote.itemPOSTs-postsBefore, "exactly the one missing line item is uploaded")
	assert.Equal(t, 1, remote.manifests, "manifest creation happened exactly once across sweeps")
	assert.Len(t, remote.lineItems["mf-001"], 3, "the duplicate-flagged scan never syncs")

	loaded, _, err = appStore.GetTruckWithScans(ctx, truck.ID)
	require.NoError(t, err)
	assert.True(t, loaded.FullySynced)

	// Third sweep: fully synced fleet, nothing to do, no remote traffic.
	postsBefore = remote.itemPOSTs
	res = syncService.SweepOnce(ctx)
	assert.Equal(t, 0, res.Swept)
	assert.Equal(t, postsBefore, remote.itemPOSTs)
}
