package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/senyabanana/loadboard-service/internal/models"
	"github.com/senyabanana/loadboard-service/internal/repository"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	shipperA = models.Actor{ID: "shipper-a", Role: models.ShipperRole}
	shipperB = models.Actor{ID: "shipper-b", Role: models.ShipperRole}
	truckerA = models.Actor{ID: "trucker-a", Role: models.TruckerRole}
	truckerB = models.Actor{ID: "trucker-b", Role: models.TruckerRole}
	truckerC = models.Actor{ID: "trucker-c", Role: models.TruckerRole}
	adminX   = models.Actor{ID: "admin-x", Role: models.AdminRole}
)

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) Notify(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return lo.Map(r.events, func(e Event, _ int) EventType { return e.Type })
}

func (r *eventRecorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type testEnv struct {
	store    *repository.MemoryStore
	loads    *LoadService
	bids     *BidService
	assign   *AssignmentService
	life     *LifecycleService
	recorder *eventRecorder

	mu  sync.Mutex
	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		store:    repository.NewMemoryStore(),
		recorder: &eventRecorder{},
		now:      time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	env.loads = NewLoadService(env.store, env.recorder)
	env.bids = NewBidService(env.store, env.recorder)
	env.assign = NewAssignmentService(env.store, env.recorder)
	env.life = NewLifecycleService(env.store, env.recorder)
	env.loads.Now = env.clock
	env.bids.Now = env.clock
	env.assign.Now = env.clock
	env.life.Now = env.clock
	return env
}

func (e *testEnv) clock() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEnv) advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = e.now.Add(d)
}

func (e *testEnv) loadRequest() models.LoadRequest {
	now := e.clock()
	return models.LoadRequest{
		Title:            "Steel coils",
		Description:      "Four coils, flatbed required",
		PickupLocation:   models.Location{Address: "Chicago, IL", Coordinates: []float64{-87.6, 41.9}},
		DeliveryLocation: models.Location{Address: "Dallas, TX"},
		PickupDate:       now.Add(72 * time.Hour),
		DeliveryDate:     now.Add(96 * time.Hour),
		Weight:           18000,
		Dimensions:       models.Dimensions{Length: 40, Width: 8, Height: 6},
		LoadType:         "flatbed",
		Budget:           2500,
		BiddingDeadline:  now.Add(24 * time.Hour),
		Status:           models.OpenLoad,
	}
}

func (e *testEnv) openLoad(t *testing.T, shipper models.Actor) *models.Load {
	t.Helper()
	load, err := e.loads.CreateLoad(context.Background(), shipper, e.loadRequest())
	require.NoError(t, err)
	return load
}

func (e *testEnv) placeBid(t *testing.T, trucker models.Actor, loadId string, amount float64) *models.Bid {
	t.Helper()
	bid, err := e.bids.PlaceBid(context.Background(), trucker, models.BidRequest{LoadId: loadId, Amount: amount})
	require.NoError(t, err)
	return bid
}

// assignedLoad создает груз с принятым предложением truckerA.
func (e *testEnv) assignedLoad(t *testing.T) (*models.Load, *models.Bid) {
	t.Helper()
	load := e.openLoad(t, shipperA)
	bid := e.placeBid(t, truckerA, load.ID, 2000)
	_, err := e.assign.AcceptBid(context.Background(), shipperA, bid.ID)
	require.NoError(t, err)
	assigned, err := e.loads.GetLoad(context.Background(), load.ID)
	require.NoError(t, err)
	return assigned, bid
}

func (e *testEnv) bidStatus(t *testing.T, bidId string) models.BidStatus {
	t.Helper()
	bid, err := e.store.GetBidById(context.Background(), bidId)
	require.NoError(t, err)
	return bid.Status
}

func (e *testEnv) loadStatus(t *testing.T, loadId string) models.LoadStatus {
	t.Helper()
	load, err := e.store.GetLoadById(context.Background(), loadId)
	require.NoError(t, err)
	return load.Status
}

// requireLinkage проверяет согласованность полей назначения груза.
func requireLinkage(t *testing.T, load *models.Load) {
	t.Helper()
	require.Equal(t, load.AssignedTrucker == nil, load.AcceptedBid == nil)
	if load.Status == models.CancelledLoad {
		return
	}
	inProgress := lo.Contains([]models.LoadStatus{
		models.AssignedLoad, models.InTransitLoad, models.DeliveredLoad, models.CompletedLoad,
	}, load.Status)
	require.Equal(t, inProgress, load.AssignedTrucker != nil)
}
