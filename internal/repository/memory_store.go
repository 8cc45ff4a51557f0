package repository

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/senyabanana/loadboard-service/internal/models"

	"github.com/samber/lo"
)

type bidKey struct {
	loadId    string
	truckerId string
}

// memoryData - снимок содержимого хранилища.
type memoryData struct {
	loads     map[string]models.Load
	loadOrder []string
	bids      map[string]models.Bid
	bidOrder  []string
	bidKeys   map[bidKey]string
	tracking  []models.TrackingUpdate
}

func (d *memoryData) clone() *memoryData {
	return &memoryData{
		loads:     maps.Clone(d.loads),
		loadOrder: slices.Clone(d.loadOrder),
		bids:      maps.Clone(d.bids),
		bidOrder:  slices.Clone(d.bidOrder),
		bidKeys:   maps.Clone(d.bidKeys),
		tracking:  slices.Clone(d.tracking),
	}
}

// MemoryStore - реализация Store в памяти процесса.
// Транзакции выполняются строго последовательно; изменения транзакции применяются
// только если её функция завершилась без ошибки.
type MemoryStore struct {
	mu   sync.RWMutex
	data *memoryData
	now  func() time.Time
}

// NewMemoryStore создает пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: &memoryData{
			loads:   map[string]models.Load{},
			bids:    map[string]models.Bid{},
			bidKeys: map[bidKey]string{},
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// WithinTx выполняет fn над копией данных и публикует её при успехе.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{data: s.data.clone(), now: s.now}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = tx.data
	return nil
}

// snapshot возвращает опубликованный снимок. Снимок после публикации не изменяется,
// поэтому читать его можно без блокировки.
func (s *MemoryStore) snapshot() *memoryData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

// GetLoadById возвращает груз по идентификатору.
func (s *MemoryStore) GetLoadById(_ context.Context, loadId string) (*models.Load, error) {
	load, ok := s.snapshot().loads[loadId]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneLoad(load), nil
}

// GetLoads возвращает список грузов по фильтру, новые первыми.
func (s *MemoryStore) GetLoads(_ context.Context, filter models.LoadFilter) ([]models.Load, error) {
	data := s.snapshot()
	matched := []models.Load{}
	for i := len(data.loadOrder) - 1; i >= 0; i-- {
		load := data.loads[data.loadOrder[i]]
		if filter.ShipperId != "" && load.ShipperId != filter.ShipperId {
			continue
		}
		if len(filter.Statuses) > 0 && !lo.Contains(filter.Statuses, load.Status) {
			continue
		}
		if filter.LoadType != "" && load.LoadType != filter.LoadType {
			continue
		}
		if filter.Unassigned && load.AssignedTrucker != nil {
			continue
		}
		if filter.DeadlineFrom != nil && !load.BiddingDeadline.After(*filter.DeadlineFrom) {
			continue
		}
		matched = append(matched, *cloneLoad(load))
	}
	return page(matched, filter.Limit, filter.Offset), nil
}

// CountLoadsByStatus возвращает количество грузов в каждом статусе.
func (s *MemoryStore) CountLoadsByStatus(_ context.Context) (map[models.LoadStatus]int, error) {
	counts := make(map[models.LoadStatus]int, len(models.LoadStatuses))
	for _, status := range models.LoadStatuses {
		counts[status] = 0
	}
	for _, load := range s.snapshot().loads {
		counts[load.Status]++
	}
	return counts, nil
}

// GetBidById возвращает предложение по идентификатору.
func (s *MemoryStore) GetBidById(_ context.Context, bidId string) (*models.Bid, error) {
	bid, ok := s.snapshot().bids[bidId]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBid(bid), nil
}

// GetLoadBids возвращает все предложения по грузу, самые дешёвые первыми.
func (s *MemoryStore) GetLoadBids(_ context.Context, loadId string) ([]models.Bid, error) {
	data := s.snapshot()
	bids := []models.Bid{}
	for _, id := range data.bidOrder {
		if bid := data.bids[id]; bid.LoadId == loadId {
			bids = append(bids, *cloneBid(bid))
		}
	}
	sort.SliceStable(bids, func(i, j int) bool { return bids[i].Amount < bids[j].Amount })
	return bids, nil
}

// GetTruckerBid возвращает предложение перевозчика по грузу.
func (s *MemoryStore) GetTruckerBid(_ context.Context, loadId, truckerId string) (*models.Bid, error) {
	data := s.snapshot()
	id, ok := data.bidKeys[bidKey{loadId: loadId, truckerId: truckerId}]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBid(data.bids[id]), nil
}

// GetTruckerBids возвращает предложения перевозчика, новые первыми.
func (s *MemoryStore) GetTruckerBids(_ context.Context, truckerId string, limit, offset int) ([]models.Bid, error) {
	data := s.snapshot()
	bids := []models.Bid{}
	for i := len(data.bidOrder) - 1; i >= 0; i-- {
		if bid := data.bids[data.bidOrder[i]]; bid.TruckerId == truckerId {
			bids = append(bids, *cloneBid(bid))
		}
	}
	return page(bids, limit, offset), nil
}

// GetLoadTracking возвращает отметки перевозки по грузу, новые первыми.
func (s *MemoryStore) GetLoadTracking(_ context.Context, loadId string, limit, offset int) ([]models.TrackingUpdate, error) {
	data := s.snapshot()
	updates := []models.TrackingUpdate{}
	for i := len(data.tracking) - 1; i >= 0; i-- {
		if u := data.tracking[i]; u.LoadId == loadId {
			u.Location.Coordinates = slices.Clone(u.Location.Coordinates)
			updates = append(updates, u)
		}
	}
	return page(updates, limit, offset), nil
}

// memoryTx - реализация Tx над копией данных MemoryStore.
type memoryTx struct {
	data *memoryData
	now  func() time.Time
}

func (t *memoryTx) GetLoadForUpdate(_ context.Context, loadId string) (*models.Load, error) {
	load, ok := t.data.loads[loadId]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneLoad(load), nil
}

func (t *memoryTx) GetBidForUpdate(_ context.Context, bidId string) (*models.Bid, error) {
	bid, ok := t.data.bids[bidId]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBid(bid), nil
}

func (t *memoryTx) CreateLoad(_ context.Context, load *models.Load) error {
	t.data.loads[load.ID] = *cloneLoad(*load)
	t.data.loadOrder = append(t.data.loadOrder, load.ID)
	return nil
}

func (t *memoryTx) UpdateLoadDetails(_ context.Context, load *models.Load) error {
	current, ok := t.data.loads[load.ID]
	if !ok {
		return ErrNotFound
	}
	updated := *cloneLoad(*load)
	updated.ShipperId = current.ShipperId
	updated.AssignedTrucker = current.AssignedTrucker
	updated.AcceptedBid = current.AcceptedBid
	updated.CreatedAt = current.CreatedAt
	updated.Version = current.Version + 1
	updated.UpdatedAt = t.now()
	t.data.loads[load.ID] = updated

	load.Version = updated.Version
	load.UpdatedAt = updated.UpdatedAt
	return nil
}

func (t *memoryTx) DeleteLoad(_ context.Context, loadId string) error {
	if _, ok := t.data.loads[loadId]; !ok {
		return ErrNotFound
	}
	delete(t.data.loads, loadId)
	t.data.loadOrder = lo.Without(t.data.loadOrder, loadId)
	for id, bid := range t.data.bids {
		if bid.LoadId == loadId {
			delete(t.data.bids, id)
			delete(t.data.bidKeys, bidKey{loadId: bid.LoadId, truckerId: bid.TruckerId})
			t.data.bidOrder = lo.Without(t.data.bidOrder, id)
		}
	}
	t.data.tracking = lo.Filter(t.data.tracking, func(u models.TrackingUpdate, _ int) bool {
		return u.LoadId != loadId
	})
	return nil
}

func (t *memoryTx) SetLoadStatus(_ context.Context, loadId string, status models.LoadStatus) (*models.Load, error) {
	load, ok := t.data.loads[loadId]
	if !ok {
		return nil, ErrNotFound
	}
	load.Status = status
	load.Version++
	load.UpdatedAt = t.now()
	t.data.loads[loadId] = load
	return cloneLoad(load), nil
}

func (t *memoryTx) AssignLoad(_ context.Context, loadId, truckerId, bidId string) (*models.Load, error) {
	load, ok := t.data.loads[loadId]
	if !ok || load.AssignedTrucker != nil {
		return nil, ErrNotFound
	}
	load.Status = models.AssignedLoad
	load.AssignedTrucker = lo.ToPtr(truckerId)
	load.AcceptedBid = lo.ToPtr(bidId)
	load.Version++
	load.UpdatedAt = t.now()
	t.data.loads[loadId] = load
	return cloneLoad(load), nil
}

func (t *memoryTx) CreateBid(_ context.Context, bid *models.Bid) error {
	key := bidKey{loadId: bid.LoadId, truckerId: bid.TruckerId}
	if _, exists := t.data.bidKeys[key]; exists {
		return ErrDuplicateBid
	}
	t.data.bids[bid.ID] = *cloneBid(*bid)
	t.data.bidKeys[key] = bid.ID
	t.data.bidOrder = append(t.data.bidOrder, bid.ID)
	return nil
}

func (t *memoryTx) UpdateBidTerms(_ context.Context, bid *models.Bid) error {
	current, ok := t.data.bids[bid.ID]
	if !ok {
		return ErrNotFound
	}
	current.Amount = bid.Amount
	current.ProposedPickupDate = bid.ProposedPickupDate
	current.ProposedDeliveryDate = bid.ProposedDeliveryDate
	current.Notes = bid.Notes
	current.Version++
	current.UpdatedAt = t.now()
	t.data.bids[bid.ID] = *cloneBid(current)

	bid.Version = current.Version
	bid.UpdatedAt = current.UpdatedAt
	return nil
}

func (t *memoryTx) SetBidStatus(_ context.Context, bidId string, status models.BidStatus) (*models.Bid, error) {
	bid, ok := t.data.bids[bidId]
	if !ok {
		return nil, ErrNotFound
	}
	if status == models.AcceptedBid {
		for id, other := range t.data.bids {
			if id != bidId && other.LoadId == bid.LoadId && other.Status == models.AcceptedBid {
				return nil, ErrAcceptedBidExists
			}
		}
	}
	bid.Status = status
	bid.Version++
	bid.UpdatedAt = t.now()
	t.data.bids[bidId] = bid
	return cloneBid(bid), nil
}

func (t *memoryTx) RejectLoadBids(_ context.Context, loadId, exceptBidId string) ([]models.Bid, error) {
	rejected := []models.Bid{}
	for _, id := range t.data.bidOrder {
		bid := t.data.bids[id]
		if bid.LoadId != loadId || id == exceptBidId || bid.Status == models.RejectedBid {
			continue
		}
		bid.Status = models.RejectedBid
		bid.Version++
		bid.UpdatedAt = t.now()
		t.data.bids[id] = bid
		rejected = append(rejected, *cloneBid(bid))
	}
	return rejected, nil
}

func (t *memoryTx) CreateTracking(_ context.Context, update *models.TrackingUpdate) error {
	u := *update
	u.Location.Coordinates = slices.Clone(u.Location.Coordinates)
	t.data.tracking = append(t.data.tracking, u)
	return nil
}

func cloneLoad(load models.Load) *models.Load {
	load.PickupLocation.Coordinates = slices.Clone(load.PickupLocation.Coordinates)
	load.DeliveryLocation.Coordinates = slices.Clone(load.DeliveryLocation.Coordinates)
	load.SpecialRequirements = slices.Clone(load.SpecialRequirements)
	if load.AssignedTrucker != nil {
		load.AssignedTrucker = lo.ToPtr(*load.AssignedTrucker)
	}
	if load.AcceptedBid != nil {
		load.AcceptedBid = lo.ToPtr(*load.AcceptedBid)
	}
	return &load
}

func cloneBid(bid models.Bid) *models.Bid {
	if bid.ProposedPickupDate != nil {
		bid.ProposedPickupDate = lo.ToPtr(*bid.ProposedPickupDate)
	}
	if bid.ProposedDeliveryDate != nil {
		bid.ProposedDeliveryDate = lo.ToPtr(*bid.ProposedDeliveryDate)
	}
	return &bid
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
