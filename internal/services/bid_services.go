package services

import (
	"context"
	"errors"
	"time"

	"github.com/senyabanana/loadboard-service/internal/models"
	"github.com/senyabanana/loadboard-service/internal/repository"

	"github.com/google/uuid"
)

// BidService отвечает за подачу, изменение и отзыв предложений перевозчиков.
type BidService struct {
	Store    repository.Store
	Notifier Notifier
	Now      func() time.Time
}

// NewBidService создает новый экземпляр BidService.
func NewBidService(store repository.Store, notifier Notifier) *BidService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &BidService{Store: store, Notifier: notifier, Now: utcNow}
}

// PlaceBid создает новое предложение перевозчика по открытому грузу.
func (s *BidService) PlaceBid(ctx context.Context, actor models.Actor, req models.BidRequest) (*models.Bid, error) {
	if err := requireRole(actor, models.TruckerRole); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := checkDates(req.ProposedPickupDate, req.ProposedDeliveryDate); err != nil {
		return nil, err
	}

	var bid *models.Bid
	var shipperId string
	err := s.Store.WithinTx(ctx, func(tx repository.Tx) error {
		load, err := tx.GetLoadForUpdate(ctx, req.LoadId)
		if err != nil {
			return storeError(err, "load", req.LoadId)
		}
		now := s.Now()
		if err := biddingError(load, now); err != nil {
			return err
		}

		bid = &models.Bid{
			ID:                   uuid.NewString(),
			LoadId:               load.ID,
			TruckerId:            actor.ID,
			Amount:               req.Amount,
			ProposedPickupDate:   req.ProposedPickupDate,
			ProposedDeliveryDate: req.ProposedDeliveryDate,
			Notes:                req.Notes,
			Status:               models.PendingBid,
			Version:              1,
			CreatedAt:            now,
			UpdatedAt:            now,
		}
		shipperId = load.ShipperId
		return storeError(tx.CreateBid(ctx, bid), "bid", bid.ID)
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, Event{Type: BidPlaced, Recipients: []string{shipperId}, Payload: bid})
	return bid, nil
}

// UpdateBid меняет сумму, предлагаемые даты и комментарий предложения.
func (s *BidService) UpdateBid(ctx context.Context, actor models.Actor, bidId string, upd models.BidUpdate) (*models.Bid, error) {
	if err := requireRole(actor, models.TruckerRole); err != nil {
		return nil, err
	}
	if err := validateRequest(upd); err != nil {
		return nil, err
	}
	if upd.Empty() {
		return nil, models.NewErrorResponse(models.ValidationError, "no fields to update")
	}

	var bid *models.Bid
	var shipperId string
	err := lockBid(ctx, s.Store, bidId, func(tx repository.Tx, load *models.Load, locked *models.Bid) error {
		if locked.TruckerId != actor.ID {
			return models.NewErrorResponse(models.ForbiddenError, "not authorized to update this bid")
		}
		if locked.Status.IsFinal() {
			return models.NewErrorResponse(models.InvalidStateError, "cannot update a bid that has been %s", locked.Status)
		}
		if err := biddingError(load, s.Now()); err != nil {
			return err
		}

		upd.Apply(locked)
		if err := checkDates(locked.ProposedPickupDate, locked.ProposedDeliveryDate); err != nil {
			return err
		}
		if err := tx.UpdateBidTerms(ctx, locked); err != nil {
			return storeError(err, "bid", bidId)
		}
		bid, shipperId = locked, load.ShipperId
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, Event{Type: BidUpdated, Recipients: []string{shipperId}, Payload: bid})
	return bid, nil
}

// WithdrawBid отзывает предложение перевозчика.
func (s *BidService) WithdrawBid(ctx context.Context, actor models.Actor, bidId string) (*models.Bid, error) {
	if err := requireRole(actor, models.TruckerRole); err != nil {
		return nil, err
	}

	var bid *models.Bid
	var shipperId string
	err := lockBid(ctx, s.Store, bidId, func(tx repository.Tx, load *models.Load, locked *models.Bid) error {
		if locked.TruckerId != actor.ID {
			return models.NewErrorResponse(models.ForbiddenError, "not authorized to withdraw this bid")
		}
		if locked.Status != models.PendingBid {
			return models.NewErrorResponse(models.InvalidStateError, "cannot withdraw a bid that has been %s", locked.Status)
		}

		var err error
		bid, err = tx.SetBidStatus(ctx, bidId, models.WithdrawnBid)
		if err != nil {
			return storeError(err, "bid", bidId)
		}
		shipperId = load.ShipperId
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, Event{Type: BidWithdrawn, Recipients: []string{shipperId}, Payload: bid})
	return bid, nil
}

// GetBid возвращает предложение его автору, владельцу груза или администратору.
func (s *BidService) GetBid(ctx context.Context, actor models.Actor, bidId string) (*models.Bid, error) {
	bid, err := s.Store.GetBidById(ctx, bidId)
	if err != nil {
		return nil, storeError(err, "bid", bidId)
	}
	switch actor.Role {
	case models.AdminRole:
		return bid, nil
	case models.TruckerRole:
		if bid.TruckerId == actor.ID {
			return bid, nil
		}
	case models.ShipperRole:
		load, err := s.Store.GetLoadById(ctx, bid.LoadId)
		if err != nil {
			return nil, storeError(err, "load", bid.LoadId)
		}
		if load.ShipperId == actor.ID {
			return bid, nil
		}
	}
	return nil, models.NewErrorResponse(models.ForbiddenError, "not authorized to view this bid")
}

// GetLoadBids возвращает предложения по грузу. Владелец груза и администратор видят все
// предложения, перевозчик - только своё.
func (s *BidService) GetLoadBids(ctx context.Context, actor models.Actor, loadId string) ([]models.Bid, error) {
	load, err := s.Store.GetLoadById(ctx, loadId)
	if err != nil {
		return nil, storeError(err, "load", loadId)
	}

	switch actor.Role {
	case models.AdminRole:
		return s.Store.GetLoadBids(ctx, loadId)
	case models.ShipperRole:
		if load.ShipperId != actor.ID {
			return nil, models.NewErrorResponse(models.ForbiddenError, "not authorized to view bids for this load")
		}
		return s.Store.GetLoadBids(ctx, loadId)
	case models.TruckerRole:
		bid, err := s.Store.GetTruckerBid(ctx, loadId, actor.ID)
		if errors.Is(err, repository.ErrNotFound) {
			return []models.Bid{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []models.Bid{*bid}, nil
	default:
		return nil, requireRole(actor, models.AdminRole, models.ShipperRole, models.TruckerRole)
	}
}

// GetTruckerBids возвращает предложения текущего перевозчика.
func (s *BidService) GetTruckerBids(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Bid, error) {
	if err := requireRole(actor, models.TruckerRole); err != nil {
		return nil, err
	}
	return s.Store.GetTruckerBids(ctx, actor.ID, limit, offset)
}

// lockBid блокирует груз и предложение в одной транзакции и вызывает fn.
// Груз всегда блокируется первым.
func lockBid(ctx context.Context, store repository.Store, bidId string, fn func(tx repository.Tx, load *models.Load, bid *models.Bid) error) error {
	ref, err := store.GetBidById(ctx, bidId)
	if err != nil {
		return storeError(err, "bid", bidId)
	}
	return store.WithinTx(ctx, func(tx repository.Tx) error {
		load, err := tx.GetLoadForUpdate(ctx, ref.LoadId)
		if err != nil {
			return storeError(err, "load", ref.LoadId)
		}
		bid, err := tx.GetBidForUpdate(ctx, bidId)
		if err != nil {
			return storeError(err, "bid", bidId)
		}
		return fn(tx, load, bid)
	})
}
