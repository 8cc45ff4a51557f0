package services

import (
	"context"
	"errors"
	"time"

	"github.com/senyabanana/loadboard-service/internal/models"
	"github.com/senyabanana/loadboard-service/internal/repository"
)

// AssignmentService принимает и отклоняет предложения и назначает груз перевозчику.
type AssignmentService struct {
	Store    repository.Store
	Notifier Notifier
	Now      func() time.Time
}

// NewAssignmentService создает новый экземпляр AssignmentService.
func NewAssignmentService(store repository.Store, notifier Notifier) *AssignmentService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &AssignmentService{Store: store, Notifier: notifier, Now: utcNow}
}

// AcceptBid принимает предложение: груз назначается перевозчику, остальные предложения отклоняются.
func (s *AssignmentService) AcceptBid(ctx context.Context, actor models.Actor, bidId string) (*models.Bid, error) {
	if err := requireRole(actor, models.ShipperRole); err != nil {
		return nil, err
	}

	var accepted *models.Bid
	var events []Event
	err := lockBid(ctx, s.Store, bidId, func(tx repository.Tx, load *models.Load, bid *models.Bid) error {
		if load.ShipperId != actor.ID {
			return models.NewErrorResponse(models.ForbiddenError, "not authorized to accept this bid")
		}
		var err error
		accepted, _, events, err = s.accept(ctx, tx, load, bid)
		return err
	})
	if err != nil {
		return nil, err
	}

	notifyAll(ctx, s.Notifier, events)
	return accepted, nil
}

// RejectBid отклоняет предложение по открытому грузу. Груз не меняется.
func (s *AssignmentService) RejectBid(ctx context.Context, actor models.Actor, bidId string) (*models.Bid, error) {
	if err := requireRole(actor, models.ShipperRole); err != nil {
		return nil, err
	}

	var rejected *models.Bid
	err := lockBid(ctx, s.Store, bidId, func(tx repository.Tx, load *models.Load, bid *models.Bid) error {
		if load.ShipperId != actor.ID {
			return models.NewErrorResponse(models.ForbiddenError, "not authorized to reject this bid")
		}
		if load.Status != models.OpenLoad {
			return models.NewErrorResponse(models.InvalidStateError, "cannot reject bids for a load that is not open")
		}
		if bid.Status == models.AcceptedBid {
			return models.NewErrorResponse(models.InvalidStateError, "cannot reject a bid that has been accepted")
		}

		var err error
		rejected, err = tx.SetBidStatus(ctx, bidId, models.RejectedBid)
		return storeError(err, "bid", bidId)
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, Event{Type: BidRejected, Recipients: []string{rejected.TruckerId}, Payload: rejected})
	return rejected, nil
}

// AssignLoad назначает груз по предложению bidId, которое должно относиться к этому грузу.
func (s *AssignmentService) AssignLoad(ctx context.Context, actor models.Actor, loadId, bidId string) (*models.Load, error) {
	if err := requireRole(actor, models.ShipperRole); err != nil {
		return nil, err
	}
	if bidId == "" {
		return nil, models.NewErrorResponse(models.ValidationError, "bidId is required")
	}

	ref, err := s.Store.GetBidById(ctx, bidId)
	if err != nil {
		return nil, storeError(err, "bid", bidId)
	}

	var assigned *models.Load
	var events []Event
	err = s.Store.WithinTx(ctx, func(tx repository.Tx) error {
		load, err := tx.GetLoadForUpdate(ctx, loadId)
		if err != nil {
			return storeError(err, "load", loadId)
		}
		if load.ShipperId != actor.ID {
			return models.NewErrorResponse(models.ForbiddenError, "not authorized to assign this load")
		}
		if load.IsAssigned() {
			return models.NewErrorResponse(models.InvalidStateError, "load is already assigned")
		}
		if ref.LoadId != load.ID {
			return models.NewErrorResponse(models.ConflictError, "bid %s does not belong to load %s", bidId, loadId)
		}

		bid, err := tx.GetBidForUpdate(ctx, bidId)
		if err != nil {
			return storeError(err, "bid", bidId)
		}
		_, assigned, events, err = s.accept(ctx, tx, load, bid)
		return err
	})
	if err != nil {
		return nil, err
	}

	notifyAll(ctx, s.Notifier, events)
	return assigned, nil
}

// accept проверяет, что предложение можно принять, и выполняет назначение внутри транзакции tx.
// Груз и предложение должны быть заблокированы вызывающим.
func (s *AssignmentService) accept(ctx context.Context, tx repository.Tx, load *models.Load, bid *models.Bid) (*models.Bid, *models.Load, []Event, error) {
	if err := biddingError(load, s.Now()); err != nil {
		return nil, nil, nil, err
	}
	if bid.Status != models.PendingBid {
		return nil, nil, nil, models.NewErrorResponse(models.InvalidStateError, "cannot accept a bid that has been %s", bid.Status)
	}

	accepted, err := tx.SetBidStatus(ctx, bid.ID, models.AcceptedBid)
	if err != nil {
		return nil, nil, nil, storeError(err, "bid", bid.ID)
	}
	assigned, err := tx.AssignLoad(ctx, load.ID, bid.TruckerId, bid.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, nil, models.NewErrorResponse(models.InvalidStateError, "load is already assigned")
	}
	if err != nil {
		return nil, nil, nil, err
	}
	rejected, err := tx.RejectLoadBids(ctx, load.ID, bid.ID)
	if err != nil {
		return nil, nil, nil, err
	}

	events := []Event{
		{Type: BidAccepted, Recipients: []string{accepted.TruckerId}, Payload: accepted},
		{Type: LoadAssigned, Recipients: loadParties(assigned), Payload: assigned},
	}
	for i := range rejected {
		events = append(events, Event{Type: BidRejected, Recipients: []string{rejected[i].TruckerId}, Payload: &rejected[i]})
	}
	return accepted, assigned, events, nil
}
