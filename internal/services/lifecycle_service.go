package services

import (
	"context"
	"time"

	"github.com/senyabanana/loadboard-service/internal/models"
	"github.com/senyabanana/loadboard-service/internal/repository"

	"github.com/google/uuid"
)

// trackingTransitions - переходы статуса груза, которые вызывает отметка перевозчика.
var trackingTransitions = map[models.TrackingStatus]struct {
	from models.LoadStatus
	to   models.LoadStatus
}{
	models.TrackingPickedUp:  {from: models.AssignedLoad, to: models.InTransitLoad},
	models.TrackingDelivered: {from: models.InTransitLoad, to: models.DeliveredLoad},
}

// LifecycleService ведёт груз после назначения: доставка, завершение, отмена и отметки перевозки.
type LifecycleService struct {
	Store    repository.Store
	Notifier Notifier
	Now      func() time.Time
}

// NewLifecycleService создает новый экземпляр LifecycleService.
func NewLifecycleService(store repository.Store, notifier Notifier) *LifecycleService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &LifecycleService{Store: store, Notifier: notifier, Now: utcNow}
}

// MarkDelivered отмечает доставку груза назначенным перевозчиком.
func (s *LifecycleService) MarkDelivered(ctx context.Context, actor models.Actor, loadId string) (*models.Load, error) {
	if err := requireRole(actor, models.TruckerRole); err != nil {
		return nil, err
	}
	return s.transition(ctx, loadId, models.InTransitLoad, models.DeliveredLoad, func(load *models.Load) error {
		if !load.IsAssignedTo(actor.ID) {
			return models.NewErrorResponse(models.ForbiddenError, "only the assigned trucker can update this load")
		}
		return nil
	})
}

// MarkCompleted завершает доставленный груз по подтверждению грузоотправителя.
func (s *LifecycleService) MarkCompleted(ctx context.Context, actor models.Actor, loadId string) (*models.Load, error) {
	if err := requireRole(actor, models.ShipperRole); err != nil {
		return nil, err
	}
	return s.transition(ctx, loadId, models.DeliveredLoad, models.CompletedLoad, func(load *models.Load) error {
		if load.ShipperId != actor.ID {
			return models.NewErrorResponse(models.ForbiddenError, "not authorized to complete this load")
		}
		return nil
	})
}

// Cancel отменяет груз и отклоняет все предложения по нему, включая принятое.
func (s *LifecycleService) Cancel(ctx context.Context, actor models.Actor, loadId string) (*models.Load, error) {
	if err := requireRole(actor, models.ShipperRole); err != nil {
		return nil, err
	}

	var cancelled *models.Load
	var rejected []models.Bid
	err := s.Store.WithinTx(ctx, func(tx repository.Tx) error {
		load, err := tx.GetLoadForUpdate(ctx, loadId)
		if err != nil {
			return storeError(err, "load", loadId)
		}
		if load.ShipperId != actor.ID {
			return models.NewErrorResponse(models.ForbiddenError, "not authorized to cancel this load")
		}
		if !load.Status.CanTransitionTo(models.CancelledLoad) {
			return models.NewErrorResponse(models.InvalidStateError, "cannot cancel a load that is %s", load.Status)
		}

		if cancelled, err = tx.SetLoadStatus(ctx, loadId, models.CancelledLoad); err != nil {
			return storeError(err, "load", loadId)
		}
		rejected, err = tx.RejectLoadBids(ctx, loadId, "")
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, Event{Type: LoadCancelled, Recipients: loadParties(cancelled), Payload: cancelled})
	for i := range rejected {
		s.Notifier.Notify(ctx, Event{Type: BidRejected, Recipients: []string{rejected[i].TruckerId}, Payload: &rejected[i]})
	}
	return cancelled, nil
}

// ApplyTrackingUpdate сохраняет отметку перевозчика. Отметки picked_up и delivered
// переводят груз в in_transit и delivered соответственно.
func (s *LifecycleService) ApplyTrackingUpdate(ctx context.Context, actor models.Actor, req models.TrackingRequest) (*models.TrackingUpdate, error) {
	if err := requireRole(actor, models.TruckerRole); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if !req.Status.Valid() {
		return nil, models.NewErrorResponse(models.ValidationError, "invalid tracking status %q", req.Status)
	}
	return s.record(ctx, actor, req, TrackingCreated)
}

// ReportIssue сохраняет отметку о проблеме при перевозке. Статус груза не меняется.
func (s *LifecycleService) ReportIssue(ctx context.Context, actor models.Actor, loadId string, location models.Location, notes string) (*models.TrackingUpdate, error) {
	if err := requireRole(actor, models.TruckerRole); err != nil {
		return nil, err
	}
	req := models.TrackingRequest{
		LoadId:   loadId,
		Status:   models.TrackingIssueReported,
		Location: location,
		Notes:    notes,
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	return s.record(ctx, actor, req, TrackingIssue)
}

// GetLoadTracking возвращает историю отметок по грузу, новые первыми.
func (s *LifecycleService) GetLoadTracking(ctx context.Context, actor models.Actor, loadId string, limit, offset int) ([]models.TrackingUpdate, error) {
	if err := s.canViewTracking(ctx, actor, loadId); err != nil {
		return nil, err
	}
	return s.Store.GetLoadTracking(ctx, loadId, limit, offset)
}

// GetLatestTracking возвращает последнюю отметку по грузу или nil, если отметок нет.
func (s *LifecycleService) GetLatestTracking(ctx context.Context, actor models.Actor, loadId string) (*models.TrackingUpdate, error) {
	if err := s.canViewTracking(ctx, actor, loadId); err != nil {
		return nil, err
	}
	updates, err := s.Store.GetLoadTracking(ctx, loadId, 1, 0)
	if err != nil || len(updates) == 0 {
		return nil, err
	}
	return &updates[0], nil
}

func (s *LifecycleService) canViewTracking(ctx context.Context, actor models.Actor, loadId string) error {
	load, err := s.Store.GetLoadById(ctx, loadId)
	if err != nil {
		return storeError(err, "load", loadId)
	}
	switch {
	case actor.Is(models.AdminRole),
		actor.Is(models.ShipperRole) && load.ShipperId == actor.ID,
		actor.Is(models.TruckerRole) && load.IsAssignedTo(actor.ID):
		return nil
	default:
		return models.NewErrorResponse(models.ForbiddenError, "not authorized to view tracking for this load")
	}
}

// record сохраняет отметку и, если нужно, меняет статус груза в той же транзакции.
func (s *LifecycleService) record(ctx context.Context, actor models.Actor, req models.TrackingRequest, eventType EventType) (*models.TrackingUpdate, error) {
	var update *models.TrackingUpdate
	var changed *models.Load
	var parties []string
	err := s.Store.WithinTx(ctx, func(tx repository.Tx) error {
		load, err := tx.GetLoadForUpdate(ctx, req.LoadId)
		if err != nil {
			return storeError(err, "load", req.LoadId)
		}
		if !load.IsAssignedTo(actor.ID) {
			return models.NewErrorResponse(models.ForbiddenError, "not authorized to update tracking for this load")
		}
		if load.Status.IsTerminal() {
			return models.NewErrorResponse(models.InvalidStateError, "cannot track a load that is %s", load.Status)
		}

		if t, ok := trackingTransitions[req.Status]; ok && load.Status == t.from {
			if changed, err = tx.SetLoadStatus(ctx, load.ID, t.to); err != nil {
				return storeError(err, "load", load.ID)
			}
		}

		update = &models.TrackingUpdate{
			ID:               uuid.NewString(),
			LoadId:           load.ID,
			TruckerId:        actor.ID,
			Status:           req.Status,
			Location:         req.Location,
			Notes:            req.Notes,
			EstimatedArrival: req.EstimatedArrival,
			CreatedAt:        s.Now(),
		}
		parties = loadParties(load)
		return tx.CreateTracking(ctx, update)
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, Event{Type: eventType, Recipients: parties, Payload: update})
	if changed != nil {
		s.Notifier.Notify(ctx, Event{Type: LoadStatusChanged, Recipients: parties, Payload: changed})
	}
	return update, nil
}

// transition переводит груз из from в to после проверки authorize.
func (s *LifecycleService) transition(ctx context.Context, loadId string, from, to models.LoadStatus, authorize func(load *models.Load) error) (*models.Load, error) {
	var updated *models.Load
	err := s.Store.WithinTx(ctx, func(tx repository.Tx) error {
		load, err := tx.GetLoadForUpdate(ctx, loadId)
		if err != nil {
			return storeError(err, "load", loadId)
		}
		if err := authorize(load); err != nil {
			return err
		}
		if load.Status != from {
			return models.NewErrorResponse(models.InvalidStateError, "load must be %s to become %s, current status is %s", from, to, load.Status)
		}

		updated, err = tx.SetLoadStatus(ctx, loadId, to)
		return storeError(err, "load", loadId)
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, Event{Type: LoadStatusChanged, Recipients: loadParties(updated), Payload: updated})
	return updated, nil
}
