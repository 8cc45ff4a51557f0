package services

import (
	"context"
	"time"

	"github.com/senyabanana/loadboard-service/internal/models"
	"github.com/senyabanana/loadboard-service/internal/repository"

	"github.com/google/uuid"
)

// LoadService отвечает за публикацию, изменение и просмотр грузов.
type LoadService struct {
	Store    repository.Store
	Notifier Notifier
	Now      func() time.Time
}

// NewLoadService создает новый экземпляр LoadService.
func NewLoadService(store repository.Store, notifier Notifier) *LoadService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &LoadService{Store: store, Notifier: notifier, Now: utcNow}
}

// CreateLoad публикует новый груз грузоотправителя в статусе pending или open.
func (s *LoadService) CreateLoad(ctx context.Context, actor models.Actor, req models.LoadRequest) (*models.Load, error) {
	if err := requireRole(actor, models.ShipperRole); err != nil {
		return nil, err
	}
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	now := s.Now()
	if !req.BiddingDeadline.After(now) {
		return nil, models.NewErrorResponse(models.ValidationError, "bidding deadline must be in the future")
	}

	status := req.Status
	if status == "" {
		status = models.PendingLoad
	}
	load := &models.Load{
		ID:                  uuid.NewString(),
		ShipperId:           actor.ID,
		Title:               req.Title,
		Description:         req.Description,
		PickupLocation:      req.PickupLocation,
		DeliveryLocation:    req.DeliveryLocation,
		PickupDate:          req.PickupDate,
		DeliveryDate:        req.DeliveryDate,
		Weight:              req.Weight,
		Dimensions:          req.Dimensions,
		LoadType:            req.LoadType,
		SpecialRequirements: req.SpecialRequirements,
		Budget:              req.Budget,
		Status:              status,
		BiddingDeadline:     req.BiddingDeadline,
		Version:             1,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if load.SpecialRequirements == nil {
		load.SpecialRequirements = []string{}
	}

	err := s.Store.WithinTx(ctx, func(tx repository.Tx) error {
		return tx.CreateLoad(ctx, load)
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, Event{Type: LoadCreated, Recipients: []string{load.ShipperId}, Payload: load})
	return load, nil
}

// GetLoad возвращает груз по идентификатору.
func (s *LoadService) GetLoad(ctx context.Context, loadId string) (*models.Load, error) {
	load, err := s.Store.GetLoadById(ctx, loadId)
	if err != nil {
		return nil, storeError(err, "load", loadId)
	}
	return load, nil
}

// GetLoads возвращает список грузов по фильтру.
func (s *LoadService) GetLoads(ctx context.Context, filter models.LoadFilter) ([]models.Load, error) {
	for _, status := range filter.Statuses {
		if !status.Valid() {
			return nil, models.NewErrorResponse(models.ValidationError, "invalid load status %q", status)
		}
	}
	return s.Store.GetLoads(ctx, filter)
}

// GetShipperLoads возвращает грузы текущего грузоотправителя.
func (s *LoadService) GetShipperLoads(ctx context.Context, actor models.Actor, limit, offset int) ([]models.Load, error) {
	if err := requireRole(actor, models.ShipperRole); err != nil {
		return nil, err
	}
	return s.Store.GetLoads(ctx, models.LoadFilter{ShipperId: actor.ID, Limit: limit, Offset: offset})
}

// GetAvailableLoads возвращает открытые, не назначенные грузы с незакрытым сроком подачи предложений.
func (s *LoadService) GetAvailableLoads(ctx context.Context, actor models.Actor, loadType string, limit, offset int) ([]models.Load, error) {
	if err := requireRole(actor, models.TruckerRole); err != nil {
		return nil, err
	}
	now := s.Now()
	return s.Store.GetLoads(ctx, models.LoadFilter{
		Statuses:     []models.LoadStatus{models.OpenLoad},
		LoadType:     loadType,
		Unassigned:   true,
		DeadlineFrom: &now,
		Limit:        limit,
		Offset:       offset,
	})
}

// UpdateLoad меняет поля груза до его назначения. Статус можно только перевести в open.
func (s *LoadService) UpdateLoad(ctx context.Context, actor models.Actor, loadId string, upd models.LoadUpdate) (*models.Load, error) {
	if err := requireRole(actor, models.ShipperRole); err != nil {
		return nil, err
	}
	if err := validateRequest(upd); err != nil {
		return nil, err
	}

	var updated *models.Load
	err := s.Store.WithinTx(ctx, func(tx repository.Tx) error {
		load, err := tx.GetLoadForUpdate(ctx, loadId)
		if err != nil {
			return storeError(err, "load", loadId)
		}
		if load.ShipperId != actor.ID {
			return models.NewErrorResponse(models.ForbiddenError, "not authorized to update this load")
		}
		if !load.IsEditable() {
			return models.NewErrorResponse(models.InvalidStateError, "cannot update a load that is already assigned or in progress")
		}
		if upd.Status != nil && (*upd.Status != models.OpenLoad || !load.Status.CanTransitionTo(*upd.Status)) {
			return models.NewErrorResponse(models.InvalidStateError, "load status can only be changed to %s by editing", models.OpenLoad)
		}

		applyLoadUpdate(load, upd)
		if load.DeliveryDate.Before(load.PickupDate) {
			return models.NewErrorResponse(models.ValidationError, "delivery date must not be before pickup date")
		}
		if err := tx.UpdateLoadDetails(ctx, load); err != nil {
			return storeError(err, "load", loadId)
		}
		updated = load
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, Event{Type: LoadStatusChanged, Recipients: loadParties(updated), Payload: updated})
	return updated, nil
}

// DeleteLoad удаляет груз до его назначения вместе с предложениями.
func (s *LoadService) DeleteLoad(ctx context.Context, actor models.Actor, loadId string) error {
	if err := requireRole(actor, models.ShipperRole); err != nil {
		return err
	}
	return s.Store.WithinTx(ctx, func(tx repository.Tx) error {
		load, err := tx.GetLoadForUpdate(ctx, loadId)
		if err != nil {
			return storeError(err, "load", loadId)
		}
		if load.ShipperId != actor.ID {
			return models.NewErrorResponse(models.ForbiddenError, "not authorized to delete this load")
		}
		if !load.IsEditable() {
			return models.NewErrorResponse(models.InvalidStateError, "cannot delete a load that is already assigned or in progress")
		}
		return storeError(tx.DeleteLoad(ctx, loadId), "load", loadId)
	})
}

// LoadStats возвращает количество грузов в каждом статусе.
func (s *LoadService) LoadStats(ctx context.Context, actor models.Actor) (map[models.LoadStatus]int, error) {
	if err := requireRole(actor, models.AdminRole); err != nil {
		return nil, err
	}
	return s.Store.CountLoadsByStatus(ctx)
}

func applyLoadUpdate(load *models.Load, upd models.LoadUpdate) {
	if upd.Title != nil {
		load.Title = *upd.Title
	}
	if upd.Description != nil {
		load.Description = *upd.Description
	}
	if upd.PickupLocation != nil {
		load.PickupLocation = *upd.PickupLocation
	}
	if upd.DeliveryLocation != nil {
		load.DeliveryLocation = *upd.DeliveryLocation
	}
	if upd.PickupDate != nil {
		load.PickupDate = *upd.PickupDate
	}
	if upd.DeliveryDate != nil {
		load.DeliveryDate = *upd.DeliveryDate
	}
	if upd.Weight != nil {
		load.Weight = *upd.Weight
	}
	if upd.Dimensions != nil {
		load.Dimensions = *upd.Dimensions
	}
	if upd.LoadType != nil {
		load.LoadType = *upd.LoadType
	}
	if upd.SpecialRequirements != nil {
		load.SpecialRequirements = upd.SpecialRequirements
	}
	if upd.Budget != nil {
		load.Budget = *upd.Budget
	}
	if upd.BiddingDeadline != nil {
		load.BiddingDeadline = *upd.BiddingDeadline
	}
	if upd.Status != nil {
		load.Status = *upd.Status
	}
}
