package models

import (
	"time"

	"github.com/samber/lo"
)

type LoadStatus string // Статус груза

const (
	PendingLoad   LoadStatus = "pending"    // Груз создан, торги не открыты
	OpenLoad      LoadStatus = "open"       // Открыт для предложений
	AssignedLoad  LoadStatus = "assigned"   // Назначен перевозчику
	InTransitLoad LoadStatus = "in_transit" // В пути
	DeliveredLoad LoadStatus = "delivered"  // Доставлен
	CompletedLoad LoadStatus = "completed"  // Завершён грузоотправителем
	CancelledLoad LoadStatus = "cancelled"  // Отменён
)

// LoadStatuses перечисляет все допустимые статусы груза.
var LoadStatuses = []LoadStatus{
	PendingLoad, OpenLoad, AssignedLoad, InTransitLoad, DeliveredLoad, CompletedLoad, CancelledLoad,
}

// allowedLoadTransitions описывает допустимые переходы статусов груза.
var allowedLoadTransitions = map[LoadStatus][]LoadStatus{
	PendingLoad:   {OpenLoad, CancelledLoad},
	OpenLoad:      {OpenLoad, AssignedLoad, CancelledLoad},
	AssignedLoad:  {InTransitLoad, CancelledLoad},
	InTransitLoad: {DeliveredLoad, CancelledLoad},
	DeliveredLoad: {CompletedLoad},
	CompletedLoad: {},
	CancelledLoad: {},
}

// Valid сообщает, является ли значение известным статусом.
func (s LoadStatus) Valid() bool {
	return lo.Contains(LoadStatuses, s)
}

// CanTransitionTo проверяет, разрешён ли переход из текущего статуса в next.
func (s LoadStatus) CanTransitionTo(next LoadStatus) bool {
	return lo.Contains(allowedLoadTransitions[s], next)
}

// IsTerminal сообщает, что из статуса нет переходов.
func (s LoadStatus) IsTerminal() bool {
	return len(allowedLoadTransitions[s]) == 0
}

// Location описывает адрес и координаты [lng, lat].
type Location struct {
	Address     string    `json:"address" validate:"required"`
	Coordinates []float64 `json:"coordinates,omitempty" validate:"omitempty,len=2"`
}

// Dimensions описывает габариты груза.
type Dimensions struct {
	Length float64 `json:"length" validate:"gte=0"`
	Width  float64 `json:"width" validate:"gte=0"`
	Height float64 `json:"height" validate:"gte=0"`
}

// Load представляет модель груза.
type Load struct {
	ID                  string     `json:"id"`
	ShipperId           string     `json:"shipper"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	PickupLocation      Location   `json:"pickupLocation"`
	DeliveryLocation    Location   `json:"deliveryLocation"`
	PickupDate          time.Time  `json:"pickupDate"`
	DeliveryDate        time.Time  `json:"deliveryDate"`
	Weight              float64    `json:"weight"`
	Dimensions          Dimensions `json:"dimensions"`
	LoadType            string     `json:"loadType"`
	SpecialRequirements []string   `json:"specialRequirements"`
	Budget              float64    `json:"budget"`
	Status              LoadStatus `json:"status"`
	AssignedTrucker     *string    `json:"assignedTrucker"`
	AcceptedBid         *string    `json:"acceptedBid"`
	BiddingDeadline     time.Time  `json:"biddingDeadline"`
	Version             int        `json:"version"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

// IsAssigned сообщает, что груз уже закреплён за перевозчиком.
func (l *Load) IsAssigned() bool {
	return l.AssignedTrucker != nil
}

// IsAssignedTo проверяет, что груз закреплён за указанным перевозчиком.
func (l *Load) IsAssignedTo(truckerId string) bool {
	return l.AssignedTrucker != nil && *l.AssignedTrucker == truckerId
}

// BiddingClosed сообщает, что срок подачи предложений истёк к моменту now.
func (l *Load) BiddingClosed(now time.Time) bool {
	return !now.Before(l.BiddingDeadline)
}

// AcceptsBids сообщает, можно ли подать или изменить предложение к моменту now.
func (l *Load) AcceptsBids(now time.Time) bool {
	return l.Status == OpenLoad && !l.IsAssigned() && !l.BiddingClosed(now)
}

// IsEditable сообщает, можно ли менять или удалять груз.
func (l *Load) IsEditable() bool {
	return (l.Status == PendingLoad || l.Status == OpenLoad) && !l.IsAssigned()
}

// LoadRequest представляет структуру запроса для создания груза.
type LoadRequest struct {
	Title               string     `json:"title" validate:"required"`
	Description         string     `json:"description" validate:"required"`
	PickupLocation      Location   `json:"pickupLocation"`
	DeliveryLocation    Location   `json:"deliveryLocation"`
	PickupDate          time.Time  `json:"pickupDate" validate:"required"`
	DeliveryDate        time.Time  `json:"deliveryDate" validate:"required,gtefield=PickupDate"`
	Weight              float64    `json:"weight" validate:"gt=0"`
	Dimensions          Dimensions `json:"dimensions"`
	LoadType            string     `json:"loadType" validate:"required"`
	SpecialRequirements []string   `json:"specialRequirements"`
	Budget              float64    `json:"budget" validate:"gt=0"`
	BiddingDeadline     time.Time  `json:"biddingDeadline" validate:"required"`
	Status              LoadStatus `json:"status" validate:"omitempty,oneof=pending open"`
}

// LoadUpdate содержит изменяемые поля груза. Отсутствующие поля не меняются.
type LoadUpdate struct {
	Title               *string     `json:"title" validate:"omitempty,min=1"`
	Description         *string     `json:"description" validate:"omitempty,min=1"`
	PickupLocation      *Location   `json:"pickupLocation"`
	DeliveryLocation    *Location   `json:"deliveryLocation"`
	PickupDate          *time.Time  `json:"pickupDate"`
	DeliveryDate        *time.Time  `json:"deliveryDate"`
	Weight              *float64    `json:"weight" validate:"omitempty,gt=0"`
	Dimensions          *Dimensions `json:"dimensions"`
	LoadType            *string     `json:"loadType" validate:"omitempty,min=1"`
	SpecialRequirements []string    `json:"specialRequirements"`
	Budget              *float64    `json:"budget" validate:"omitempty,gt=0"`
	BiddingDeadline     *time.Time  `json:"biddingDeadline"`
	Status              *LoadStatus `json:"status"`
}

// LoadFilter задаёт параметры выборки грузов.
type LoadFilter struct {
	Statuses     []LoadStatus
	LoadType     string
	ShipperId    string
	Unassigned   bool
	DeadlineFrom *time.Time
	Limit        int
	Offset       int
}
