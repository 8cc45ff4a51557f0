package models

import (
	"time"

	"github.com/samber/lo"
)

type BidStatus string // Статус предложения

const (
	PendingBid   BidStatus = "pending"   // Предложение ожидает решения
	AcceptedBid  BidStatus = "accepted"  // Предложение принято грузоотправителем
	RejectedBid  BidStatus = "rejected"  // Предложение отклонено
	WithdrawnBid BidStatus = "withdrawn" // Предложение отозвано перевозчиком
)

// BidStatuses перечисляет все допустимые статусы предложения.
var BidStatuses = []BidStatus{PendingBid, AcceptedBid, RejectedBid, WithdrawnBid}

// Valid сообщает, является ли значение известным статусом.
func (s BidStatus) Valid() bool {
	return lo.Contains(BidStatuses, s)
}

// IsFinal сообщает, что решение по предложению уже принято.
func (s BidStatus) IsFinal() bool {
	return s == AcceptedBid || s == RejectedBid
}

// Bid представляет модель предложения перевозчика.
type Bid struct {
	ID                   string     `json:"id"`
	LoadId               string     `json:"load"`
	TruckerId            string     `json:"trucker"`
	Amount               float64    `json:"amount"`
	ProposedPickupDate   *time.Time `json:"proposedPickupDate,omitempty"`
	ProposedDeliveryDate *time.Time `json:"proposedDeliveryDate,omitempty"`
	Notes                string     `json:"notes"`
	Status               BidStatus  `json:"status"`
	Version              int        `json:"version"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// BidRequest представляет структуру запроса для создания предложения.
type BidRequest struct {
	LoadId               string     `json:"load" validate:"required"`
	Amount               float64    `json:"amount" validate:"gt=0"`
	ProposedPickupDate   *time.Time `json:"proposedPickupDate"`
	ProposedDeliveryDate *time.Time `json:"proposedDeliveryDate"`
	Notes                string     `json:"notes" validate:"max=2000"`
}

// BidUpdate содержит изменяемые поля предложения. Статус этим путём не меняется.
type BidUpdate struct {
	Amount               *float64   `json:"amount" validate:"omitempty,gt=0"`
	ProposedPickupDate   *time.Time `json:"proposedPickupDate"`
	ProposedDeliveryDate *time.Time `json:"proposedDeliveryDate"`
	Notes                *string    `json:"notes" validate:"omitempty,max=2000"`
}

// Empty сообщает, что в запросе нет ни одного поля для изменения.
func (u BidUpdate) Empty() bool {
	return u.Amount == nil && u.ProposedPickupDate == nil && u.ProposedDeliveryDate == nil && u.Notes == nil
}

// Apply переносит заданные поля в предложение.
func (u BidUpdate) Apply(bid *Bid) {
	if u.Amount != nil {
		bid.Amount = *u.Amount
	}
	if u.ProposedPickupDate != nil {
		bid.ProposedPickupDate = u.ProposedPickupDate
	}
	if u.ProposedDeliveryDate != nil {
		bid.ProposedDeliveryDate = u.ProposedDeliveryDate
	}
	if u.Notes != nil {
		bid.Notes = *u.Notes
	}
}
