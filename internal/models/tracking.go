package models

import (
	"time"

	"github.com/samber/lo"
)

type TrackingStatus string // Статус отметки в журнале перевозки

const (
	TrackingPending       TrackingStatus = "pending"
	TrackingPickedUp      TrackingStatus = "picked_up"
	TrackingInTransit     TrackingStatus = "in_transit"
	TrackingDelivered     TrackingStatus = "delivered"
	TrackingDelayed       TrackingStatus = "delayed"
	TrackingIssueReported TrackingStatus = "issue_reported"
)

var TrackingStatuses = []TrackingStatus{
	TrackingPending, TrackingPickedUp, TrackingInTransit, TrackingDelivered, TrackingDelayed, TrackingIssueReported,
}

// Valid сообщает, является ли значение известным статусом отметки.
func (s TrackingStatus) Valid() bool {
	return lo.Contains(TrackingStatuses, s)
}

// TrackingUpdate представляет отметку перевозчика о ходе перевозки.
type TrackingUpdate struct {
	ID               string         `json:"id"`
	LoadId           string         `json:"load"`
	TruckerId        string         `json:"trucker"`
	Status           TrackingStatus `json:"status"`
	Location         Location       `json:"location"`
	Notes            string         `json:"notes"`
	EstimatedArrival *time.Time     `json:"estimatedArrival,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// TrackingRequest представляет структуру запроса для создания отметки.
type TrackingRequest struct {
	LoadId           string         `json:"load" validate:"required"`
	Status           TrackingStatus `json:"status" validate:"required"`
	Location         Location       `json:"location"`
	Notes            string         `json:"notes" validate:"max=2000"`
	EstimatedArrival *time.Time     `json:"estimatedArrival"`
}
