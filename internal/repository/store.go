package repository

import (
	"context"
	"errors"

	"github.com/senyabanana/loadboard-service/internal/models"
)

var (
	// ErrNotFound возвращается, когда запись не найдена.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateBid возвращается при нарушении уникальности пары (груз, перевозчик).
	ErrDuplicateBid = errors.New("bid for this load and trucker already exists")
	// ErrAcceptedBidExists возвращается при попытке принять второе предложение по грузу.
	ErrAcceptedBidExists = errors.New("load already has an accepted bid")
)

// Store - интерфейс хранилища грузов, предложений и отметок перевозки.
// Все изменения выполняются внутри WithinTx.
type Store interface {
	Reader
	// WithinTx выполняет fn в одной транзакции. Если fn вернула ошибку, изменения откатываются.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Reader - операции чтения вне транзакции.
type Reader interface {
	GetLoadById(ctx context.Context, loadId string) (*models.Load, error)
	GetLoads(ctx context.Context, filter models.LoadFilter) ([]models.Load, error)
	CountLoadsByStatus(ctx context.Context) (map[models.LoadStatus]int, error)
	GetBidById(ctx context.Context, bidId string) (*models.Bid, error)
	GetLoadBids(ctx context.Context, loadId string) ([]models.Bid, error)
	GetTruckerBid(ctx context.Context, loadId, truckerId string) (*models.Bid, error)
	GetTruckerBids(ctx context.Context, truckerId string, limit, offset int) ([]models.Bid, error)
	GetLoadTracking(ctx context.Context, loadId string, limit, offset int) ([]models.TrackingUpdate, error)
}

// Tx - операции внутри транзакции. Методы ...ForUpdate блокируют запись до конца транзакции;
// груз всегда блокируется раньше его предложений.
type Tx interface {
	GetLoadForUpdate(ctx context.Context, loadId string) (*models.Load, error)
	GetBidForUpdate(ctx context.Context, bidId string) (*models.Bid, error)

	CreateLoad(ctx context.Context, load *models.Load) error
	UpdateLoadDetails(ctx context.Context, load *models.Load) error
	DeleteLoad(ctx context.Context, loadId string) error
	SetLoadStatus(ctx context.Context, loadId string, status models.LoadStatus) (*models.Load, error)
	AssignLoad(ctx context.Context, loadId, truckerId, bidId string) (*models.Load, error)

	CreateBid(ctx context.Context, bid *models.Bid) error
	UpdateBidTerms(ctx context.Context, bid *models.Bid) error
	SetBidStatus(ctx context.Context, bidId string, status models.BidStatus) (*models.Bid, error)
	// RejectLoadBids переводит в rejected все предложения груза, кроме exceptBidId
	// (пустая строка - без исключений), и возвращает изменённые предложения.
	RejectLoadBids(ctx context.Context, loadId, exceptBidId string) ([]models.Bid, error)

	CreateTracking(ctx context.Context, update *models.TrackingUpdate) error
}
