package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/senyabanana/loadboard-service/internal/models"
	"github.com/senyabanana/loadboard-service/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest проверяет тело запроса и возвращает ошибку категории Validation.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return models.NewErrorResponse(models.ValidationError, "%s", err.Error())
	}
	msgs := lo.Map(fieldErrs, func(fe validator.FieldError, _ int) string {
		if fe.Param() != "" {
			return fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("%s must satisfy %s", fe.Namespace(), fe.Tag())
	})
	return models.NewErrorResponse(models.ValidationError, "invalid request: %s", strings.Join(msgs, "; "))
}

// requireRole возвращает Forbidden, если роль пользователя не входит в roles.
func requireRole(actor models.Actor, roles ...models.Role) error {
	if actor.ID == "" || !lo.Contains(roles, actor.Role) {
		return models.NewErrorResponse(models.ForbiddenError, "role %s is not allowed to perform this action", actor.Role)
	}
	return nil
}

// storeError переводит ошибки репозитория в ошибки сервиса.
// Ошибки, не относящиеся к репозиторию, возвращаются без изменений.
func storeError(err error, entity, id string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return models.NewErrorResponse(models.NotFoundError, "%s not found with id of %s", entity, id)
	case errors.Is(err, repository.ErrDuplicateBid):
		return models.NewErrorResponse(models.ConflictError, "you have already placed a bid on this load")
	case errors.Is(err, repository.ErrAcceptedBidExists):
		return models.NewErrorResponse(models.InvalidStateError, "load already has an accepted bid")
	default:
		return err
	}
}

// checkDates проверяет, что доставка не раньше погрузки.
func checkDates(pickup, delivery *time.Time) error {
	if pickup != nil && delivery != nil && delivery.Before(*pickup) {
		return models.NewErrorResponse(models.ValidationError, "proposed delivery date must not be before pickup date")
	}
	return nil
}

// biddingError объясняет, почему груз не принимает предложения.
func biddingError(load *models.Load, now time.Time) error {
	switch {
	case load.IsAssigned():
		return models.NewErrorResponse(models.InvalidStateError, "load is already assigned")
	case load.Status != models.OpenLoad:
		return models.NewErrorResponse(models.InvalidStateError, "load is not open for bidding (status %s)", load.Status)
	case load.BiddingClosed(now):
		return models.NewErrorResponse(models.InvalidStateError, "bidding deadline has passed")
	default:
		return nil
	}
}

func utcNow() time.Time {
	return time.Now().UTC()
}

func loadParties(load *models.Load) []string {
	if load.AssignedTrucker != nil {
		return []string{load.ShipperId, *load.AssignedTrucker}
	}
	return []string{load.ShipperId}
}
