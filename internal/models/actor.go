package models

type Role string // Роль пользователя

const (
	ShipperRole Role = "shipper"
	TruckerRole Role = "trucker"
	AdminRole   Role = "admin"
)

// Actor описывает пользователя, от имени которого выполняется операция.
// ID совпадает с идентификатором профиля грузоотправителя или перевозчика.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// Is сообщает, что у пользователя указанная роль.
func (a Actor) Is(role Role) bool {
	return a.Role == role
}
