package domain

import "time"

type ItemStatus string

const (
	ItemStatusAvailable   ItemStatus = "DISP"
	ItemStatusInUse       ItemStatus = "USO"
	ItemStatusMaintenance ItemStatus = "MANT"
	ItemStatusReserved    ItemStatus = "RES"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusAvailable, ItemStatusInUse, ItemStatusMaintenance, ItemStatusReserved:
		return true
	}
	return false
}

func (s ItemStatus) Display() string {
	switch s {
	case ItemStatusAvailable:
		return "Disponible"
	case ItemStatusInUse:
		return "En uso"
	case ItemStatusMaintenance:
		return "Mantenimiento"
	case ItemStatusReserved:
		return "Reservado"
	}
	return string(s)
}

// Item is one physical equipment unit. Code is the human-readable
// category-prefixed identifier (NB-01, TB-02, AL-03) and is unique.
type Item struct {
	ID         int32      `json:"id"`
	Code       string     `json:"code"`
	Category   Category   `json:"tipo"`
	Status     ItemStatus `json:"estado"`
	UsageHours float64    `json:"uso_acumulado_horas"`
	UsageCount int32      `json:"usos_acumulados"`
	CreatedOn  time.Time  `json:"creado"`
}
