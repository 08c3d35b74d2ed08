package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "activa"
	ReservationStatusConverted ReservationStatus = "convertida"
	ReservationStatusCancelled ReservationStatus = "cancelada"
	ReservationStatusExpired   ReservationStatus = "expirada"
)

// Terminal reports whether the status admits no further transitions.
// Active is the only non-terminal (and only initial) status.
func (s ReservationStatus) Terminal() bool {
	return s != ReservationStatusActive
}

// Reservation is a time-boxed hold on an item, or on a bare category when
// no specific unit has been assigned yet (ItemID nil).
type Reservation struct {
	ID          int32             `json:"id"`
	ItemID      *int32            `json:"item_id,omitempty"`
	ItemCode    string            `json:"item_code,omitempty"`
	Category    Category          `json:"tipo"`
	Level       Level             `json:"nivel"`
	Shift       Shift             `json:"turno"`
	Classroom   string            `json:"aula"`
	Requester   string            `json:"solicitante"`
	ChannelID   string            `json:"canal_externo,omitempty"`
	CreatedAt   time.Time         `json:"inicio"`
	ExpiresAt   time.Time         `json:"expira"`
	Status      ReservationStatus `json:"estado"`
	Notes       string            `json:"observaciones"`
	ApprovedBy  string            `json:"aprobada_por,omitempty"`
	ApprovedAt  *time.Time        `json:"aprobada_at,omitempty"`
	CancelledBy string            `json:"cancelada_por,omitempty"`
	CancelledAt *time.Time        `json:"cancelada_at,omitempty"`
	CancelNote  string            `json:"cancel_motivo,omitempty"`
}
