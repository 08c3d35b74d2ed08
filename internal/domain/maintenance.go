package domain

import "time"

type TicketKind string

const (
	TicketKindPreventive TicketKind = "preventivo"
	TicketKindCorrective TicketKind = "correctivo"
)

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "abierto"
	TicketStatusInProgress TicketStatus = "en_proceso"
	TicketStatusClosed     TicketStatus = "cerrado"
)

// MaintenanceTicket tracks one out-of-service episode for an item.
// Severity runs 1-5.
type MaintenanceTicket struct {
	ID          int32        `json:"id"`
	ItemID      int32        `json:"item_id"`
	Kind        TicketKind   `json:"tipo"`
	Severity    int32        `json:"severidad"`
	Description string       `json:"descripcion"`
	Status      TicketStatus `json:"estado"`
	OpenedAt    time.Time    `json:"fecha_apertura"`
	ClosedAt    *time.Time   `json:"fecha_cierre,omitempty"`
}
