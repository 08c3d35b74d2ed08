package session

import (
	"context"

	"prestamos-backend/internal/domain"
)

type FlowKind string

const (
	FlowReserve FlowKind = "reserve"
	FlowReturn  FlowKind = "return"
)

// Cursor names the field the reserve flow is still waiting for. The flow
// advances level → (program → year, higher-ed only) → classroom → confirm.
type Cursor string

const (
	CursorAwaitingLevel     Cursor = "awaiting_level"
	CursorAwaitingProgram   Cursor = "awaiting_program"
	CursorAwaitingYear      Cursor = "awaiting_year"
	CursorAwaitingClassroom Cursor = "awaiting_classroom"
	CursorAwaitingConfirm   Cursor = "awaiting_confirm"
)

// PendingIntent is the partially collected flow state carried across chat
// turns. Fields beyond the flow's cursor are not yet meaningful.
type PendingIntent struct {
	Flow     FlowKind        `json:"flow"`
	Cursor   Cursor          `json:"cursor,omitempty"`
	Code     string          `json:"code,omitempty"`
	ItemID   int32           `json:"item_id,omitempty"`
	Category domain.Category `json:"tipo,omitempty"`
	Level    domain.Level    `json:"nivel,omitempty"`
	Program  domain.Program  `json:"carrera,omitempty"`
	Year     int32           `json:"anio,omitempty"`
	Shift    domain.Shift    `json:"turno,omitempty"`
	Classroom string         `json:"aula,omitempty"`
	LoanID   int32           `json:"prestamo_id,omitempty"`
}

// Session is the per-requester chat state. Nothing here is shared across
// requesters.
type Session struct {
	Requester string         `json:"requester"`
	Pending   *PendingIntent `json:"pending,omitempty"`
}

// Store holds one mutable session blob per requester. Get returns nil
// (no error) when the requester has no session yet.
type Store interface {
	Get(ctx context.Context, requester string) (*Session, error)
	Set(ctx context.Context, s *Session) error
	Clear(ctx context.Context, requester string) error
}
