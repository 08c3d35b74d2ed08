package domain

import "time"

type LoanStatus string

const (
	LoanStatusOpen   LoanStatus = "activo"
	LoanStatusClosed LoanStatus = "devuelto"
)

// Loan is one borrowing episode against a single item. Program and Year
// are only set for higher-education requesters. DurationHours stays nil
// until the loan is closed and is computed exactly once.
type Loan struct {
	ID            int32      `json:"id"`
	ItemID        int32      `json:"item_id"`
	ItemCode      string     `json:"item_code,omitempty"`
	Level         Level      `json:"nivel"`
	Program       *Program   `json:"carrera,omitempty"`
	Year          *int32     `json:"anio,omitempty"`
	Shift         Shift      `json:"turno"`
	Classroom     string     `json:"aula"`
	Requester     string     `json:"solicitante"`
	StartedAt     time.Time  `json:"inicio"`
	DueAt         *time.Time `json:"fin_prevista,omitempty"`
	ReturnedAt    *time.Time `json:"fin_real,omitempty"`
	DurationHours *float64   `json:"duracion_horas,omitempty"`
	Status        LoanStatus `json:"estado"`
	Notes         string     `json:"observaciones"`
}

// Closed reports whether the loan has already been returned.
func (l *Loan) Closed() bool {
	return l.ReturnedAt != nil
}
