package service

import (
	"context"
	"time"

	"prestamos-backend/internal/domain"
)

type InventoryService interface {
	GetItem(ctx context.Context, code string) (*domain.Item, error)
	ListAvailable(ctx context.Context, category domain.Category) ([]domain.Item, error)
	ProvisionItems(ctx context.Context, category domain.Category, count int) ([]domain.Item, error)
	RemoveItem(ctx context.Context, code string) error
	SendToMaintenance(ctx context.Context, code string, kind domain.TicketKind, severity int32, description string) (*domain.MaintenanceTicket, error)
	ReturnToService(ctx context.Context, code string, ticketID int32) (*domain.Item, error)
}

// StartLoanRequest carries every field a loan write path may set. Program
// and Year are required for higher-education requesters and rejected for
// everyone else.
type StartLoanRequest struct {
	ItemCode  string
	Level     domain.Level
	Program   *domain.Program
	Year      *int32
	Shift     domain.Shift
	Classroom string
	Requester string
	DueAt     *time.Time
	Notes     string
}

type LoanService interface {
	StartLoan(ctx context.Context, req StartLoanRequest) (*domain.Loan, error)

	// CloseLoan is idempotent: closing an already-closed loan returns it
	// unchanged. A zero when means "now".
	CloseLoan(ctx context.Context, loanID int32, when time.Time) (*domain.Loan, error)

	FindOpenLoan(ctx context.Context, itemCode string) (*domain.Loan, error)
	ListOpenByRequester(ctx context.Context, requester string) ([]domain.Loan, error)
	UsageStats(ctx context.Context, days int) (*domain.UsageStats, error)
}

// ReserveRequest targets either a specific item (ItemCode set) or any
// unit of a category (ItemCode empty, Category set). A nil ExpiresAt
// defaults to the institutional closing time.
type ReserveRequest struct {
	ItemCode  string
	Category  domain.Category
	Level     domain.Level
	Shift     domain.Shift
	Classroom string
	Requester string
	ChannelID string
	ExpiresAt *time.Time
}

type ReservationService interface {
	Reserve(ctx context.Context, req ReserveRequest) (*domain.Reservation, error)
	Cancel(ctx context.Context, reservationID int32, actor, reason string) (*domain.Reservation, error)

	// CancelActiveFor cancels the requester's single Active reservation,
	// returning domain.ErrNotFound when there is none.
	CancelActiveFor(ctx context.Context, requester, actor, reason string) (*domain.Reservation, error)

	Expire(ctx context.Context, reservationID int32) (*domain.Reservation, error)

	// ApproveAndConvert returns (nil, nil) when conversion is refused:
	// the reservation is no longer Active, has no item bound, or the item
	// has moved to a state it cannot be lent from.
	ApproveAndConvert(ctx context.Context, reservationID int32, approver string) (*domain.Loan, error)

	ListActiveForRequester(ctx context.Context, requester string) ([]domain.Reservation, error)
	ListPending(ctx context.Context) ([]domain.Reservation, error)

	// Sweep expires overdue Active reservations and, past the closing
	// hour, cancels every remaining Active one. Safe to invoke repeatedly
	// and concurrently with itself.
	Sweep(ctx context.Context) (expired, cancelled int, err error)
}

// ChatReply is one conversational turn's response.
type ChatReply struct {
	Reply       string   `json:"reply"`
	Suggestions []string `json:"suggestions"`
}

type ChatService interface {
	HandleMessage(ctx context.Context, requester, message string) (*ChatReply, error)
}

// DemandPrediction is one (date, category, shift) demand cell.
type DemandPrediction struct {
	Date     string          `json:"date"`
	Category domain.Category `json:"tipo"`
	Shift    domain.Shift    `json:"turno"`
	Pred     int             `json:"pred"`
	Lag7     float64         `json:"lag7"`
	ML       *float64        `json:"ml,omitempty"`
	Mode     string          `json:"mode"`
}

// TardinessPrediction scores the chance a loan comes back late.
type TardinessPrediction struct {
	Score    float64 `json:"score"`
	Tier     string  `json:"tier"` // bajo / medio / alto
	Fallback bool    `json:"fallback"`
}

type ForecastService interface {
	DemandForecast(ctx context.Context, horizonDays int, mode string) ([]DemandPrediction, error)
	TardinessRisk(ctx context.Context, category domain.Category, level domain.Level, shift domain.Shift, at time.Time, expectedHours float64) (*TardinessPrediction, error)
}

// ForecastClient is the remote model-serving collaborator. Either call
// may fail with domain.ErrModelUnavailable.
type ForecastClient interface {
	PredictDemand(ctx context.Context, date time.Time, category domain.Category, shift domain.Shift) (float64, error)
	PredictTardiness(ctx context.Context, category domain.Category, level domain.Level, shift domain.Shift, hour float64, expectedHours float64) (float64, error)
}

// ItemRisk is one row of the maintenance risk ranking.
type ItemRisk struct {
	Code  string  `json:"code"`
	Score float64 `json:"score"`
}

type MaintenanceService interface {
	RiskScore(ctx context.Context, item *domain.Item) (float64, error)
	ScanHighRisk(ctx context.Context, threshold float64) ([]ItemRisk, error)
}

type ReportService interface {
	// WeeklySummary aggregates the last seven days and pushes the result
	// to the notification channel.
	WeeklySummary(ctx context.Context) (string, error)
}

// Notifier is the fire-and-forget outbound channel. Implementations
// swallow their own transport errors; callers never check them.
type Notifier interface {
	Notify(ctx context.Context, text string)
}
