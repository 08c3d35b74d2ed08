package jobs

import (
	"context"

	"prestamos-backend/internal/logger"
)

// ExpireReservations runs the reservation sweep: overdue holds expire,
// and past the closing hour every remaining hold is cancelled.
func (jr *JobRunner) ExpireReservations() {
	jr.runWithRecovery("ExpireReservations", func() {
		ctx := context.Background()

		expired, cancelled, err := jr.services.Reservations.Sweep(ctx)
		if err != nil {
			logger.Error("Reservation sweep failed", "error", err)
			return
		}
		logger.Info("Reservation sweep finished", "expired", expired, "cancelled", cancelled)
	})
}
