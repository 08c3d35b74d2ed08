package jobs

import (
	"context"
	"fmt"
	"strings"

	"prestamos-backend/internal/logger"
)

// SendWeeklyReport pushes the usage summary to the notification channel.
func (jr *JobRunner) SendWeeklyReport() {
	jr.runWithRecovery("SendWeeklyReport", func() {
		ctx := context.Background()

		if _, err := jr.services.Reports.WeeklySummary(ctx); err != nil {
			logger.Error("Failed to build weekly report", "error", err)
			return
		}
		logger.Info("Weekly report sent")
	})
}

// ScanRiskItems flags equipment whose wear heuristic crosses the
// configured threshold and notifies staff.
func (jr *JobRunner) ScanRiskItems() {
	jr.runWithRecovery("ScanRiskItems", func() {
		ctx := context.Background()

		risks, err := jr.services.Maintenance.ScanHighRisk(ctx, jr.config.Campus.RiskThreshold)
		if err != nil {
			logger.Error("Risk scan failed", "error", err)
			return
		}
		if len(risks) == 0 {
			logger.Info("Risk scan finished, nothing above threshold", "threshold", jr.config.Campus.RiskThreshold)
			return
		}

		var b strings.Builder
		fmt.Fprintf(&b, "⚠️ Equipos con riesgo de mantenimiento alto (umbral %.0f):\n", jr.config.Campus.RiskThreshold)
		for _, r := range risks {
			fmt.Fprintf(&b, "• %s: %.1f\n", r.Code, r.Score)
		}
		jr.services.Notifier.Notify(ctx, strings.TrimRight(b.String(), "\n"))

		logger.Info("Risk scan finished", "flagged", len(risks))
	})
}
