package controllers

import (
	"log/slog"
	"net/http"

	"hostel-meals/models"
)

// DashboardController serves admin statistics and maintenance
type DashboardController struct {
	store          MaintenanceStore
	allowDowngrade bool
	*Responder
}

func NewDashboardController(store MaintenanceStore, allowDowngrade bool, rs *Responder) *DashboardController {
	return &DashboardController{store: store, allowDowngrade: allowDowngrade, Responder: rs}
}

func (dc *DashboardController) OverviewStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := dc.requestContext(r)
	defer cancel()
	stats, err := dc.store.OverviewStats(ctx)
	if err != nil {
		dc.writeError(w, r, err)
		return
	}
	dc.writeJSON(w, http.StatusOK, stats)
}

// Reconcile replays unapplied payments and recounts review counters (Admin only)
func (dc *DashboardController) Reconcile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := dc.requestContext(r)
	defer cancel()

	var report models.ReconcileReport
	applied, superseded, err := dc.store.ReconcilePayments(ctx, dc.allowDowngrade)
	if err != nil {
		dc.writeError(w, r, err)
		return
	}
	report.PaymentsApplied, report.PaymentsSuperseded = applied, superseded

	if report.MealsRecounted, err = dc.store.RecountReviews(ctx); err != nil {
		dc.writeError(w, r, err)
		return
	}
	dc.logger.InfoContext(ctx, "reconciliation finished",
		slog.Int("payments_applied", report.PaymentsApplied),
		slog.Int("payments_superseded", report.PaymentsSuperseded),
		slog.Int("meals_recounted", report.MealsRecounted),
	)
	dc.writeJSON(w, http.StatusOK, report)
}
