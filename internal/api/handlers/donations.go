package handlers

import (
	"net/http"

	"route-scheduling-service/internal/api/dto"
	"route-scheduling-service/internal/services"
)

// DonationHandler exposes donation-to-route linking.
type DonationHandler struct {
	Scheduler *services.RouteScheduler
}

func (h *DonationHandler) Link(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkDonationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.RouteID == "" {
		writeError(w, r, http.StatusBadRequest, "route_id is required")
		return
	}

	if err := h.Scheduler.LinkDonation(r.Context(), r.PathValue("id"), req.RouteID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
