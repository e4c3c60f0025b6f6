package handlers

import (
	"net/http"

	"route-scheduling-service/internal/api/dto"
	"route-scheduling-service/internal/services"
)

// StockHandler exposes read-only availability queries.
type StockHandler struct {
	Ledger *services.StockLedger
}

func (h *StockHandler) GetAvailable(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("product")
	zone := r.PathValue("zone")

	available, err := h.Ledger.GetAvailable(r.Context(), productID, zone)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, dto.AvailabilityResponse{
		ProductID: productID,
		Zone:      zone,
		Available: available,
	})
}
