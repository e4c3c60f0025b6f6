package handlers

import (
	"net/http"
	"time"

	"route-scheduling-service/internal/api/dto"
	"route-scheduling-service/internal/domain"
	"route-scheduling-service/internal/services"
)

// RouteHandler exposes the route lifecycle operations. It is a thin
// pass-through: every invariant lives in the scheduler, the handler only
// translates between JSON and the core's types.
type RouteHandler struct {
	Scheduler *services.RouteScheduler
}

func routeResponse(route *domain.Route) dto.RouteResponse {
	out := dto.RouteResponse{
		ID:            route.ID,
		Date:          route.Date.Format(time.DateOnly),
		Type:          string(route.Type),
		Status:        string(route.Status),
		TruckID:       route.TruckID,
		UserID:        route.UserID,
		TotalQuantity: route.TotalQuantity(),
		CompletedAt:   route.CompletedAt,
		Destinations:  make([]dto.DestinationResponse, 0, len(route.Destinations)),
	}
	for _, d := range route.Destinations {
		dr := dto.DestinationResponse{
			ID:       d.ID,
			Address:  d.Address,
			Type:     string(d.Type),
			Products: make([]dto.ProductResponse, 0, len(d.Products)),
		}
		for _, p := range d.Products {
			dr.Products = append(dr.Products, dto.ProductResponse{
				ID:        p.ID,
				ProductID: p.ProductID,
				Quantity:  p.Quantity,
			})
		}
		out.Destinations = append(out.Destinations, dr)
	}
	return out
}

func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateRouteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	route, err := h.Scheduler.CreateRoute(r.Context(), services.CreateRouteRequest{
		Date:            date,
		Type:            domain.RouteType(req.Type),
		TruckID:         req.TruckID,
		UserID:          req.UserID,
		RequiredSkillID: req.RequiredSkillID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, routeResponse(route))
}

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
	route, err := h.Scheduler.GetRoute(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, routeResponse(route))
}

func (h *RouteHandler) AddDestination(w http.ResponseWriter, r *http.Request) {
	var req dto.AddDestinationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	dest, err := h.Scheduler.AddDestination(r.Context(), r.PathValue("id"), req.Address, domain.RouteType(req.Type))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.DestinationResponse{
		ID:       dest.ID,
		Address:  dest.Address,
		Type:     string(dest.Type),
		Products: []dto.ProductResponse{},
	})
}

func (h *RouteHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.AddProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.Scheduler.AddProduct(r.Context(), r.PathValue("id"), req.ProductID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, dto.ProductResponse{
		ID:        product.ID,
		ProductID: product.ProductID,
		Quantity:  product.Quantity,
	})
}

func (h *RouteHandler) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.Scheduler.RemoveProduct(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RouteHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.Scheduler.Start(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": string(domain.RouteInProgress)})
}

func (h *RouteHandler) Complete(w http.ResponseWriter, r *http.Request) {
	result, err := h.Scheduler.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	res := dto.CompleteRouteResponse{
		Route:                routeResponse(result.Route),
		ReconciliationErrors: make([]dto.ReconciliationError, 0, len(result.ReconciliationErrors)),
	}
	for _, f := range result.ReconciliationErrors {
		res.ReconciliationErrors = append(res.ReconciliationErrors, dto.ReconciliationError{
			DonationID: f.DonationID,
			Reason:     f.Reason,
		})
	}

	writeJSON(w, r, http.StatusOK, res)
}

func (h *RouteHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if err := h.Scheduler.Cancel(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": string(domain.RouteCancelled)})
}

func (h *RouteHandler) ReassignTruck(w http.ResponseWriter, r *http.Request) {
	var req dto.ReassignTruckRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Scheduler.ReassignTruck(r.Context(), r.PathValue("id"), req.TruckID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RouteHandler) LinkSchedule(w http.ResponseWriter, r *http.Request) {
	var req dto.LinkScheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Scheduler.LinkSchedule(r.Context(), req.ScheduleID, r.PathValue("id")); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
