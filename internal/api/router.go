package api

import (
	"net/http"

	"route-scheduling-service/internal/api/handlers"
	"route-scheduling-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(scheduler *services.RouteScheduler, ledger *services.StockLedger) http.Handler {
	mux := http.NewServeMux()

	routeHandler := &handlers.RouteHandler{Scheduler: scheduler}
	stockHandler := &handlers.StockHandler{Ledger: ledger}
	donationHandler := &handlers.DonationHandler{Scheduler: scheduler}

	mux.HandleFunc("GET /health", handlers.Health)

	mux.HandleFunc("POST /routes", routeHandler.Create)
	mux.HandleFunc("GET /routes/{id}", routeHandler.Get)
	mux.HandleFunc("POST /routes/{id}/destinations", routeHandler.AddDestination)
	mux.HandleFunc("POST /destinations/{id}/products", routeHandler.AddProduct)
	mux.HandleFunc("DELETE /destination-products/{id}", routeHandler.RemoveProduct)
	mux.HandleFunc("POST /routes/{id}/start", routeHandler.Start)
	mux.HandleFunc("POST /routes/{id}/complete", routeHandler.Complete)
	mux.HandleFunc("POST /routes/{id}/cancel", routeHandler.Cancel)
	mux.HandleFunc("PUT /routes/{id}/truck", routeHandler.ReassignTruck)
	mux.HandleFunc("POST /routes/{id}/schedules", routeHandler.LinkSchedule)

	mux.HandleFunc("GET /stock/{product}/{zone}", stockHandler.GetAvailable)
	mux.HandleFunc("POST /donations/{id}/link", donationHandler.Link)

	return loggingMiddleware(mux)
}
