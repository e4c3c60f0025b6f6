package dto

import "time"

type CreateRouteRequest struct {
	Date            string `json:"date"`
	Type            string `json:"type"`
	TruckID         string `json:"truck_id"`
	UserID          string `json:"user_id"`
	RequiredSkillID string `json:"required_skill_id"`
}

type AddDestinationRequest struct {
	Address string `json:"address"`
	Type    string `json:"type"`
}

type AddProductRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type ReassignTruckRequest struct {
	TruckID string `json:"truck_id"`
}

type LinkScheduleRequest struct {
	ScheduleID string `json:"schedule_id"`
}

type ProductResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type DestinationResponse struct {
	ID       string            `json:"id"`
	Address  string            `json:"address"`
	Type     string            `json:"type"`
	Products []ProductResponse `json:"products"`
}

type RouteResponse struct {
	ID            string                `json:"id"`
	Date          string                `json:"date"`
	Type          string                `json:"type"`
	Status        string                `json:"status"`
	TruckID       string                `json:"truck_id"`
	UserID        string                `json:"user_id"`
	TotalQuantity int                   `json:"total_quantity"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
	Destinations  []DestinationResponse `json:"destinations"`
}

type CompleteRouteResponse struct {
	Route                RouteResponse         `json:"route"`
	ReconciliationErrors []ReconciliationError `json:"reconciliation_errors"`
}

type ReconciliationError struct {
	DonationID string `json:"donation_id"`
	Reason     string `json:"reason"`
}
