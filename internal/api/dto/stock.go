package dto

type AvailabilityResponse struct {
	ProductID string `json:"product_id"`
	Zone      string `json:"zone"`
	Available int    `json:"available"`
}

type LinkDonationRequest struct {
	RouteID string `json:"route_id"`
}
