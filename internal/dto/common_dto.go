package dto

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type CountResponse struct {
	Total int64 `json:"total"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
