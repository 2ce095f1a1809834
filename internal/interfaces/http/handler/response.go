package handler

// ErrorResponse represents an error API response for OpenAPI documentation
// @Description Standard error response
type ErrorResponse struct {
	Success   bool   `json:"success" example:"false"`
	Message   string `json:"message" example:"title 5f0c2a9e-4c1b-4a57-9a4e-2b1c7d3e8f90 not found"`
	Code      string `json:"code" example:"NOT_FOUND"`
	RequestID string `json:"request_id,omitempty" example:"8d2f1c0a9b7e4d3c"`
}

// HealthData is the body of a health probe
// @Description Service and database health
type HealthData struct {
	Status   string `json:"status" example:"ok"`
	Database string `json:"database" example:"ok"`
}
