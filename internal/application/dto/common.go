package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse cuerpo de GET /health.
type HealthResponse struct {
	OK bool `json:"ok"`
}
