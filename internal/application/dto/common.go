package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DetailResponse error con el contrato del backend de tokens: el mensaje legible va en "detail".
type DetailResponse struct {
	Code   string `json:"code,omitempty"`
	Detail string `json:"detail"`
}
