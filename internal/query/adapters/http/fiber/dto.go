package fiber

import storage "reporting-store/internal/storage/core/domain"

type DataResponse struct {
	Data []storage.Document `json:"data" swaggertype:"array,object"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_query"`
	Message string `json:"message" example:"limit must be a positive integer"`
}
