package fiber

type StoreRecordsResponse struct {
	Status  string `json:"status" example:"ok"`
	Message string `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_record"`
	Message string `json:"message" example:"_timestamp is not a valid timestamp, it must be ISO8601"`
}
