package handler

// RecordResponse represents a transaction record in API responses
type RecordResponse struct {
	RecordID      string `json:"record_id"`
	AccountNumber string `json:"account_number"`
	Kind          string `json:"kind"`
	Amount        int64  `json:"amount"`
	CorrelationID string `json:"correlation_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// RecordListResponse represents a list of transaction records in API responses
type RecordListResponse struct {
	Records []RecordResponse `json:"records"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
