package models

// --- Request DTOs ---

type CreateCouponRequest struct {
	Amount       int    `json:"amount" validate:"required,gt=0"`
	SerialNumber string `json:"serialNumber" validate:"required"`
	CreatedAt    string `json:"createdAt,omitempty"` // RFC3339; defaults to now
	ExpiresAt    string `json:"expiresAt,omitempty"` // RFC3339; defaults to createdAt + 30d
}

type UpdateUsedRequest struct {
	IsUsed *bool `json:"isUsed" validate:"required"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// --- Response envelope ---

// Response is the JSON envelope every handler writes, success or not.
// Storage-layer error details never appear here beyond the optional
// debug string in Error.
type Response struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message"`
	Error      string      `json:"error,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type LoginData struct {
	Token      string `json:"token"`
	ExpiryTime int64  `json:"expiryTime"` // epoch milliseconds
}

type DeleteAllData struct {
	Deleted int64 `json:"deleted"`
}
