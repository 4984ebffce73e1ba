package models

import "time"

// ValidityDays is how long a coupon stays redeemable after issuance.
// ExpiresAt is computed once at creation and never recomputed.
const ValidityDays = 30

// Coupon is the durable, backend-side record of one discount grant.
// ID is assigned by the backend and is distinct from the client-local
// id the issuing device keeps for the same logical coupon.
type Coupon struct {
	ID           string     `json:"id"`
	Amount       int        `json:"amount"`
	SerialNumber string     `json:"serialNumber"`
	CreatedAt    time.Time  `json:"createdAt"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	IsUsed       bool       `json:"isUsed"`
	UsedAt       *time.Time `json:"usedAt,omitempty"`
}

// Stats is the aggregate view over the whole coupon collection,
// computed in a single pass over the table.
type Stats struct {
	TotalCoupons  int `json:"totalCoupons"`
	UsedCoupons   int `json:"usedCoupons"`
	UnusedCoupons int `json:"unusedCoupons"`
	TotalAmount   int `json:"totalAmount"`
	UsedAmount    int `json:"usedAmount"`
}
