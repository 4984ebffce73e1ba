package quota

import "time"

// DefaultChances is the per-calendar-day draw allowance.
const DefaultChances = 5

// Coupon is the client-local record of a drawn coupon. ID is the local
// coupon number, not the backend row id; WonAt equals CreatedAt.
type Coupon struct {
	ID           string    `json:"id"`
	Amount       int       `json:"amount"`
	SerialNumber string    `json:"serialNumber"`
	CreatedAt    time.Time `json:"createdAt"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Record is the one-per-device daily quota record. Coupons is
// append-only within a day; the whole record is replaced on the first
// access of a new calendar day.
type Record struct {
	Date             string   `json:"date"`
	RemainingChances int      `json:"remainingChances"`
	Coupons          []Coupon `json:"coupons"`
	LastResetDate    string   `json:"lastResetDate"`
}

// freshRecord is the record every reset produces.
func freshRecord(today string) *Record {
	return &Record{
		Date:             today,
		RemainingChances: DefaultChances,
		Coupons:          []Coupon{},
		LastResetDate:    today,
	}
}

// resetFor applies the lazy-reset rule: a record whose LastResetDate is
// not today is replaced wholesale, otherwise it is returned unchanged.
// Pure; idempotent within a calendar day.
func resetFor(rec *Record, today string) *Record {
	if rec == nil || rec.LastResetDate != today {
		return freshRecord(today)
	}
	return rec
}

// dayString formats t as the local calendar day, YYYY-MM-DD.
func dayString(t time.Time) string {
	return t.Format("2006-01-02")
}
