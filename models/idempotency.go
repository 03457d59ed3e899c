package models

import "time"

// IdempotencyRecord pins the first sighting of an Idempotency-Key and later
// the response it produced. At most one live (non-expired) record exists per
// (tenant, key); expired rows are taken over in place when a key is reused.
type IdempotencyRecord struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	TenantID       string     `json:"-" gorm:"type:uuid;not null;index:idx_idempotency_tenant_key,unique,priority:1"`
	Key            string     `json:"key" gorm:"size:128;not null;index:idx_idempotency_tenant_key,unique,priority:2"`
	Endpoint       string     `json:"endpoint" gorm:"size:255"`
	Method         string     `json:"method" gorm:"size:10"`
	RequestHash    string     `json:"request_hash" gorm:"size:64"` // sha256 of method|endpoint|body|tenant
	ResponseStatus int        `json:"response_status"`             // 0 => not completed yet
	ResponseBody   []byte     `json:"-" gorm:"type:bytea"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      time.Time  `json:"expires_at" gorm:"not null;index"`
	CompletedAt    *time.Time `json:"completed_at"`
}

func (IdempotencyRecord) TenantScoped() {}

// Pending reports whether the record was claimed but never completed.
func (r *IdempotencyRecord) Pending() bool {
	return r.CompletedAt == nil
}

// Live reports whether the record still binds its key at the given time.
func (r *IdempotencyRecord) Live(now time.Time) bool {
	return now.Before(r.ExpiresAt)
}
