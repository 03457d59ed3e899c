package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"procurement-backend/apperrors"
	"procurement-backend/database"
	"procurement-backend/models"

	"gorm.io/gorm"
)

// DefaultIdempotencyTTL is how long a record binds its key once claimed.
const DefaultIdempotencyTTL = 24 * time.Hour

// RequestDescriptor identifies the logical request an Idempotency-Key was
// attached to. Two requests with equal descriptors are the same attempt.
type RequestDescriptor struct {
	Endpoint string
	Method   string
	Body     []byte
}

// CheckResult is the outcome of CheckAndStore. Cached=false means the
// caller owns the key and must run the handler exactly once.
type CheckResult struct {
	Cached bool
	Status int
	Body   []byte
}

// IdempotencyService deduplicates mutating requests per (tenant, key).
// The unique index on (tenant_id, key) is the synchronization primitive:
// of N racing inserts exactly one wins, the rest observe the winner's row.
type IdempotencyService struct {
	db  *database.TenantDB
	ttl time.Duration
}

func NewIdempotencyService(db *database.TenantDB) *IdempotencyService {
	ttl := DefaultIdempotencyTTL
	if v := os.Getenv("IDEMPOTENCY_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = time.Duration(n) * time.Hour
		}
	}
	return &IdempotencyService{db: db, ttl: ttl}
}

// Fingerprint derives the request hash: method|endpoint|body|tenant.
func Fingerprint(tenantID string, desc RequestDescriptor) string {
	h := sha256.New()
	h.Write([]byte(desc.Method))
	h.Write([]byte{'\n'})
	h.Write([]byte(desc.Endpoint))
	h.Write([]byte{'\n'})
	h.Write(desc.Body)
	h.Write([]byte{'\n'})
	h.Write([]byte(tenantID))
	return hex.EncodeToString(h.Sum(nil))
}

// CheckAndStore claims the key for this request or reports how it is
// already bound: a replay of the completed request returns the stored
// response, an in-flight duplicate gets a retryable conflict, and a reuse
// with a different payload gets a non-retryable one. Expired records do
// not count as live and are taken over atomically.
func (s *IdempotencyService) CheckAndStore(ctx context.Context, key string, desc RequestDescriptor) (*CheckResult, error) {
	if key == "" {
		return nil, apperrors.Validation("idempotency key must not be empty")
	}
	tc, ok := database.FromContext(ctx)
	if !ok {
		return nil, database.ErrTenantRequired
	}

	db, err := s.db.Scoped(ctx)
	if err != nil {
		return nil, err
	}

	hash := Fingerprint(tc.TenantID, desc)
	now := time.Now().UTC()

	rec := models.IdempotencyRecord{
		Key:         key,
		Endpoint:    desc.Endpoint,
		Method:      desc.Method,
		RequestHash: hash,
		ExpiresAt:   now.Add(s.ttl),
	}
	if err := db.Create(&rec).Error; err == nil {
		return &CheckResult{Cached: false}, nil
	} else if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}

	// Lost the insert race or the key was seen before.
	var existing models.IdempotencyRecord
	if err := db.First(&existing, "key = ?", key).Error; err != nil {
		return nil, err
	}

	if !existing.Live(now) {
		// Expired records are not live; replace in place. The expires_at
		// guard makes the takeover atomic when two requests race for the
		// same dead row.
		res := db.Model(&models.IdempotencyRecord{}).
			Where("id = ? AND expires_at <= ?", existing.ID, now).
			Updates(map[string]any{
				"endpoint":        desc.Endpoint,
				"method":          desc.Method,
				"request_hash":    hash,
				"response_status": 0,
				"response_body":   nil,
				"created_at":      now,
				"expires_at":      now.Add(s.ttl),
				"completed_at":    nil,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			return &CheckResult{Cached: false}, nil
		}
		// Another request revived the row first; fall through on its state.
		if err := db.First(&existing, "key = ?", key).Error; err != nil {
			return nil, err
		}
	}

	if existing.RequestHash != hash {
		return nil, apperrors.IdempotencyConflict(key)
	}
	if existing.Pending() {
		return nil, apperrors.IdempotencyInFlight(key)
	}
	return &CheckResult{
		Cached: true,
		Status: existing.ResponseStatus,
		Body:   existing.ResponseBody,
	}, nil
}

// UpdateResult attaches the handler's response to the pending record.
// Best-effort: a failure here must never mask the already-computed result,
// so errors are logged and swallowed.
func (s *IdempotencyService) UpdateResult(ctx context.Context, key string, status int, body []byte) {
	db, err := s.db.Scoped(ctx)
	if err != nil {
		log.Printf("idempotency: update result skipped: %v", err)
		return
	}
	blob := make([]byte, len(body))
	copy(blob, body)
	now := time.Now().UTC()
	if err := db.Model(&models.IdempotencyRecord{}).
		Where("key = ? AND completed_at IS NULL", key).
		Updates(map[string]any{
			"response_status": status,
			"response_body":   blob,
			"completed_at":    &now,
		}).Error; err != nil {
		log.Printf("idempotency: storing response for key %q failed: %v", key, err)
	}
}

// Release drops a still-pending claim so the key can be retried after the
// handler failed. Best-effort, like UpdateResult.
func (s *IdempotencyService) Release(ctx context.Context, key string) {
	db, err := s.db.Scoped(ctx)
	if err != nil {
		return
	}
	if err := db.Where("key = ? AND completed_at IS NULL", key).
		Delete(&models.IdempotencyRecord{}).Error; err != nil {
		log.Printf("idempotency: releasing key %q failed: %v", key, err)
	}
}
