package database

import (
	"context"
	"errors"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrTenantRequired is returned when a tenant-scoped operation runs without
// a TenantContext. Operations fail closed rather than running unscoped.
var ErrTenantRequired = errors.New("tenant context is required but missing")

// TenantContext is the per-request identity carrier. It travels explicitly
// through context.Context; it must never live in process-wide state.
type TenantContext struct {
	TenantID string
	UserID   string
}

type tenantCtxKey struct{}

// WithTenant binds a TenantContext to the context.
func WithTenant(ctx context.Context, tc TenantContext) context.Context {
	return context.WithValue(ctx, tenantCtxKey{}, tc)
}

// FromContext extracts the TenantContext, if any.
func FromContext(ctx context.Context) (TenantContext, bool) {
	tc, ok := ctx.Value(tenantCtxKey{}).(TenantContext)
	if !ok || tc.TenantID == "" {
		return TenantContext{}, false
	}
	return tc, true
}

// tenantScoped marks models whose rows belong to exactly one tenant.
// Models opt in with a no-op TenantScoped method; public tables (users,
// tenants) stay out and are never filtered.
type tenantScoped interface {
	TenantScoped()
}

// TenantDB wraps a *gorm.DB with callbacks that force tenant isolation:
// every read against a tenant-scoped model gains a tenant_id predicate the
// caller cannot omit or override, and every write has its tenant_id set
// from the context, overwriting whatever the caller supplied.
type TenantDB struct {
	db *gorm.DB
}

func NewTenantDB(db *gorm.DB) *TenantDB {
	registerTenantCallbacks(db)
	return &TenantDB{db: db}
}

// Scoped returns a context-bound handle. It fails closed when the context
// carries no tenant; the callbacks repeat that check per statement in case
// a caller reaches the raw handle some other way.
func (t *TenantDB) Scoped(ctx context.Context) (*gorm.DB, error) {
	if _, ok := FromContext(ctx); !ok {
		return nil, ErrTenantRequired
	}
	return t.db.WithContext(ctx), nil
}

// Transaction runs fn inside a database transaction scoped to the tenant.
func (t *TenantDB) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	db, err := t.Scoped(ctx)
	if err != nil {
		return err
	}
	return db.Transaction(fn)
}

// Raw returns the unscoped handle. Only the public tables (users, tenants)
// and migrations may use it.
func (t *TenantDB) Raw() *gorm.DB {
	return t.db
}

func registerTenantCallbacks(db *gorm.DB) {
	cb := db.Callback()
	_ = cb.Create().Before("gorm:create").Register("tenant:before_create", assignTenantOnCreate)
	_ = cb.Query().Before("gorm:query").Register("tenant:before_query", addTenantFilter)
	_ = cb.Update().Before("gorm:update").Register("tenant:before_update", addTenantFilter)
	_ = cb.Delete().Before("gorm:delete").Register("tenant:before_delete", addTenantFilter)
	_ = cb.Row().Before("gorm:row").Register("tenant:before_row", addTenantFilter)
}

func statementIsTenantScoped(db *gorm.DB) bool {
	if db.Statement.Schema == nil {
		return false
	}
	_, ok := reflect.New(db.Statement.Schema.ModelType).Interface().(tenantScoped)
	return ok
}

// addTenantFilter injects tenant_id = ? on reads, updates and deletes.
// The predicate is always appended, so a hand-written tenant_id condition
// for another tenant still ANDs with the real one and matches nothing.
func addTenantFilter(db *gorm.DB) {
	if !statementIsTenantScoped(db) {
		return
	}
	tc, ok := FromContext(db.Statement.Context)
	if !ok {
		_ = db.AddError(ErrTenantRequired)
		return
	}
	db.Statement.AddClause(clause.Where{
		Exprs: []clause.Expression{
			clause.Eq{
				Column: clause.Column{Table: clause.CurrentTable, Name: "tenant_id"},
				Value:  tc.TenantID,
			},
		},
	})
}

// assignTenantOnCreate stamps tenant_id on every inserted row, overwriting
// caller-supplied values so a payload cannot write into a foreign partition.
func assignTenantOnCreate(db *gorm.DB) {
	if !statementIsTenantScoped(db) {
		return
	}
	tc, ok := FromContext(db.Statement.Context)
	if !ok {
		_ = db.AddError(ErrTenantRequired)
		return
	}
	field := db.Statement.Schema.LookUpField("TenantID")
	if field == nil {
		return
	}
	switch db.Statement.ReflectValue.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < db.Statement.ReflectValue.Len(); i++ {
			_ = db.AddError(field.Set(db.Statement.Context, db.Statement.ReflectValue.Index(i), tc.TenantID))
		}
	case reflect.Struct:
		_ = db.AddError(field.Set(db.Statement.Context, db.Statement.ReflectValue, tc.TenantID))
	}
}
