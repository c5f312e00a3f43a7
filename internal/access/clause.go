package access

import (
	"strings"

	sq "github.com/Masterminds/squirrel"
)

const (
	defaultTenantColumn = "tenant_id"
	defaultStoreColumn  = "toko_id"
)

type clauseOptions struct {
	tenantColumn string
	storeColumn  string
	tenantOnly   bool
}

// Option customises how a scope is rendered into SQL.
type Option func(*clauseOptions)

// WithTenantColumn overrides the tenant column, e.g. "s.tenant_id" in joins.
func WithTenantColumn(col string) Option {
	return func(o *clauseOptions) {
		if col != "" {
			o.tenantColumn = col
		}
	}
}

// WithStoreColumn overrides the store column, e.g. "s.toko_id" in joins.
func WithStoreColumn(col string) Option {
	return func(o *clauseOptions) {
		if col != "" {
			o.storeColumn = col
		}
	}
}

// TenantOnly drops the store predicate for tables that are tenant-wide.
func TenantOnly() Option {
	return func(o *clauseOptions) {
		o.tenantOnly = true
	}
}

func buildOptions(opts []Option) clauseOptions {
	o := clauseOptions{
		tenantColumn: defaultTenantColumn,
		storeColumn:  defaultStoreColumn,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WhereClause renders s as "col = ?" predicates joined by AND, tenant first.
// Values are returned in args and never interpolated into the clause. A nil
// or god scope yields an empty clause.
func WhereClause(s *Scope, opts ...Option) (string, []any) {
	if s == nil || s.IsGod {
		return "", []any{}
	}

	o := buildOptions(opts)

	var preds []string
	args := []any{}

	if s.EnforceTenant {
		preds = append(preds, o.tenantColumn+" = ?")
		args = append(args, s.TenantID)
	}
	if s.EnforceStore && s.StoreID != "" && !o.tenantOnly {
		preds = append(preds, o.storeColumn+" = ?")
		args = append(args, s.StoreID)
	}

	return strings.Join(preds, " AND "), args
}

// Clause returns the scope predicate as a squirrel expression so it can be
// composed with other conditions. The predicate is parenthesised; an empty
// scope renders as (1=1).
func Clause(s *Scope, opts ...Option) sq.Sqlizer {
	clause, args := WhereClause(s, opts...)
	if clause == "" {
		return sq.And{}
	}
	return sq.Expr("("+clause+")", args...)
}
