package report

import (
	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/database"
)

// statement is a hand-written report query. Base must contain a WHERE clause
// and no trailing clauses; Suffix (GROUP BY, ORDER BY, LIMIT) is appended
// after the scope predicate.
type statement struct {
	Base       string
	Args       []any
	Alias      string
	Suffix     string
	SuffixArgs []any
}

// build scopes the statement on Alias.tenant_id / Alias.toko_id and returns
// it with PostgreSQL placeholders.
func (s statement) build(scope access.Scope) (string, []any, error) {
	query, args := access.ApplyToSQL(s.Base, s.Args, &scope,
		access.WithTenantColumn(s.Alias+".tenant_id"),
		access.WithStoreColumn(s.Alias+".toko_id"),
	)
	query += s.Suffix
	args = append(args, s.SuffixArgs...)

	query, err := database.Rebind(query)
	if err != nil {
		return "", nil, err
	}
	return query, args, nil
}

func salesTotals(p Period) statement {
	return statement{
		Base: `SELECT COUNT(*), COALESCE(SUM(s.total), 0)::BIGINT, COALESCE(SUM(s.discount), 0)::BIGINT
			FROM sales s
			WHERE s.created_at >= ? AND s.created_at < ?`,
		Args:  []any{p.From, p.To},
		Alias: "s",
	}
}

func costOfGoods(p Period) statement {
	return statement{
		Base: `SELECT COALESCE(SUM(si.cost * si.quantity), 0)::BIGINT
			FROM sale_items si
			JOIN sales s ON s.id = si.sale_id
			WHERE s.created_at >= ? AND s.created_at < ?`,
		Args:  []any{p.From, p.To},
		Alias: "s",
	}
}

func purchaseTotals(p Period) statement {
	return statement{
		Base: `SELECT COALESCE(SUM(pu.total), 0)::BIGINT
			FROM purchases pu
			WHERE pu.created_at >= ? AND pu.created_at < ?`,
		Args:  []any{p.From, p.To},
		Alias: "pu",
	}
}

func daily(p Period) statement {
	return statement{
		Base: `SELECT date_trunc('day', s.created_at) AS day, COUNT(*), COALESCE(SUM(s.total), 0)::BIGINT
			FROM sales s
			WHERE s.created_at >= ? AND s.created_at < ?`,
		Args:   []any{p.From, p.To},
		Alias:  "s",
		Suffix: ` GROUP BY day ORDER BY day ASC`,
	}
}

func topProducts(p Period, limit int) statement {
	return statement{
		Base: `SELECT si.product_id, MAX(si.name), SUM(si.quantity), SUM(si.subtotal)::BIGINT
			FROM sale_items si
			JOIN sales s ON s.id = si.sale_id
			WHERE s.created_at >= ? AND s.created_at < ?`,
		Args:       []any{p.From, p.To},
		Alias:      "s",
		Suffix:     ` GROUP BY si.product_id ORDER BY SUM(si.quantity) DESC, MAX(si.name) ASC LIMIT ?`,
		SuffixArgs: []any{limit},
	}
}
