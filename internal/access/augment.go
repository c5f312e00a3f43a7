package access

import "regexp"

var whereKeyword = regexp.MustCompile(`(?i)\bwhere\b`)

// ApplyToSQL appends the scope predicate of s to query. If query already
// contains a WHERE keyword the predicate is joined with AND, otherwise a WHERE
// is added. A nil scope or an empty predicate returns the inputs unchanged.
//
// The WHERE detection is a word match over the whole text, not a parser. It
// is fooled by "where" inside literals, comments or subqueries, and it always
// appends at the end, so callers must add GROUP BY, ORDER BY, LIMIT or UNION
// parts after calling it. An OR at the top level of the existing condition
// binds looser than the appended AND; wrap such conditions in parentheses.
func ApplyToSQL(query string, args []any, s *Scope, opts ...Option) (string, []any) {
	clause, scopeArgs := WhereClause(s, opts...)
	if clause == "" {
		return query, args
	}

	if whereKeyword.MatchString(query) {
		query += " AND " + clause
	} else {
		query += " WHERE " + clause
	}

	merged := make([]any, 0, len(args)+len(scopeArgs))
	merged = append(merged, args...)
	merged = append(merged, scopeArgs...)
	return query, merged
}
