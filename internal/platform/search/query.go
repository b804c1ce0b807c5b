package search

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
)

// ParamKind defines how a query parameter maps onto a SQL predicate.
type ParamKind int

const (
	Token  ParamKind = iota // exact match on a code-like column (status, numbers)
	String                  // case-insensitive contains match (names)
	Date                    // comparison with optional prefix (gt, ge, lt, le, eq)
	Number                  // numeric comparison with optional prefix
)

// ParamConfig maps a request parameter to its database column.
type ParamConfig struct {
	Kind   ParamKind
	Column string
}

// Query builds SQL WHERE clauses from request parameters. It encapsulates the
// count+data query pattern shared by the repositories.
type Query struct {
	table   string
	cols    string
	where   string
	args    []interface{}
	idx     int
	orderBy string
}

// New creates a Query for the given table and column list.
func New(table, cols string) *Query {
	return &Query{
		table: table,
		cols:  cols,
		idx:   1,
	}
}

// Add appends a raw WHERE clause fragment (without leading "AND"). Use $%d
// placeholders numbered from Idx().
func (q *Query) Add(clause string, args ...interface{}) {
	q.where += " AND " + clause
	q.args = append(q.args, args...)
	q.idx += len(args)
}

// Idx returns the next available placeholder index.
func (q *Query) Idx() int { return q.idx }

// ApplyParam applies a single parameter using the config.
func (q *Query) ApplyParam(config ParamConfig, value string) {
	switch config.Kind {
	case Token:
		q.where += fmt.Sprintf(" AND %s = $%d", config.Column, q.idx)
		q.args = append(q.args, value)
		q.idx++
	case String:
		q.where += fmt.Sprintf(" AND %s ILIKE $%d", config.Column, q.idx)
		q.args = append(q.args, "%"+value+"%")
		q.idx++
	case Date, Number:
		op, v := splitPrefix(value)
		q.where += fmt.Sprintf(" AND %s %s $%d", config.Column, op, q.idx)
		q.args = append(q.args, v)
		q.idx++
	}
}

// ApplyParams applies all parameters that have a config entry. Unknown
// parameters are ignored.
func (q *Query) ApplyParams(params map[string]string, configs map[string]ParamConfig) {
	for name, value := range params {
		if config, ok := configs[name]; ok {
			q.ApplyParam(config, value)
		}
	}
}

// splitPrefix extracts a comparison prefix (gt, ge, lt, le, eq) from a date or
// number value, defaulting to equality.
func splitPrefix(value string) (op, v string) {
	prefixes := map[string]string{
		"gt": ">", "ge": ">=", "lt": "<", "le": "<=", "eq": "=",
	}
	if len(value) > 2 {
		if sqlOp, ok := prefixes[value[:2]]; ok {
			return sqlOp, value[2:]
		}
	}
	return "=", value
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword).
func (q *Query) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

// CountSQL returns the count query SQL.
func (q *Query) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", q.table, q.where)
}

// CountArgs returns the arguments for the count query.
func (q *Query) CountArgs() []interface{} {
	return q.args
}

// DataSQL returns the data query SQL with ORDER BY and LIMIT/OFFSET.
func (q *Query) DataSQL(limit, offset int) string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", q.cols, q.table, q.where)
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", q.idx, q.idx+1)
	return sql
}

// DataArgs returns the arguments for the data query (search args + limit + offset).
func (q *Query) DataArgs(limit, offset int) []interface{} {
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}

// ExtractParams extracts filter parameters from the query string, excluding
// control parameters (limit, offset). Unknown params are included — the repo's
// ApplyParams will ignore ones not in its config.
func ExtractParams(c echo.Context) map[string]string {
	params := map[string]string{}
	for k, v := range c.QueryParams() {
		if len(v) == 0 || k == "limit" || k == "offset" {
			continue
		}
		if strings.HasPrefix(k, "_") {
			continue
		}
		params[k] = v[0]
	}
	return params
}
