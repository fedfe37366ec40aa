package query

import (
	"fmt"
	"strings"

	"github.com/roach88/riskledger/internal/event"
)

// selectColumns is the projection every compiled query returns, in scan
// order. Callers scanning rows rely on this order.
const selectColumns = "uid, fingerprint, cluster, event_type, title, phase, confidence, score, first_seen, last_updated"

// orderBy keeps listings aligned with registry order: most recently
// updated first, uid as the deterministic tiebreaker.
const orderBy = "last_updated DESC, uid COLLATE BINARY ASC"

// Compile converts a filter to a parameterized SELECT over the events
// table. A nil filter compiles to an unfiltered listing. Values are
// never interpolated into the SQL text.
func Compile(f Filter) (string, []any, error) {
	var where string
	var params []any
	if f != nil {
		clause, clauseParams, err := compileFilter(f)
		if err != nil {
			return "", nil, err
		}
		where = " WHERE " + clause
		params = clauseParams
	}
	sql := fmt.Sprintf("SELECT %s FROM events%s ORDER BY %s", selectColumns, where, orderBy)
	return sql, params, nil
}

// compileFilter compiles one filter node to a WHERE fragment. Filter
// values are canonicalized here so callers can pass display forms.
func compileFilter(f Filter) (string, []any, error) {
	if f == nil {
		return "1 = 1", nil, nil // Always true
	}

	switch filter := f.(type) {
	case PhaseIs:
		return compilePhase(filter)
	case *PhaseIs:
		return compilePhase(*filter)
	case ClusterIs:
		return compileCluster(filter)
	case *ClusterIs:
		return compileCluster(*filter)
	case MinScore:
		return compileMinScore(filter)
	case *MinScore:
		return compileMinScore(*filter)
	case And:
		return compileAnd(filter)
	case *And:
		return compileAnd(*filter)
	default:
		return "", nil, fmt.Errorf("unsupported filter type: %T", f)
	}
}

func compilePhase(p PhaseIs) (string, []any, error) {
	return "phase = ?", []any{event.NormalizeLabel(p.Phase)}, nil
}

func compileCluster(c ClusterIs) (string, []any, error) {
	return "cluster = ?", []any{event.NormalizeToken(c.Cluster, event.CaseLower, false)}, nil
}

func compileMinScore(m MinScore) (string, []any, error) {
	return "score >= ?", []any{m.Score}, nil
}

func compileAnd(and And) (string, []any, error) {
	if len(and.Filters) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var clauses []string
	var allParams []any
	for _, sub := range and.Filters {
		clause, params, err := compileFilter(sub)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		allParams = append(allParams, params...)
	}
	return strings.Join(clauses, " AND "), allParams, nil
}
