package matcher

import (
	"fmt"
	"sort"
	"strings"

	"ledger-reconciliation-service/internal/models"
)

// FilterRules maps a column name to the set of values that exclude a row.
// Values are stored trimmed and case-folded.
type FilterRules map[string]map[string]struct{}

// NewFilterRules builds rules from column -> excluded values lists. Columns
// with no values are dropped.
func NewFilterRules(spec map[string][]string) FilterRules {
	rules := make(FilterRules, len(spec))
	for column, values := range spec {
		column = strings.TrimSpace(column)
		if column == "" || len(values) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[foldValue(v)] = struct{}{}
		}
		rules[column] = set
	}
	return rules
}

// Columns returns the configured column names in sorted order
func (r FilterRules) Columns() []string {
	cols := make([]string, 0, len(r))
	for c := range r {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Spec converts the rules back to column -> sorted values lists
func (r FilterRules) Spec() map[string][]string {
	out := make(map[string][]string, len(r))
	for column, set := range r {
		values := make([]string, 0, len(set))
		for v := range set {
			values = append(values, v)
		}
		sort.Strings(values)
		out[column] = values
	}
	return out
}

// Excludes reports whether row must be kept out of matching. A rule for a
// column the row does not have never excludes it.
func (r FilterRules) Excludes(row models.Row) bool {
	for column, set := range r {
		v, ok := row.Get(column)
		if !ok {
			continue
		}
		if _, hit := set[foldValue(v)]; hit {
			return true
		}
	}
	return false
}

// String returns a human-readable description of the rules
func (r FilterRules) String() string {
	if len(r) == 0 {
		return "FilterRules{}"
	}
	parts := make([]string, 0, len(r))
	spec := r.Spec()
	for _, c := range r.Columns() {
		parts = append(parts, fmt.Sprintf("%s: %s", c, strings.Join(spec[c], "|")))
	}
	return fmt.Sprintf("FilterRules{%s}", strings.Join(parts, ", "))
}

// Filters holds the per-source row filters
type Filters struct {
	Depot    FilterRules
	Pharmacy FilterRules
}

// For returns the rules that apply to source
func (f Filters) For(source models.Source) FilterRules {
	if source == models.SourcePharmacy {
		return f.Pharmacy
	}
	return f.Depot
}

func foldValue(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}
