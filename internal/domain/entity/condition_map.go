package entity

import "strings"

// ConditionMap maps a normalized condition label to an ordered list of doctor
// IDs. Order in the source table is preserved as priority: the first listed
// doctor is the preferred match. Built once at load, read-only afterwards.
type ConditionMap map[string][]string

// NewConditionMap normalizes keys (case folded, trimmed) and copies the
// value slices so later mutation of the raw table cannot leak in.
func NewConditionMap(raw map[string][]string) ConditionMap {
	cm := make(ConditionMap, len(raw))
	for label, doctorIDs := range raw {
		ids := make([]string, len(doctorIDs))
		copy(ids, doctorIDs)
		cm[NormalizeCondition(label)] = ids
	}
	return cm
}

// Match returns the candidate doctor IDs for a condition label. An unknown
// label yields an empty list, never an error; the caller decides fallback.
func (cm ConditionMap) Match(label string) []string {
	ids := cm[NormalizeCondition(label)]
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// NormalizeCondition folds case and trims surrounding whitespace.
func NormalizeCondition(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
