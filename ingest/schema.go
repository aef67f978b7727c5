package ingest

import (
	"sort"
	"strings"
)

// Field is a logical column of a performance export.
type Field string

const (
	FieldPosition    Field = "position"
	FieldClicks      Field = "clicks"
	FieldSessions    Field = "sessions"
	FieldImpressions Field = "impressions"
	FieldCTR         Field = "ctr"
	FieldBounce      Field = "bounce_rate"
	FieldDuration    Field = "avg_duration"
)

// FieldSpec maps a logical field to the header substrings that identify it.
// Paired fields need a current and a previous period column.
type FieldSpec struct {
	Field    Field
	Patterns []string
	// Exclude rejects columns that contain a pattern but name another metric,
	// such as "average session duration" for sessions.
	Exclude  []string
	Paired   bool
	Required bool
}

// Schema is the declared column layout of one kind of export.
type Schema struct {
	Name   string
	Fields []FieldSpec
	// RequireOneOf lists groups of fields of which at least one must resolve.
	RequireOneOf [][]Field
}

var sessionLookalikes = []string{"duration", "per session", "engaged"}

// PrimarySchema describes a search performance export comparing two periods.
var PrimarySchema = Schema{
	Name: "search performance",
	Fields: []FieldSpec{
		{Field: FieldPosition, Patterns: []string{"position"}, Paired: true, Required: true},
		{Field: FieldClicks, Patterns: []string{"click"}, Paired: true},
		{Field: FieldSessions, Patterns: []string{"session"}, Exclude: sessionLookalikes, Paired: true},
		{Field: FieldImpressions, Patterns: []string{"impression"}},
		{Field: FieldCTR, Patterns: []string{"ctr"}},
	},
	RequireOneOf: [][]Field{{FieldClicks, FieldSessions}},
}

// TrafficSchema describes an analytics landing page export.
var TrafficSchema = Schema{
	Name: "analytics",
	Fields: []FieldSpec{
		{Field: FieldSessions, Patterns: []string{"session"}, Exclude: sessionLookalikes, Paired: true, Required: true},
		{Field: FieldBounce, Patterns: []string{"bounce"}},
		{Field: FieldDuration, Patterns: []string{"duration"}},
	},
}

// Mapping holds the resolved column indices of each field, current period
// first.
type Mapping map[Field][]int

// Current returns the column of the current period value.
func (m Mapping) Current(f Field) (int, bool) {
	cols := m[f]
	if len(cols) == 0 {
		return -1, false
	}
	return cols[0], true
}

// Previous returns the column of the previous period value.
func (m Mapping) Previous(f Field) (int, bool) {
	cols := m[f]
	if len(cols) < 2 {
		return -1, false
	}
	return cols[1], true
}

// Has reports whether the field resolved to at least one column.
func (m Mapping) Has(f Field) bool {
	return len(m[f]) > 0
}

// Resolve matches the schema against a header where each period has its own
// column. Columns whose name contains "previous" sort after the others, so
// the current column never depends on header order.
func (s Schema) Resolve(header []string) (Mapping, error) {
	return s.resolve(header, true)
}

// ResolvePivoted matches the schema against a header of a pivoted export,
// where both periods share one column and live on separate rows.
func (s Schema) ResolvePivoted(header []string) (Mapping, error) {
	return s.resolve(header, false)
}

func (s Schema) resolve(header []string, paired bool) (Mapping, error) {
	m := Mapping{}
	var missing []string
	for _, spec := range s.Fields {
		cols := matchColumns(header, spec)
		need := 1
		if paired && spec.Paired {
			need = 2
		}
		if len(cols) < need {
			if spec.Required {
				missing = append(missing, describe(spec.Field, need))
			}
			continue
		}
		m[spec.Field] = cols
	}
	for _, group := range s.RequireOneOf {
		found := false
		names := make([]string, 0, len(group))
		for _, f := range group {
			names = append(names, string(f))
			if m.Has(f) {
				found = true
			}
		}
		if !found {
			need := 1
			if paired {
				need = 2
			}
			missing = append(missing, describe(Field(strings.Join(names, " or ")), need))
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Schema: s.Name, Missing: missing}
	}
	return m, nil
}

func matchColumns(header []string, spec FieldSpec) []int {
	var cols []int
	for i, h := range header {
		name := strings.ToLower(h)
		if containsAny(name, spec.Patterns) && !containsAny(name, spec.Exclude) {
			cols = append(cols, i)
		}
	}
	sort.SliceStable(cols, func(i, j int) bool {
		return !isPrevious(header[cols[i]]) && isPrevious(header[cols[j]])
	})
	return cols
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func isPrevious(name string) bool {
	return strings.Contains(strings.ToLower(name), "previous")
}

func describe(f Field, need int) string {
	if need == 2 {
		return string(f) + " (current and previous period)"
	}
	return string(f)
}
