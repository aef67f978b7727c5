package ingest

import "io"

// pivotBlock is the number of physical rows per URL in a pivoted analytics
// export: label row, current period row, previous period row.
const pivotBlock = 3

// LoadPrimary reads and parses a search performance export.
func LoadPrimary(r io.Reader) ([]PerformanceRow, error) {
	t, err := ReadTable(r, TableOptions{})
	if err != nil {
		return nil, err
	}
	return ParsePerformance(t)
}

// LoadSecondary reads and parses an analytics landing page export, skipping
// any report preamble before the header row.
func LoadSecondary(r io.Reader) ([]PerformanceRow, error) {
	t, err := ReadTable(r, TableOptions{HeaderMarker: SecondaryHeaderMarker})
	if err != nil {
		return nil, err
	}
	return ParseTraffic(t)
}

// ParsePerformance converts a search performance table into rows. Totals
// rows and rows whose first cell is not a URL are dropped; unparsable cells
// count as zero.
func ParsePerformance(t *Table) ([]PerformanceRow, error) {
	m, err := PrimarySchema.Resolve(t.Header)
	if err != nil {
		return nil, err
	}

	var rows []PerformanceRow
	for _, raw := range t.Rows {
		first := cell(raw, 0)
		if IsAggregateRow(first) || !LooksLikeURL(first) {
			continue
		}
		r := PerformanceRow{
			URL:              first,
			Key:              NormalizeURL(first),
			PositionCurrent:  current(raw, m, FieldPosition),
			PositionPrevious: previous(raw, m, FieldPosition),
		}
		if m.Has(FieldClicks) {
			r.ClicksCurrent = current(raw, m, FieldClicks)
			r.ClicksPrevious = previous(raw, m, FieldClicks)
		}
		if m.Has(FieldSessions) {
			r.SessionsCurrent = current(raw, m, FieldSessions)
			r.SessionsPrevious = previous(raw, m, FieldSessions)
			r.HasSessions = true
		}
		r.ImpressionsCurrent = current(raw, m, FieldImpressions)
		r.CTRCurrent = current(raw, m, FieldCTR)
		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return nil, &InputFormatError{Reason: "no URL rows left after removing totals and non-URL rows"}
	}
	return rows, nil
}

// ParseTraffic converts an analytics table into rows carrying sessions,
// bounce rate and average duration. Both the flat layout (one column per
// period) and the pivoted layout (one row per period) are accepted.
func ParseTraffic(t *Table) ([]PerformanceRow, error) {
	if IsPivoted(t) {
		return parsePivoted(t)
	}

	m, err := TrafficSchema.Resolve(t.Header)
	if err != nil {
		return nil, err
	}

	var rows []PerformanceRow
	for _, raw := range t.Rows {
		first := cell(raw, 0)
		if IsAggregateRow(first) || !LooksLikeURL(first) {
			continue
		}
		rows = append(rows, PerformanceRow{
			URL:              first,
			Key:              NormalizeURL(first),
			SessionsCurrent:  current(raw, m, FieldSessions),
			SessionsPrevious: previous(raw, m, FieldSessions),
			HasSessions:      true,
			BounceRate:       current(raw, m, FieldBounce),
			AvgDuration:      current(raw, m, FieldDuration),
		})
	}
	if len(rows) == 0 {
		return nil, &InputFormatError{Reason: "no landing page rows found in analytics export"}
	}
	return rows, nil
}

// IsPivoted reports whether the table spreads each URL over a label row
// followed by per-period rows whose first cell is a date range or empty.
func IsPivoted(t *Table) bool {
	for i, raw := range t.Rows {
		first := cell(raw, 0)
		if !LooksLikeURL(first) {
			continue
		}
		if i+1 >= len(t.Rows) {
			return false
		}
		next := cell(t.Rows[i+1], 0)
		return next == "" || isPeriodLabel(next)
	}
	return false
}

func parsePivoted(t *Table) ([]PerformanceRow, error) {
	m, err := TrafficSchema.ResolvePivoted(t.Header)
	if err != nil {
		return nil, err
	}
	sessions, _ := m.Current(FieldSessions)
	bounce, hasBounce := m.Current(FieldBounce)
	duration, hasDuration := m.Current(FieldDuration)

	var rows []PerformanceRow
	for i := 0; i+pivotBlock-1 < len(t.Rows); {
		label := cell(t.Rows[i], 0)
		if IsAggregateRow(label) || !LooksLikeURL(label) {
			// Resynchronise on the next label row, e.g. after a "% change" row.
			i++
			continue
		}
		cur, prev := t.Rows[i+1], t.Rows[i+2]
		r := PerformanceRow{
			URL:              label,
			Key:              NormalizeURL(label),
			SessionsCurrent:  CleanNumber(cell(cur, sessions)),
			SessionsPrevious: CleanNumber(cell(prev, sessions)),
			HasSessions:      true,
		}
		if hasBounce {
			r.BounceRate = CleanNumber(cell(cur, bounce))
		}
		if hasDuration {
			r.AvgDuration = CleanNumber(cell(cur, duration))
		}
		rows = append(rows, r)
		i += pivotBlock
	}
	if len(rows) == 0 {
		return nil, &InputFormatError{Reason: "no landing page blocks found in pivoted analytics export"}
	}
	return rows, nil
}

func current(raw []string, m Mapping, f Field) float64 {
	idx, ok := m.Current(f)
	if !ok {
		return 0
	}
	return CleanNumber(cell(raw, idx))
}

func previous(raw []string, m Mapping, f Field) float64 {
	idx, ok := m.Previous(f)
	if !ok {
		return 0
	}
	return CleanNumber(cell(raw, idx))
}
