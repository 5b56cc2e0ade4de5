package entities

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// FilterCriteria selects the encounters shown on the dashboard.
// The check-in range is half-open: Start <= t < End.
type FilterCriteria struct {
	Clinic       string    `json:"clinic"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	AdmitSources []string  `json:"admit_sources"`
}

// Matcher is a compiled form of FilterCriteria with O(1) admit source lookup
type Matcher struct {
	clinic  string
	start   time.Time
	end     time.Time
	sources map[string]struct{}
}

// Matcher compiles the criteria
func (c FilterCriteria) Matcher() Matcher {
	sources := make(map[string]struct{}, len(c.AdmitSources))
	for _, s := range c.AdmitSources {
		sources[s] = struct{}{}
	}
	return Matcher{
		clinic:  c.Clinic,
		start:   c.Start,
		end:     c.End,
		sources: sources,
	}
}

// Match reports whether the encounter passes every filter
func (m Matcher) Match(e *Encounter) bool {
	if e.ClinicName != m.clinic {
		return false
	}
	if _, ok := m.sources[e.AdmitSource]; !ok {
		return false
	}
	return !e.CheckInTime.Before(m.start) && e.CheckInTime.Before(m.end)
}

// CacheKey returns a canonical representation that is independent of the
// order admit sources were supplied in. Every component is quoted, so values
// containing the separator cannot collide.
func (c FilterCriteria) CacheKey() string {
	sources := append([]string(nil), c.AdmitSources...)
	sort.Strings(sources)

	var b strings.Builder
	b.WriteString(strconv.Quote(c.Clinic))
	b.WriteByte('|')
	b.WriteString(c.Start.UTC().Format(time.RFC3339Nano))
	b.WriteByte('|')
	b.WriteString(c.End.UTC().Format(time.RFC3339Nano))
	b.WriteByte('|')
	b.WriteString(strconv.Itoa(len(sources)))
	for _, s := range sources {
		b.WriteByte('|')
		b.WriteString(strconv.Quote(s))
	}
	return b.String()
}

// FilterOptions lists the selectable values of the dataset
type FilterOptions struct {
	Clinics      []string  `json:"clinics"`
	AdmitSources []string  `json:"admit_sources"`
	Departments  []string  `json:"departments"`
	MinCheckIn   time.Time `json:"min_check_in"`
	MaxCheckIn   time.Time `json:"max_check_in"`

	// DefaultStart and DefaultEnd bound a half-open window covering every record
	DefaultStart time.Time `json:"default_start"`
	DefaultEnd   time.Time `json:"default_end"`
}

// DefaultCriteria returns the selection the dashboard opens with
func (o FilterOptions) DefaultCriteria() FilterCriteria {
	criteria := FilterCriteria{
		Start:        o.DefaultStart,
		End:          o.DefaultEnd,
		AdmitSources: append([]string(nil), o.AdmitSources...),
	}
	if len(o.Clinics) > 0 {
		criteria.Clinic = o.Clinics[0]
	}
	return criteria
}
