package dashboard

import (
	"math"
	"sort"
	"strings"

	"github.com/cannonQ/pow-tracker-site/internal/metrics"
	"github.com/cannonQ/pow-tracker-site/internal/models"
)

type Filter string

const (
	FilterAll        Filter = "all"
	FilterFair       Filter = "fair"
	FilterPremine    Filter = "premine"
	FilterEmission   Filter = "emission"
	FilterSuspicious Filter = "suspicious"
)

type SortKey string

const (
	SortName    SortKey = "name"
	SortFDMC    SortKey = "fdmc"
	SortLaunch  SortKey = "launch"
	SortPremine SortKey = "premine"
	SortMined   SortKey = "mined"
)

// Query is the filter, sort order and search term of one listing request.
type Query struct {
	Filter Filter  `json:"filter"`
	Sort   SortKey `json:"sort"`
	Search string  `json:"search"`
}

// ParseQuery maps raw request values to a Query. Unknown filters select all
// projects and unknown sort keys sort by name.
func ParseQuery(filter, sortKey, search string) Query {
	q := Query{Filter: FilterAll, Sort: SortName, Search: strings.TrimSpace(search)}
	switch f := Filter(strings.ToLower(filter)); f {
	case FilterFair, FilterPremine, FilterEmission, FilterSuspicious:
		q.Filter = f
	}
	switch s := SortKey(strings.ToLower(sortKey)); s {
	case SortFDMC, SortLaunch, SortPremine, SortMined:
		q.Sort = s
	}
	return q
}

// SelectAndOrder filters views by q and returns them in q's order. Every
// order is stable and ties fall back to the project name. The input is not
// modified.
func SelectAndOrder(views []ProjectView, q Query) []ProjectView {
	term := strings.ToLower(q.Search)
	out := make([]ProjectView, 0, len(views))
	for _, v := range views {
		if !matches(v, q.Filter) {
			continue
		}
		if term != "" && !searchHit(v, term) {
			continue
		}
		out = append(out, v)
	}

	less := lessFunc(q.Sort)
	sort.SliceStable(out, func(i, j int) bool {
		if c := less(out[i], out[j]); c != 0 {
			return c < 0
		}
		return compareNames(out[i], out[j]) < 0
	})
	return out
}

func matches(v ProjectView, f Filter) bool {
	p, g := v.Project, v.Genesis
	switch f {
	case FilterFair:
		return p != nil && !metrics.HasAllocation(p, g) && p.LaunchType == models.LaunchFair
	case FilterPremine:
		return metrics.HasAllocation(p, g)
	case FilterEmission:
		return metrics.IsEmission(g)
	case FilterSuspicious:
		return v.Suspicious
	}
	return true
}

func searchHit(v ProjectView, term string) bool {
	if v.Project == nil {
		return strings.Contains(strings.ToLower(v.Name), term)
	}
	return strings.Contains(strings.ToLower(v.Project.Project), term) ||
		strings.Contains(strings.ToLower(v.Project.Ticker), term)
}

// lessFunc returns a three-way comparison for key. Numeric keys sort
// descending with absent values treated as 0.
func lessFunc(key SortKey) func(a, b ProjectView) int {
	switch key {
	case SortFDMC:
		return func(a, b ProjectView) int { return descending(models.Value(a.FDMC), models.Value(b.FDMC)) }
	case SortLaunch:
		return func(a, b ProjectView) int { return descending(launchUnix(a), launchUnix(b)) }
	case SortPremine:
		return func(a, b ProjectView) int { return descending(a.PreminePct, b.PreminePct) }
	case SortMined:
		return func(a, b ProjectView) int { return descending(models.Value(a.MinedPct), models.Value(b.MinedPct)) }
	}
	return compareNames
}

func descending(a, b float64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

// launchUnix puts records without a launch date last.
func launchUnix(v ProjectView) float64 {
	if v.Project == nil || !v.Project.LaunchDate.Valid() {
		return math.Inf(-1)
	}
	return float64(v.Project.LaunchDate.Unix())
}

func displayName(v ProjectView) string {
	if v.Project != nil && v.Project.Project != "" {
		return v.Project.Project
	}
	return v.Name
}

func compareNames(a, b ProjectView) int {
	x, y := strings.ToLower(displayName(a)), strings.ToLower(displayName(b))
	if x != y {
		return strings.Compare(x, y)
	}
	return strings.Compare(a.Name, b.Name)
}
