// Package vesting computes unlock progress of a genesis allocation from its
// month-by-month schedule.
package vesting

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cannonQ/pow-tracker-site/internal/models"
)

const (
	// AverageMonthDays is the fixed month length used to convert elapsed time
	// into schedule months.
	AverageMonthDays = 30.44

	// TierCompletePct is the progress at which a tier counts as fully unlocked.
	TierCompletePct = 99.0

	bucketCompletePct  = 99.9
	largeUnlockShare   = 0.05
	minKeyEvents       = 8
	checkpointInterval = 12
	lastCheckpoint     = 120
)

// Progress is the unlock state of a schedule at a reference date. Percent
// and remaining figures are nil when the schedule has no positive total.
type Progress struct {
	MonthsSinceGenesis int                 `json:"months_since_genesis"`
	CurrentUnlocked    float64             `json:"current_unlocked"`
	TotalTokens        *float64            `json:"total_tokens"`
	Remaining          *float64            `json:"remaining"`
	ProgressPct        *float64            `json:"progress_pct"`
	NextUnlock         *models.MonthEntry  `json:"next_unlock"`
	LargestUnlock      *models.MonthEntry  `json:"largest_unlock"`
	Tiers              []TierProgress      `json:"tiers"`
	PastEvents         []models.MonthEntry `json:"past_events"`
	FutureEvents       []models.MonthEntry `json:"future_events"`
}

// TierProgress is the unlocked share of one allocation tier.
type TierProgress struct {
	Tier        models.TierID `json:"tier"`
	Label       string        `json:"label"`
	Unlocked    float64       `json:"unlocked"`
	Total       float64       `json:"total"`
	ProgressPct *float64      `json:"progress_pct"`
	Complete    bool          `json:"complete"`
}

// MonthsSinceGenesis floors the elapsed time in AverageMonthDays months. A
// genesis date after now gives 0.
func MonthsSinceGenesis(genesis, now time.Time) int {
	if genesis.After(now) {
		return 0
	}
	days := now.Sub(genesis).Hours() / 24
	return int(math.Floor(days / AverageMonthDays))
}

// Calculate returns nil for an empty schedule or one without a genesis date.
func Calculate(s *models.VestingSchedule, now time.Time) *Progress {
	if s == nil || len(s.MonthlySchedule) == 0 || !s.GenesisDate.Valid() {
		return nil
	}
	schedule := s.MonthlySchedule
	months := MonthsSinceGenesis(s.GenesisDate.Time, now)

	p := &Progress{MonthsSinceGenesis: months}

	current := currentEntry(schedule, months)
	if current != nil {
		p.CurrentUnlocked = current.Total.CumulativeTokens
	}

	if s.TotalGenesisAllocationTokens != nil && *s.TotalGenesisAllocationTokens > 0 {
		total := *s.TotalGenesisAllocationTokens
		p.TotalTokens = models.Float(total)
		p.Remaining = models.Float(total - p.CurrentUnlocked)
		p.ProgressPct = models.Float(p.CurrentUnlocked / total * 100)
	}

	for i := range schedule {
		e := schedule[i]
		if e.Month <= months || e.Total.UnlockTokens <= 0 {
			continue
		}
		if p.NextUnlock == nil {
			p.NextUnlock = &e
		}
		if p.LargestUnlock == nil || e.Total.UnlockTokens > p.LargestUnlock.Total.UnlockTokens {
			p.LargestUnlock = &e
		}
	}

	p.Tiers = tierProgress(schedule, months)
	p.PastEvents, p.FutureEvents = splitEvents(KeyEvents(s), months)
	return p
}

// currentEntry picks the entry with the largest month not after months,
// clamping to the last entry.
func currentEntry(schedule []models.MonthEntry, months int) *models.MonthEntry {
	var found *models.MonthEntry
	for i := range schedule {
		if schedule[i].Month > months {
			break
		}
		found = &schedule[i]
	}
	return found
}

// tierProgress reads the tier cumulative at the exact month; tiers with no
// entry at that month count as 0 unlocked.
func tierProgress(schedule []models.MonthEntry, months int) []TierProgress {
	last := schedule[len(schedule)-1]

	var exact *models.MonthEntry
	for i := range schedule {
		if schedule[i].Month == months {
			exact = &schedule[i]
			break
		}
	}

	var out []TierProgress
	for _, id := range models.TrackedTiers {
		total, ok := last.TierAggregates[id]
		if !ok {
			continue
		}
		tp := TierProgress{Tier: id, Label: id.Label(), Total: total.CumulativeTokens}
		if exact != nil {
			tp.Unlocked = exact.TierAggregates[id].CumulativeTokens
		}
		if tp.Total > 0 {
			pct := tp.Unlocked / tp.Total * 100
			tp.ProgressPct = &pct
			tp.Complete = pct >= TierCompletePct
		}
		out = append(out, tp)
	}
	return out
}

// KeyEvents selects the schedule entries worth showing on a timeline: month
// 0, large unlocks, bucket completions, then yearly checkpoints until there
// are at least eight. The result is ordered by month.
func KeyEvents(s *models.VestingSchedule) []models.MonthEntry {
	if s == nil || len(s.MonthlySchedule) == 0 {
		return nil
	}
	threshold := math.Inf(1)
	if s.TotalGenesisAllocationTokens != nil && *s.TotalGenesisAllocationTokens > 0 {
		threshold = *s.TotalGenesisAllocationTokens * largeUnlockShare
	}

	byMonth := make(map[int]models.MonthEntry, len(s.MonthlySchedule))
	selected := make(map[int]bool)
	for _, e := range s.MonthlySchedule {
		byMonth[e.Month] = e
		if e.Month == 0 || e.Total.UnlockTokens > threshold || hasCompletion(e) {
			selected[e.Month] = true
		}
	}

	for m := checkpointInterval; m <= lastCheckpoint && len(selected) < minKeyEvents; m += checkpointInterval {
		if _, ok := byMonth[m]; ok {
			selected[m] = true
		}
	}

	out := make([]models.MonthEntry, 0, len(selected))
	for m := range selected {
		out = append(out, byMonth[m])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

func hasCompletion(e models.MonthEntry) bool {
	for _, b := range e.Buckets {
		if b.CumulativePctOfBucket >= bucketCompletePct || strings.Contains(strings.ToLower(b.Note), "complete") {
			return true
		}
	}
	return false
}

func splitEvents(events []models.MonthEntry, months int) (past, future []models.MonthEntry) {
	for _, e := range events {
		if e.Month <= months {
			past = append(past, e)
		} else {
			future = append(future, e)
		}
	}
	return past, future
}
