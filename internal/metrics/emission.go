package metrics

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/cannonQ/pow-tracker-site/internal/models"
)

// MaxTimelineEvents caps each displayed event list.
const MaxTimelineEvents = 5

// MaxWaterfallEvents caps the displayed vesting waterfall.
const MaxWaterfallEvents = 10

type EventStatus string

const (
	StatusPast     EventStatus = "past"
	StatusUpcoming EventStatus = "upcoming"
	StatusUndated  EventStatus = "undated"
)

// TimelineEvent is a halving or milestone with its temporal status.
type TimelineEvent struct {
	models.HalvingEvent
	Title  string      `json:"title"`
	Status EventStatus `json:"status"`
}

// HalvingSplit separates structural halvings from narrative milestones.
type HalvingSplit struct {
	Halvings   []TimelineEvent `json:"halvings"`
	Milestones []TimelineEvent `json:"milestones"`
}

// SplitHalvingSchedule classifies the schedule into halvings and milestones,
// keeping source order and the first MaxTimelineEvents of each.
func SplitHalvingSchedule(p *models.Project, now time.Time) HalvingSplit {
	var split HalvingSplit
	if p == nil || p.Emission == nil {
		return split
	}

	for _, e := range p.Emission.HalvingSchedule {
		if e.IsHalving() {
			if len(split.Halvings) < MaxTimelineEvents {
				split.Halvings = append(split.Halvings, TimelineEvent{
					HalvingEvent: e,
					Title:        halvingTitle(e),
					Status:       Status(e.Date, now),
				})
			}
			continue
		}
		if len(split.Milestones) < MaxTimelineEvents {
			split.Milestones = append(split.Milestones, TimelineEvent{
				HalvingEvent: e,
				Title:        milestoneTitle(e),
				Status:       Status(e.Date, now),
			})
		}
	}
	return split
}

// Status returns past or upcoming for a dated event, undated otherwise.
func Status(d models.Date, now time.Time) EventStatus {
	if !d.Valid() {
		return StatusUndated
	}
	if d.Before(now) {
		return StatusPast
	}
	return StatusUpcoming
}

func halvingTitle(e models.HalvingEvent) string {
	if name := firstNonEmpty(e.Event, e.Name); name != "" {
		return titleCase(name)
	}
	return fmt.Sprintf("Block %d", *e.Height)
}

func milestoneTitle(e models.HalvingEvent) string {
	name := firstNonEmpty(e.Event, e.Name)
	if name == "" {
		return "Milestone"
	}
	return titleCase(name)
}

// titleCase turns "chromatic_phase" into "Chromatic Phase".
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	runes := []rune(s)
	start := true
	for i, r := range runes {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start {
				runes[i] = unicode.ToUpper(r)
			}
			start = false
			continue
		}
		start = true
	}
	return string(runes)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// WaterfallEntry is one vesting waterfall line dated from the genesis date.
type WaterfallEntry struct {
	models.WaterfallEvent
	Date   models.Date `json:"date"`
	Status EventStatus `json:"status"`
}

// VestingWaterfall dates the first MaxWaterfallEvents waterfall lines by
// adding calendar months to the genesis date.
func VestingWaterfall(g *models.GenesisAllocation, now time.Time) []WaterfallEntry {
	if g == nil || len(g.VestingWaterfall) == 0 {
		return nil
	}
	events := g.VestingWaterfall
	if len(events) > MaxWaterfallEvents {
		events = events[:MaxWaterfallEvents]
	}

	out := make([]WaterfallEntry, 0, len(events))
	for _, e := range events {
		var d models.Date
		if g.GenesisDate.Valid() {
			d = models.NewDate(g.GenesisDate.AddDate(0, e.Month, 0))
		}
		out = append(out, WaterfallEntry{
			WaterfallEvent: e,
			Date:           d,
			Status:         Status(d, now),
		})
	}
	return out
}
