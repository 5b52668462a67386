// Package fairness classifies how a project's supply was launched.
package fairness

import (
	"time"

	"github.com/cannonQ/pow-tracker-site/internal/metrics"
	"github.com/cannonQ/pow-tracker-site/internal/models"
)

type Category string

const (
	CategoryEmission   Category = "emission"
	CategoryPremined   Category = "premined"
	CategorySuspicious Category = "suspicious"
	CategoryFair       Category = "fair"
	CategoryOther      Category = "other"
)

// CSS classes of the launch badge.
const (
	ClassEmission      = "badge-emission"
	ClassPremine       = "badge-premine"
	ClassPremineParity = "badge-premine-parity"
	ClassSuspicious    = "badge-suspicious"
	ClassFair          = "badge-fair"
)

// Badge describes the launch badge shown on cards and detail pages.
type Badge struct {
	Category Category `json:"category"`
	Label    string   `json:"label"`
	CSSClass string   `json:"css_class"`
	Icon     string   `json:"icon"`
}

// Classify maps a project and its optional genesis record to a badge.
// Precedence: emission, premine, suspicious, fair, then the raw launch type.
func Classify(p *models.Project, g *models.GenesisAllocation) Badge {
	if metrics.IsEmission(g) {
		return Badge{Category: CategoryEmission, Label: "Emission", CSSClass: ClassEmission, Icon: "⏳"}
	}
	if (p != nil && p.HasPremine) || (g != nil && g.HasPremine) {
		return Badge{Category: CategoryPremined, Label: "Premine", CSSClass: ClassPremine, Icon: "⚡"}
	}
	if p == nil {
		return Badge{Category: CategoryOther, CSSClass: ClassPremine}
	}

	switch p.LaunchType {
	case models.LaunchFairWithSuspicion:
		return Badge{Category: CategorySuspicious, Label: "Suspicious", CSSClass: ClassSuspicious, Icon: "⚠"}
	case models.LaunchFair:
		return Badge{Category: CategoryFair, Label: "Fair Launch", CSSClass: ClassFair, Icon: "✓"}
	}
	return Badge{Category: CategoryOther, Label: string(p.LaunchType), CSSClass: ClassPremine}
}

// ClassifyAt is Classify with the premine badge restyled once miners have
// reached parity at now.
func ClassifyAt(p *models.Project, g *models.GenesisAllocation, now time.Time) Badge {
	b := Classify(p, g)
	if b.Category == CategoryPremined && HasMinersAchievedParity(p, g, now) {
		b.CSSClass = ClassPremineParity
	}
	return b
}

// IsSuspicious reports a suspected insider-mined launch. It is independent of
// the badge category, so a premined project may also be suspicious.
func IsSuspicious(p *models.Project) bool {
	return p != nil && p.LaunchType == models.LaunchFairWithSuspicion
}

// PreminePercent returns the genesis allocation percent, or 0 without an
// allocation flag or a genesis record.
func PreminePercent(p *models.Project, g *models.GenesisAllocation) float64 {
	if !metrics.HasAllocation(p, g) || g == nil {
		return 0
	}
	return models.Value(g.TotalGenesisAllocationPct)
}

// HasMinersAchievedParity reports whether block rewards mined since launch
// cover the genesis allocation.
//
// Linear approximation: daily emission is taken as constant since launch, so
// halvings in between are ignored.
func HasMinersAchievedParity(p *models.Project, g *models.GenesisAllocation, now time.Time) bool {
	if !metrics.HasAllocation(p, g) || g == nil {
		return false
	}
	return metrics.Parity(p, g, now).State == metrics.ParityAchieved
}
