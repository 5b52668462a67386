package dashboard

import "github.com/cannonQ/pow-tracker-site/internal/fairness"

// Stats are the headline counts of the dashboard. Suspicious projects are
// counted on their own and also appear in their launch category.
type Stats struct {
	Total      int `json:"total"`
	Fair       int `json:"fair"`
	Premined   int `json:"premined"`
	Emission   int `json:"emission"`
	Suspicious int `json:"suspicious"`
}

func ComputeStats(views []ProjectView) Stats {
	s := Stats{Total: len(views)}
	for _, v := range views {
		switch v.Badge.Category {
		case fairness.CategoryEmission:
			s.Emission++
		case fairness.CategoryPremined:
			s.Premined++
		case fairness.CategoryFair:
			s.Fair++
		}
		if v.Suspicious {
			s.Suspicious++
		}
	}
	return s
}
