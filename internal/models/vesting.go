package models

// VestingSchedule is the month-by-month unlock schedule of a genesis
// allocation. MonthlySchedule is ordered by Month, starting at 0.
type VestingSchedule struct {
	Project                      string       `json:"project,omitempty"`
	GenesisDate                  Date         `json:"genesis_date"`
	TotalGenesisAllocationTokens *float64     `json:"total_genesis_allocation_tokens,omitempty"`
	MonthlySchedule              []MonthEntry `json:"monthly_schedule"`
}

// MonthEntry 每月解锁
type MonthEntry struct {
	Month          int                      `json:"month"`
	Date           Date                     `json:"date"`
	Total          MonthTotal               `json:"total"`
	TierAggregates map[TierID]TierAggregate `json:"tier_aggregates,omitempty"`
	Buckets        []BucketUnlock           `json:"buckets,omitempty"`
}

type MonthTotal struct {
	UnlockTokens           float64 `json:"unlock_tokens"`
	CumulativeTokens       float64 `json:"cumulative_tokens"`
	CumulativePctOfGenesis float64 `json:"cumulative_pct_of_genesis"`
}

type TierAggregate struct {
	UnlockTokens     float64 `json:"unlock_tokens"`
	CumulativeTokens float64 `json:"cumulative_tokens"`
}

type BucketUnlock struct {
	Name                  string  `json:"name"`
	Tier                  TierID  `json:"tier,omitempty"`
	UnlockTokens          float64 `json:"unlock_tokens"`
	CumulativeTokens      float64 `json:"cumulative_tokens"`
	CumulativePctOfBucket float64 `json:"cumulative_pct_of_bucket"`
	Note                  string  `json:"note,omitempty"`
}
