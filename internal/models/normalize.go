package models

import (
	"encoding/json"
	"fmt"
	"sort"
)

// misplacedUnderMining are top-level project fields that some records store
// inside the mining object.
var misplacedUnderMining = []string{"market_data", "data_sources", "notes", "last_updated"}

// NormalizeProject repairs known malformed shapes in a raw project record and
// returns a corrected deep copy. The input is left untouched. Applying it to
// its own output is a no-op.
func NormalizeProject(raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		return nil
	}
	out := deepCopy(raw).(map[string]interface{})

	if mining, ok := out["mining"].(map[string]interface{}); ok {
		for _, key := range misplacedUnderMining {
			nested, found := mining[key]
			if !found || isAbsent(nested) || !isAbsent(out[key]) {
				continue
			}
			out[key] = nested
			delete(mining, key)
		}

		if decentr, ok := mining["decentralization"].(map[string]interface{}); ok {
			promote(decentr, "largest_pool_current", "largest_pool")
		}
	}

	if emission, ok := out["emission"].(map[string]interface{}); ok {
		if schedule, ok := emission["halving_schedule"].([]interface{}); ok {
			for _, item := range schedule {
				if event, ok := item.(map[string]interface{}); ok {
					promote(event, "date_est", "date")
				}
			}
		}
	}

	return out
}

// NormalizeGenesis canonicalizes a raw genesis record: allocation buckets that
// list their holders under "recipients" are moved to "investors".
func NormalizeGenesis(raw map[string]interface{}) map[string]interface{} {
	if raw == nil {
		return nil
	}
	out := deepCopy(raw).(map[string]interface{})

	tiers, ok := out["allocation_tiers"].(map[string]interface{})
	if !ok {
		return out
	}
	for _, t := range tiers {
		tier, ok := t.(map[string]interface{})
		if !ok {
			continue
		}
		buckets, ok := tier["buckets"].([]interface{})
		if !ok {
			continue
		}
		for _, b := range buckets {
			if bucket, ok := b.(map[string]interface{}); ok {
				promote(bucket, "recipients", "investors")
			}
		}
	}
	return out
}

// DecodeProject parses and normalizes a raw project document.
func DecodeProject(data []byte) (*Project, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("failed to decode project: empty document")
	}

	var project Project
	if err := remarshal(NormalizeProject(raw), &project); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	return &project, nil
}

// DecodeGenesis parses and normalizes a raw genesis document.
func DecodeGenesis(data []byte) (*GenesisAllocation, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode genesis: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("failed to decode genesis: empty document")
	}

	var genesis GenesisAllocation
	if err := remarshal(NormalizeGenesis(raw), &genesis); err != nil {
		return nil, fmt.Errorf("failed to decode genesis: %w", err)
	}
	return &genesis, nil
}

// DecodeVesting parses a vesting schedule and orders its entries by month.
func DecodeVesting(data []byte) (*VestingSchedule, error) {
	var schedule VestingSchedule
	if err := json.Unmarshal(data, &schedule); err != nil {
		return nil, fmt.Errorf("failed to decode vesting schedule: %w", err)
	}
	sort.SliceStable(schedule.MonthlySchedule, func(i, j int) bool {
		return schedule.MonthlySchedule[i].Month < schedule.MonthlySchedule[j].Month
	})
	return &schedule, nil
}

func remarshal(in map[string]interface{}, out interface{}) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// promote moves m[from] to m[to] when m[to] is absent.
func promote(m map[string]interface{}, from, to string) {
	v, found := m[from]
	if !found {
		return
	}
	if isAbsent(m[to]) && !isAbsent(v) {
		m[to] = v
		delete(m, from)
	}
}

func isAbsent(v interface{}) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	default:
		return false
	}
}

func deepCopy(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		m := make(map[string]interface{}, len(x))
		for k, val := range x {
			m[k] = deepCopy(val)
		}
		return m
	case []interface{}:
		s := make([]interface{}, len(x))
		for i, val := range x {
			s[i] = deepCopy(val)
		}
		return s
	default:
		return x
	}
}
