// Package progress computes frequency-weighted weekly completion.
package progress

import "twelve-week-year/internal/model"

// SuccessThreshold is the percentage a week needs to count as successful.
const SuccessThreshold = 80.0

// WeightOf returns how much a task of the given frequency contributes to a
// week. Unknown frequencies weigh 1.
func WeightOf(f model.Frequency) float64 {
	switch f {
	case model.FrequencyDaily:
		return 7
	case model.FrequencyWeekdays:
		return 5
	case model.FrequencyWeekends:
		return 2
	case model.FrequencyThreeTimesWeek:
		return 3
	case model.FrequencyTwiceWeek:
		return 2
	case model.FrequencyWeekly:
		return 1
	case model.FrequencyBiweekly:
		return 0.5
	case model.FrequencyMonthly:
		return 0.25
	case model.FrequencyOnce:
		return 1
	default:
		return 1
	}
}

// Completion is the weighted result for a set of tasks.
type Completion struct {
	Percentage      float64
	IsSuccessful    bool
	TotalWeight     float64
	CompletedWeight float64
	CompletedCount  int
	TotalCount      int
}

// TaskProgress returns the fraction in [0, 1] a task contributes.
// Week-specific tasks are all or nothing.
func TaskProgress(t model.Task) float64 {
	if !t.IsRecurring() {
		if t.Completed {
			return 1
		}
		return 0
	}
	count := t.CompletionCount
	if count <= 0 {
		return 0
	}
	ratio := float64(count) / float64(t.Target())
	if ratio > 1 {
		return 1
	}
	return ratio
}

// WeightedCompletion sums weights over tasks. An empty list yields a zero
// Completion.
func WeightedCompletion(tasks []model.Task) Completion {
	var c Completion
	c.TotalCount = len(tasks)
	for _, t := range tasks {
		w := WeightOf(t.Frequency)
		c.TotalWeight += w
		c.CompletedWeight += w * TaskProgress(t)
		if t.Completed {
			c.CompletedCount++
		}
	}
	if c.TotalWeight > 0 {
		c.Percentage = c.CompletedWeight / c.TotalWeight * 100
	}
	c.IsSuccessful = IsSuccessful(c.Percentage)
	return c
}

func IsSuccessful(pct float64) bool {
	return pct >= SuccessThreshold
}

// OverallProgress is the mean of the cached weekly percentages.
func OverallProgress(plans []model.WeeklyPlan) float64 {
	if len(plans) == 0 {
		return 0
	}
	var sum float64
	for _, p := range plans {
		sum += p.CompletionPercentage
	}
	return sum / float64(len(plans))
}
