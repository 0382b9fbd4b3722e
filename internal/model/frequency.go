package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidFrequency = errors.New("model: invalid frequency")
	ErrInvalidTaskType  = errors.New("model: invalid task type")
	ErrInvalidPriority  = errors.New("model: invalid priority")
)

// Frequency is how often a recurring task is expected to be done.
// Values are stored lower-case.
type Frequency string

const (
	FrequencyDaily          Frequency = "daily"
	FrequencyWeekdays       Frequency = "weekdays"
	FrequencyWeekends       Frequency = "weekends"
	FrequencyThreeTimesWeek Frequency = "three_times_week"
	FrequencyTwiceWeek      Frequency = "twice_week"
	FrequencyWeekly         Frequency = "weekly"
	FrequencyBiweekly       Frequency = "biweekly"
	FrequencyMonthly        Frequency = "monthly"
	FrequencyOnce           Frequency = "once"
)

// Frequencies lists every known frequency in display order.
var Frequencies = []Frequency{
	FrequencyDaily,
	FrequencyWeekdays,
	FrequencyWeekends,
	FrequencyThreeTimesWeek,
	FrequencyTwiceWeek,
	FrequencyWeekly,
	FrequencyBiweekly,
	FrequencyMonthly,
	FrequencyOnce,
}

func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekdays, FrequencyWeekends, FrequencyThreeTimesWeek,
		FrequencyTwiceWeek, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyOnce:
		return true
	}
	return false
}

// CompletionTarget returns the number of completions expected per week.
// Unknown frequencies expect a single completion.
func (f Frequency) CompletionTarget() int {
	switch f {
	case FrequencyDaily:
		return 7
	case FrequencyWeekdays:
		return 5
	case FrequencyWeekends:
		return 2
	case FrequencyThreeTimesWeek:
		return 3
	case FrequencyTwiceWeek:
		return 2
	default:
		return 1
	}
}

// Label is a short human readable name.
func (f Frequency) Label() string {
	switch f {
	case FrequencyThreeTimesWeek:
		return "3x week"
	case FrequencyTwiceWeek:
		return "2x week"
	}
	return string(f)
}

// ParseFrequency accepts any casing and surrounding whitespace, and also
// dashes or spaces in place of underscores.
func ParseFrequency(raw string) (Frequency, error) {
	f := Frequency(canonical(raw))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, raw)
	}
	return f, nil
}

// TaskType separates binary week-bound tasks from count-based recurring ones.
type TaskType string

const (
	TaskTypeRecurring    TaskType = "recurring"
	TaskTypeWeekSpecific TaskType = "week_specific"
)

func (t TaskType) IsValid() bool {
	return t == TaskTypeRecurring || t == TaskTypeWeekSpecific
}

func ParseTaskType(raw string) (TaskType, error) {
	t := TaskType(canonical(raw))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidTaskType, raw)
	}
	return t, nil
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParsePriority returns medium for an empty value.
func ParsePriority(raw string) (Priority, error) {
	if strings.TrimSpace(raw) == "" {
		return PriorityMedium, nil
	}
	p := Priority(canonical(raw))
	if !p.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, raw)
	}
	return p, nil
}

func canonical(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer("-", "_", " ", "_").Replace(s)
}
