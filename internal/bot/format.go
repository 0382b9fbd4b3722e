package bot

import (
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"
	"unicode"

	"twelve-week-year/internal/model"
	"twelve-week-year/internal/progress"
)

const dateLayout = "2006-01-02"

type cycleArgs struct {
	start    time.Time
	title    string
	explicit bool
}

// parseCycleArgs reads "[YYYY-MM-DD] [title]". Without a date the cycle
// starts today.
func parseCycleArgs(raw string, now time.Time) (cycleArgs, error) {
	fields := strings.Fields(raw)
	args := cycleArgs{start: now, explicit: len(fields) > 0}

	if len(fields) > 0 && unicode.IsDigit([]rune(fields[0])[0]) {
		start, err := time.ParseInLocation(dateLayout, fields[0], now.Location())
		if err != nil {
			return cycleArgs{}, errors.New("use the date format YYYY-MM-DD, for example /cycle 2025-01-06")
		}
		args.start = start
		fields = fields[1:]
	}

	args.title = strings.Join(fields, " ")
	if args.title == "" {
		args.title = fmt.Sprintf("12 Week Year from %s", args.start.Format("Jan 2, 2006"))
	}
	return args, nil
}

// parseGoals splits "g1; g2; g3" and drops empty entries.
func parseGoals(raw string) []string {
	var goals []string
	for _, part := range strings.Split(raw, ";") {
		if part = strings.TrimSpace(part); part != "" {
			goals = append(goals, part)
		}
	}
	return goals
}

// pickWeek maps "this week" or a week number onto one of the cycle's weeks.
func pickWeek(text string, weeks []model.WeeklyPlan, now time.Time) (model.WeeklyPlan, error) {
	text = strings.TrimSpace(text)
	if strings.EqualFold(text, btnThisWeek) {
		for _, w := range weeks {
			if w.Contains(now) {
				return w, nil
			}
		}
		return model.WeeklyPlan{}, errors.New("no week of this cycle covers today, pick a number")
	}

	n, err := strconv.Atoi(text)
	if err != nil || n < 1 || n > len(weeks) {
		return model.WeeklyPlan{}, fmt.Errorf("send a week number from 1 to %d", len(weeks))
	}
	for _, w := range weeks {
		if w.WeekNumber == n {
			return w, nil
		}
	}
	return model.WeeklyPlan{}, fmt.Errorf("week %d is missing from this cycle", n)
}

func formatCycle(cycle model.TwelveWeekPlan, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗓 <b>%s</b>\n", escape(cycle.Title)))
	b.WriteString(fmt.Sprintf("%s – %s\n", cycle.StartDate.Format(dateLayout), cycle.EndDate.Format(dateLayout)))
	if len(cycle.Goals) > 0 {
		b.WriteString("\n🏁 <b>Goals</b>\n")
		for i, g := range cycle.Goals {
			b.WriteString(fmt.Sprintf("%d. %s\n", i+1, escape(g)))
		}
	}

	b.WriteString("\n")
	for _, w := range cycle.WeeklyPlans {
		marker := "  "
		switch {
		case w.Contains(now):
			marker = "▶️"
		case w.Ended(now) && w.IsSuccessful:
			marker = "✅"
		case w.Ended(now):
			marker = "▫️"
		}
		b.WriteString(fmt.Sprintf("%s Week %d · %s · %.1f%%\n", marker, w.WeekNumber, w.StartDate.Format("Jan 2"), w.CompletionPercentage))
	}
	b.WriteString(fmt.Sprintf("\n📈 Cycle average: <b>%.1f%%</b>", progress.OverallProgress(cycle.WeeklyPlans)))
	return b.String()
}

func formatTaskLine(task model.Task) string {
	icon := "⬜"
	if task.Completed {
		icon = "✅"
	}
	line := fmt.Sprintf("%s %s", icon, escape(normalizeTitle(task.Title)))
	if task.IsRecurring() {
		line += fmt.Sprintf(" · %s · %s", countText(task), task.Frequency.Label())
	}
	return line + fmt.Sprintf(" <code>%s</code>\n", task.ShortID())
}

func completionText(task model.Task) string {
	title := escape(normalizeTitle(task.Title))
	switch {
	case !task.IsRecurring() && task.Completed:
		return fmt.Sprintf("✅ «%s» done.", title)
	case !task.IsRecurring():
		return fmt.Sprintf("⬜ «%s» reopened.", title)
	case task.Completed:
		return fmt.Sprintf("♻️ «%s» %s, target reached for this week.", title, countText(task))
	default:
		return fmt.Sprintf("♻️ «%s» %s.", title, countText(task))
	}
}

func countText(task model.Task) string {
	if !task.IsRecurring() {
		if task.Completed {
			return "done"
		}
		return "open"
	}
	return fmt.Sprintf("%d/%d", task.CompletionCount, task.Target())
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
