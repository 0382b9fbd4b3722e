package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"twelve-week-year/internal/model"
	"twelve-week-year/internal/progress"
)

// ReportService builds human-readable summaries for the chat surface.
type ReportService struct {
	progress *ProgressService
	vision   *VisionService
}

func NewReportService(progress *ProgressService, vision *VisionService) *ReportService {
	return &ReportService{progress: progress, vision: vision}
}

// WeeklySummary renders the current week as Telegram HTML.
func (s *ReportService) WeeklySummary(ctx context.Context, now time.Time) (string, error) {
	report, err := s.progress.CurrentWeek(ctx, now)
	if errors.Is(err, ErrPlanNotFound) {
		return "📭 No weekly plan covers today. Start a cycle with /cycle.", nil
	}
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📊 <b>Week %d</b> · %s – %s\n",
		report.Plan.WeekNumber,
		report.Plan.StartDate.Format("Jan 2"),
		report.Plan.EndDate.Format("Jan 2")))
	builder.WriteString(fmt.Sprintf("%s <b>%.1f%%</b> %s\n",
		successIcon(report.Completion.IsSuccessful),
		report.Completion.Percentage,
		progressBar(report.Completion.Percentage)))
	builder.WriteString(fmt.Sprintf("✅ %d of %d tasks done · weight %.2f / %.2f\n\n",
		report.Completion.CompletedCount, report.Completion.TotalCount,
		report.Completion.CompletedWeight, report.Completion.TotalWeight))

	var weekly, recurring []model.Task
	for _, t := range report.Tasks {
		if t.IsRecurring() {
			recurring = append(recurring, t)
		} else {
			weekly = append(weekly, t)
		}
	}

	builder.WriteString("🎯 <b>This week</b>\n")
	if len(weekly) == 0 {
		builder.WriteString("— nothing planned\n")
	}
	for _, t := range weekly {
		builder.WriteString(formatTask(t))
	}

	builder.WriteString("\n♻️ <b>Recurring</b>\n")
	if len(recurring) == 0 {
		builder.WriteString("— no recurring tasks\n")
	}
	for _, t := range recurring {
		builder.WriteString(formatTask(t))
	}

	builder.WriteString(fmt.Sprintf("\n📈 Overall progress: <b>%.1f%%</b>", report.Overall))
	return strings.TrimSpace(builder.String()), nil
}

// VisionSummary renders the vision and the twelve week goals.
func (s *ReportService) VisionSummary(ctx context.Context) (string, error) {
	vision, err := s.vision.Get(ctx)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	builder.WriteString("🔭 <b>3-year vision</b>\n")
	if strings.TrimSpace(vision.ThreeYearVision) == "" {
		builder.WriteString("— not set yet, use /setvision\n")
	} else {
		builder.WriteString(html.EscapeString(vision.ThreeYearVision))
		builder.WriteByte('\n')
	}

	builder.WriteString("\n🏁 <b>12-week goals</b>\n")
	if len(vision.TwelveWeekGoals) == 0 {
		builder.WriteString("— none, use /goals\n")
	}
	for i, g := range vision.TwelveWeekGoals {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, html.EscapeString(g)))
	}
	return strings.TrimSpace(builder.String()), nil
}

func formatTask(task model.Task) string {
	var sb strings.Builder

	icon := "⬜"
	if task.Completed {
		icon = "✅"
	}
	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Title))))

	if task.IsRecurring() {
		sb.WriteString(fmt.Sprintf(" · %d/%d", task.CompletionCount, task.Target()))
	}
	sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", task.Frequency.Label()))

	if c := strings.TrimSpace(task.Category); c != "" {
		sb.WriteString(fmt.Sprintf(" #%s", html.EscapeString(c)))
	}
	sb.WriteString(fmt.Sprintf(" <code>%s</code>", task.ShortID()))

	if task.Description != "" {
		sb.WriteString(fmt.Sprintf("\n   📝 %s", html.EscapeString(strings.TrimSpace(task.Description))))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func successIcon(ok bool) string {
	if ok {
		return "🏆"
	}
	return "⏳"
}

func progressBar(pct float64) string {
	const width = 10
	filled := int(pct / 100 * width)
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled) +
		fmt.Sprintf(" / %.0f%%", progress.SuccessThreshold)
}
