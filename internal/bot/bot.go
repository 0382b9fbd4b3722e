package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"twelve-week-year/internal/config"
	"twelve-week-year/internal/model"
	"twelve-week-year/internal/repository"
	"twelve-week-year/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stageFrequency
	stageType
	stageWeek
)

const (
	cbDonePrefix   = "done:"
	cbUndoPrefix   = "undo:"
	cbDeletePrefix = "delete:"
)

type conversationState struct {
	stage conversationStage
	input service.TaskInput
	weeks []model.WeeklyPlan
}

type confirmationRequest struct {
	taskID string
	title  string
}

// Services groups everything the bot talks to.
type Services struct {
	Tasks      *service.TaskService
	Plans      *service.PlanService
	Progress   *service.ProgressService
	Vision     *service.VisionService
	Categories *service.CategoryService
	Reports    *service.ReportService
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api           *tgbotapi.BotAPI
	svc           Services
	config        config.Config
	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	mu            sync.Mutex
}

func New(cfg config.Config, svc Services) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	return &Bot{
		api:           api,
		svc:           svc,
		config:        cfg,
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if !b.allowed(update.CallbackQuery.From) {
				continue
			}
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("[error] handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() || !b.allowed(update.Message.From) {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("[error] handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) allowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if b.config.OwnerID != 0 && from.ID != b.config.OwnerID {
		log.Printf("[info] ignoring update from %d", from.ID)
		return false
	}
	return true
}

func (b *Bot) now() time.Time {
	loc := b.config.Location
	if loc == nil {
		loc = time.Local
	}
	return time.Now().In(loc)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled. Ready when you are.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s %s", msg.From.ID, msg.Command(), msg.CommandArguments())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if state := b.getConversation(msg.From.ID); state != nil {
		log.Printf("[info] conversation step %d from %d", state.stage, msg.From.ID)
		return b.handleConversation(ctx, msg, state)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Try /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "tasks":
		return b.sendTaskList(ctx, msg.Chat.ID)
	case "done":
		return b.handleDone(ctx, msg)
	case "undo":
		return b.handleUndo(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(msg)
	case "delete":
		return b.handleDelete(ctx, msg)
	case "progress":
		return b.handleProgress(ctx, msg)
	case "vision":
		return b.handleVision(ctx, msg)
	case "setvision":
		return b.handleSetVision(ctx, msg)
	case "goals":
		return b.handleGoals(ctx, msg)
	case "categories":
		return b.handleCategories(ctx, msg)
	case "cycle":
		return b.handleCycle(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep score of your 12 week year.</b>\n\n%s", escape(name), helpText)
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, "ℹ️ <b>Commands</b>\n"+helpText)
}

const helpText = "• /tasks · this week's tasks with done buttons\n" +
	"• /done &lt;id&gt; · record a completion (id prefix is enough)\n" +
	"• /undo &lt;id&gt; · revoke the latest completion\n" +
	"• /newtask · add a task step by step\n" +
	"• /delete &lt;id&gt; · delete a task\n" +
	"• /progress · weekly score and overall progress\n" +
	"• /cycle [YYYY-MM-DD] [title] · show or start a 12 week cycle\n" +
	"• /vision · 3-year vision and 12-week goals\n" +
	"• /setvision &lt;text&gt; · update the vision\n" +
	"• /goals goal 1; goal 2; goal 3 · set the 12-week goals\n" +
	"• /categories · known categories\n" +
	"• /cancel · abort the current dialog"

func (b *Bot) handleDone(ctx context.Context, msg *tgbotapi.Message) error {
	id, err := b.resolveArg(ctx, msg, "/done 1a2b3c4d")
	if err != nil || id == "" {
		return err
	}
	return b.toggleAndReply(ctx, msg.Chat.ID, id)
}

func (b *Bot) toggleAndReply(ctx context.Context, chatID int64, id string) error {
	task, changed, err := b.svc.Tasks.ToggleTask(ctx, id, b.now())
	if errors.Is(err, service.ErrWeekEnded) {
		return b.sendText(chatID, weekEndedText)
	}
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Could not record completion: %s", escape(err.Error())))
	}
	if task == nil {
		return b.sendText(chatID, "Task not found or already deleted.")
	}
	if !changed {
		return b.sendText(chatID, fmt.Sprintf("«%s» is a one-off task and is already done.", escape(normalizeTitle(task.Title))))
	}

	log.Printf("[info] task toggled id=%s count=%d completed=%t", task.ID, task.CompletionCount, task.Completed)
	if err := b.sendText(chatID, completionText(*task)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID)
}

const weekEndedText = "🔒 That week is over, its score is final."

func (b *Bot) handleUndo(ctx context.Context, msg *tgbotapi.Message) error {
	id, err := b.resolveArg(ctx, msg, "/undo 1a2b3c4d")
	if err != nil || id == "" {
		return err
	}
	return b.undoAndReply(ctx, msg.Chat.ID, id)
}

func (b *Bot) undoAndReply(ctx context.Context, chatID int64, id string) error {
	task, err := b.svc.Tasks.UndoCompletion(ctx, id, b.now())
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		return b.sendText(chatID, "Task not found.")
	case errors.Is(err, service.ErrNothingToUndo):
		return b.sendText(chatID, "Nothing to undo for this task.")
	case errors.Is(err, service.ErrOnceCompleted):
		return b.sendText(chatID, "One-off tasks stay done once completed.")
	case errors.Is(err, service.ErrWeekEnded):
		return b.sendText(chatID, weekEndedText)
	case err != nil:
		return b.sendText(chatID, fmt.Sprintf("Could not undo: %s", escape(err.Error())))
	}
	log.Printf("[info] task completion undone id=%s", task.ID)
	return b.sendText(chatID, fmt.Sprintf("↩️ «%s» is back to %s.", escape(normalizeTitle(task.Title)), countText(*task)))
}

// resolveArg turns the command argument into a full task id. An empty id
// with a nil error means a reply has already been sent.
func (b *Bot) resolveArg(ctx context.Context, msg *tgbotapi.Message, usage string) (string, error) {
	ref := strings.TrimSpace(msg.CommandArguments())
	if ref == "" {
		return "", b.sendText(msg.Chat.ID, fmt.Sprintf("Pass the task id: <code>%s</code>", usage))
	}
	id, err := b.svc.Tasks.ResolveID(ctx, ref)
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		return "", b.sendText(msg.Chat.ID, "Task not found.")
	case errors.Is(err, service.ErrAmbiguousID):
		return "", b.sendText(msg.Chat.ID, "Several tasks match this prefix, add a few more characters.")
	case err != nil:
		return "", err
	}
	return id, nil
}

func (b *Bot) startNewTaskConversation(msg *tgbotapi.Message) error {
	log.Printf("[info] start new task conversation user=%d", msg.From.ID)
	b.clearConfirmation(msg.From.ID)
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1:</b> what is it called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title cannot be empty.", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "✏️ Add a short description (or press «Skip»).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageCategory
		categories, err := b.svc.Categories.List(ctx)
		if err != nil {
			log.Printf("[error] list categories: %v", err)
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, "🏷 Pick a category or type a new one (or «Skip»).", categoryKeyboard(categories))
	case stageCategory:
		if !isSkipInput(text) {
			state.input.Category = text
		}
		state.stage = stageFrequency
		return b.sendWithReplyMarkup(msg.Chat.ID, "🔁 How often?", frequencyKeyboard())
	case stageFrequency:
		freq, err := model.ParseFrequency(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the frequencies on the keyboard.", frequencyKeyboard())
		}
		state.input.Frequency = string(freq)
		state.stage = stageType
		return b.sendWithReplyMarkup(msg.Chat.ID, "📌 Recurring habit or a task for one specific week?", typeKeyboard())
	case stageType:
		taskType, err := model.ParseTaskType(text)
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, "Press «recurring» or «week specific».", typeKeyboard())
		}
		state.input.TaskType = string(taskType)
		if taskType == model.TaskTypeRecurring {
			b.clearConversation(msg.From.ID)
			return b.finishTaskCreation(ctx, msg.Chat.ID, state.input)
		}
		cycle, err := b.svc.Plans.CurrentCycle(ctx, b.now())
		if errors.Is(err, service.ErrCycleNotFound) {
			b.clearConversation(msg.From.ID)
			return b.sendText(msg.Chat.ID, "Week-specific tasks need a running cycle. Start one with /cycle.")
		}
		if err != nil {
			b.clearConversation(msg.From.ID)
			return err
		}
		state.weeks = cycle.WeeklyPlans
		state.stage = stageWeek
		return b.sendWithReplyMarkup(msg.Chat.ID, "📆 Which week (1-12)?", weekKeyboard(len(state.weeks)))
	case stageWeek:
		plan, err := pickWeek(text, state.weeks, b.now())
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, escape(normalizeTitle(err.Error()))+".", weekKeyboard(len(state.weeks)))
		}
		state.input.WeeklyPlanID = plan.ID
		b.clearConversation(msg.From.ID)
		return b.finishTaskCreation(ctx, msg.Chat.ID, state.input)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Dialog reset. Try again with /newtask.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, chatID int64, input service.TaskInput) error {
	task, err := b.svc.Tasks.CreateTask(ctx, input)
	if err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Could not save the task: %s", escape(err.Error())))
	}

	log.Printf("[info] task created id=%s type=%s frequency=%s", task.ID, task.TaskType, task.Frequency)

	var summary strings.Builder
	summary.WriteString("✅ <b>Task saved</b>\n")
	summary.WriteString(fmt.Sprintf("• <b>ID:</b> <code>%s</code>\n", task.ShortID()))
	summary.WriteString(fmt.Sprintf("• <b>Title:</b> %s\n", escape(normalizeTitle(task.Title))))
	if task.Description != "" {
		summary.WriteString(fmt.Sprintf("• <b>Description:</b> %s\n", escape(task.Description)))
	}
	if task.Category != "" {
		summary.WriteString(fmt.Sprintf("• <b>Category:</b> %s\n", escape(task.Category)))
	}
	summary.WriteString(fmt.Sprintf("• <b>Frequency:</b> %s (%d per week)\n", task.Frequency.Label(), task.Target()))

	if err := b.sendTextWithRemove(chatID, strings.TrimSpace(summary.String())); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID)
}

func (b *Bot) handleDelete(ctx context.Context, msg *tgbotapi.Message) error {
	id, err := b.resolveArg(ctx, msg, "/delete 1a2b3c4d")
	if err != nil || id == "" {
		return err
	}
	return b.askDeleteConfirmation(ctx, msg.Chat.ID, msg.From.ID, id)
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID, userID int64, id string) error {
	task, err := b.svc.Tasks.GetTask(ctx, id)
	if errors.Is(err, service.ErrTaskNotFound) {
		return b.sendText(chatID, "Task not found.")
	}
	if err != nil {
		return err
	}

	b.clearConversation(userID)
	b.setConfirmation(userID, confirmationRequest{taskID: task.ID, title: task.Title})
	text := fmt.Sprintf("Delete «%s» (<code>%s</code>)?", escape(normalizeTitle(task.Title)), task.ShortID())
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, req)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Confirm or cancel the deletion.", confirmKeyboard())
	}
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, req confirmationRequest) error {
	err := b.svc.Tasks.DeleteTask(ctx, req.taskID)
	if errors.Is(err, service.ErrTaskNotFound) {
		return b.sendTextWithRemove(chatID, "Task not found or already deleted.")
	}
	if errors.Is(err, service.ErrWeekEnded) {
		return b.sendTextWithRemove(chatID, weekEndedText)
	}
	if err != nil {
		return b.sendTextWithRemove(chatID, fmt.Sprintf("Could not delete: %s", escape(err.Error())))
	}

	log.Printf("[info] task deleted id=%s", req.taskID)
	if err := b.sendTextWithRemove(chatID, fmt.Sprintf("🗑 «%s» deleted.", escape(normalizeTitle(req.title)))); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID)
}

func (b *Bot) handleProgress(ctx context.Context, msg *tgbotapi.Message) error {
	text, err := b.svc.Reports.WeeklySummary(ctx, b.now())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not build the report: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleVision(ctx context.Context, msg *tgbotapi.Message) error {
	text, err := b.svc.Reports.VisionSummary(ctx)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load the vision: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleSetVision(ctx context.Context, msg *tgbotapi.Message) error {
	text := strings.TrimSpace(msg.CommandArguments())
	if text == "" {
		return b.sendText(msg.Chat.ID, "Write the vision after the command: <code>/setvision Run my own studio</code>")
	}
	if _, err := b.svc.Vision.Update(ctx, service.VisionInput{ThreeYearVision: &text}); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not save: %s", escape(err.Error())))
	}
	return b.handleVision(ctx, msg)
}

func (b *Bot) handleGoals(ctx context.Context, msg *tgbotapi.Message) error {
	goals := parseGoals(msg.CommandArguments())
	if len(goals) == 0 {
		return b.sendText(msg.Chat.ID, "Separate goals with semicolons: <code>/goals Ship v1; Run 10k</code>")
	}
	if len(goals) > model.MaxTwelveWeekGoals {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Keep it to %d goals at most.", model.MaxTwelveWeekGoals))
	}
	if _, err := b.svc.Vision.Update(ctx, service.VisionInput{TwelveWeekGoals: goals}); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not save: %s", escape(err.Error())))
	}
	return b.handleVision(ctx, msg)
}

func (b *Bot) handleCategories(ctx context.Context, msg *tgbotapi.Message) error {
	categories, err := b.svc.Categories.List(ctx)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not load categories: %s", escape(err.Error())))
	}
	if len(categories) == 0 {
		return b.sendText(msg.Chat.ID, "No categories yet. Add one while creating a task.")
	}
	var builder strings.Builder
	builder.WriteString("📂 <b>Categories</b>\n")
	for _, name := range categories {
		builder.WriteString(fmt.Sprintf("• %s\n", escape(name)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

// handleCycle shows the running cycle, or starts a new one when a date is
// given or nothing is running yet.
func (b *Bot) handleCycle(ctx context.Context, msg *tgbotapi.Message) error {
	now := b.now()
	args, err := parseCycleArgs(msg.CommandArguments(), now)
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(normalizeTitle(err.Error()))+".")
	}

	if !args.explicit {
		cycle, err := b.svc.Plans.CurrentCycle(ctx, now)
		if err == nil {
			return b.sendText(msg.Chat.ID, formatCycle(*cycle, now))
		}
		if !errors.Is(err, service.ErrCycleNotFound) {
			return err
		}
	}

	vision, err := b.svc.Vision.Get(ctx)
	if err != nil {
		return err
	}
	cycle, err := b.svc.Plans.StartCycle(ctx, service.CycleInput{
		Title:     args.title,
		Goals:     vision.TwelveWeekGoals,
		StartDate: args.start,
	}, now)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Could not start the cycle: %s", escape(err.Error())))
	}
	log.Printf("[info] cycle started id=%s start=%s", cycle.ID, cycle.StartDate.Format(dateLayout))
	return b.sendText(msg.Chat.ID, "🚀 New cycle started.\n\n"+formatCycle(*cycle, now))
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64) error {
	now := b.now()
	var (
		tasks  []model.Task
		header string
	)
	report, err := b.svc.Progress.CurrentWeek(ctx, now)
	switch {
	case err == nil:
		tasks = report.Tasks
		header = fmt.Sprintf("📋 <b>Week %d</b> · %.1f%%", report.Plan.WeekNumber, report.Completion.Percentage)
	case errors.Is(err, service.ErrPlanNotFound):
		tasks, err = b.svc.Tasks.ListTasks(ctx, repository.TaskFilter{TaskType: model.TaskTypeRecurring})
		if err != nil {
			return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
		}
		header = "📋 <b>Recurring tasks</b> · no cycle running, see /cycle"
	default:
		return b.sendText(chatID, fmt.Sprintf("Could not load tasks: %s", escape(err.Error())))
	}

	if len(tasks) == 0 {
		return b.sendText(chatID, "No tasks yet. Add one with /newtask.")
	}

	var builder strings.Builder
	builder.WriteString(header)
	builder.WriteString("\nTap a task to record a completion.\n\n")
	for _, task := range tasks {
		builder.WriteString(formatTaskLine(task))
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ReplyMarkup = taskListKeyboard(tasks)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("[error] callback ack: %v", err)
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbDonePrefix):
		id := strings.TrimPrefix(data, cbDonePrefix)
		log.Printf("[info] callback done user=%d task=%s", cb.From.ID, id)
		return b.toggleAndReply(ctx, chatID, id)
	case strings.HasPrefix(data, cbUndoPrefix):
		id := strings.TrimPrefix(data, cbUndoPrefix)
		log.Printf("[info] callback undo user=%d task=%s", cb.From.ID, id)
		return b.undoAndReply(ctx, chatID, id)
	case strings.HasPrefix(data, cbDeletePrefix):
		id := strings.TrimPrefix(data, cbDeletePrefix)
		log.Printf("[info] callback delete user=%d task=%s", cb.From.ID, id)
		return b.askDeleteConfirmation(ctx, chatID, cb.From.ID, id)
	default:
		return nil
	}
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNewTask):
		return true, b.startNewTaskConversation(msg)
	case strings.ToLower(menuLabelTasks):
		return true, b.sendTaskList(ctx, msg.Chat.ID)
	case strings.ToLower(menuLabelProgress):
		return true, b.handleProgress(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendTextWithRemove(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	if _, err := b.api.Send(msg); err != nil {
		return err
	}
	return b.sendMenuPlaceholder(chatID)
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	msg := tgbotapi.NewMessage(chatID, "🔹 Main menu")
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}
