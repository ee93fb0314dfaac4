package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"

	"github.com/edupath/learning-service/internal/models"
	"github.com/edupath/learning-service/internal/services"
)

// Bot is the embedded Telegram front-end. It talks to the service layer
// directly and keeps quiz state in Redis.
type Bot struct {
	api      *tgbotapi.BotAPI
	services services.ServiceManager
	sessions *SessionStore
	logger   *slog.Logger
}

func New(token string, sm services.ServiceManager, redisClient *redis.Client, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Bot{
		api:      api,
		services: sm,
		sessions: NewSessionStore(redisClient),
		logger:   logger,
	}, nil
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("telegram bot started", "username", b.api.Self.UserName)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.logger.Info("telegram bot stopped")
			return
		case update := <-updates:
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "lessons":
		b.handleLessons(ctx, msg.Chat.ID, msg.From.ID)
	case "results":
		b.handleResults(ctx, msg.Chat.ID, msg.From.ID)
	case "stats":
		b.handleStats(ctx, msg.Chat.ID, msg.From.ID)
	default:
		b.send(msg.Chat.ID, "Unknown command. Try /lessons, /results or /stats.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	fullName := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	if fullName == "" {
		fullName = msg.From.UserName
	}

	resp, err := b.services.User().Register(ctx, &models.RegisterUserRequest{
		TelegramID:  msg.From.ID,
		FullName:    fullName,
		PhoneNumber: "-",
	})
	if err != nil {
		b.logger.Error("bot registration failed", "telegram_id", msg.From.ID, "error", err)
		b.send(msg.Chat.ID, "Registration failed, please try again later.")
		return
	}

	if resp.AlreadyRegistered {
		b.send(msg.Chat.ID, "Welcome back! Use /lessons to see your lessons.")
		return
	}
	b.send(msg.Chat.ID, "Welcome! You are registered. Use /lessons to see available lessons.")
}

func (b *Bot) handleLessons(ctx context.Context, chatID, telegramID int64) {
	lessons, err := b.services.Lesson().ListForUser(ctx, telegramID)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}
	if len(lessons) == 0 {
		b.send(chatID, "No lessons are available yet.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, lesson := range lessons {
		label := lesson.Title
		switch {
		case lesson.TestCompleted && lesson.Score != nil:
			label = fmt.Sprintf("%s (%d%%)", lesson.Title, *lesson.Score)
		case lesson.HasAccess:
			label = fmt.Sprintf("%s (open)", lesson.Title)
		default:
			label = fmt.Sprintf("%s (locked)", lesson.Title)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "lesson:"+lesson.ID),
		))
	}

	reply := tgbotapi.NewMessage(chatID, "Your lessons:")
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.sendMessage(reply)
}

func (b *Bot) handleResults(ctx context.Context, chatID, telegramID int64) {
	results, err := b.services.Result().ListForUser(ctx, telegramID, 10)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}
	if len(results) == 0 {
		b.send(chatID, "You have no test results yet.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Your recent results:\n")
	for _, r := range results {
		status := "failed"
		if r.Passed {
			status = "passed"
		}
		fmt.Fprintf(&sb, "• %s: %d%% (%d/%d, %s)\n",
			r.LessonTitle, r.Score, r.CorrectAnswers, r.TotalQuestions, status)
	}
	b.send(chatID, sb.String())
}

func (b *Bot) handleStats(ctx context.Context, chatID, telegramID int64) {
	stats, err := b.services.User().Stats(ctx, telegramID)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}

	b.send(chatID, fmt.Sprintf(
		"Tests taken: %d\nTests passed: %d\nAverage score: %.1f%%",
		stats.TotalTests, stats.PassedTests, stats.AverageScore))
}

// Callback data formats:
//
//	lesson:<lesson_id>          show lesson detail
//	test:<lesson_id>            start a quiz
//	ans:<lesson_id>:<option>    answer the current question
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Acknowledge immediately so the client stops its spinner
	b.api.Request(tgbotapi.NewCallback(cb.ID, ""))

	chatID := cb.Message.Chat.ID
	telegramID := cb.From.ID

	parts := strings.SplitN(cb.Data, ":", 3)
	switch parts[0] {
	case "lesson":
		if len(parts) == 2 {
			b.showLesson(ctx, chatID, telegramID, parts[1])
		}
	case "test":
		if len(parts) == 2 {
			b.startQuiz(ctx, chatID, telegramID, parts[1])
		}
	case "ans":
		if len(parts) == 3 {
			option, err := strconv.Atoi(parts[2])
			if err == nil {
				b.answerQuestion(ctx, chatID, telegramID, parts[1], option)
			}
		}
	}
}

func (b *Bot) showLesson(ctx context.Context, chatID, telegramID int64, lessonID string) {
	detail, err := b.services.Lesson().DetailForUser(ctx, telegramID, lessonID)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n\n%s\n", detail.Title, detail.Description)

	if !detail.HasAccess {
		fmt.Fprintf(&sb, "\nThis lesson is locked. Price: %d", detail.Price)
		b.send(chatID, sb.String())
		return
	}

	if detail.VideoURL != nil {
		fmt.Fprintf(&sb, "\nVideo: %s", *detail.VideoURL)
	}
	if detail.PDFURL != nil {
		fmt.Fprintf(&sb, "\nPDF: %s", *detail.PDFURL)
	}
	if detail.PresentationURL != nil {
		fmt.Fprintf(&sb, "\nPresentation: %s", *detail.PresentationURL)
	}
	if detail.TestCompleted && detail.Score != nil {
		fmt.Fprintf(&sb, "\n\nYour score: %d%%", *detail.Score)
	}

	reply := tgbotapi.NewMessage(chatID, sb.String())
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Take the test", "test:"+lessonID),
		),
	)
	b.sendMessage(reply)
}

func (b *Bot) startQuiz(ctx context.Context, chatID, telegramID int64, lessonID string) {
	if !b.sessions.Available() {
		b.send(chatID, "Quizzes are temporarily unavailable.")
		return
	}

	questions, err := b.services.Question().QuestionsForTest(ctx, telegramID, lessonID)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}
	if len(questions) == 0 {
		b.send(chatID, "This lesson has no test questions yet.")
		return
	}

	session := &QuizSession{
		TelegramID: telegramID,
		LessonID:   lessonID,
		Questions:  questions,
	}
	if err := b.sessions.Save(ctx, session); err != nil {
		b.logger.Error("failed to save quiz session", "telegram_id", telegramID, "error", err)
		b.send(chatID, "Could not start the quiz, please try again.")
		return
	}

	b.sendQuestion(chatID, session)
}

func (b *Bot) answerQuestion(ctx context.Context, chatID, telegramID int64, lessonID string, option int) {
	session, err := b.sessions.Get(ctx, telegramID, lessonID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			b.send(chatID, "Your quiz session expired. Start again from /lessons.")
			return
		}
		b.logger.Error("failed to load quiz session", "telegram_id", telegramID, "error", err)
		b.send(chatID, "Something went wrong, please try again.")
		return
	}

	question := session.Current()
	if question == nil {
		b.send(chatID, "Your quiz session is out of sync. Start again from /lessons.")
		return
	}

	session.Answers = append(session.Answers, models.TestAnswerRequest{
		QuestionID:     question.ID,
		SelectedOption: option,
	})
	session.Index++

	if !session.Done() {
		if err := b.sessions.Save(ctx, session); err != nil {
			b.logger.Error("failed to save quiz session", "telegram_id", telegramID, "error", err)
			b.send(chatID, "Something went wrong, please try again.")
			return
		}
		b.sendQuestion(chatID, session)
		return
	}

	// Quiz finished: submit and drop the session
	resp, err := b.services.Testing().Submit(ctx, telegramID, lessonID, &models.TestSubmissionRequest{
		Answers: session.Answers,
	})
	b.sessions.Delete(ctx, telegramID, lessonID)
	if err != nil {
		b.replyServiceError(chatID, err)
		return
	}

	verdict := "Not passed. You can retake the test any time."
	if resp.Passed {
		verdict = "Passed, congratulations!"
	}
	b.send(chatID, fmt.Sprintf(
		"Test finished!\nScore: %d%% (%d/%d correct)\n%s",
		resp.Score, resp.CorrectAnswers, resp.TotalQuestions, verdict))
}

func (b *Bot) sendQuestion(chatID int64, session *QuizSession) {
	question := session.Current()
	if question == nil {
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, option := range question.Options {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(option,
				fmt.Sprintf("ans:%s:%d", session.LessonID, i)),
		))
	}

	text := fmt.Sprintf("Question %d of %d\n\n%s",
		session.Index+1, len(session.Questions), question.Text)
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.sendMessage(reply)
}

func (b *Bot) replyServiceError(chatID int64, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		b.send(chatID, "You are not registered yet. Send /start first.")
	case errors.Is(err, services.ErrLessonNotFound):
		b.send(chatID, "That lesson no longer exists.")
	case errors.Is(err, services.ErrAccessDenied):
		b.send(chatID, "You don't have access to this lesson yet.")
	default:
		b.logger.Error("bot service call failed", "error", err)
		b.send(chatID, "Something went wrong, please try again later.")
	}
}

func (b *Bot) send(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send telegram message", "chat_id", msg.ChatID, "error", err)
	}
}
