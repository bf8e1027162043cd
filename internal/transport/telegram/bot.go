package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/jee-key/brain-blast-bot/internal/domain"
	"github.com/jee-key/brain-blast-bot/internal/game"
)

// QuestionProvider supplies a fresh question for a new round.
type QuestionProvider interface {
	Fetch(ctx context.Context) (domain.Question, error)
}

// Bot routes Telegram updates into the game engine: inline-button callbacks
// start rounds and show ratings, plain text messages are answer submissions.
type Bot struct {
	api      *tgbotapi.BotAPI
	engine   *game.Engine
	provider QuestionProvider
	topLimit int

	modeMu sync.Mutex
	modes  map[int64]domain.Mode
}

func NewBot(api *tgbotapi.BotAPI, engine *game.Engine, provider QuestionProvider) *Bot {
	return &Bot{
		api:      api,
		engine:   engine,
		provider: provider,
		topLimit: 5,
		modes:    make(map[int64]domain.Mode),
	}
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	log.Printf("[telegram] bot @%s is polling", b.api.Self.UserName)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(update.Message)
	case update.Message != nil && update.Message.Text != "":
		b.handleAnswer(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.reply(msg.Chat.ID, "Привет! Я Brain Blast 🧠⚡ Бот для тренировки мышления!", mainMenuButtons()...)
	case "rating":
		b.showRating(context.Background(), msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, "Неизвестная команда. Нажмите /start.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	// Message is optional: Telegram omits it for buttons older than 48h and for
	// inline-mode callbacks. Nothing to route a reply to, so bail out.
	if q.Message == nil {
		log.Printf("[telegram] callback %q from user %d has no message, ignoring", q.Data, q.From.ID)
		return
	}

	// Acknowledge first so the button stops spinning even if handling is slow.
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		log.Printf("[telegram] callback ack: %v", err)
	}

	userID := q.From.ID
	chatID := q.Message.Chat.ID
	data := q.Data

	if roundID, ok := game.ParseRevealCallback(data); ok {
		b.revealAnswer(userID, chatID, roundID)
		return
	}

	switch {
	case data == "choose_mode":
		b.editMessage(chatID, q.Message.MessageID, "Выбери режим тренировки:", modeButtons()...)
	case strings.HasPrefix(data, "set_mode:"):
		mode := domain.ParseMode(strings.TrimPrefix(data, "set_mode:"))
		b.setMode(userID, mode)
		text := fmt.Sprintf("✅ Режим установлен: %s\n\nЧто хочешь делать дальше?", mode.Title())
		b.editMessage(chatID, q.Message.MessageID, text, mainMenuButtons()...)
	case data == "new_question" || data == "continue_iteration":
		b.askQuestion(ctx, userID, chatID)
	case data == "show_rating":
		b.showRating(ctx, chatID)
	case data == "main_menu":
		b.editMessage(chatID, q.Message.MessageID, "Главное меню Brain Blast 🧠⚡", mainMenuButtons()...)
	default:
		log.Printf("[telegram] unknown callback %q from user %d", data, userID)
	}
}

// askQuestion fetches a question, presents it with metadata and images, and
// starts the round. A provider failure never installs round state.
func (b *Bot) askQuestion(ctx context.Context, userID, chatID int64) {
	q, err := b.provider.Fetch(ctx)
	if err != nil {
		log.Printf("[telegram] fetch question for user %d: %v", userID, err)
		b.reply(chatID, "⚠️ Ошибка при загрузке вопроса. Попробуйте ещё раз позже.")
		return
	}

	text := "❓ Вопрос:\n" + q.Text
	if meta := q.MetadataText(); meta != "" {
		text += "\n\n" + meta
	}
	if q.URL != "" {
		text += "\n\n🔗 Ссылка на вопрос в базе: " + q.URL
	}
	b.reply(chatID, text)
	for _, url := range q.ImageURLs {
		if err := b.sendPhoto(chatID, url, "📷 Изображение к вопросу"); err != nil {
			log.Printf("[telegram] send image %s: %v", url, err)
			b.reply(chatID, "⚠️ Не удалось загрузить изображение: "+url)
		}
	}

	if _, err := b.engine.StartRound(ctx, userID, chatID, q, b.mode(userID)); err != nil {
		log.Printf("[telegram] start round for user %d: %v", userID, err)
		b.reply(chatID, "⚠️ Ошибка при загрузке вопроса. Попробуйте ещё раз позже.")
	}
}

func (b *Bot) handleAnswer(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	name := displayName(msg.From)
	res := b.engine.SubmitAnswer(ctx, userID, name, strings.TrimSpace(msg.Text))
	log.Printf("[telegram] answer from user %d (%s): %s", userID, name, res.Outcome)

	switch res.Outcome {
	case domain.OutcomeNoActiveRound:
		b.reply(msg.Chat.ID, "🤔 У вас сейчас нет активного вопроса. Нажмите 'Новый вопрос', чтобы начать.")
	case domain.OutcomeAlreadyAnswered:
		b.reply(msg.Chat.ID, "✅ Вы уже ответили верно на этот вопрос.")
	case domain.OutcomeCorrect, domain.OutcomeLateCorrect:
		prefix := "✅ Правильно! Вы ответили верно."
		if res.Outcome == domain.OutcomeLateCorrect {
			prefix = "⏰ Время уже вышло, но ответ верный — балл засчитан."
		}
		text := fmt.Sprintf("%s\n\n📝 Ответ: %s\n💬 %s", prefix, res.Correct, orNoComment(res.Comment))
		if err := b.send(msg.Chat.ID, text); err != nil {
			log.Printf("[telegram] send confirmation: %v", err)
			b.reply(msg.Chat.ID, "✅ Правильно!")
		}
	case domain.OutcomeIncorrect:
		b.reply(msg.Chat.ID, "❌ Неверно, попробуйте еще раз!")
	case domain.OutcomeLateIncorrect:
		b.reply(msg.Chat.ID, "⏰ Время уже вышло, и это не тот ответ.", game.RevealButton(res.RoundID))
	}
}

func (b *Bot) revealAnswer(userID, chatID int64, roundID string) {
	answer, comment, err := b.engine.RevealAnswer(userID, roundID)
	switch {
	case errors.Is(err, domain.ErrRoundActive):
		b.reply(chatID, "⏳ Вопрос ещё в игре — сначала попробуйте ответить!")
		return
	case err != nil:
		log.Printf("[telegram] reveal for user %d: %v", userID, err)
		b.reply(chatID, "🤔 Этот вопрос уже не активен. Возьмите новый!")
		return
	}
	text := fmt.Sprintf("📝 Ответ: %s\n💬 %s", answer, orNoComment(comment))
	b.reply(chatID, text,
		game.Button{Label: "🎲 Новый вопрос", Data: "new_question"},
		game.Button{Label: "🔄 Продолжить итерацию?", Data: "continue_iteration"},
		game.Button{Label: "🏠 Главное меню", Data: "main_menu"},
	)
}

func (b *Bot) showRating(ctx context.Context, chatID int64) {
	top, err := b.engine.Top(ctx, b.topLimit)
	if err != nil {
		log.Printf("[telegram] rating: %v", err)
		b.reply(chatID, "⚠️ Не удалось загрузить рейтинг.")
		return
	}
	if len(top) == 0 {
		b.reply(chatID, "Рейтинг пока пуст.")
		return
	}
	lines := make([]string, 0, len(top))
	for i, e := range top {
		lines = append(lines, fmt.Sprintf("%d. %s — %d", i+1, e.DisplayName, e.Score))
	}
	b.reply(chatID, "🏆 Топ игроков:\n"+strings.Join(lines, "\n"))
}

func (b *Bot) mode(userID int64) domain.Mode {
	b.modeMu.Lock()
	defer b.modeMu.Unlock()
	if m, ok := b.modes[userID]; ok {
		return m
	}
	return domain.ModeNormal
}

func (b *Bot) setMode(userID int64, mode domain.Mode) {
	b.modeMu.Lock()
	defer b.modeMu.Unlock()
	b.modes[userID] = mode
}

func (b *Bot) send(chatID int64, text string, buttons ...game.Button) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(buttons) > 0 {
		msg.ReplyMarkup = inlineKeyboard(buttons...)
	}
	msg.DisableWebPagePreview = true
	_, err := b.api.Send(msg)
	return err
}

// reply is the fire-and-forget variant of send.
func (b *Bot) reply(chatID int64, text string, buttons ...game.Button) {
	if err := b.send(chatID, text, buttons...); err != nil {
		log.Printf("[telegram] send to chat %d: %v", chatID, err)
	}
}

func (b *Bot) sendPhoto(chatID int64, url, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = caption
	_, err := b.api.Send(photo)
	return err
}

func (b *Bot) editMessage(chatID int64, messageID int, text string, buttons ...game.Button) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, inlineKeyboard(buttons...))
	if _, err := b.api.Send(edit); err != nil {
		// Editing fails on old messages; send a fresh one instead.
		b.reply(chatID, text, buttons...)
	}
}

func mainMenuButtons() []game.Button {
	return []game.Button{
		{Label: "🎮 Выбрать режим", Data: "choose_mode"},
		{Label: "🎲 Новый вопрос", Data: "new_question"},
		{Label: "🏆 Рейтинг", Data: "show_rating"},
	}
}

func modeButtons() []game.Button {
	return []game.Button{
		{Label: "🧠 Обычный - 60 сек.", Data: "set_mode:normal"},
		{Label: "⚡ На скорость - 30 сек.", Data: "set_mode:speed"},
		{Label: "🔕 Без подсказок - 50 сек.", Data: "set_mode:no_hints"},
	}
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.UserName
	}
	return name
}

func orNoComment(comment string) string {
	if strings.TrimSpace(comment) == "" {
		return "Без комментария."
	}
	return comment
}
