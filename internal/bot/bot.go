// Package bot implements the diary conversation: menu navigation, weekly plan
// setup, global goals, timezone selection and the evening /itog walk-through.
package bot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"diarybot/internal/core/domain"
	"diarybot/internal/core/ports"
)

type state int

const (
	stateMainMenu state = iota
	stateChoosingDay
	stateEnteringPlans
	stateReviewPlans
	stateGlobalMenu
	stateEnteringGlobalPlans
	stateItogReview
)

// Button labels. The reply keyboard is the UI; the engine matches on these
// exact strings.
const (
	btnSetupPlans  = "📋 Настроить планы"
	btnGlobalPlans = "🌍 Глобальные планы"
	btnMyPlans     = "Мои планы"
	btnTimezone    = "🌐 Часовой пояс"

	btnSkipAll   = "⏭️ Пропустить все"
	btnDone      = "✅ Готово"
	btnDeleteDay = "🗑️ Удалить планы на день"
	btnSkipDay   = "⏭️ Пропустить день"
	btnCancel    = "❌ Отмена"

	btnSupplement = "➕ Дополнить"
	btnRewrite    = "✏️ Изменить"
	btnContinue   = "➡️ Продолжить"

	btnGlobalAdd     = "➕ Добавить"
	btnGlobalRewrite = "✏️ Редактировать"
	btnGlobalDelete  = "🗑️ Удалить"
	btnBack          = "⬅️ Назад"

	answerYes = "Да"
	answerNo  = "Нет"
)

func mainMenuKeyboard() *domain.Keyboard {
	return &domain.Keyboard{Rows: [][]string{
		{btnSetupPlans, btnGlobalPlans},
		{btnMyPlans, btnTimezone},
	}}
}

func dayKeyboard(extra ...string) *domain.Keyboard {
	kb := domain.KeyboardOf(domain.WeekdaysShort...)
	for _, e := range extra {
		kb.Rows = append(kb.Rows, []string{e})
	}
	return kb
}

// session holds the transient conversation state for one chat. Unlike the
// user record it is not persisted; a restart drops users back to the menu.
type session struct {
	state            state
	waitingForTime   bool
	choosingTimezone bool
	deletingDay      bool
	action           string // "replace" or "supplement"
	globalAction     string // "replace" or "add"
	currentDay       string
	dayIndex         int
	currentPlans     []domain.Plan
	skipDay          bool
}

// Engine drives the conversation over any Messenger and DiaryStore.
type Engine struct {
	store ports.DiaryStore
	msg   ports.Messenger
	log   *zap.Logger
	now   func() time.Time

	mu       sync.Mutex
	sessions map[int64]*session
}

func New(store ports.DiaryStore, messenger ports.Messenger, log *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		msg:      messenger,
		log:      log,
		now:      time.Now,
		sessions: make(map[int64]*session),
	}
}

func (e *Engine) session(chatID int64) *session {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[chatID]
	if !ok {
		s = &session{state: stateMainMenu, action: "replace"}
		e.sessions[chatID] = s
	}
	return s
}

// HandleMessage processes one incoming text message. Commands work from any
// state; everything else is routed by the chat's conversation state.
func (e *Engine) HandleMessage(ctx context.Context, m domain.IncomingMessage) {
	s := e.session(m.ChatID)

	// The triggering message is removed to keep the chat tidy.
	if err := e.msg.Delete(ctx, m.ChatID, m.MessageID); err != nil {
		e.log.Debug("failed to delete user message", zap.Int64("chat", m.ChatID), zap.Error(err))
	}

	switch m.Command() {
	case "start":
		e.handleStart(ctx, s, m)
		return
	case "plan":
		e.startSetup(ctx, s, m.ChatID)
		return
	case "itog":
		e.startItog(ctx, s, m.ChatID)
		return
	case "day":
		e.handleDay(ctx, m.ChatID, m.Args())
		return
	case "timezone":
		e.handleTimezoneCommand(ctx, s, m.ChatID)
		return
	}
	if m.Command() != "" {
		// Unknown command: fall through to the menu prompt.
		e.showMenuHint(ctx, m.ChatID)
		return
	}

	switch s.state {
	case stateMainMenu:
		e.handleMainMenu(ctx, s, m)
	case stateChoosingDay:
		e.handleChooseDay(ctx, s, m)
	case stateEnteringPlans:
		e.handleEnterPlans(ctx, s, m)
	case stateReviewPlans:
		e.handleReviewAction(ctx, s, m)
	case stateGlobalMenu:
		e.handleGlobalAction(ctx, s, m)
	case stateEnteringGlobalPlans:
		e.handleEnterGlobalPlans(ctx, s, m)
	case stateItogReview:
		e.handleItogResponse(ctx, s, m)
	}
}

// sendAndReplace sends a new bot message and removes the previous one for the
// chat, so the dialog never piles up.
func (e *Engine) sendAndReplace(ctx context.Context, chatID int64, text string, kb *domain.Keyboard) {
	u, err := e.store.User(chatID)
	if err != nil {
		e.log.Warn("failed to load user", zap.Int64("chat", chatID), zap.Error(err))
	}
	if u != nil && u.LastBotMessageID != 0 && u.LastBotMessageChatID != 0 {
		if err := e.msg.Delete(ctx, u.LastBotMessageChatID, u.LastBotMessageID); err != nil {
			e.log.Debug("failed to delete previous bot message", zap.Int64("chat", chatID), zap.Error(err))
		}
	}
	id, err := e.msg.Send(ctx, chatID, text, kb)
	if err != nil {
		e.log.Warn("failed to send message", zap.Int64("chat", chatID), zap.Error(err))
		return
	}
	if u != nil {
		u.LastBotMessageID = id
		u.LastBotMessageChatID = chatID
		if err := e.store.SaveUser(chatID, u); err != nil {
			e.log.Warn("failed to save user", zap.Int64("chat", chatID), zap.Error(err))
		}
	}
}

func (e *Engine) saveUser(chatID int64, u *domain.User) {
	if err := e.store.SaveUser(chatID, u); err != nil {
		e.log.Warn("failed to save user", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (e *Engine) showMenuHint(ctx context.Context, chatID int64) {
	e.sendAndReplace(ctx, chatID, "Выбери, чем займёмся дальше:", mainMenuKeyboard())
}

func (e *Engine) deleteQuiet(ctx context.Context, chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if err := e.msg.Delete(ctx, chatID, messageID); err != nil {
		e.log.Debug("failed to delete message", zap.Int64("chat", chatID), zap.Int("message", messageID), zap.Error(err))
	}
}
