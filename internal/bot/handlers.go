package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"diarybot/internal/core/domain"
)

func (e *Engine) handleStart(ctx context.Context, s *session, m domain.IncomingMessage) {
	u, err := e.store.User(m.ChatID)
	if err != nil {
		e.log.Warn("failed to load user", zap.Int64("chat", m.ChatID), zap.Error(err))
	}
	if u == nil {
		u = domain.NewUser(m.FirstName)
	}
	e.saveUser(m.ChatID, u)

	welcome := fmt.Sprintf(
		"🎯 Привет, %s!\n\n"+
			"Я твой персональный дневник-планировщик. Утром помогаю сфокусироваться, "+
			"вечером — мягко подвожу к подведению итогов.\n\n"+
			"✨ Что я умею:\n"+
			"• напомнить утром о планах и показать глобальные ориентиры;\n"+
			"• бережно провести через подведение итогов командой /itog;\n"+
			"• подсказать планы за любой день командой /day ДД.ММ.ГГГГ.\n\n"+
			"⏰ Командой /plan можно обновить расписание в любой момент.\n"+
			"💬 Необязательно заполнять все дни сразу — бери только то, что действительно важно.\n\n"+
			"Готов начать?",
		m.FirstName,
	)
	if _, err := e.msg.Send(ctx, m.ChatID, welcome, mainMenuKeyboard()); err != nil {
		e.log.Warn("failed to send welcome", zap.Int64("chat", m.ChatID), zap.Error(err))
	}
	e.ensureNotificationTime(ctx, s, m.ChatID, u)
	s.state = stateMainMenu
}

// ensureNotificationTime prompts for a notification time when the user has
// none yet. Reports whether a prompt was (or already is) pending.
func (e *Engine) ensureNotificationTime(ctx context.Context, s *session, chatID int64, u *domain.User) bool {
	if u.NotificationTime != "" {
		return false
	}
	if !s.waitingForTime {
		s.waitingForTime = true
		text := fmt.Sprintf(
			"⏰ Во сколько напоминать о планах? (ваш пояс: %s)\nНапиши время в формате ЧЧ:ММ, например 09:00.",
			domain.OffsetLabel(domain.DefaultTimezone, e.now()),
		)
		e.sendAndReplace(ctx, chatID, text, domain.RemoveKeyboard())
	}
	return true
}

func (e *Engine) handleMainMenu(ctx context.Context, s *session, m domain.IncomingMessage) {
	if s.waitingForTime {
		e.handleTimeInput(ctx, s, m)
		return
	}
	if s.choosingTimezone {
		e.handleTimezoneChoice(ctx, s, m)
		return
	}

	switch strings.TrimSpace(m.Text) {
	case btnSetupPlans:
		e.startSetup(ctx, s, m.ChatID)
	case btnGlobalPlans:
		e.showGlobalMenu(ctx, s, m.ChatID)
	case btnMyPlans:
		e.showWeeklyPlans(ctx, m.ChatID)
	case btnTimezone:
		e.handleTimezoneCommand(ctx, s, m.ChatID)
	default:
		e.showMenuHint(ctx, m.ChatID)
	}
}

func (e *Engine) handleTimeInput(ctx context.Context, s *session, m domain.IncomingMessage) {
	u, _ := e.store.User(m.ChatID)
	if u == nil {
		e.promptStart(ctx, m.ChatID)
		return
	}
	clock, ok := domain.ParseClock(m.Text)
	if !ok {
		// waitingForTime stays set: the next message is tried again.
		e.sendAndReplace(ctx, m.ChatID, "❌ Не получилось прочитать время. Нужен формат ЧЧ:ММ, например 09:00.", nil)
		return
	}
	u.NotificationTime = clock
	e.saveUser(m.ChatID, u)
	s.waitingForTime = false
	text := fmt.Sprintf(
		"✅ Отлично! Теперь я буду писать в %s (%s).\n\nЧем займёмся дальше?",
		clock, domain.OffsetLabel(u.Timezone, e.now()),
	)
	e.sendAndReplace(ctx, m.ChatID, text, mainMenuKeyboard())
	s.state = stateMainMenu
}

func (e *Engine) handleTimezoneCommand(ctx context.Context, s *session, chatID int64) {
	u, _ := e.store.User(chatID)
	if u == nil {
		e.promptStart(ctx, chatID)
		return
	}
	kb := domain.KeyboardOf(domain.KnownTimezones...)
	kb.OneTime = true
	e.sendAndReplace(ctx, chatID, "Выбери свой часовой пояс (по названию региона):", kb)
	s.choosingTimezone = true
	s.state = stateMainMenu
}

func (e *Engine) handleTimezoneChoice(ctx context.Context, s *session, m domain.IncomingMessage) {
	tz := strings.TrimSpace(m.Text)
	for _, known := range domain.KnownTimezones {
		if tz != known {
			continue
		}
		if u, _ := e.store.User(m.ChatID); u != nil {
			u.Timezone = tz
			e.saveUser(m.ChatID, u)
		}
		s.choosingTimezone = false
		text := fmt.Sprintf("✅ Часовой пояс обновлён: %s (%s).", tz, domain.OffsetLabel(tz, e.now()))
		e.sendAndReplace(ctx, m.ChatID, text, mainMenuKeyboard())
		return
	}
	kb := domain.KeyboardOf(domain.KnownTimezones...)
	kb.OneTime = true
	e.sendAndReplace(ctx, m.ChatID, "❌ Не узнал этот часовой пояс. Выбери вариант с клавиатуры:", kb)
}

func (e *Engine) showWeeklyPlans(ctx context.Context, chatID int64) {
	u, _ := e.store.User(chatID)
	if u == nil {
		e.sendAndReplace(ctx, chatID, "Сначала запусти /start — так я узнаю твои планы 😉", mainMenuKeyboard())
		return
	}
	e.sendAndReplace(ctx, chatID, domain.WeeklyOverview(u), mainMenuKeyboard())
}

func (e *Engine) handleDay(ctx context.Context, chatID int64, args []string) {
	u, _ := e.store.User(chatID)
	if u == nil {
		e.sendAndReplace(ctx, chatID, "Сначала нажми /start — так мы успеем познакомиться 😉", nil)
		return
	}
	if len(args) == 0 {
		e.sendAndReplace(ctx, chatID, "Напиши дату в формате ДД.ММ.ГГГГ, например /day 12.05.2025", nil)
		return
	}
	target, err := time.Parse("02.01.2006", args[0])
	if err != nil {
		e.sendAndReplace(ctx, chatID, "❌ Хочется видеть дату вроде 12.05.2025 — попробуй ещё раз 🙂", nil)
		return
	}
	dayName := domain.WeekdayName(target)
	global, _ := e.store.GlobalPlans(chatID)
	e.sendAndReplace(ctx, chatID, domain.DayDigest(args[0], dayName, u.Plans[dayName], global), nil)
}

func (e *Engine) promptStart(ctx context.Context, chatID int64) {
	e.sendAndReplace(ctx, chatID, "Сначала запусти /start 😉", nil)
}

// ---- weekly plan setup ----

func (e *Engine) startSetup(ctx context.Context, s *session, chatID int64) {
	if u, _ := e.store.User(chatID); u == nil {
		e.promptStart(ctx, chatID)
		return
	}
	s.action = "replace"
	s.deletingDay = false
	s.skipDay = false
	kb := dayKeyboard(btnSkipAll, btnDeleteDay)
	e.sendAndReplace(ctx, chatID,
		"📅 С какого дня начнём? Можно отметить только те дни, которые сейчас важны. Остальные успеем позже ✨",
		kb)
	s.state = stateChoosingDay
}

func shortDayIndex(text string) int {
	for i, short := range domain.WeekdaysShort {
		if text == short {
			return i
		}
	}
	return -1
}

func (e *Engine) handleChooseDay(ctx context.Context, s *session, m domain.IncomingMessage) {
	u, _ := e.store.User(m.ChatID)
	if u == nil {
		e.promptStart(ctx, m.ChatID)
		return
	}
	text := strings.TrimSpace(m.Text)

	finish := func(message string) {
		u.SetupComplete = true
		e.saveUser(m.ChatID, u)
		e.sendAndReplace(ctx, m.ChatID, message, mainMenuKeyboard())
		e.ensureNotificationTime(ctx, s, m.ChatID, u)
		s.state = stateMainMenu
	}

	switch text {
	case btnSkipAll:
		finish("👌 Оставляем всё, как есть. Если понадобится — вернись ко мне /plan.\n\nГлавное меню:")
		return
	case btnDone:
		finish("✅ Отлично! Планы сохранены. Возвращаю в меню.")
		return
	case btnDeleteDay:
		kb := dayKeyboard()
		kb.OneTime = true
		e.sendAndReplace(ctx, m.ChatID, "Выбери день, у которого нужно полностью удалить планы:", kb)
		s.deletingDay = true
		return
	}

	idx := shortDayIndex(text)
	if s.deletingDay {
		if idx < 0 {
			e.sendAndReplace(ctx, m.ChatID, "❌ Выбери день недели с клавиатуры.", nil)
			return
		}
		dayName := domain.Weekdays[idx]
		u.Plans[dayName] = nil
		e.saveUser(m.ChatID, u)
		s.deletingDay = false
		e.sendAndReplace(ctx, m.ChatID, fmt.Sprintf("🗑️ Все планы на %s удалены.", dayName), mainMenuKeyboard())
		s.state = stateMainMenu
		return
	}

	if idx < 0 {
		e.sendAndReplace(ctx, m.ChatID, "❌ Выбери, пожалуйста, день из списка на клавиатуре.", nil)
		return
	}

	s.currentDay = domain.Weekdays[idx]
	s.dayIndex = idx
	s.skipDay = false
	kb := domain.KeyboardOf(btnSkipDay)
	kb.OneTime = true
	e.sendAndReplace(ctx, m.ChatID,
		fmt.Sprintf("📝 %s\n\nПеречисли планы через точку с запятой (;).\nПример: сходить погулять; купить молоко; позвонить другу", s.currentDay),
		kb)
	s.state = stateEnteringPlans
}

func (e *Engine) handleEnterPlans(ctx context.Context, s *session, m domain.IncomingMessage) {
	text := strings.TrimSpace(m.Text)

	if text == btnCancel {
		e.sendAndReplace(ctx, m.ChatID, "Окей, отменяем. Вот меню:", mainMenuKeyboard())
		s.state = stateMainMenu
		return
	}
	if text == btnSkipDay {
		s.currentPlans = nil
		s.skipDay = true
	} else {
		s.currentPlans = domain.ParsePlans(text)
		s.skipDay = false
	}
	e.showReview(ctx, s, m.ChatID)
}

func (e *Engine) showReview(ctx context.Context, s *session, chatID int64) {
	u, _ := e.store.User(chatID)

	var plansText string
	switch {
	case s.skipDay:
		var existing []domain.Plan
		if u != nil {
			existing = u.Plans[s.currentDay]
		}
		if len(existing) > 0 {
			lines := make([]string, 0, len(existing)+1)
			lines = append(lines, "Оставляем без изменений:")
			for i, p := range existing {
				lines = append(lines, fmt.Sprintf("%d. %s", i+1, p.Line()))
			}
			plansText = strings.Join(lines, "\n")
		} else {
			plansText = "Этот день пока останется свободным."
		}
	case len(s.currentPlans) > 0:
		lines := make([]string, 0, len(s.currentPlans))
		for i, p := range s.currentPlans {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, p.Line()))
		}
		plansText = strings.Join(lines, "\n")
	default:
		plansText = "Этот день пока без записей."
	}

	review := fmt.Sprintf("✅ Всё готово для %s!\n\n%s\n\nНужно что-нибудь подправить или идём дальше?",
		s.currentDay, plansText)
	kb := &domain.Keyboard{
		Rows:    [][]string{{btnSupplement, btnRewrite}, {btnContinue}},
		OneTime: true,
	}
	e.sendAndReplace(ctx, chatID, review, kb)
	s.state = stateReviewPlans
}

func (e *Engine) handleReviewAction(ctx context.Context, s *session, m domain.IncomingMessage) {
	text := strings.TrimSpace(m.Text)

	switch text {
	case btnSupplement:
		kb := domain.KeyboardOf(btnCancel)
		kb.OneTime = true
		e.sendAndReplace(ctx, m.ChatID, "Добавь пункты через точку с запятой. Я просто допишу их к текущему списку:", kb)
		s.action = "supplement"
		s.state = stateEnteringPlans
	case btnRewrite:
		kb := domain.KeyboardOf(btnCancel)
		kb.OneTime = true
		e.sendAndReplace(ctx, m.ChatID, "Введи планы заново (используй точку с запятой между пунктами):", kb)
		s.action = "replace"
		s.state = stateEnteringPlans
	case btnContinue:
		u, _ := e.store.User(m.ChatID)
		if u == nil {
			e.promptStart(ctx, m.ChatID)
			return
		}
		if !s.skipDay {
			if s.action == "supplement" && len(s.currentPlans) > 0 {
				u.Plans[s.currentDay] = append(u.Plans[s.currentDay], s.currentPlans...)
			} else {
				u.Plans[s.currentDay] = s.currentPlans
			}
		}
		s.action = "replace"
		s.skipDay = false
		e.saveUser(m.ChatID, u)

		kb := dayKeyboard(btnDone, btnDeleteDay)
		e.sendAndReplace(ctx, m.ChatID,
			fmt.Sprintf("✨ %s готов. Можно выбрать следующий день, нажать «✅ Готово» или «🗑️ Удалить планы на день».", s.currentDay),
			kb)
		s.state = stateChoosingDay
	}
}

// ---- global plans ----

func (e *Engine) showGlobalMenu(ctx context.Context, s *session, chatID int64) {
	plans, _ := e.store.GlobalPlans(chatID)

	var message string
	if len(plans) > 0 {
		lines := make([]string, 0, len(plans))
		for i, p := range plans {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, p))
		}
		message = "🌍 Твои глобальные ориентиры:\n\n" + strings.Join(lines, "\n")
	} else {
		message = "🌍 Пока нет записей. Добавим пару больших целей?"
	}

	kb := &domain.Keyboard{
		Rows:    [][]string{{btnGlobalAdd, btnGlobalRewrite}, {btnGlobalDelete, btnBack}},
		OneTime: true,
	}
	e.sendAndReplace(ctx, chatID, message+"\n\nВыбери действие:", kb)
	s.state = stateGlobalMenu
}

func (e *Engine) handleGlobalAction(ctx context.Context, s *session, m domain.IncomingMessage) {
	switch strings.TrimSpace(m.Text) {
	case btnGlobalAdd:
		e.sendAndReplace(ctx, m.ChatID, "Перечисли глобальные планы через точку с запятой — я добавлю их к списку:", domain.RemoveKeyboard())
		s.globalAction = "add"
		s.state = stateEnteringGlobalPlans
	case btnGlobalRewrite:
		e.sendAndReplace(ctx, m.ChatID, "Напиши глобальные планы заново (они заменят предыдущие):", domain.RemoveKeyboard())
		s.globalAction = "replace"
		s.state = stateEnteringGlobalPlans
	case btnGlobalDelete:
		existing, _ := e.store.GlobalPlans(m.ChatID)
		if len(existing) > 0 {
			if err := e.store.DeleteGlobalPlans(m.ChatID); err != nil {
				e.log.Warn("failed to delete global plans", zap.Int64("chat", m.ChatID), zap.Error(err))
			}
			e.sendAndReplace(ctx, m.ChatID, "✅ Глобальные планы очищены. Можно начать с чистого листа!", nil)
		} else {
			e.sendAndReplace(ctx, m.ChatID, "❌ Пока нечего удалять — список пуст.", nil)
		}
		e.sendAndReplace(ctx, m.ChatID, "Возвращаю в главное меню:", mainMenuKeyboard())
		s.state = stateMainMenu
	case btnBack:
		e.sendAndReplace(ctx, m.ChatID, "Главное меню открыто:", mainMenuKeyboard())
		s.state = stateMainMenu
	}
}

func (e *Engine) handleEnterGlobalPlans(ctx context.Context, s *session, m domain.IncomingMessage) {
	var newPlans []string
	for _, part := range strings.Split(m.Text, ";") {
		if p := strings.TrimSpace(part); p != "" {
			newPlans = append(newPlans, p)
		}
	}

	if s.globalAction == "add" {
		existing, _ := e.store.GlobalPlans(m.ChatID)
		newPlans = append(existing, newPlans...)
	}
	if err := e.store.SaveGlobalPlans(m.ChatID, newPlans); err != nil {
		e.log.Warn("failed to save global plans", zap.Int64("chat", m.ChatID), zap.Error(err))
	}

	e.sendAndReplace(ctx, m.ChatID, "✅ Глобальные планы обновлены! Возвращаю тебя в меню.", mainMenuKeyboard())
	s.state = stateMainMenu
}
