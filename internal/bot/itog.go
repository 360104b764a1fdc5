package bot

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"diarybot/internal/core/domain"
)

// startItog opens the evening walk-through: a checklist message plus one
// Да/Нет question per plan. The checklist snapshot lives on the user record,
// so a crashed review can be resumed or restarted cleanly.
func (e *Engine) startItog(ctx context.Context, s *session, chatID int64) {
	u, _ := e.store.User(chatID)
	if u == nil {
		e.sendAndReplace(ctx, chatID, "Сначала запусти /start, чтобы я знал о тебе 😉", nil)
		s.state = stateMainMenu
		return
	}

	today := u.Now(e.now())
	dayName := domain.WeekdayName(today)
	todayPlans := append([]domain.Plan(nil), u.Plans[dayName]...)
	dateText := today.Format("02.01.2006")

	if len(todayPlans) == 0 {
		e.sendAndReplace(ctx, chatID, "Похоже, на сегодня записей нет. Добавь их командой /plan, и я вернусь к итогам позже.", nil)
		s.state = stateMainMenu
		return
	}

	// A previous unfinished review leaves stale service messages behind.
	if u.Review != nil {
		e.deleteQuiet(ctx, chatID, u.Review.QuestionMessageID)
		e.deleteQuiet(ctx, chatID, u.Review.ListMessageID)
	}

	listText := domain.ChecklistText(dayName, dateText, todayPlans, nil)
	listID, err := e.msg.SendHTML(ctx, chatID, listText)
	if err != nil {
		e.log.Warn("failed to send checklist", zap.Int64("chat", chatID), zap.Error(err))
		return
	}
	questionID := e.sendItogQuestion(ctx, chatID, todayPlans[0], 0)

	u.Review = &domain.ReviewState{
		Date:              dateText,
		DayName:           dayName,
		Plans:             todayPlans,
		ListMessageID:     listID,
		QuestionMessageID: questionID,
	}
	e.saveUser(chatID, u)
	s.state = stateItogReview
}

func (e *Engine) sendItogQuestion(ctx context.Context, chatID int64, plan domain.Plan, index int) int {
	kb := &domain.Keyboard{Rows: [][]string{{answerYes, answerNo}}}
	id, err := e.msg.Send(ctx, chatID, fmt.Sprintf("Как прошёл пункт %d?\n\n%s", index+1, plan.Line()), kb)
	if err != nil {
		e.log.Warn("failed to send review question", zap.Int64("chat", chatID), zap.Error(err))
		return 0
	}
	return id
}

func (e *Engine) updateItogList(ctx context.Context, chatID int64, review *domain.ReviewState) {
	if review.ListMessageID == 0 {
		return
	}
	text := domain.ChecklistText(review.DayName, review.Date, review.Plans, review.CompletedSet())
	if err := e.msg.EditHTML(ctx, chatID, review.ListMessageID, text); err != nil {
		e.log.Debug("failed to update checklist", zap.Int64("chat", chatID), zap.Error(err))
	}
}

func (e *Engine) handleItogResponse(ctx context.Context, s *session, m domain.IncomingMessage) {
	answer := strings.TrimSpace(m.Text)
	if answer != answerYes && answer != answerNo {
		// Only the two keyboard answers advance the review.
		return
	}

	u, _ := e.store.User(m.ChatID)
	if u == nil || u.Review == nil {
		e.sendAndReplace(ctx, m.ChatID, "Сейчас итоги не активны. Нажми /itog, чтобы начать заново.", nil)
		s.state = stateMainMenu
		return
	}

	review := u.Review
	if len(review.Plans) == 0 {
		u.Review = nil
		e.saveUser(m.ChatID, u)
		e.sendAndReplace(ctx, m.ChatID, "Похоже, планов нет. Возвращаю в меню.", nil)
		s.state = stateMainMenu
		return
	}

	if review.CurrentIndex >= len(review.Plans) {
		e.deleteQuiet(ctx, m.ChatID, review.QuestionMessageID)
		review.Apply(u)
		u.Review = nil
		e.saveUser(m.ChatID, u)
		e.sendAndReplace(ctx, m.ChatID, "Все пункты уже разобрали 🙌", domain.RemoveKeyboard())
		e.sendAndReplace(ctx, m.ChatID, "Чем займёмся дальше?", mainMenuKeyboard())
		s.state = stateMainMenu
		return
	}

	e.deleteQuiet(ctx, m.ChatID, review.QuestionMessageID)

	if strings.EqualFold(answer, answerYes) {
		review.MarkCompleted(review.CurrentIndex)
		e.updateItogList(ctx, m.ChatID, review)
	}
	review.CurrentIndex++

	if review.CurrentIndex >= len(review.Plans) {
		review.Apply(u)
		completed, total := len(review.Completed), len(review.Plans)
		u.Review = nil
		e.saveUser(m.ChatID, u)

		e.sendAndReplace(ctx, m.ChatID,
			fmt.Sprintf("✅ Готово! Выполнено %d из %d. Горжусь твоим прогрессом.", completed, total),
			domain.RemoveKeyboard())
		e.sendAndReplace(ctx, m.ChatID, "Верну тебя в главное меню:", mainMenuKeyboard())
		s.state = stateMainMenu
		return
	}

	review.QuestionMessageID = e.sendItogQuestion(ctx, m.ChatID, review.Plans[review.CurrentIndex], review.CurrentIndex)
	e.saveUser(m.ChatID, u)
	s.state = stateItogReview
}
