package domain

import (
	"fmt"
	"strings"
	"time"
)

// Plan is a single diary entry, optionally pinned to a wall-clock time.
type Plan struct {
	Time string `json:"time,omitempty"`
	Text string `json:"text"`
}

// ParsePlans splits raw input on ';' and lifts a leading "HH:MM " token into
// the plan time. A malformed or out-of-range prefix stays part of the text.
func ParsePlans(input string) []Plan {
	var plans []Plan
	for _, item := range strings.Split(input, ";") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if clock, rest, ok := splitClockPrefix(item); ok {
			plans = append(plans, Plan{Time: clock, Text: rest})
			continue
		}
		plans = append(plans, Plan{Text: item})
	}
	return plans
}

// splitClockPrefix accepts only the strict "HH:MM" form with both digits,
// matching what the reminder scheduler compares against.
func splitClockPrefix(item string) (clock, rest string, ok bool) {
	fields := strings.SplitN(item, " ", 2)
	if len(fields) != 2 {
		return "", "", false
	}
	p := fields[0]
	if len(p) != 5 || p[2] != ':' {
		return "", "", false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if p[i] < '0' || p[i] > '9' {
			return "", "", false
		}
	}
	hh := int(p[0]-'0')*10 + int(p[1]-'0')
	mm := int(p[3]-'0')*10 + int(p[4]-'0')
	if hh > 23 || mm > 59 {
		return "", "", false
	}
	return p, strings.TrimSpace(fields[1]), true
}

// Line renders a plan for display, time first when present.
func (p Plan) Line() string {
	if p.Time != "" {
		return p.Time + " — " + p.Text
	}
	return p.Text
}

// EscapeHTML escapes the three characters Telegram's HTML parse mode cares about.
func EscapeHTML(text string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(text)
}

// WeeklyOverview renders the whole week, empty days included.
func WeeklyOverview(u *User) string {
	lines := []string{"🗓️ Твоя неделя на ладони:", ""}
	for _, day := range Weekdays {
		dayPlans := u.Plans[day]
		if len(dayPlans) == 0 {
			lines = append(lines, day+": — отдых или спонтанность", "")
			continue
		}
		lines = append(lines, day+":")
		for _, p := range dayPlans {
			lines = append(lines, "   • "+p.Line())
		}
		lines = append(lines, "")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ChecklistText renders the itog checklist; completed entries are struck
// through with <s>, so the result must be sent in HTML parse mode.
func ChecklistText(dayName, dateText string, plans []Plan, completed map[int]bool) string {
	lines := []string{fmt.Sprintf("📘 Итоговый чек-лист: %s • %s", dateText, dayName), ""}
	if len(plans) == 0 {
		lines = append(lines, "На сегодня планов нет.")
	} else {
		for i, p := range plans {
			text := EscapeHTML(p.Line())
			if completed[i] {
				text = "<s>" + text + "</s>"
			}
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, text))
		}
		lines = append(lines, "", "Жми «Да» или «Нет» для каждого пункта ниже.")
	}
	return strings.Join(lines, "\n")
}

// MorningMessage is the daily focus notification.
func MorningMessage(now time.Time, plans []Plan, global []string) string {
	lines := []string{
		fmt.Sprintf("🌞 %s, %s", WeekdayName(now), now.Format("02.01")),
		"",
		"Вот, что у тебя в фокусе сегодня:",
		"",
	}
	if len(plans) > 0 {
		lines = append(lines, "📋 Ежедневные задачи:")
		for _, p := range plans {
			lines = append(lines, "• "+p.Line())
		}
	} else {
		lines = append(lines, "📋 Ежедневные планы не записаны — можно добавить через /plan.")
	}
	if len(global) > 0 {
		lines = append(lines, "", "🌍 Глобальные ориентиры:")
		for _, g := range global {
			lines = append(lines, "• "+g)
		}
	}
	return strings.Join(lines, "\n")
}

// EveningSummary nudges the user towards /itog at the end of the day.
func EveningSummary(now time.Time, plans []Plan) string {
	lines := []string{
		fmt.Sprintf("🌙 %s • %s", now.Format("02.01.2006"), WeekdayName(now)),
		"",
		"Самое время мягко подвести итоги дня ✨",
		"",
	}
	if len(plans) > 0 {
		lines = append(lines, "Вот что было в планах:")
		for _, p := range plans {
			lines = append(lines, "• "+p.Line())
		}
	} else {
		lines = append(lines, "Сегодня не было записанных задач — можно просто отметить настроение.")
	}
	lines = append(lines, "", "Чтобы пройтись по каждому пункту вместе, нажми /itog.")
	return strings.Join(lines, "\n")
}

// DayDigest answers /day: the weekday's plans plus global goals for a date.
func DayDigest(dateText, dayName string, plans []Plan, global []string) string {
	parts := []string{fmt.Sprintf("📅 %s — %s", dateText, dayName), ""}
	if len(plans) > 0 {
		parts = append(parts, "📋 План на день:")
		for _, p := range plans {
			parts = append(parts, "• "+p.Line())
		}
	} else {
		parts = append(parts, "📋 Пока ничего не записано — можно заполнить через /plan.")
	}
	if len(global) > 0 {
		parts = append(parts, "", "🌍 Глобальные ориентиры:")
		for _, g := range global {
			parts = append(parts, "• "+g)
		}
	}
	return strings.Join(parts, "\n")
}
