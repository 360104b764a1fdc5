package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	// User zones must resolve even on hosts without system tzdata.
	_ "time/tzdata"
)

// DefaultTimezone is assigned to new users until they pick their own zone.
const DefaultTimezone = "Asia/Irkutsk"

// SummaryTime is the local time at which the evening wrap-up is offered.
const SummaryTime = "23:59"

// Weekdays holds the full day names used as keys in the weekly plan map,
// Monday first. The short forms drive the day-picker keyboard.
var (
	Weekdays      = []string{"Понедельник", "Вторник", "Среда", "Четверг", "Пятница", "Суббота", "Воскресенье"}
	WeekdaysShort = []string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}
)

// KnownTimezones is the set of zones offered on the timezone keyboard.
var KnownTimezones = []string{
	"Asia/Irkutsk",
	"Europe/Moscow",
	"Europe/Kaliningrad",
	"Asia/Yekaterinburg",
	"Asia/Krasnoyarsk",
	"Asia/Vladivostok",
}

// User is a diary owner. Field names follow the on-disk users file.
type User struct {
	Name             string            `json:"name"`
	Timezone         string            `json:"timezone"`
	NotificationTime string            `json:"notification_time,omitempty"`
	Plans            map[string][]Plan `json:"plans"`
	SetupComplete    bool              `json:"setup_complete"`

	// Message bookkeeping: the morning focus message and the last bot reply
	// are replaced, not stacked.
	LastMessageID        int    `json:"last_message_id,omitempty"`
	LastSummaryDate      string `json:"last_summary_date,omitempty"`
	LastBotMessageID     int    `json:"last_bot_message_id,omitempty"`
	LastBotMessageChatID int64  `json:"last_bot_message_chat_id,omitempty"`

	// SentReminders dedups per-plan timed reminders, keyed date_time_text.
	SentReminders map[string]bool `json:"sent_reminders,omitempty"`

	Review *ReviewState `json:"itog_state,omitempty"`
}

// NewUser returns a fresh user with an empty week.
func NewUser(name string) *User {
	u := &User{Name: name, Timezone: DefaultTimezone}
	u.Normalize()
	return u
}

// Normalize fills defaults for records written by older versions of the bot.
func (u *User) Normalize() {
	if u.Timezone == "" {
		u.Timezone = DefaultTimezone
	}
	if u.Plans == nil {
		u.Plans = make(map[string][]Plan, len(Weekdays))
	}
	for _, day := range Weekdays {
		if _, ok := u.Plans[day]; !ok {
			u.Plans[day] = nil
		}
	}
	if u.SentReminders == nil {
		u.SentReminders = make(map[string]bool)
	}
}

// UnmarshalJSON lifts reminder flags stored by early bot versions as
// top-level "sent_<date>_<time>_<text>" keys into SentReminders, so
// already-delivered reminders do not fire again after an upgrade.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = User(p)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		if !strings.HasPrefix(key, "sent_") || key == "sent_reminders" {
			continue
		}
		var sent bool
		if err := json.Unmarshal(value, &sent); err != nil || !sent {
			continue
		}
		if u.SentReminders == nil {
			u.SentReminders = make(map[string]bool)
		}
		u.SentReminders[strings.TrimPrefix(key, "sent_")] = true
	}
	return nil
}

// Location resolves the user's timezone, falling back to local time when the
// zone name is unknown to the tzdata on the host.
func (u *User) Location() *time.Location {
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Now returns the given instant on the user's wall clock.
func (u *User) Now(now time.Time) time.Time {
	return now.In(u.Location())
}

// WeekdayName maps a time to the Monday-first Russian day name.
func WeekdayName(t time.Time) string {
	return Weekdays[(int(t.Weekday())+6)%7]
}

// OffsetLabel renders the UTC offset of a zone for display, e.g. "UTC+08:00".
// Unknown zones are shown by name.
func OffsetLabel(tzName string, now time.Time) string {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return tzName
	}
	_, offset := now.In(loc).Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, offset/3600, offset%3600/60)
}

// ParseClock validates an "HH:MM" string and returns it zero-padded.
func ParseClock(s string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return "", false
	}
	hh, err1 := strconv.Atoi(parts[0])
	mm, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hh, mm), true
}
