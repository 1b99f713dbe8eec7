package notify

import (
	"fmt"
	"strings"
	"time"
)

type NoteEvent string

const (
	NoteCreated NoteEvent = "created"
	NoteUpdated NoteEvent = "updated"
	NoteDeleted NoteEvent = "deleted"
)

const DateLayout = "02.01.2006 15:04"

type noteStyle struct {
	emoji, action, color, footer string
}

var noteStyles = map[NoteEvent]noteStyle{
	NoteCreated: {"📅", "создана", "✅", "✨ Новая заметка успешно добавлена в ваш календарь!"},
	NoteUpdated: {"✏️", "обновлена", "🔄", ""},
	NoteDeleted: {"🗑️", "удалена", "❌", ""},
}

// CalendarNote форматирует уведомление о заметке календаря.
// Неизвестный тип оформляется как created.
func CalendarNote(ev NoteEvent, title string, date time.Time, description string) string {
	st, ok := noteStyles[ev]
	if !ok {
		st = noteStyles[NoteCreated]
	}

	parts := []string{
		fmt.Sprintf("%s %s Заметка календаря %s!", st.color, st.emoji, st.action),
		"",
		fmt.Sprintf("📋 **%s**", title),
		"📆 " + date.Format(DateLayout),
	}
	if description != "" {
		parts = append(parts, "", "📝 "+description)
	}
	if st.footer != "" {
		parts = append(parts, "", st.footer)
	}
	return strings.Join(parts, "\n")
}

// NoteReminderText - напоминание планировщика за minutesBefore минут до события.
func NoteReminderText(title string, date time.Time, minutesBefore int) string {
	return fmt.Sprintf("⏰ Напоминание!\n\n📋 **%s**\n📆 %s\n\n🔔 До события осталось %d минут!\nПодготовьтесь заранее. 😊",
		title, date.Format(DateLayout), minutesBefore)
}
