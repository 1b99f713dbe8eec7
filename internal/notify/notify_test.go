package notify

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []tgbotapi.MessageConfig
	err   error
	delay time.Duration
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

func TestMessage_Recipient(t *testing.T) {
	m, err := Message("123456", "hi")
	require.NoError(t, err)
	assert.Equal(t, int64(123456), m.ChatID)
	assert.Empty(t, m.ChannelUsername)

	m, err = Message("@42", "hi")
	require.NoError(t, err)
	assert.Equal(t, int64(42), m.ChatID)

	m, err = Message("@student_one", "hi")
	require.NoError(t, err)
	assert.Equal(t, "@student_one", m.ChannelUsername)
	assert.Equal(t, "hi", m.Text)

	_, err = Message("@", "hi")
	assert.Error(t, err)
}

func TestDispatcher_AsyncAndClose(t *testing.T) {
	fs := &fakeSender{delay: 20 * time.Millisecond}
	d := NewDispatcher(fs, zap.NewNop())

	d.NotifyAsync("100", "one")
	d.NotifyAsync("@someone", "two")
	d.Close()

	assert.Len(t, fs.messages(), 2)

	// после Close новые сообщения отбрасываются
	d.NotifyAsync("100", "three")
	d.Close()
	assert.Len(t, fs.messages(), 2)
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	fs := &fakeSender{err: errors.New("Bad Request: chat not found")}
	d := NewDispatcher(fs, zap.NewNop())

	assert.NotPanics(t, func() {
		d.NotifyAsync("100", "x")
		d.Close()
	})
	assert.Error(t, d.Send("100", "x"))
}

func TestDispatcher_Disabled(t *testing.T) {
	d := NewDispatcher(nil, nil)
	assert.False(t, d.Enabled())
	d.NotifyAsync("100", "x")
	assert.NoError(t, d.Send("100", "x"))
	d.Close()
}

func TestIsSystemErr(t *testing.T) {
	assert.True(t, isSystemErr(errors.New("Too Many Requests: retry after 5 (429)")))
	assert.True(t, isSystemErr(errors.New("net/http: request canceled (Client.Timeout exceeded); timeout")))
	assert.False(t, isSystemErr(errors.New("Bad Request: chat not found")))
	assert.False(t, isSystemErr(nil))
}

func TestCalendarNote(t *testing.T) {
	date := time.Date(2025, 6, 3, 14, 30, 0, 0, time.UTC)

	got := CalendarNote(NoteCreated, "Экзамен", date, "Аудитория 12")
	assert.Equal(t, strings.Join([]string{
		"✅ 📅 Заметка календаря создана!",
		"",
		"📋 **Экзамен**",
		"📆 03.06.2025 14:30",
		"",
		"📝 Аудитория 12",
		"",
		"✨ Новая заметка успешно добавлена в ваш календарь!",
	}, "\n"), got)

	got = CalendarNote(NoteDeleted, "Экзамен", date, "")
	assert.Equal(t, "❌ 🗑️ Заметка календаря удалена!\n\n📋 **Экзамен**\n📆 03.06.2025 14:30", got)

	assert.True(t, strings.HasPrefix(CalendarNote("unknown", "a", date, ""), "✅ 📅"))
	assert.True(t, strings.HasPrefix(CalendarNote("upcoming", "a", date, ""), "✅ 📅"))
	assert.True(t, strings.HasPrefix(CalendarNote(NoteUpdated, "a", date, ""), "🔄 ✏️ Заметка календаря обновлена!"))
}

func TestNoteReminderText(t *testing.T) {
	got := NoteReminderText("Вебинар", time.Date(2025, 6, 3, 9, 5, 0, 0, time.UTC), 30)
	assert.Contains(t, got, "⏰ Напоминание!")
	assert.Contains(t, got, "📆 03.06.2025 09:05")
	assert.Contains(t, got, "До события осталось 30 минут!")
}
