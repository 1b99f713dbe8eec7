// Package notify отправляет уведомления пользователям в Telegram.
package notify

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/haxxxs/edu-back/internal/metrics"
	"github.com/haxxxs/edu-back/internal/observability"
)

var ErrClosed = errors.New("notify: dispatcher closed")

// Sender - то, что умеет *tgbotapi.BotAPI.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// NewBot создаёт клиента Bot API с таймаутом на каждый запрос.
func NewBot(token string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	return tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: timeout})
}

// Dispatcher шлёт сообщения в фоне. Ошибки отправки не возвращаются
// вызывающему: они логируются, считаются в метриках и уходят в Sentry.
type Dispatcher struct {
	sender Sender
	log    *zap.Logger

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher: sender == nil означает, что уведомления выключены.
func NewDispatcher(sender Sender, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{sender: sender, log: log.Named("notify")}
}

func (d *Dispatcher) Enabled() bool { return d != nil && d.sender != nil }

// Message строит сообщение по идентификатору получателя:
// число (с @ или без) - это chat id, иначе @username канала/пользователя.
func Message(recipient, text string) (tgbotapi.MessageConfig, error) {
	clean := strings.TrimLeft(strings.TrimSpace(recipient), "@")
	if clean == "" {
		return tgbotapi.MessageConfig{}, errors.New("notify: empty recipient")
	}
	if id, err := strconv.ParseInt(clean, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text), nil
	}
	return tgbotapi.NewMessageToChannel("@"+clean, text), nil
}

// Send отправляет синхронно.
func (d *Dispatcher) Send(recipient, text string) error {
	if !d.Enabled() {
		return nil
	}
	msg, err := Message(recipient, text)
	if err != nil {
		return err
	}
	_, err = d.sender.Send(msg)
	return err
}

// NotifyAsync ставит отправку в фон и сразу возвращает управление.
func (d *Dispatcher) NotifyAsync(recipient, text string) {
	if !d.Enabled() || recipient == "" {
		metrics.Notifications.WithLabelValues("skipped").Inc()
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.log.Warn("notification dropped", zap.String("recipient", recipient), zap.Error(ErrClosed))
		metrics.Notifications.WithLabelValues("dropped").Inc()
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("notification panic", zap.Any("panic", r))
				metrics.Notifications.WithLabelValues("failed").Inc()
			}
		}()

		if err := d.Send(recipient, text); err != nil {
			d.log.Warn("notification failed", zap.String("recipient", recipient), zap.Error(err))
			metrics.Notifications.WithLabelValues("failed").Inc()
			if isSystemErr(err) {
				observability.CaptureErr(err)
			}
			return
		}
		d.log.Debug("notification sent", zap.String("recipient", recipient))
		metrics.Notifications.WithLabelValues("sent").Inc()
	}()
}

// Close перестаёт принимать новые сообщения и ждёт отправки текущих.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

// Считаем системными: 5xx, 429, timeout. 400-ки (chat not found и т.п.) в Sentry не шлём.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "429") ||
		strings.Contains(s, "502") ||
		strings.Contains(s, "503") ||
		strings.Contains(s, "timeout")
}
