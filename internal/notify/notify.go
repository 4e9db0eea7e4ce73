package notify

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartstore/internal/domain"
)

// Level — тип уведомления.
type Level string

const (
	LevelSuccess Level = "success"
	LevelFailure Level = "failure"
)

// Notification — одно показанное пользователю сообщение.
type Notification struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// LogNotifier пишет уведомления в лог вместо toast-ов.
type LogNotifier struct {
	logger *log.Entry
}

// NewLogNotifier создаёт notifier поверх logrus.
func NewLogNotifier(logger *log.Entry) *LogNotifier {
	if logger == nil {
		logger = log.WithField("component", "notifier")
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(message string) {
	n.logger.WithField("notification", LevelSuccess).Info(message)
}

func (n *LogNotifier) Failure(message string) {
	n.logger.WithField("notification", LevelFailure).Warn(message)
}

// Recorder хранит последние уведомления в памяти; используется HTTP API и тестами.
type Recorder struct {
	mu    sync.Mutex
	limit int
	items []Notification
	now   func() time.Time
}

const defaultRecorderLimit = 50

// NewRecorder создаёт recorder, хранящий не больше limit сообщений. При limit <= 0 берётся значение по умолчанию.
func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = defaultRecorderLimit
	}
	return &Recorder{limit: limit, now: time.Now}
}

func (r *Recorder) Success(message string) { r.add(LevelSuccess, message) }

func (r *Recorder) Failure(message string) { r.add(LevelFailure, message) }

func (r *Recorder) add(level Level, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append(r.items, Notification{Level: level, Message: message, At: r.now().UTC()})
	if over := len(r.items) - r.limit; over > 0 {
		r.items = append(r.items[:0:0], r.items[over:]...)
	}
}

// List возвращает копию накопленных уведомлений.
func (r *Recorder) List() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Notification, len(r.items))
	copy(out, r.items)
	return out
}

// Drain возвращает накопленные уведомления и очищает буфер.
func (r *Recorder) Drain() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.items
	r.items = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// Last возвращает последнее уведомление.
func (r *Recorder) Last() (Notification, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.items) == 0 {
		return Notification{}, false
	}
	return r.items[len(r.items)-1], true
}

// Multi рассылает уведомление всем notifier-ам по порядку.
type Multi []domain.Notifier

func (m Multi) Success(message string) {
	for _, n := range m {
		if n != nil {
			n.Success(message)
		}
	}
}

func (m Multi) Failure(message string) {
	for _, n := range m {
		if n != nil {
			n.Failure(message)
		}
	}
}

var (
	_ domain.Notifier = (*LogNotifier)(nil)
	_ domain.Notifier = (*Recorder)(nil)
	_ domain.Notifier = Multi(nil)
)
