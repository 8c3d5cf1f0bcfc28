package gui

import (
	"time"

	"github.com/gookit/color"
	"github.com/peauc/lazycompose/pkg/fleet"
	"github.com/samber/lo"
	"github.com/sasha-s/go-deadlock"
)

type notification struct {
	severity fleet.Severity
	message  string
	expires  time.Time
}

// notificationList holds the toasts currently on screen
type notificationList struct {
	mutex deadlock.Mutex
	items []notification
	now   func() time.Time
}

func newNotificationList() *notificationList {
	return &notificationList{now: time.Now}
}

func (l *notificationList) add(severity fleet.Severity, message string, ttl time.Duration) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.items = append(l.items, notification{
		severity: severity,
		message:  message,
		expires:  l.now().Add(ttl),
	})
}

// active forgets expired notifications and returns the rest, oldest first
func (l *notificationList) active() []notification {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	now := l.now()
	l.items = lo.Filter(l.items, func(n notification, _ int) bool {
		return n.expires.After(now)
	})
	return append([]notification{}, l.items...)
}

func (n notification) render() string {
	switch n.severity {
	case fleet.Success:
		return color.Green.Sprint(n.message)
	case fleet.Warning:
		return color.Yellow.Sprint(n.message)
	case fleet.Error:
		return color.Red.Sprint(n.message)
	default:
		return color.Cyan.Sprint(n.message)
	}
}
