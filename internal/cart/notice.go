package cart

import (
	"fmt"
	"time"
)

type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

// NoticeDuration is how long cart confirmations stay visible.
const NoticeDuration = 2 * time.Second

// Notice is a transient user-facing message.
type Notice struct {
	Title       string
	Description string
	Duration    time.Duration
	Severity    Severity
}

// Notifier receives notices fire-and-forget.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}

func addedNotice(name string) Notice {
	return Notice{
		Title:       "Added to cart",
		Description: fmt.Sprintf("%s has been added to your cart.", name),
		Duration:    NoticeDuration,
		Severity:    SeverityDefault,
	}
}

func removedNotice(name string) Notice {
	return Notice{
		Title:       "Removed from cart",
		Description: fmt.Sprintf("%s has been removed from your cart.", name),
		Duration:    NoticeDuration,
		Severity:    SeverityDefault,
	}
}

func clearedNotice() Notice {
	return Notice{
		Title:       "Cart cleared",
		Description: "All items have been removed from your cart.",
		Duration:    NoticeDuration,
		Severity:    SeverityDefault,
	}
}
