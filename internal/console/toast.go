package console

import (
	"fmt"
	"io"
	"sync"
)

// Toast is a transient message shown to the admin.
type Toast struct {
	Title       string
	Description string
	Destructive bool
}

// Toaster displays toasts.
type Toaster interface {
	Toast(t Toast)
}

// ToastLog records toasts in order. Safe for concurrent use.
type ToastLog struct {
	mu     sync.Mutex
	toasts []Toast
}

// Toast implements Toaster.
func (l *ToastLog) Toast(t Toast) {
	l.mu.Lock()
	l.toasts = append(l.toasts, t)
	l.mu.Unlock()
}

// All returns a copy of the recorded toasts.
func (l *ToastLog) All() []Toast {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Toast(nil), l.toasts...)
}

// WriterToaster prints toasts, one per line.
type WriterToaster struct {
	W io.Writer
}

// Toast implements Toaster.
func (w WriterToaster) Toast(t Toast) {
	prefix := "ok"
	if t.Destructive {
		prefix = "error"
	}
	if t.Description == "" {
		fmt.Fprintf(w.W, "[%s] %s\n", prefix, t.Title)
		return
	}
	fmt.Fprintf(w.W, "[%s] %s: %s\n", prefix, t.Title, t.Description)
}

type discardToaster struct{}

func (discardToaster) Toast(Toast) {}

func toasterOrDiscard(t Toaster) Toaster {
	if t == nil {
		return discardToaster{}
	}
	return t
}
