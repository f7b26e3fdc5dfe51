package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/stroyhub-backend/internal/logger"
)

// Go запускает горутину с перехватом panic. Паника фонового потока
// логируется со стеком и не роняет процесс.
func Go(name string, fn func()) {
	go func() {
		defer recoverPanic(name)
		fn()
	}()
}

// GoWithContext запускает горутину с контекстом и перехватом panic.
func GoWithContext(ctx context.Context, name string, fn func(context.Context)) {
	go func() {
		defer recoverPanic(name)
		fn(ctx)
	}()
}

func recoverPanic(name string) {
	r := recover()
	if r == nil {
		return
	}
	if logger.Log != nil {
		logger.Log.WithFields(logrus.Fields{
			"goroutine": name,
			"panic":     r,
		}).Errorf("goroutine: перехвачена паника\n%s", debug.Stack())
	}
}
