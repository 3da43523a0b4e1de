package safe

import "log/slog"

// Go runs f on a new goroutine, logging instead of crashing on panic.
func Go(f func()) {
	go func() {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("[safe] go panic", "error", err)
			}
		}()

		f()
	}()
}
