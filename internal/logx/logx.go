// Package logx holds the process-wide zap logger used by the library.
package logx

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var current atomic.Pointer[zap.Logger]

func init() { current.Store(zap.NewNop()) }

// L returns the current logger. It is never nil.
func L() *zap.Logger { return current.Load() }

// Set replaces the logger. A nil logger restores the no-op logger.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	current.Store(l)
}
