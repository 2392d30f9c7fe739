package pulsarschema

import (
	"go.uber.org/zap"

	"github.com/reoring/pulsarschema/internal/logx"
)

// SetLogger installs the logger used by this module and its subpackages.
// Passing nil restores the default no-op logger.
func SetLogger(l *zap.Logger) { logx.Set(l) }
