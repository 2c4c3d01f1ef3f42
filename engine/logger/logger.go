// package logger provides the engine-wide structured logger.
// All engine packages log through logger.Log so applications can swap the
// logger configuration in one place before creating any engine objects.
package logger

import (
	"go.uber.org/zap"
)

// Log is the shared engine logger. It defaults to a no-op logger so that
// library consumers who never call Init pay nothing for logging.
var Log = zap.NewNop()

// Init configures the shared logger. Call once at startup, before any engine
// objects are created.
//
// Parameters:
//   - debug: true for a development config with Debug level enabled, false for production
//
// Returns:
//   - error: error if the zap logger could not be built
func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// Sync flushes any buffered log entries. Call on shutdown.
//
// Returns:
//   - error: error from the underlying sink flush
func Sync() error {
	return Log.Sync()
}
