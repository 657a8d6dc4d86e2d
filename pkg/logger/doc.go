// Package logger provides the structured logging interface used across igfeed.
//
// It wraps zerolog. Fields bound with WithField, WithFields and WithError are
// carried on child loggers, and every line is stamped with the app name and
// version. Console output is colourised when logging.pretty is set, and
// logging.file adds a JSON file sink next to the console.
//
// Basic usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("component", "feed")
//	log.InfoWithFields("Serving page", map[string]interface{}{
//	    "identity": "natgeo",
//	    "page":     0,
//	})
//
// Tests use NewNopLogger, or NewTestLogger when they assert on output.
package logger
