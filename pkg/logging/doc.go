// Package logging provides a small structured logging facade for confkeeper.
//
// It is built on Go's standard slog package. Every entry carries a subsystem
// attribute so output from the storage layer, the template writer, the
// migrator and the config store can be told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Storage", "Wrote %s", path)
//	logging.Warn("Migrator", "Updating config from version %d to %d", from, to)
//	logging.Error("ConfigStore", err, "Failed to reset config")
//
// Components that receive their logger as a collaborator use the Logger
// interface; For binds the package functions to a subsystem:
//
//	log := logging.For("ConfigStore")
//	log.Info("Config has been reset to default")
//
// Until InitForCLI is called, entries go to slog's default logger.
package logging
