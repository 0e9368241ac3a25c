package config

import (
	"confkeeper/internal/migrate"
	"confkeeper/internal/notify"
	"confkeeper/internal/storage"
	"confkeeper/pkg/logging"
)

type options struct {
	fs           storage.FileSystem
	notifier     notify.Notifier
	backupSuffix string
	log          logging.Logger
}

func defaultOptions() options {
	return options{
		notifier:     notify.Nop{},
		backupSuffix: migrate.DefaultBackupSuffix,
		log:          logging.For("ConfigStore"),
	}
}

// Option configures a Registry.
type Option func(*options)

// WithFileSystem sets the persistence adapter. Defaults to the OS filesystem.
func WithFileSystem(fs storage.FileSystem) Option {
	return func(o *options) {
		if fs != nil {
			o.fs = fs
		}
	}
}

// WithNotifier sets the hook told about writes, resets, migrations and refreshes.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithBackupSuffix overrides the suffix of pre-migration backups.
func WithBackupSuffix(suffix string) Option {
	return func(o *options) {
		if suffix != "" {
			o.backupSuffix = suffix
		}
	}
}

// WithLogger sets the logger used by the store. Migrations keep logging
// under their own subsystem.
func WithLogger(log logging.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}
