// Package migrate upgrades an active configuration to a newer template version.
//
// A configuration is Stale when the template's version is greater than the
// active file's version. Migration merges the user's values over the template
// defaults, renders the result through the template's own layout, backs up
// the old file and writes the new one. At the fixed point (equal versions)
// it does nothing.
package migrate

import (
	"fmt"

	"confkeeper/internal/storage"
	"confkeeper/internal/template"
	"confkeeper/internal/tree"
	"confkeeper/pkg/logging"
)

// DefaultBackupSuffix is appended to the active path to name the backup.
const DefaultBackupSuffix = ".backup"

// State is the migration state of a configuration.
type State int

const (
	Current State = iota
	Stale
)

// String returns the state name.
func (s State) String() string {
	if s == Stale {
		return "stale"
	}
	return "current"
}

// Check compares the default tree's version with the current tree's.
func Check(def, cur tree.Tree) State {
	if tree.Version(def) > tree.Version(cur) {
		return Stale
	}
	return Current
}

// Result describes one migration run.
type Result struct {
	Migrated   bool
	From       int
	To         int
	BackupPath string
	// Tree is the upgraded tree; nil unless Migrated.
	Tree tree.Tree
	// Err is the failure that stopped the migration, if any.
	Err error
}

// Migrator performs migrations through the persistence adapter.
type Migrator struct {
	fs           storage.FileSystem
	templates    *template.Cache
	backupSuffix string
	log          logging.Logger
}

// Option configures a Migrator.
type Option func(*Migrator)

// WithBackupSuffix overrides DefaultBackupSuffix.
func WithBackupSuffix(suffix string) Option {
	return func(m *Migrator) {
		if suffix != "" {
			m.backupSuffix = suffix
		}
	}
}

// WithLogger overrides the default "Migrator" subsystem logger.
func WithLogger(log logging.Logger) Option {
	return func(m *Migrator) {
		if log != nil {
			m.log = log
		}
	}
}

// New creates a Migrator. templates may be shared with other components.
func New(fs storage.FileSystem, templates *template.Cache, opts ...Option) *Migrator {
	m := &Migrator{
		fs:           fs,
		templates:    templates,
		backupSuffix: DefaultBackupSuffix,
		log:          logging.For("Migrator"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BackupPath returns where the pre-migration copy of configPath is stored.
func (m *Migrator) BackupPath(configPath string) string {
	return configPath + m.backupSuffix
}

// Run migrates the file at configPath when def is newer than cur.
// Failures are logged and reported in the result; the file is only
// overwritten after its backup has been written.
func (m *Migrator) Run(defaultPath, configPath string, def, cur tree.Tree) Result {
	res := Result{From: tree.Version(cur), To: tree.Version(def)}
	if Check(def, cur) == Current {
		res.To = res.From
		return res
	}

	m.log.Warn("Updating config from version %d to %d", res.From, res.To)

	merged := tree.Merge(def, cur)

	lines, err := m.templates.Lines(defaultPath)
	if err != nil {
		res.Err = fmt.Errorf("failed to load template %s: %w", defaultPath, err)
		m.log.Error(res.Err, "Failed to migrate config")
		return res
	}
	content := template.Render(lines, merged)

	backup := m.BackupPath(configPath)
	if err := m.fs.Copy(configPath, backup); err != nil {
		res.Err = &storage.WriteError{Op: "backup", Path: backup, Err: err}
		m.log.Error(res.Err, "Failed to back up config, leaving it untouched")
		return res
	}
	res.BackupPath = backup
	m.log.Info("Backup created at: %s", backup)

	if err := m.fs.WriteText(configPath, content); err != nil {
		res.Err = &storage.WriteError{Op: "write", Path: configPath, Err: err}
		m.log.Error(res.Err, "Failed to write migrated config")
		return res
	}
	m.log.Info("Config file updated successfully")

	res.Migrated = true
	res.Tree = merged
	return res
}
