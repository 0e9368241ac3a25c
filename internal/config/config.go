package config

import (
	"sync"

	"github.com/mitchellh/copystructure"

	"confkeeper/internal/migrate"
	"confkeeper/internal/notify"
	"confkeeper/internal/storage"
	"confkeeper/internal/template"
	"confkeeper/internal/tree"
	"confkeeper/pkg/logging"
)

// Result reports the outcome of a write or reset.
type Result struct {
	Path string
	Err  error
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Config is one named configuration entry.
type Config struct {
	name      string
	paths     Paths
	fs        storage.FileSystem
	templates *template.Cache
	migrator  *migrate.Migrator
	notifier  notify.Notifier
	log       logging.Logger

	mu            sync.RWMutex
	defaultTree   tree.Tree
	currentTree   tree.Tree
	lastMigration migrate.Result
}

// Name returns the registry name of the entry.
func (c *Config) Name() string {
	return c.name
}

// Paths returns the files backing the entry.
func (c *Config) Paths() Paths {
	return c.paths
}

// Get returns a copy of the current tree. With refresh set the active file
// is re-read first; migration is not re-run.
func (c *Config) Get(refresh bool) (tree.Tree, error) {
	if refresh {
		if err := c.reload(); err != nil {
			return nil, err
		}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return tree.Clone(c.currentTree), nil
}

// Value returns one top-level value, or a value nested under it.
func (c *Config) Value(key string, sub ...string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := tree.Lookup(c.currentTree, key, sub...)
	if !ok || v == nil {
		return v, ok
	}
	return copystructure.Must(copystructure.Copy(v)), true
}

// Default returns a copy of the template's tree.
func (c *Config) Default() tree.Tree {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return tree.Clone(c.defaultTree)
}

// Version returns the version of the current tree.
func (c *Config) Version() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return tree.Version(c.currentTree)
}

// LastMigration returns the outcome of the most recent version check.
func (c *Config) LastMigration() migrate.Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastMigration
}

// Render returns the text Write would persist for t, without writing it.
func (c *Config) Render(t tree.Tree) (string, error) {
	lines, err := c.templates.Lines(c.paths.Default)
	if err != nil {
		return "", &TemplateReadError{Path: c.paths.Default, Err: err}
	}
	return template.Render(lines, c.pinVersion(t)), nil
}

// Write renders t through the template layout and persists it. The
// template's version is kept so a written file is never considered stale.
func (c *Config) Write(t tree.Tree) Result {
	res := Result{Path: c.paths.Config}

	values := c.pinVersion(t)
	lines, err := c.templates.Lines(c.paths.Default)
	if err != nil {
		res.Err = &TemplateReadError{Path: c.paths.Default, Err: err}
		c.log.Error(res.Err, "Failed to save config %s", c.name)
		return res
	}
	content := template.Render(lines, values)

	if err := c.fs.WriteText(c.paths.Config, content); err != nil {
		res.Err = &WriteError{Op: "write", Path: c.paths.Config, Err: err}
		c.log.Error(res.Err, "Failed to save config %s", c.name)
		return res
	}
	c.log.Info("Config has been saved to file: %s", c.paths.Config)
	c.log.Debug("Saved content:\n%s", content)

	c.mu.Lock()
	c.currentTree = values
	c.mu.Unlock()

	c.notify(notify.KindWrite)
	return res
}

// Reset replaces the active file with the template and reloads it.
func (c *Config) Reset() Result {
	res := Result{Path: c.paths.Config}

	if err := c.fs.Copy(c.paths.Default, c.paths.Config); err != nil {
		res.Err = &WriteError{Op: "reset", Path: c.paths.Config, Err: err}
		c.log.Error(res.Err, "Failed to reset config %s", c.name)
		return res
	}
	if err := c.reload(); err != nil {
		res.Err = err
		c.log.Error(err, "Failed to reload config %s after reset", c.name)
		return res
	}
	c.log.Info("Config %s has been reset to defaults", c.name)

	c.notify(notify.KindReset)
	return res
}

// Migrate upgrades the active file if the template is newer.
func (c *Config) Migrate() migrate.Result {
	c.mu.RLock()
	def, cur := c.defaultTree, c.currentTree
	c.mu.RUnlock()

	res := c.migrator.Run(c.paths.Default, c.paths.Config, def, cur)

	c.mu.Lock()
	c.lastMigration = res
	if res.Migrated {
		c.currentTree = res.Tree
	}
	c.mu.Unlock()

	if res.Migrated {
		c.notify(notify.KindMigrate)
	}
	return res
}

// Refresh re-reads the active file and tells the notifier.
func (c *Config) Refresh() error {
	if err := c.reload(); err != nil {
		return err
	}
	c.log.Debug("Config %s refreshed from %s", c.name, c.paths.Config)
	c.notify(notify.KindRefresh)
	return nil
}

func (c *Config) reload() error {
	cur, err := c.readCurrent()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.currentTree = cur
	c.mu.Unlock()
	return nil
}

func (c *Config) pinVersion(t tree.Tree) tree.Tree {
	values := tree.Clone(t)
	c.mu.RLock()
	ver, ok := c.defaultTree[tree.VersionKey]
	c.mu.RUnlock()
	if ok {
		values[tree.VersionKey] = ver
	}
	return values
}
