package config

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"confkeeper/internal/migrate"
	"confkeeper/internal/notify"
	"confkeeper/internal/storage"
	"confkeeper/internal/template"
	"confkeeper/internal/tree"
)

// Registry holds one Config per name.
type Registry struct {
	opts      options
	templates *template.Cache
	migrator  *migrate.Migrator

	mu      sync.Mutex
	entries map[string]*Config
	group   singleflight.Group
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.fs == nil {
		o.fs = storage.NewStorage()
	}

	templates := template.NewCache(o.fs)
	return &Registry{
		opts:      o,
		templates: templates,
		migrator:  migrate.New(o.fs, templates, migrate.WithBackupSuffix(o.backupSuffix)),
		entries:   make(map[string]*Config),
	}
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return NewRegistry()
})

// Default returns the process-wide registry backed by the OS filesystem.
func Default() *Registry {
	return defaultRegistry()
}

// Get returns the configuration registered under name, creating it from
// paths on first request. Later calls return the same entry and ignore paths.
func (r *Registry) Get(name string, paths Paths) (*Config, error) {
	if name == "" {
		return nil, &MissingNameError{}
	}
	if cfg, ok := r.Lookup(name); ok {
		return cfg, nil
	}

	v, err, _ := r.group.Do(name, func() (any, error) {
		if cfg, ok := r.Lookup(name); ok {
			return cfg, nil
		}
		cfg, err := r.create(name, paths)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.entries[name] = cfg
		r.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Config), nil
}

// Lookup returns an existing entry without creating one.
func (r *Registry) Lookup(name string) (*Config, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg, ok := r.entries[name]
	return cfg, ok
}

// Names lists the registered configuration names in sorted order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) create(name string, paths Paths) (*Config, error) {
	if err := paths.Validate(); err != nil {
		return nil, fmt.Errorf("invalid paths for config %q: %w", name, err)
	}

	cfg := &Config{
		name:      name,
		paths:     paths,
		fs:        r.opts.fs,
		templates: r.templates,
		migrator:  r.migrator,
		notifier:  r.opts.notifier,
		log:       r.opts.log,
	}

	if !cfg.fs.Exists(paths.Config) {
		cfg.log.Info("Config %s not found, seeding it from %s", paths.Config, paths.Default)
		if err := cfg.fs.Copy(paths.Default, paths.Config); err != nil {
			if !cfg.fs.Exists(paths.Default) {
				return nil, &TemplateReadError{Path: paths.Default, Err: err}
			}
			return nil, &WriteError{Op: "seed", Path: paths.Config, Err: err}
		}
	}

	def, err := cfg.readDefault()
	if err != nil {
		return nil, err
	}
	cur, err := cfg.readCurrent()
	if err != nil {
		return nil, err
	}
	cfg.defaultTree = def
	cfg.currentTree = cur

	cfg.Migrate()
	return cfg, nil
}

func (c *Config) readDefault() (tree.Tree, error) {
	text, err := c.fs.ReadText(c.paths.Default)
	if err != nil {
		return nil, &TemplateReadError{Path: c.paths.Default, Err: err}
	}
	t, err := tree.Decode(text)
	if err != nil {
		return nil, &TemplateReadError{Path: c.paths.Default, Err: err}
	}
	return t, nil
}

func (c *Config) readCurrent() (tree.Tree, error) {
	text, err := c.fs.ReadText(c.paths.Config)
	if err != nil {
		return nil, &ConfigReadError{Path: c.paths.Config, Err: err}
	}
	t, err := tree.Decode(text)
	if err != nil {
		return nil, &ConfigReadError{Path: c.paths.Config, Err: err}
	}
	return t, nil
}

func (c *Config) notify(kind notify.Kind) {
	c.notifier.Notify(notify.NewEvent(kind, c.name, c.paths.Config))
}
