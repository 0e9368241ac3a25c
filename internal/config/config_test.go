package config

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"confkeeper/internal/notify"
	"confkeeper/internal/storage"
	"confkeeper/internal/tree"
	"confkeeper/pkg/logging"
)

const (
	testDefaultPath = "/usr/share/app/default.yaml"
	testConfigPath  = "/home/user/.config/app/config.yaml"
)

const templateV1 = `# App settings
ver: 1
name: demo  # display name
email: 'admin@example.com'
server:
  host: localhost
  port: 8090
`

const templateV2 = `# App settings
ver: 2
name: demo  # display name
email: 'admin@example.com'
server:
  host: localhost
  port: 8090
  timeout: 30
`

const userV1 = `ver: 1
name: mine
server:
  port: 9000
`

var testPaths = Paths{Default: testDefaultPath, Config: testConfigPath}

type recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recorder) Notify(event notify.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]notify.Kind, 0, len(r.events))
	for _, e := range r.events {
		kinds = append(kinds, e.Kind)
	}
	return kinds
}

func newTestFS(t *testing.T, files map[string]string) (afero.Fs, *storage.Storage) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s := storage.NewStorageWithFs(fs)
	for path, content := range files {
		require.NoError(t, s.WriteText(path, content))
	}
	return fs, s
}

func newTestRegistry(t *testing.T, files map[string]string) (*Registry, *storage.Storage, *recorder) {
	t.Helper()
	_, s := newTestFS(t, files)
	rec := &recorder{}
	return NewRegistry(WithFileSystem(s), WithNotifier(rec)), s, rec
}

func TestRegistry_MissingName(t *testing.T) {
	reg, _, _ := newTestRegistry(t, map[string]string{testDefaultPath: templateV1})

	_, err := reg.Get("", testPaths)

	var missing *MissingNameError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "config name cannot be empty", err.Error())
}

func TestRegistry_InvalidPaths(t *testing.T) {
	reg, _, _ := newTestRegistry(t, map[string]string{testDefaultPath: templateV1})

	_, err := reg.Get("app", Paths{Default: testDefaultPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config path cannot be empty")

	_, err = reg.Get("app", Paths{Default: testDefaultPath, Config: testDefaultPath})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must be different files")

	_, ok := reg.Lookup("app")
	assert.False(t, ok)
}

func TestRegistry_ReturnsSameEntry(t *testing.T) {
	reg, _, _ := newTestRegistry(t, map[string]string{testDefaultPath: templateV1})

	first, err := reg.Get("app", testPaths)
	require.NoError(t, err)
	second, err := reg.Get("app", Paths{Default: "/elsewhere/a.yaml", Config: "/elsewhere/b.yaml"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, testPaths, second.Paths())

	found, ok := reg.Lookup("app")
	require.True(t, ok)
	assert.Same(t, first, found)
	assert.Equal(t, []string{"app"}, reg.Names())
}

func TestRegistry_ConcurrentFirstRequests(t *testing.T) {
	reg, _, _ := newTestRegistry(t, map[string]string{testDefaultPath: templateV1})

	const workers = 16
	results := make([]*Config, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg, err := reg.Get("app", testPaths)
			assert.NoError(t, err)
			results[i] = cfg
		}(i)
	}
	wg.Wait()

	for _, cfg := range results {
		assert.Same(t, results[0], cfg)
	}
}

func TestRegistry_SeedsMissingConfig(t *testing.T) {
	reg, s, rec := newTestRegistry(t, map[string]string{testDefaultPath: templateV1})

	cfg, err := reg.Get("app", testPaths)
	require.NoError(t, err)

	text, err := s.ReadText(testConfigPath)
	require.NoError(t, err)
	assert.Equal(t, templateV1, text)
	assert.Equal(t, 1, cfg.Version())
	assert.False(t, cfg.LastMigration().Migrated)
	assert.Empty(t, rec.kinds())
}

func TestRegistry_MissingTemplate(t *testing.T) {
	reg, _, _ := newTestRegistry(t, nil)

	_, err := reg.Get("app", testPaths)

	var readErr *TemplateReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, testDefaultPath, readErr.Path)
	assert.Contains(t, readErr.DetailedError(), "Suggestions:")
}

func TestRegistry_UnparsableTemplate(t *testing.T) {
	reg, _, _ := newTestRegistry(t, map[string]string{
		testDefaultPath: "ver: [1\n",
		testConfigPath:  userV1,
	})

	_, err := reg.Get("app", testPaths)

	var readErr *TemplateReadError
	require.True(t, errors.As(err, &readErr))
}

func TestRegistry_UnparsableConfig(t *testing.T) {
	reg, _, _ := newTestRegistry(t, map[string]string{
		testDefaultPath: templateV1,
		testConfigPath:  "name: [broken\n",
	})

	_, err := reg.Get("app", testPaths)

	var readErr *ConfigReadError
	require.True(t, errors.As(err, &readErr))
	assert.Equal(t, testConfigPath, readErr.Path)
	assert.Contains(t, readErr.DetailedError(), "confkeeper reset")

	_, ok := reg.Lookup("app")
	assert.False(t, ok)
}

func TestRegistry_MigratesOnCreate(t *testing.T) {
	reg, s, rec := newTestRegistry(t, map[string]string{
		testDefaultPath: templateV2,
		testConfigPath:  userV1,
	})

	cfg, err := reg.Get("app", testPaths)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Version())
	mig := cfg.LastMigration()
	assert.True(t, mig.Migrated)
	assert.Equal(t, 1, mig.From)
	assert.Equal(t, 2, mig.To)

	backup, err := s.ReadText(testConfigPath + ".backup")
	require.NoError(t, err)
	assert.Equal(t, userV1, backup)

	text, err := s.ReadText(testConfigPath)
	require.NoError(t, err)
	assert.Equal(t, `# App settings
ver: 2
name: mine  # display name
email: 'admin@example.com'
server:
  host: localhost
  port: 9000
  timeout: 30
`, text)
	assert.Equal(t, []notify.Kind{notify.KindMigrate}, rec.kinds())

	again := cfg.Migrate()
	assert.False(t, again.Migrated)
	assert.NoError(t, again.Err)
	assert.Equal(t, 2, again.From)
}

func TestRegistry_MigratedFileReopens(t *testing.T) {
	const def = "ver: 2\nhosts:\n  - a\n  - b\n"
	fs, _ := newTestFS(t, map[string]string{
		testDefaultPath: def,
		testConfigPath:  "ver: 1\nhosts:\n  - x\n",
	})

	first, err := NewRegistry(WithFileSystem(storage.NewStorageWithFs(fs))).Get("app", testPaths)
	require.NoError(t, err)
	require.True(t, first.LastMigration().Migrated)

	reopened, err := NewRegistry(WithFileSystem(storage.NewStorageWithFs(fs))).Get("app", testPaths)
	require.NoError(t, err)
	values, err := reopened.Get(false)
	require.NoError(t, err)
	assert.Equal(t, []any{"x"}, values["hosts"])
	assert.False(t, reopened.LastMigration().Migrated)
}

func TestRegistry_MigrationLogsUnderMigrator(t *testing.T) {
	var buf bytes.Buffer
	logging.InitForCLI(logging.LevelDebug, &buf)
	t.Cleanup(logging.Discard)

	reg, _, _ := newTestRegistry(t, map[string]string{
		testDefaultPath: templateV2,
		testConfigPath:  userV1,
	})
	_, err := reg.Get("app", testPaths)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `msg="Updating config from version 1 to 2" subsystem=Migrator`)
	assert.NotContains(t, out, `msg="Updating config from version 1 to 2" subsystem=ConfigStore`)
}

func TestRegistry_CustomBackupSuffix(t *testing.T) {
	_, s := newTestFS(t, map[string]string{
		testDefaultPath: templateV2,
		testConfigPath:  userV1,
	})
	reg := NewRegistry(WithFileSystem(s), WithBackupSuffix(".bak"))

	_, err := reg.Get("app", testPaths)
	require.NoError(t, err)

	assert.True(t, s.Exists(testConfigPath+".bak"))
	assert.False(t, s.Exists(testConfigPath+".backup"))
}

func TestConfig_GetReturnsCopy(t *testing.T) {
	reg, _, _ := newTestRegistry(t, map[string]string{testDefaultPath: templateV1})
	cfg, err := reg.Get("app", testPaths)
	require.NoError(t, err)

	values, err := cfg.Get(false)
	require.NoError(t, err)
	values["name"] = "changed"
	server, ok := tree.Mapping(values["server"])
	require.True(t, ok)
	server["port"] = 1

	again, err := cfg.Get(false)
	require.NoError(t, err)
	assert.Equal(t, "demo", again["name"])
	port, ok := cfg.Value("server", "port")
	require.True(t, ok)
	assert.Equal(t, 8090, port)
}

func TestConfig_Value(t *testing.T) {
	reg, _, _ := newTestRegistry(t, map[string]string{testDefaultPath: templateV1})
	cfg, err := reg.Get("app", testPaths)
	require.NoError(t, err)

	v, ok := cfg.Value("email")
	require.True(t, ok)
	assert.Equal(t, "admin@example.com", v)

	_, ok = cfg.Value("missing")
	assert.False(t, ok)
	_, ok = cfg.Value("name", "sub")
	assert.False(t, ok)

	assert.Equal(t, "demo", cfg.Default()["name"])
}

func TestConfig_WriteRoundTrip(t *testing.T) {
	reg, s, rec := newTestRegistry(t, map[string]string{
		testDefaultPath: templateV1,
		testConfigPath:  templateV1,
	})
	cfg, err := reg.Get("app", testPaths)
	require.NoError(t, err)

	values, err := cfg.Get(false)
	require.NoError(t, err)
	res := cfg.Write(values)

	require.True(t, res.OK())
	assert.Equal(t, testConfigPath, res.Path)
	text, err := s.ReadText(testConfigPath)
	require.NoError(t, err)
	assert.Equal(t, templateV1, text)
	assert.Equal(t, []notify.Kind{notify.KindWrite}, rec.kinds())
}

func TestConfig_WriteDropsAbsentKeysAndPinsVersion(t *testing.T) {
	reg, s, _ := newTestRegistry(t, map[string]string{testDefaultPath: templateV1})
	cfg, err := reg.Get("app", testPaths)
	require.NoError(t, err)

	res := cfg.Write(tree.Tree{"name": "x", "ver": 7})
	require.True(t, res.OK())

	text, err := s.ReadText(testConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "# App settings\nver: 1\nname: x  # display name\nemail:\nserver:\n", text)

	values, err := cfg.Get(false)
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Version(values))
	assert.Equal(t, "x", values["name"])
}

func TestConfig_WriteQuotesAtSign(t *testing.T) {
	reg, s, _ := newTestRegistry(t, map[string]string{testDefaultPath: templateV1})
	cfg, err := reg.Get("app", testPaths)
	require.NoError(t, err)

	values, err := cfg.Get(false)
	require.NoError(t, err)
	values["email"] = "o'neil@example.com"
	require.True(t, cfg.Write(values).OK())

	text, err := s.ReadText(testConfigPath)
	require.NoError(t, err)
	assert.Contains(t, text, "email: 'o''neil@example.com'\n")

	values, err = cfg.Get(true)
	require.NoError(t, err)
	assert.Equal(t, "o'neil@example.com", values["email"])
}

func TestConfig_WriteFailureIsAbsorbed(t *testing.T) {
	fs, _ := newTestFS(t, map[string]string{
		testDefaultPath: templateV1,
		testConfigPath:  templateV1,
	})
	rec := &recorder{}
	reg := NewRegistry(
		WithFileSystem(storage.NewStorageWithFs(afero.NewReadOnlyFs(fs))),
		WithNotifier(rec),
	)
	cfg, err := reg.Get("app", testPaths)
	require.NoError(t, err)

	res := cfg.Write(tree.Tree{"name": "x"})

	require.False(t, res.OK())
	var writeErr *WriteError
	require.True(t, errors.As(res.Err, &writeErr))
	assert.Equal(t, "write", writeErr.Op)
	assert.Equal(t, "demo", cfg.Default()["name"])
	v, _ := cfg.Value("name")
	assert.Equal(t, "demo", v)
	assert.Empty(t, rec.kinds())
}

func TestConfig_Render(t *testing.T) {
	reg, s, _ := newTestRegistry(t, map[string]string{testDefaultPath: templateV1})
	cfg, err := reg.Get("app", testPaths)
	require.NoError(t, err)

	out, err := cfg.Render(tree.Tree{"name": "preview"})
	require.NoError(t, err)
	assert.Contains(t, out, "name: preview  # display name")

	text, err := s.ReadText(testConfigPath)
	require.NoError(t, err)
	assert.Equal(t, templateV1, text)
}

func TestConfig_Reset(t *testing.T) {
	reg, s, rec := newTestRegistry(t, map[string]string{testDefaultPath: templateV1})
	cfg, err := reg.Get("app", testPaths)
	require.NoError(t, err)
	require.True(t, cfg.Write(tree.Tree{"name": "x"}).OK())

	res := cfg.Reset()

	require.True(t, res.OK())
	text, err := s.ReadText(testConfigPath)
	require.NoError(t, err)
	assert.Equal(t, templateV1, text)
	v, _ := cfg.Value("name")
	assert.Equal(t, "demo", v)
	assert.Equal(t, []notify.Kind{notify.KindWrite, notify.KindReset}, rec.kinds())
}

func TestConfig_ResetFailureIsAbsorbed(t *testing.T) {
	fs, _ := newTestFS(t, map[string]string{
		testDefaultPath: templateV1,
		testConfigPath:  userV1,
	})
	reg := NewRegistry(WithFileSystem(storage.NewStorageWithFs(afero.NewReadOnlyFs(fs))))
	cfg, err := reg.Get("app", testPaths)
	require.NoError(t, err)

	res := cfg.Reset()

	var writeErr *WriteError
	require.True(t, errors.As(res.Err, &writeErr))
	assert.Equal(t, "reset", writeErr.Op)
	v, _ := cfg.Value("name")
	assert.Equal(t, "mine", v)
}

func TestConfig_RefreshPicksUpExternalEdits(t *testing.T) {
	reg, s, rec := newTestRegistry(t, map[string]string{
		testDefaultPath: templateV1,
		testConfigPath:  templateV1,
	})
	cfg, err := reg.Get("app", testPaths)
	require.NoError(t, err)

	require.NoError(t, s.WriteText(testConfigPath, userV1))

	stale, err := cfg.Get(false)
	require.NoError(t, err)
	assert.Equal(t, "demo", stale["name"])

	fresh, err := cfg.Get(true)
	require.NoError(t, err)
	assert.Equal(t, "mine", fresh["name"])
	assert.Empty(t, rec.kinds())

	require.NoError(t, cfg.Refresh())
	assert.Equal(t, []notify.Kind{notify.KindRefresh}, rec.kinds())

	require.NoError(t, s.WriteText(testConfigPath, "name: [broken\n"))
	_, err = cfg.Get(true)
	var readErr *ConfigReadError
	require.True(t, errors.As(err, &readErr))
	v, _ := cfg.Value("name")
	assert.Equal(t, "mine", v)
}

func TestConfig_NotifiesThroughBus(t *testing.T) {
	_, s := newTestFS(t, map[string]string{testDefaultPath: templateV1})
	bus := notify.NewBus(8)
	defer bus.Close()

	received := make(chan notify.Event, 1)
	bus.Subscribe(func(event notify.Event) {
		received <- event
	})

	reg := NewRegistry(WithFileSystem(s), WithNotifier(bus))
	cfg, err := reg.Get("app", testPaths)
	require.NoError(t, err)
	require.True(t, cfg.Write(tree.Tree{"name": "x"}).OK())

	select {
	case event := <-received:
		assert.Equal(t, notify.KindWrite, event.Kind)
		assert.Equal(t, "app", event.Name)
		assert.Equal(t, testConfigPath, event.Path)
		assert.NotEmpty(t, event.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification delivered")
	}
}

func TestDefaultRegistryIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}
