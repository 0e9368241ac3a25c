// Package config is the store of active configurations.
//
// Each configuration is keyed by a name and backed by two files: a shipped
// default template and a user-editable active file. On first request the
// registry seeds the active file from the template if it is missing, loads
// both, and migrates the active file when the template carries a newer
// version. Entries are created once per name and shared by every caller.
//
// Example:
//
//	reg := config.NewRegistry(config.WithNotifier(bus))
//	cfg, err := reg.Get("app", config.Paths{
//		Default: "/usr/share/app/default.yaml",
//		Config:  "/home/me/.config/app/config.yaml",
//	})
//	if err != nil {
//		return err
//	}
//	values, _ := cfg.Get(false)
//	values["name"] = "mine"
//	if res := cfg.Write(values); !res.OK() {
//		logging.Error("app", res.Err, "could not save settings")
//	}
//
// Write, Reset and Migrate never return errors directly. Their failures are
// logged and carried in the returned result so that a failed save cannot
// crash the caller.
package config
