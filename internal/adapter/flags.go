package adapter

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// flagKeys maps shared command line flags to config keys
var flagKeys = []struct {
	flag string
	key  string
}{
	{"source", "source.type"},
	{"catalog", "source.catalog_file"},
	{"modpacks", "search.modpacks"},
	{"mc-version", "search.mc_version"},
	{"workers", "workers.count"},
	{"cache-dir", "cache.dir"},
	{"install-dir", "install.dir"},
	{"log-level", "logging.level"},
}

// RegisterFlags adds the flags shared by the commands to fs and binds them
// to v. A flag overrides the config file and environment only when set.
func RegisterFlags(fs *pflag.FlagSet, v *viper.Viper) error {
	fs.String("source", "", "catalog source: modrinth or local")
	fs.String("catalog", "", "catalog file for the local source")
	fs.Bool("modpacks", false, "search modpacks instead of mods")
	fs.String("mc-version", "", "only show projects supporting this game version")
	fs.Int("workers", 0, "number of background workers")
	fs.String("cache-dir", "", "icon cache directory, empty for memory only")
	fs.String("install-dir", "", "directory installs are written to")
	fs.String("log-level", "", "log level: DEBUG, INFO, WARN or ERROR")

	for _, fk := range flagKeys {
		if err := v.BindPFlag(fk.key, fs.Lookup(fk.flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", fk.flag, err)
		}
	}
	return nil
}
