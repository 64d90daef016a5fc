package main

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/MrEthical07/yggauth"
)

// RedisConfig locates the account store.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// cliConfig is the engine configuration plus what only the command needs.
// Engine keys sit at the top level of the YAML file.
type cliConfig struct {
	yggauth.Config `koanf:",squash"`

	Redis RedisConfig `koanf:"redis"`
}

func defaultCLIConfig() cliConfig {
	return cliConfig{
		Config: yggauth.DefaultConfig(),
		Redis:  RedisConfig{Addr: "127.0.0.1:6379"},
	}
}

// flagKeys maps command-line flags onto configuration keys. Flags not listed
// here are not configuration.
var flagKeys = map[string]string{
	"base-url":                   "remote.base_url",
	"timeout":                    "remote.timeout",
	"encoding":                   "document.encoding",
	"leeway":                     "validation.expiry_leeway",
	"downgrade-on-network-error": "validation.downgrade_on_network_error",
	"redis-addr":                 "redis.addr",
	"redis-db":                   "redis.db",
	"redis-prefix":               "store.redis_prefix",
}

func registerConfigFlags(fs *pflag.FlagSet) {
	def := defaultCLIConfig()
	fs.String("base-url", def.Remote.BaseURL, "authentication server URL")
	fs.Duration("timeout", def.Remote.Timeout, "per-request timeout")
	fs.String("encoding", def.Document.Encoding, "stored document encoding (json or msgpack)")
	fs.Duration("leeway", def.Validation.ExpiryLeeway, "treat tokens expiring within this window as expired")
	fs.Bool("downgrade-on-network-error", def.Validation.DowngradeOnNetworkError, "drop verified status when the server is unreachable")
	fs.String("redis-addr", def.Redis.Addr, "Redis address")
	fs.Int("redis-db", def.Redis.DB, "Redis database")
	fs.String("redis-prefix", def.Store.RedisPrefix, "Redis key prefix")
}

// loadConfig layers defaults, the optional YAML file and changed flags.
func loadConfig(path string, fs *pflag.FlagSet) (cliConfig, error) {
	k := koanf.New(".")
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cliConfig{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	flags := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok || !f.Changed {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	})
	if err := k.Load(flags, nil); err != nil {
		return cliConfig{}, fmt.Errorf("load flags: %w", err)
	}

	cfg := defaultCLIConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return cliConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Config.Validate(); err != nil {
		return cliConfig{}, err
	}
	return cfg, nil
}
