package main

import (
	"strings"

	"github.com/2x3systems/isofilter/isofilter"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configKeys maps each viper key (as named by FilterOpts mapstructure tags) to its flag.
var configKeys = map[string]string{
	"emit-canon":            "emit-canon",
	"cache.max-size":        "max-size",
	"symbols":               "symbols",
	"shorten":               "shorten",
	"compress":              "compress",
	"style":                 "style",
	"summary":               "summary",
	"cache.backend":         "backend",
	"cache.db":              "db",
	"cache.strategy":        "strategy",
	"cache.key-style":       "key-style",
	"search.max-leaves":     "max-leaves",
	"search.max-generators": "max-generators",
}

type config struct {
	v  *viper.Viper
	fl *pflag.FlagSet
}

func newConfig(fl *pflag.FlagSet) *config {
	v := viper.New()
	v.SetEnvPrefix("ISOFILTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	def := isofilter.DefaultFilterOpts()
	v.SetDefault("input", def.InputPath)
	v.SetDefault("emit-canon", def.EmitCanon)
	v.SetDefault("symbols", "")
	v.SetDefault("style", string(def.Style))
	v.SetDefault("compress", def.Compress)
	v.SetDefault("shorten", def.Shorten)
	v.SetDefault("summary", def.Summary)
	v.SetDefault("cache.max-size", def.Cache.MaxSize)
	v.SetDefault("cache.backend", string(def.Cache.Backend))
	v.SetDefault("cache.db", def.Cache.DbPathName)
	v.SetDefault("cache.strategy", string(def.Cache.Strategy))
	v.SetDefault("cache.key-style", string(def.Cache.KeyStyle))
	v.SetDefault("cache.pool-size", def.Cache.PoolSz)
	v.SetDefault("search.max-leaves", def.Search.MaxLeaves)
	v.SetDefault("search.max-generators", def.Search.MaxGenerators)

	for key, name := range configKeys {
		if f := fl.Lookup(name); f != nil {
			v.BindPFlag(key, f)
		}
	}

	return &config{
		v:  v,
		fl: fl,
	}
}

// load reads the config file named by --config (if any) and returns the validated options.
func (cfg *config) load(args []string) (isofilter.FilterOpts, error) {
	opts := isofilter.DefaultFilterOpts()

	if path, _ := cfg.fl.GetString("config"); path != "" {
		cfg.v.SetConfigFile(path)
		if err := cfg.v.ReadInConfig(); err != nil {
			return opts, errors.Wrapf(isofilter.ErrBadConfig, "reading %q: %v", path, err)
		}
	}
	if len(args) > 0 {
		cfg.v.Set("input", args[0])
	}

	if err := cfg.v.Unmarshal(&opts); err != nil {
		return opts, errors.Wrap(isofilter.ErrBadConfig, err.Error())
	}
	opts.Symbols = isofilter.ParseSymbols(strings.Join(opts.Symbols, ","))

	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}
