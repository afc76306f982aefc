package app

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// listFlag collects a repeatable, comma-separated flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(v string) error {
	*l = append(*l, splitList(v)...)
	return nil
}

// Flags binds command line flags. Values only override lower layers for the
// flags the user actually passed.
type Flags struct {
	fs         *flag.FlagSet
	v          Config
	urls       listFlag
	origins    listFlag
	configPath string
	envPath    string
	version    bool
}

// NewFlags registers the shared flags plus the server flags when server is true.
func NewFlags(name string, server bool) *Flags {
	f := &Flags{fs: flag.NewFlagSet(name, flag.ContinueOnError)}
	d := DefaultConfig()
	fs := f.fs
	fs.StringVar(&f.configPath, "config", "", "Path to YAML or JSON config file")
	fs.StringVar(&f.envPath, "env", "", "Additional dotenv file loaded after .env")
	fs.BoolVar(&f.version, "version", false, "Print version and exit")
	fs.StringVar(&f.v.BaseURL, "lms.base", d.BaseURL, "LMS base URL")
	fs.StringVar(&f.v.CacheDir, "cache.dir", d.CacheDir, "Page cache directory path")
	fs.DurationVar(&f.v.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	fs.BoolVar(&f.v.CacheClear, "cache.clear", false, "Clear cache directory before run")
	fs.BoolVar(&f.v.CacheStrictPerms, "cache.strictPerms", d.CacheStrictPerms, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.BoolVar(&f.v.NoCache, "cache.disable", false, "Do not cache fetched pages")
	fs.IntVar(&f.v.Workers, "workers", d.Workers, "Question containers parsed in parallel")
	fs.IntVar(&f.v.MatchingMaxLists, "matching.maxLists", 0, "Most selection lists tried as matching without a keyword (0 = default)")
	fs.IntVar(&f.v.MatchingItemTolerance, "matching.tolerance", d.MatchingItemTolerance, "Selection lists allowed without an item term (-1 = default of 2, 0 = every list needs one)")
	fs.BoolVar(&f.v.Verbose, "v", false, "Verbose logging")
	if server {
		fs.StringVar(&f.v.HTTPAddr, "http.addr", d.HTTPAddr, "Listen address")
		fs.Var(&f.origins, "cors.origins", "Allowed CORS origins (repeatable or comma-separated)")
		fs.StringVar(&f.v.SessionSecret, "session.secret", "", "HMAC secret for session tokens (random when empty)")
		fs.DurationVar(&f.v.SessionTTL, "session.ttl", d.SessionTTL, "Session token lifetime")
		fs.BoolVar(&f.v.AllowBaseURLOverride, "lms.allowOverride", false, "Let login requests choose the LMS base URL")
	} else {
		fs.StringVar(&f.v.InputPath, "input", "", "Path to a saved quiz review HTML page")
		fs.Var(&f.urls, "url", "Quiz review URL (repeatable or comma-separated)")
		fs.StringVar(&f.v.OutputPath, "output", d.OutputPath, "Path to write JSON output ('-' for stdout)")
		fs.StringVar(&f.v.Username, "lms.user", "", "LMS username")
	}
	return f
}

// Parse parses args (without the program name).
func (f *Flags) Parse(args []string) error { return f.fs.Parse(args) }

// SetOutput redirects usage and parse errors.
func (f *Flags) SetOutput(w io.Writer) { f.fs.SetOutput(w) }

func (f *Flags) ConfigPath() string { return f.configPath }
func (f *Flags) EnvPath() string    { return f.envPath }
func (f *Flags) Version() bool      { return f.version }

// Apply copies explicitly set flags onto cfg.
func (f *Flags) Apply(cfg *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "lms.base":
			cfg.BaseURL = f.v.BaseURL
		case "lms.user":
			cfg.Username = f.v.Username
		case "cache.dir":
			cfg.CacheDir = f.v.CacheDir
		case "cache.maxAge":
			cfg.CacheMaxAge = f.v.CacheMaxAge
		case "cache.clear":
			cfg.CacheClear = f.v.CacheClear
		case "cache.strictPerms":
			cfg.CacheStrictPerms = f.v.CacheStrictPerms
		case "cache.disable":
			cfg.NoCache = f.v.NoCache
		case "workers":
			cfg.Workers = f.v.Workers
		case "matching.maxLists":
			cfg.MatchingMaxLists = f.v.MatchingMaxLists
		case "matching.tolerance":
			cfg.MatchingItemTolerance = f.v.MatchingItemTolerance
		case "v":
			cfg.Verbose = f.v.Verbose
		case "http.addr":
			cfg.HTTPAddr = f.v.HTTPAddr
		case "cors.origins":
			cfg.CORSOrigins = append([]string(nil), f.origins...)
		case "session.secret":
			cfg.SessionSecret = f.v.SessionSecret
		case "session.ttl":
			cfg.SessionTTL = f.v.SessionTTL
		case "lms.allowOverride":
			cfg.AllowBaseURLOverride = f.v.AllowBaseURLOverride
		case "input":
			cfg.InputPath = f.v.InputPath
		case "url":
			cfg.URLs = append([]string(nil), f.urls...)
		case "output":
			cfg.OutputPath = f.v.OutputPath
		}
	})
}

// Load resolves configuration with precedence flags > env > file > defaults.
// Dotenv files feed the env layer. There is no password flag; use
// LMS_PASSWORD or the config file.
func Load(f *Flags, args []string) (Config, error) {
	if err := f.Parse(args); err != nil {
		return Config{}, err
	}
	if err := LoadEnvFiles(".env", f.EnvPath()); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}
	cfg := DefaultConfig()
	if path := f.ConfigPath(); path != "" {
		fc, err := LoadConfigFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		ApplyFileConfig(&cfg, fc)
	}
	ApplyEnvOverrides(&cfg)
	f.Apply(&cfg)
	return cfg, nil
}
