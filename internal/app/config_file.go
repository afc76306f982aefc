package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the YAML/JSON configuration schema. Pointer fields
// distinguish "false" or "0" from absent.
type FileConfig struct {
	Input  string   `yaml:"input" json:"input"`
	URLs   []string `yaml:"urls" json:"urls"`
	Output string   `yaml:"output" json:"output"`

	LMS struct {
		BaseURL  string `yaml:"baseURL" json:"baseURL"`
		Username string `yaml:"username" json:"username"`
		Password string `yaml:"password" json:"password"`
	} `yaml:"lms" json:"lms"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms *bool         `yaml:"strictPerms" json:"strictPerms"`
		Disable     bool          `yaml:"disable" json:"disable"`
	} `yaml:"cache" json:"cache"`

	Extract struct {
		Workers               int  `yaml:"workers" json:"workers"`
		MatchingMaxLists      int  `yaml:"matchingMaxLists" json:"matchingMaxLists"`
		MatchingItemTolerance *int `yaml:"matchingItemTolerance" json:"matchingItemTolerance"`
	} `yaml:"extract" json:"extract"`

	Verbose bool `yaml:"verbose" json:"verbose"`

	Server struct {
		Addr                 string        `yaml:"addr" json:"addr"`
		CORSOrigins          []string      `yaml:"corsOrigins" json:"corsOrigins"`
		SessionSecret        string        `yaml:"sessionSecret" json:"sessionSecret"`
		SessionTTL           time.Duration `yaml:"sessionTTL" json:"sessionTTL"`
		AllowBaseURLOverride bool          `yaml:"allowBaseURLOverride" json:"allowBaseURLOverride"`
	} `yaml:"server" json:"server"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value present in fc onto cfg.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setString(&cfg.InputPath, fc.Input)
	if len(fc.URLs) > 0 {
		cfg.URLs = splitList(fc.URLs...)
	}
	setString(&cfg.OutputPath, fc.Output)

	setString(&cfg.BaseURL, fc.LMS.BaseURL)
	setString(&cfg.Username, fc.LMS.Username)
	setString(&cfg.Password, fc.LMS.Password)

	setString(&cfg.CacheDir, fc.Cache.Dir)
	if fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	cfg.CacheClear = cfg.CacheClear || fc.Cache.Clear
	if fc.Cache.StrictPerms != nil {
		cfg.CacheStrictPerms = *fc.Cache.StrictPerms
	}
	cfg.NoCache = cfg.NoCache || fc.Cache.Disable

	setInt(&cfg.Workers, fc.Extract.Workers)
	setInt(&cfg.MatchingMaxLists, fc.Extract.MatchingMaxLists)
	if fc.Extract.MatchingItemTolerance != nil {
		cfg.MatchingItemTolerance = *fc.Extract.MatchingItemTolerance
	}

	cfg.Verbose = cfg.Verbose || fc.Verbose

	setString(&cfg.HTTPAddr, fc.Server.Addr)
	if len(fc.Server.CORSOrigins) > 0 {
		cfg.CORSOrigins = splitList(fc.Server.CORSOrigins...)
	}
	setString(&cfg.SessionSecret, fc.Server.SessionSecret)
	if fc.Server.SessionTTL > 0 {
		cfg.SessionTTL = fc.Server.SessionTTL
	}
	cfg.AllowBaseURLOverride = cfg.AllowBaseURLOverride || fc.Server.AllowBaseURLOverride
}

// ValidateConfig checks the settings the CLI needs.
func ValidateConfig(cfg Config) error {
	hasInput := strings.TrimSpace(cfg.InputPath) != ""
	switch {
	case !hasInput && len(cfg.URLs) == 0:
		return errors.New("config: an input file or at least one url is required")
	case hasInput && len(cfg.URLs) > 0:
		return errors.New("config: input file and urls are mutually exclusive")
	}
	if len(cfg.URLs) > 0 && (strings.TrimSpace(cfg.Username) == "" || cfg.Password == "") {
		return errors.New("config: urls need lms username and password (or set LMS_USERNAME/LMS_PASSWORD)")
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return errors.New("config: output path is required")
	}
	return validateLimits(cfg)
}

// ValidateServerConfig checks the settings the HTTP server needs.
func ValidateServerConfig(cfg Config) error {
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return errors.New("config: http address is required")
	}
	if cfg.SessionTTL < 0 {
		return errors.New("config: session ttl must not be negative")
	}
	return validateLimits(cfg)
}

func validateLimits(cfg Config) error {
	if cfg.Workers < 0 || cfg.MatchingMaxLists < 0 || cfg.MatchingItemTolerance < -1 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}

func setString(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
