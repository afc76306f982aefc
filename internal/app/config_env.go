package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. It runs after the config file and before explicit flags.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	setString(&cfg.BaseURL, os.Getenv("LMS_BASE_URL"))
	setString(&cfg.Username, os.Getenv("LMS_USERNAME"))
	setString(&cfg.Password, os.Getenv("LMS_PASSWORD"))
	setString(&cfg.CacheDir, os.Getenv("CACHE_DIR"))
	setString(&cfg.HTTPAddr, os.Getenv("HTTP_ADDR"))
	setString(&cfg.SessionSecret, os.Getenv("SESSION_SECRET"))
	if v := strings.TrimSpace(os.Getenv("CORS_ORIGINS")); v != "" {
		cfg.CORSOrigins = splitList(v)
	}

	setDuration := func(dst *time.Duration, envKey string) {
		if s := strings.TrimSpace(os.Getenv(envKey)); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")
	setDuration(&cfg.SessionTTL, "SESSION_TTL")

	if s := strings.TrimSpace(os.Getenv("WORKERS")); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			cfg.Workers = n
		}
	}

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}
