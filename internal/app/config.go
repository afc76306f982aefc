package app

import (
	"time"

	"github.com/hyperifyio/lmsquiz/internal/lms"
)

// Config holds runtime configuration for both binaries.
type Config struct {
	// Input: a saved review page, or review URLs fetched after login.
	InputPath  string
	URLs       []string
	OutputPath string

	// LMS account
	BaseURL  string
	Username string
	Password string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	NoCache          bool

	// Extraction
	Workers          int
	MatchingMaxLists int
	// MatchingItemTolerance below zero selects the extractor default.
	MatchingItemTolerance int

	Verbose bool

	// Server
	HTTPAddr             string
	CORSOrigins          []string
	SessionSecret        string
	SessionTTL           time.Duration
	AllowBaseURLOverride bool
}

const (
	outputDefault   = "-"
	cacheDirDefault = ".lmsquiz-cache"
	httpAddrDefault = ":8080"
)

// DefaultConfig returns the lowest-precedence layer.
func DefaultConfig() Config {
	return Config{
		OutputPath:            outputDefault,
		BaseURL:               lms.DefaultBaseURL,
		CacheDir:              cacheDirDefault,
		CacheStrictPerms:      true,
		Workers:               1,
		MatchingItemTolerance: -1,
		HTTPAddr:              httpAddrDefault,
		CORSOrigins:           []string{"*"},
		SessionTTL:            8 * time.Hour,
	}
}
