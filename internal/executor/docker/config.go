package docker

import (
	"time"

	"github.com/sakif/snippets/internal/executor"
)

// Config holds the configuration for Docker execution.
type Config struct {
	// Languages selects which runtimes get a warm container pool.
	// Requests for other languages fail with executor.ErrUnsupportedLanguage.
	Languages []string
	// MemoryLimit is the maximum amount of memory a container can use (in bytes).
	MemoryLimit int64
	// CPULimit is the number of CPUs a container can use.
	CPULimit float64
	// Timeout is the maximum amount of time one run can take.
	Timeout time.Duration
	// PoolSize is the number of pre-warmed containers kept per image.
	PoolSize int
	// MaxOutput caps stdout and stderr (each, in bytes). Extra output is dropped.
	MaxOutput int
}

// DefaultConfig enables every known runtime with conservative limits.
func DefaultConfig() Config {
	return Config{
		Languages:   executor.Languages(),
		MemoryLimit: 128 * 1024 * 1024, // 128 MB
		CPULimit:    0.5,
		Timeout:     5 * time.Second,
		PoolSize:    2,
		MaxOutput:   64 * 1024,
	}
}
