package atlas

import (
	"log/slog"
	"os"
)

// Runtime switches, read once at startup.
var (
	// ATLAS_LOG_ALLOC routes allocator debug records to stderr when no logger is set.
	logAlloc = os.Getenv("ATLAS_LOG_ALLOC") != ""

	// ATLAS_VALIDATE forces a full consistency check after every mutation.
	validateEnv = os.Getenv("ATLAS_VALIDATE") != ""
)

// defaultNodeCapacity is the initial arena size; it grows on demand.
const defaultNodeCapacity = 64

// Options configures a Manager. A nil *Options means DefaultOptions().
type Options struct {
	// Logger receives debug records for splits, merges and failed allocations.
	// If nil, records are discarded unless ATLAS_LOG_ALLOC is set.
	Logger *slog.Logger

	// Validate runs CheckConsistency after every Allocate and Free and panics
	// on the first violation. Also enabled by ATLAS_VALIDATE.
	// Costs O(n) per call; intended for tests and debugging.
	Validate bool

	// NodeCapacity pre-sizes the node arena. Zero uses a small default.
	NodeCapacity int
}

// DefaultOptions returns the options used when New is given nil.
func DefaultOptions() Options {
	return Options{NodeCapacity: defaultNodeCapacity}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	if logAlloc {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.DiscardHandler)
}
