package config

import "time"

// Default values. They match the behaviour of the bare command without a
// config file.
const (
	DefaultMaxLineLength  = 100
	DefaultVerbose        = false
	DefaultAllowDynamic   = true
	DefaultPython         = "python3"
	DefaultDynamicTimeout = 10 * time.Second
	DefaultSkipInit       = true
	DefaultInPlace        = false
	DefaultJobs           = 1
	DefaultColor          = ColorAuto
	DefaultSkipVendor     = true
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)
