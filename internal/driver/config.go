// Package driver orchestrates one link invocation end to end. It owns
// every intermediate artifact (parsed images, the global symbol map,
// the live set, the emitted bytes) for the duration of a single call
// to Link and holds no state afterward, so independent invocations in
// the same process share nothing.
package driver

import "strings"

// Config carries everything one link invocation needs, mapped 1:1
// onto flags in cmd/ksmld: no environment variables, no config file,
// no persisted state.
type Config struct {
	Inputs []string // one or more KO input paths
	Output string   // -o/--output; .ksm is appended if missing
	Shared bool     // -s/--shared: link a shared library, requires _init, suppresses %M
	Entry  string   // -e/--entry: override the default "_start" entry symbol (ignored when Shared)
}

// OutputPath returns Output with a ".ksm" extension appended if it
// doesn't already end in one.
func (c Config) OutputPath() string {
	if strings.HasSuffix(c.Output, ".ksm") {
		return c.Output
	}
	return c.Output + ".ksm"
}
