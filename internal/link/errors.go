package link

import "errors"

// Semantic errors.
var (
	ErrDuplicateDefinition = errors.New("link: duplicate global definition")
	ErrUndefinedReference  = errors.New("link: undefined external reference")
	ErrMissingEntryPoint   = errors.New("link: missing entry point symbol")
	ErrEntryNotFunc        = errors.New("link: entry point symbol is not a function")
)

// Internal-invariant errors: these indicate a
// linker bug, never a user input error, and are reported distinctly by
// the driver.
var (
	ErrLostRelocation = errors.New("link: relocation left its operand at the 0 placeholder")
)
