package link

import (
	werrors "tlog.app/go/errors"

	"github.com/kerbalko/ksmld/internal/ko"
)

// GlobalSymbols is the merged, cross-image symbol namespace built by
// Resolve.
type GlobalSymbols map[string]*ResolvedSymbol

// Resolve runs two passes: first collect
// every non-extern definition into the global map (a second definition
// for the same name is a duplicate-definition error), then bind every
// extern symbol to its global definition (an unbound extern is an
// undefined-reference error). Local symbols never enter the global map
// and are resolved only through each Unit's own SymByIdx.
func Resolve(units []*Unit) (GlobalSymbols, error) {
	globals := GlobalSymbols{}

	// Pass 1: non-extern definitions.
	for _, u := range units {
		u.SymByIdx = make([]*ResolvedSymbol, len(u.Image.Syms))
		for i, sym := range u.Image.Syms {
			if i == 0 || sym.Type == ko.File {
				continue
			}
			if sym.Binding == ko.Extern {
				continue // bound in pass 2
			}

			rs := &ResolvedSymbol{Name: sym.Name, Unit: u, Sym: sym}
			u.SymByIdx[i] = rs

			if sym.Binding == ko.Global {
				if existing, ok := globals[sym.Name]; ok {
					return nil, werrors.Wrap(ErrDuplicateDefinition,
						"%q defined in %s and %s", sym.Name, existing.Unit.Path, u.Path)
				}
				globals[sym.Name] = rs
			}
			// Local bindings stay out of the global map by construction.
		}
	}

	// Pass 2: bind externs.
	for _, u := range units {
		for i, sym := range u.Image.Syms {
			if i == 0 || sym.Binding != ko.Extern {
				continue
			}
			rs, ok := globals[sym.Name]
			if !ok {
				return nil, werrors.Wrap(ErrUndefinedReference, "%q (referenced from %s)", sym.Name, u.Path)
			}
			u.SymByIdx[i] = rs
		}
	}

	return globals, nil
}

// EntryPoint looks up the required entry-point symbol: a Func named
// entryName in executable mode, or "_init" in shared-library mode.
// Absence or wrong symbol type is a fatal error.
func EntryPoint(globals GlobalSymbols, shared bool, entryName string) (*ResolvedSymbol, error) {
	name := entryName
	if shared {
		name = ko.SectionInit
	} else if name == "" {
		name = ko.SectionStart
	}

	rs, ok := globals[name]
	if !ok {
		return nil, werrors.Wrap(ErrMissingEntryPoint, "%q", name)
	}
	if rs.Sym.Type != ko.Func {
		return nil, werrors.Wrap(ErrEntryNotFunc, "%q is a %s symbol", name, rs.Sym.Type)
	}
	return rs, nil
}

// InitPoint looks up the optional "_init" symbol, used in executable
// mode as an always-live initializer that runs before the entry point.
// It is not an error for "_init" to be absent.
func InitPoint(globals GlobalSymbols) (*ResolvedSymbol, bool) {
	rs, ok := globals[ko.SectionInit]
	if !ok || rs.Sym.Type != ko.Func {
		return nil, false
	}
	return rs, true
}
