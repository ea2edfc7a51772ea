package ko

import (
	werrors "tlog.app/go/errors"

	"github.com/kerbalko/ksmld/internal/codec"
)

// Header is the fixed KO file prefix: the magic has
// already been checked by the caller, so this covers everything after
// it — version byte, section-header count, and the shstrtab index.
// Image embeds Header so its fields (Version, NumSectionHeaders,
// ShStrTabIndex) are promoted onto Image directly.
type Header struct {
	Version           uint8
	NumSectionHeaders uint16
	ShStrTabIndex     uint16
}

// DecodeHeader reads the fixed KO prefix from r, which must already be
// positioned past the four magic bytes.
func DecodeHeader(r *codec.Reader) (Header, error) {
	var h Header
	version, err := r.U8()
	if err != nil {
		return h, werrors.Wrap(ErrTruncated, "version")
	}
	if version != Version {
		return h, werrors.Wrap(ErrBadVersion, "got %d, want %d", version, Version)
	}
	h.Version = version

	if h.NumSectionHeaders, err = r.U16(); err != nil {
		return h, werrors.Wrap(ErrTruncated, "num section headers")
	}
	if h.ShStrTabIndex, err = r.U16(); err != nil {
		return h, werrors.Wrap(ErrTruncated, "shstrtab index")
	}
	return h, nil
}

// SectionHeader describes one entry of the flat section-header array.
// Name is resolved during Phase 3 from NameIdx through the image's
// .shstrtab.
type SectionHeader struct {
	NameIdx uint32
	Kind    SectionKind
	Size    uint32

	Name string
}
