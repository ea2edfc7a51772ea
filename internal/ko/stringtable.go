package ko

import "github.com/kerbalko/ksmld/internal/codec"

// StringTable is an ordered list of strings addressed by position, not
// byte offset as in ELF: index k selects the k-th string. Index 0 is
// always the empty string. One type serves both the section-header and
// symbol string tables.
type StringTable []string

// At returns the k-th string, or "" if k is out of range; callers that
// must reject bad indices do so explicitly.
func (t StringTable) At(k uint32) string {
	if int(k) >= len(t) {
		return ""
	}
	return t[k]
}

// DecodeStringTable decodes a stream of NUL-terminated strings. The
// first byte must be 0x00, giving string 0 = empty.
func DecodeStringTable(body []byte) (StringTable, error) {
	if len(body) == 0 || body[0] != 0 {
		return nil, ErrBadStringTable
	}
	r := codec.NewReader(body)
	var out StringTable
	for r.Len() > 0 {
		s, err := r.CString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
