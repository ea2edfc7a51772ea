package ko

import (
	"github.com/kerbalko/ksmld/internal/codec"
	"github.com/kerbalko/ksmld/internal/value"
)

// DecodeDataSection decodes a sequence of tagged primitive values using
// the shared Value Model codec. Entries are addressed
// positionally by later instruction operands.
func DecodeDataSection(body []byte) ([]value.Value, error) {
	r := codec.NewReader(body)
	var out []value.Value
	for r.Len() > 0 {
		v, err := value.Decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
