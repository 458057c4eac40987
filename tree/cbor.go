package tree

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var decMode cbor.DecMode

func init() {
	var err error
	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("tree: CBOR decoder initialization failed: " + err.Error())
	}
}

// DecodeCBOR decodes a CBOR data item into a value tree that a Reader can
// stream. Maps must have text keys.
func DecodeCBOR(data []byte) (any, error) {
	var v any
	if err := decMode.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ReadCBOR is like DecodeCBOR but reads the data item from r.
func ReadCBOR(r io.Reader) (any, error) {
	var v any
	if err := decMode.NewDecoder(r).Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
