package token

// Kind classifies tokens. Unlike ScalarType it distinguishes object keys from
// string values and integers from floats.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindStartObject
	KindEndObject
	KindStartArray
	KindEndArray
	KindFieldName
	KindString
	KindInteger
	KindFloat
	KindTrue
	KindFalse
	KindNull
)

var kindNames = [...]string{
	KindInvalid:     "Invalid",
	KindStartObject: "StartObject",
	KindEndObject:   "EndObject",
	KindStartArray:  "StartArray",
	KindEndArray:    "EndArray",
	KindFieldName:   "FieldName",
	KindString:      "String",
	KindInteger:     "Integer",
	KindFloat:       "Float",
	KindTrue:        "True",
	KindFalse:       "False",
	KindNull:        "Null",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Invalid"
}

// IsScalar reports whether tokens of kind k carry a value.
func (k Kind) IsScalar() bool {
	return k >= KindString
}

// KindOf returns the kind of tok.
func KindOf(tok Token) Kind {
	switch t := tok.(type) {
	case *StartObject:
		return KindStartObject
	case *EndObject:
		return KindEndObject
	case *StartArray:
		return KindStartArray
	case *EndArray:
		return KindEndArray
	case *Scalar:
		if t.IsKey() {
			return KindFieldName
		}
		switch t.Type() {
		case String:
			return KindString
		case Number:
			if t.IsInteger() {
				return KindInteger
			}
			return KindFloat
		case Boolean:
			if t.Bytes[0] == 't' {
				return KindTrue
			}
			return KindFalse
		default:
			return KindNull
		}
	default:
		return KindInvalid
	}
}
