package format

import "github.com/arnodel/wsjson/token"

// Colorizer surrounds scalars with terminal color codes. A nil *Colorizer
// prints scalars without color.
type Colorizer struct {
	KeyColorCode     []byte
	ScalarColorCodes [4][]byte
	ResetCode        []byte
}

// Some color ANSI codes
var (
	ResetCode      = []byte("\033[0m")
	YellowCode     = []byte("\033[33m")
	WhiteCode      = []byte("\033[37m")
	GreenCode      = []byte("\033[32m")
	DimWhiteCode   = []byte("\033[37;2m")
	BrightBlueCode = []byte("\033[34;1m")
)

// DefaultColorizer is the palette used when writing to a terminal.
var DefaultColorizer = Colorizer{
	ScalarColorCodes: [4][]byte{DimWhiteCode, YellowCode, WhiteCode, GreenCode},
	KeyColorCode:     BrightBlueCode,
	ResetCode:        ResetCode,
}

func (c *Colorizer) ScalarColorCode(scalar *token.Scalar) []byte {
	if scalar.IsKey() {
		return c.KeyColorCode
	}
	return c.ScalarColorCodes[scalar.Type()]
}

func (c *Colorizer) PrintScalar(p Printer, scalar *token.Scalar) {
	if c != nil {
		p.PrintBytes(c.ScalarColorCode(scalar))
	}
	p.PrintBytes(scalar.Bytes)
	if c != nil {
		p.PrintBytes(c.ResetCode)
	}
}
