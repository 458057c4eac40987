package scanner

const (
	alpha uint8 = 1 << iota
	digit
	ctrl
)

var classes = func() (c [256]uint8) {
	for b := 0; b < 32; b++ {
		c[b] = ctrl
	}
	for b := 'a'; b <= 'z'; b++ {
		c[b] = alpha
		c[b-'a'+'A'] = alpha
	}
	c['_'] = alpha
	for b := '0'; b <= '9'; b++ {
		c[b] = digit
	}
	return
}()

// IsAlpha reports whether b is an ASCII letter or '_'.
func IsAlpha(b byte) bool { return classes[b]&alpha != 0 }

// IsDigit reports whether b is an ASCII digit.
func IsDigit(b byte) bool { return classes[b]&digit != 0 }

// IsAlnum reports whether b is a letter, '_' or a digit.
func IsAlnum(b byte) bool { return classes[b]&(alpha|digit) != 0 }

// IsCtrl reports whether b is a control character, which JSON strings must
// escape.
func IsCtrl(b byte) bool { return classes[b]&ctrl != 0 }
