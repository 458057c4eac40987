package canonical

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/arnodel/wsjson/errs"
	"github.com/arnodel/wsjson/source"
	"github.com/arnodel/wsjson/token"
)

// Estimated cost of holding a key, on top of its length.
const (
	bytesKeyOverhead = 24
	textKeyOverhead  = 36
)

// location is an object member: its key and where it lies in the source.
// The member text is [keyStart, stop), from the opening quote of the key to
// the end of the value.
type location struct {
	key        string
	keyStart   int64
	valueStart int64
	stop       int64
}

// pass is the state of one canonicalization.
type pass struct {
	opts *Options
	r    *source.Reader
	out  *bufio.Writer

	objects int
	skipped int
}

// write copies the range [start, stop) of the source to the output, sorting
// the objects it contains. A negative stop means the end of the source. held
// is the key memory used by the enclosing objects.
func (p *pass) write(start, stop int64, held int64) error {
	p.r.SetPosition(start)
	for stop < 0 || p.r.Offset() < stop {
		b, err := p.r.ReadByte()
		if err == io.EOF {
			if stop >= 0 {
				return errs.Syntaxf(p.r.Offset(), "unexpected end of input")
			}
			return nil
		}
		if err != nil {
			return err
		}
		switch b {
		case '{':
			if err := p.writeObject(held); err != nil {
				return err
			}
		case '"':
			if err := p.copyString(); err != nil {
				return err
			}
		default:
			if err := p.out.WriteByte(b); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeObject is called just after a '{' has been read. It writes the object
// with its members sorted and leaves the reader just after the matching '}'.
func (p *pass) writeObject(held int64) error {
	locs, used, err := p.scanObject(true, held)
	if err != nil {
		return err
	}
	end := p.r.Offset()
	p.sort(locs)
	if err := p.out.WriteByte('{'); err != nil {
		return err
	}
	var prev *location
	for i := range locs {
		loc := &locs[i]
		if prev != nil && prev.key == loc.key {
			if p.opts.Duplicates == DuplicateSkip {
				p.skipped++
				continue
			}
			return &errs.DuplicateKeyError{Key: loc.key, Offset: loc.keyStart}
		}
		if prev != nil {
			if err := p.out.WriteByte(','); err != nil {
				return err
			}
		}
		if err := p.write(loc.keyStart, loc.stop, held+used); err != nil {
			return err
		}
		prev = loc
	}
	if err := p.out.WriteByte('}'); err != nil {
		return err
	}
	p.objects++
	p.r.SetPosition(end)
	return nil
}

// scanObject is called just after a '{' has been read and leaves the reader
// just after the matching '}'. When record is set it returns the members of
// the object in document order and the memory their keys cost. Nested
// containers are only checked for structure.
func (p *pass) scanObject(record bool, held int64) ([]location, int64, error) {
	var (
		locs      []location
		used      int64
		beforeKey = true
		cur       = location{keyStart: -1, valueStart: -1}
	)
	open := p.r.Offset() - 1
	addMember := func(stop int64) error {
		if cur.keyStart < 0 {
			return nil
		}
		if cur.valueStart < 0 {
			return errs.Syntaxf(stop, "key without value")
		}
		cur.stop = stop
		if record {
			locs = append(locs, cur)
		}
		cur = location{keyStart: -1, valueStart: -1}
		return nil
	}
	for {
		off := p.r.Offset()
		b, err := p.r.ReadByte()
		if err == io.EOF {
			return nil, 0, errs.Syntaxf(open, "object close bracket not found")
		}
		if err != nil {
			return nil, 0, err
		}
		switch b {
		case '}':
			if err := addMember(off); err != nil {
				return nil, 0, err
			}
			return locs, used, nil
		case '"':
			if !beforeKey {
				if _, err := p.skipString(off, false); err != nil {
					return nil, 0, err
				}
				continue
			}
			if cur.keyStart >= 0 {
				return nil, 0, errs.Syntaxf(off, "two keys without a colon")
			}
			raw, err := p.skipString(off, record)
			if err != nil {
				return nil, 0, err
			}
			cur.keyStart = off
			if !record {
				continue
			}
			cur.key, err = p.decodeKey(raw)
			if err != nil {
				return nil, 0, errs.Syntaxf(off, "%s", err)
			}
			used += p.keyCost(cur.key)
			if limit := p.opts.MaxKeyMemory; limit > 0 && held+used > limit {
				return nil, 0, fmt.Errorf("%w: %d bytes needed at offset %d, limit is %d",
					errs.ErrKeyMemoryExceeded, held+used, off, limit)
			}
		case ':':
			if !beforeKey {
				return nil, 0, errs.Syntaxf(off, "unexpected colon in the middle of a value")
			}
			if cur.keyStart < 0 {
				return nil, 0, errs.Syntaxf(off, "colon before key")
			}
			cur.valueStart = off + 1
			beforeKey = false
		case ',':
			if cur.keyStart < 0 {
				return nil, 0, errs.Syntaxf(off, "comma without a member")
			}
			if err := addMember(off); err != nil {
				return nil, 0, err
			}
			beforeKey = true
		case '{':
			if beforeKey {
				return nil, 0, errs.Syntaxf(off, "object opened in key position")
			}
			if _, _, err := p.scanObject(false, 0); err != nil {
				return nil, 0, err
			}
		case '[':
			if beforeKey {
				return nil, 0, errs.Syntaxf(off, "array opened in key position")
			}
			if err := p.skipArray(off); err != nil {
				return nil, 0, err
			}
		case ']':
			return nil, 0, errs.Syntaxf(off, "unexpected ']' in object")
		default:
			if beforeKey && !isSpace(b) {
				return nil, 0, errs.Syntaxf(off, "value without key")
			}
		}
	}
}

// skipArray is called just after the '[' at offset open has been read and
// leaves the reader just after the matching ']'.
func (p *pass) skipArray(open int64) error {
	for {
		off := p.r.Offset()
		b, err := p.r.ReadByte()
		if err == io.EOF {
			return errs.Syntaxf(open, "array close bracket not found")
		}
		if err != nil {
			return err
		}
		switch b {
		case ']':
			return nil
		case '"':
			if _, err := p.skipString(off, false); err != nil {
				return err
			}
		case '{':
			if _, _, err := p.scanObject(false, 0); err != nil {
				return err
			}
		case '[':
			if err := p.skipArray(off); err != nil {
				return err
			}
		case '}', ':':
			return errs.Syntaxf(off, "unexpected %q in array", b)
		}
	}
}

// skipString is called just after the opening quote at offset open has been
// read and leaves the reader just after the closing quote. If keep is set it
// returns the bytes between the quotes.
func (p *pass) skipString(open int64, keep bool) ([]byte, error) {
	var raw []byte
	escaped := false
	for {
		b, err := p.r.ReadByte()
		if err == io.EOF {
			return nil, errs.Syntaxf(open, "string close quote not found")
		}
		if err != nil {
			return nil, err
		}
		if !escaped && b == '"' {
			return raw, nil
		}
		escaped = !escaped && b == '\\'
		if keep {
			raw = append(raw, b)
		}
	}
}

// copyString is called just after an opening quote has been read and copies
// the string verbatim, closing quote included.
func (p *pass) copyString() error {
	open := p.r.Offset() - 1
	if err := p.out.WriteByte('"'); err != nil {
		return err
	}
	escaped := false
	for {
		b, err := p.r.ReadByte()
		if err == io.EOF {
			return errs.Syntaxf(open, "string close quote not found")
		}
		if err != nil {
			return err
		}
		if err := p.out.WriteByte(b); err != nil {
			return err
		}
		if !escaped && b == '"' {
			return nil
		}
		escaped = !escaped && b == '\\'
	}
}

var errBadKey = errors.New("invalid escape in key")

func (p *pass) decodeKey(raw []byte) (string, error) {
	key, err := token.UnquoteInner(raw)
	if err != nil {
		return "", errBadKey
	}
	if p.opts.Keys == KeyText {
		key = strings.ToValidUTF8(key, "�")
	}
	return key, nil
}

func (p *pass) keyCost(key string) int64 {
	if p.opts.Keys == KeyText {
		return 2*int64(len(key)) + textKeyOverhead
	}
	return int64(len(key)) + bytesKeyOverhead
}

// sort orders locs by key. The sort is stable so equal keys stay in document
// order.
func (p *pass) sort(locs []location) {
	cmp := func(a, b location) int {
		return strings.Compare(a.key, b.key)
	}
	if p.opts.Keys == KeyText {
		cmp = func(a, b location) int {
			return compareUTF16(a.key, b.key)
		}
	}
	slices.SortStableFunc(locs, cmp)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
