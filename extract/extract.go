// Package extract pulls a subset of a JSON document and metadata about it out
// of a token stream, in a single pass.
//
// What to extract is given by two selections and a set of metadata
// expressions, merged into one tree of Nodes before the first token is read.
// The fields selection copies the values it names; the keys-of selection
// outputs the keys of the objects it names instead of their values. Parts of
// the document that are not selected are skipped without being copied.
package extract

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/arnodel/wsjson/errs"
	"github.com/arnodel/wsjson/token"
	"github.com/arnodel/wsjson/tree"
)

// A MetadataHandler receives the extracted metadata.
type MetadataHandler interface {
	SaveMetadata(name, value string)
}

// Metadata is a MetadataHandler keeping the metadata in a map.
type Metadata map[string]string

func (m Metadata) SaveMetadata(name, value string) {
	m[name] = value
}

// Options configure Tree.
type Options struct {
	// Upper bound on the size of the subset as compact JSON text. Zero or
	// negative means no limit.
	MaxSubsetSize int64
}

// Extract reads the value at the start of r and puts the selected subset
// into sink. Metadata is passed to handler, which may be nil if there is
// none. If nothing is selected, no token is read.
func Extract(r token.Reader, keysOf, fields Selection, meta MetadataSelection, handler MetadataHandler, sink token.Sink) error {
	root, err := Build(keysOf, fields, meta)
	if err != nil {
		return err
	}
	return root.Walk(r, handler, sink)
}

// Tree is like Extract but returns the subset as a value tree (see package
// tree) along with the metadata. The subset is an empty object if nothing is
// selected.
func Tree(r token.Reader, keysOf, fields Selection, meta MetadataSelection, opts Options) (any, Metadata, error) {
	b := &tree.Builder{MaxSize: opts.MaxSubsetSize}
	md := Metadata{}
	if err := Extract(r, keysOf, fields, meta, md, b); err != nil {
		return nil, nil, err
	}
	if !b.Done() {
		return map[string]any{}, md, nil
	}
	return b.Value(), md, nil
}

// Walk reads the value at the start of r and puts what n selects into sink.
func (n *Node) Walk(r token.Reader, handler MetadataHandler, sink token.Sink) error {
	if n.IsEmpty() {
		return nil
	}
	w := &walker{r: r, handler: handler, sink: sink}
	tok, err := w.next()
	if err != nil {
		return err
	}
	return w.walk(tok, n, false)
}

// none stands for a part of the document without selection.
var none = &Node{}

type walker struct {
	r       token.Reader
	handler MetadataHandler
	sink    token.Sink
	path    []string
}

func (w *walker) next() (token.Token, error) {
	tok, err := w.r.Next()
	if err == io.EOF {
		return nil, fmt.Errorf("%w at %s", io.ErrUnexpectedEOF, pathText(w.path))
	}
	return tok, err
}

func (w *walker) put(tok token.Token) error {
	if err := w.sink.Put(tok); err != nil {
		return fmt.Errorf("at %s: %w", pathText(w.path), err)
	}
	return nil
}

func (w *walker) save(names []string, value string) {
	if w.handler == nil {
		return
	}
	for _, name := range names {
		w.handler.SaveMetadata(name, value)
	}
}

func (w *walker) selectionError(format string, args ...any) error {
	return errs.Selectionf(pathText(w.path), format, args...)
}

// walk processes the value starting with tok. If copyAll is set, the value is
// copied whatever n selects.
func (w *walker) walk(tok token.Token, n *Node, copyAll bool) error {
	copyAll = copyAll || n.MatchAll
	switch t := tok.(type) {
	case *token.StartObject:
		return w.object(n, copyAll)
	case *token.StartArray:
		return w.array(n, copyAll)
	case *token.Scalar:
		if !t.IsKey() {
			return w.scalar(t, n, copyAll)
		}
	}
	return fmt.Errorf("unexpected %s at %s", tok, pathText(w.path))
}

func (w *walker) object(n *Node, copyAll bool) error {
	if _, ok := n.Children[AllElements]; ok {
		return w.selectionError("%s selected on an object", AllElements)
	}
	keysOnly := n.KeysOnly && !copyAll
	emit := copyAll || n.emits()
	wildcard := n.Children[AllFields]
	if emit {
		start := token.Token(token.StartObjectToken)
		if keysOnly {
			start = token.StartArrayToken
		}
		if err := w.put(start); err != nil {
			return err
		}
	}
	var seen map[string]bool
	count := 0
	for {
		tok, err := w.next()
		if err != nil {
			return err
		}
		if _, ok := tok.(*token.EndObject); ok {
			break
		}
		key, ok := tok.(*token.Scalar)
		if !ok || !key.IsKey() {
			return fmt.Errorf("expected a field name at %s, got %s", pathText(w.path), tok)
		}
		count++
		name := key.Text()
		child := wildcard
		if child == nil {
			// Only the first of duplicated fields is selected
			if c, ok := n.Children[name]; ok && !seen[name] {
				child = c
				if seen == nil {
					seen = map[string]bool{}
				}
				seen[name] = true
			}
		}
		w.path = append(w.path, name)
		if tok, err = w.next(); err != nil {
			return err
		}
		switch {
		case keysOnly:
			err = w.put(key.AsValue())
			if err == nil {
				err = w.walkOrSkip(tok, child)
			}
		case copyAll || (child != nil && child.emits()):
			err = w.put(key)
			if err == nil {
				if child == nil {
					child = none
				}
				err = w.walk(tok, child, copyAll)
			}
		default:
			err = w.walkOrSkip(tok, child)
		}
		if err != nil {
			return err
		}
		w.path = w.path[:len(w.path)-1]
	}
	if emit {
		end := token.Token(token.EndObjectToken)
		if keysOnly {
			end = token.EndArrayToken
		}
		if err := w.put(end); err != nil {
			return err
		}
	}
	w.save(n.LengthMetadata, strconv.Itoa(count))
	return nil
}

func (w *walker) array(n *Node, copyAll bool) error {
	if n.KeysOnly && !copyAll {
		return w.selectionError("keys-of selected on an array")
	}
	for _, name := range n.names() {
		if name != AllElements {
			return w.selectionError("field %q selected on an array, only %s is allowed", name, AllElements)
		}
	}
	elem := n.Children[AllElements]
	emit := copyAll || n.emits()
	if emit {
		if err := w.put(token.StartArrayToken); err != nil {
			return err
		}
	}
	count := 0
	for ; ; count++ {
		tok, err := w.next()
		if err != nil {
			return err
		}
		if _, ok := tok.(*token.EndArray); ok {
			break
		}
		w.path = append(w.path, strconv.Itoa(count))
		switch {
		case elem != nil:
			err = w.walk(tok, elem, copyAll)
		case copyAll:
			err = w.walk(tok, none, true)
		default:
			err = w.skip(tok)
		}
		if err != nil {
			return err
		}
		w.path = w.path[:len(w.path)-1]
	}
	if emit {
		if err := w.put(token.EndArrayToken); err != nil {
			return err
		}
	}
	w.save(n.LengthMetadata, strconv.Itoa(count))
	return nil
}

func (w *walker) scalar(s *token.Scalar, n *Node, copyAll bool) error {
	if len(n.Children) > 0 {
		return w.selectionError("field %q selected on a scalar value", n.names()[0])
	}
	if n.KeysOnly {
		return w.selectionError("keys-of selected on a scalar value")
	}
	if copyAll {
		if err := w.put(s); err != nil {
			return err
		}
	}
	if len(n.LengthMetadata) > 0 {
		if s.Type() != token.String {
			return w.selectionError("length() of %s value", token.KindOf(s))
		}
		w.save(n.LengthMetadata, strconv.Itoa(utf8.RuneCountInString(s.Text())))
	}
	if len(n.ValueMetadata) > 0 {
		w.save(n.ValueMetadata, s.Text())
	}
	return nil
}

// walkOrSkip walks the value if it is selected and skips it otherwise.
func (w *walker) walkOrSkip(tok token.Token, n *Node) error {
	if n == nil {
		return w.skip(tok)
	}
	return w.walk(tok, n, false)
}

// skip reads past the value starting with tok.
func (w *walker) skip(tok token.Token) error {
	depth := 0
	for {
		switch tok.(type) {
		case *token.StartObject, *token.StartArray:
			depth++
		case *token.EndObject, *token.EndArray:
			depth--
		}
		if depth == 0 {
			return nil
		}
		var err error
		if tok, err = w.next(); err != nil {
			return err
		}
	}
}
