package extract

import (
	"slices"
	"strings"

	"github.com/arnodel/wsjson/errs"
)

// Wildcards standing for every member of an object or every element of an
// array. A wildcard must be alone at its level.
const (
	AllFields   = "*"
	AllElements = "[*]"
)

// A Selection is a tree of field names. Each value is itself a Selection (or
// a map[string]any, as decoded from JSON); an empty one ends a path.
type Selection map[string]any

// A MetadataSelection maps metadata names to expressions. An expression is
// either the name of a top level field, whose scalar value is recorded, or
// "length(<field>)", which records the number of members, elements or
// characters of the field. Value expressions naming an object or an array
// record nothing.
//
// The length of a string counts Unicode code points, not UTF-16 units:
// "𝄠a" has length 2.
type MetadataSelection map[string]string

// A Node is a level of the merged selection tree.
type Node struct {
	// Copy the whole value.
	MatchAll bool

	// Output the keys of the object as an array of strings.
	KeysOnly bool

	Children map[string]*Node

	// Names of the metadata to set to the scalar value at this node.
	ValueMetadata []string

	// Names of the metadata to set to the length of the value at this node.
	LengthMetadata []string
}

// Build merges the keys-of selection, the fields selection and the metadata
// selection into one tree and checks it. A nil selection is absent.
//
// An empty fields selection selects nothing, like an absent one. An empty
// keys-of selection lists the keys of the root object, unless fields is
// empty too: then nothing is selected. Nested empty selections end a path.
func Build(keysOf, fields Selection, meta MetadataSelection) (*Node, error) {
	if fields != nil && len(fields) == 0 {
		if len(keysOf) == 0 {
			keysOf = nil
		}
		fields = nil
	}
	root := &Node{}
	if keysOf != nil {
		if err := root.addSelection(keysOf, true, nil); err != nil {
			return nil, err
		}
	}
	if fields != nil {
		if err := root.addSelection(fields, false, nil); err != nil {
			return nil, err
		}
	}
	if err := root.addMetadata(meta); err != nil {
		return nil, err
	}
	if err := root.check(nil); err != nil {
		return nil, err
	}
	return root, nil
}

// IsEmpty reports whether the node asks for nothing at all.
func (n *Node) IsEmpty() bool {
	return !n.MatchAll && !n.KeysOnly && len(n.Children) == 0 &&
		len(n.ValueMetadata) == 0 && len(n.LengthMetadata) == 0
}

// emits reports whether walking the node produces output.
func (n *Node) emits() bool {
	if n.MatchAll || n.KeysOnly {
		return true
	}
	for _, c := range n.Children {
		if c.emits() {
			return true
		}
	}
	return false
}

func (n *Node) child(name string) *Node {
	if c, ok := n.Children[name]; ok {
		return c
	}
	if n.Children == nil {
		n.Children = map[string]*Node{}
	}
	c := &Node{}
	n.Children[name] = c
	return c
}

func (n *Node) addSelection(sel map[string]any, keysOf bool, path []string) error {
	if len(sel) == 0 {
		if keysOf {
			n.KeysOnly = true
		} else {
			n.MatchAll = true
		}
		return nil
	}
	for name, v := range sel {
		sub, ok := asSelection(v)
		p := append(path[:len(path):len(path)], name)
		if !ok {
			return errs.Selectionf(pathText(p), "expected an object, got %T", v)
		}
		if err := n.child(name).addSelection(sub, keysOf, p); err != nil {
			return err
		}
	}
	return nil
}

func asSelection(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case Selection:
		return x, true
	case map[string]any:
		return x, true
	}
	return nil, false
}

func (n *Node) addMetadata(meta MetadataSelection) error {
	names := make([]string, 0, len(meta))
	for name := range meta {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		expr := strings.TrimSpace(meta[name])
		length := false
		if strings.HasPrefix(expr, "length(") {
			if !strings.HasSuffix(expr, ")") {
				return errs.Selectionf("", "metadata %q: unclosed length(", name)
			}
			expr = strings.TrimSpace(expr[len("length(") : len(expr)-1])
			length = true
		}
		switch {
		case expr == "":
			return errs.Selectionf("", "metadata %q: no field", name)
		case expr == AllFields || expr == AllElements:
			return errs.Selectionf("", "metadata %q: wildcard %s is not a field", name, expr)
		case strings.Contains(expr, "/"):
			return errs.Selectionf("", "metadata %q: only top level fields are supported, got %q", name, expr)
		}
		c := n.child(expr)
		if length {
			c.LengthMetadata = append(c.LengthMetadata, name)
		} else {
			c.ValueMetadata = append(c.ValueMetadata, name)
		}
	}
	return nil
}

func (n *Node) check(path []string) error {
	if n.MatchAll && n.KeysOnly {
		return errs.Selectionf(pathText(path), "both selected whole and keys-of")
	}
	_, all := n.Children[AllFields]
	_, elems := n.Children[AllElements]
	if (all || elems) && len(n.Children) > 1 {
		return errs.Selectionf(pathText(path), "wildcard with other fields (%s)", strings.Join(n.names(), ", "))
	}
	for _, name := range n.names() {
		c := n.Children[name]
		if (n.MatchAll || n.KeysOnly) && c.emits() {
			return errs.Selectionf(pathText(path), "field %q selected below a whole or keys-of selection", name)
		}
		if err := c.check(append(path[:len(path):len(path)], name)); err != nil {
			return err
		}
	}
	return nil
}

// names returns the names of the children in order.
func (n *Node) names() []string {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// pathText renders a path in the document, such as /a/0/b.
func pathText(path []string) string {
	return "/" + strings.Join(path, "/")
}
