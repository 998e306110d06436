package juliusprotocol

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"strings"
)

// TextKey is the key under which an element's character data is stored when
// the element also carries attributes or child elements.
const TextKey = "#text"

// Value is one node of a parsed record. It is a string (attribute value or
// the text of a leaf element), a *Map (an element with attributes or
// children), or a []Value (sibling elements sharing a name, in document
// order).
type Value = any

// Map is an insertion-ordered mapping from tag or attribute name to Value.
//
// The read methods (Len, Keys, Get, MarshalJSON) treat a nil *Map as an
// empty map. Set requires a non-nil *Map; its zero value is ready to use.
type Map struct {
	keys   []string
	values map[string]Value
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{values: make(map[string]Value)}
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set stores v under key, replacing any previous value but keeping the key's
// original position.
func (m *Map) Set(key string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// add stores v under key. A second occurrence of the same key turns the
// stored value into a []Value holding every occurrence in order.
func (m *Map) add(key string, v Value) {
	prev, ok := m.values[key]
	if !ok {
		m.Set(key, v)
		return
	}
	if list, isList := prev.([]Value); isList {
		m.values[key] = append(list, v)
		return
	}
	m.values[key] = []Value{prev, v}
}

// MarshalJSON encodes the map as a JSON object, preserving key order.
func (m *Map) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(m.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// treeFrame is an element whose end tag has not been seen yet.
type treeFrame struct {
	name string
	node *Map
	text strings.Builder
}

func (f *treeFrame) value() Value {
	text := strings.TrimSpace(f.text.String())
	if f.node.Len() == 0 {
		return text
	}
	if text != "" {
		f.node.add(TextKey, text)
	}
	return f.node
}

// ParseTree parses the markup of one record into an ordered tree.
//
// Attributes are kept as text. An element with neither attributes nor
// children collapses to its trimmed text. Sibling elements that share a name
// become a []Value; a single occurrence stays a scalar or *Map. A record may
// hold several top-level elements; they appear in the returned map in
// document order. An empty record yields an empty map.
func ParseTree(raw string) (*Map, error) {
	dec := xml.NewDecoder(strings.NewReader(escapeAttributeValues(raw)))
	// The transport has already converted the stream to UTF-8.
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	root := NewMap()
	var stack []*treeFrame

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, newDecodeError(raw, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			frame := &treeFrame{name: t.Name.Local, node: NewMap()}
			for _, attr := range t.Attr {
				frame.node.add(attr.Name.Local, attr.Value)
			}
			stack = append(stack, frame)

		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}

		case xml.EndElement:
			frame := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			parent := root
			if len(stack) > 0 {
				parent = stack[len(stack)-1].node
			}
			parent.add(frame.name, frame.value())
		}
	}

	if len(stack) > 0 {
		return nil, newDecodeError(raw, io.ErrUnexpectedEOF)
	}
	return root, nil
}

// escapeAttributeValues escapes '<', '>' and bare '&' inside quoted
// attribute values of start tags. Julius writes class ids such as "<s>" and
// "</s>" verbatim, which a conforming markup decoder rejects. Comments and
// CDATA sections, like other "<!" and "<?" constructs, are copied through
// unchanged.
func escapeAttributeValues(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))

	inTag := false
	var quote byte

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if quote != 0 {
			switch {
			case c == quote:
				quote = 0
				b.WriteByte(c)
			case c == '<':
				b.WriteString("&lt;")
			case c == '>':
				b.WriteString("&gt;")
			case c == '&' && !hasEntityPrefix(raw[i:]):
				b.WriteString("&amp;")
			default:
				b.WriteByte(c)
			}
			continue
		}

		if inTag {
			switch c {
			case '"', '\'':
				quote = c
			case '>':
				inTag = false
			}
			b.WriteByte(c)
			continue
		}

		if c == '<' {
			if n := opaqueSectionLen(raw[i:]); n > 0 {
				b.WriteString(raw[i : i+n])
				i += n - 1
				continue
			}
			inTag = i+1 < len(raw) && isNameStart(raw[i+1])
		}
		b.WriteByte(c)
	}
	return b.String()
}

// opaqueSections are markup constructs whose content is not scanned for
// attribute values.
var opaqueSections = []struct{ open, close string }{
	{"<!--", "-->"},
	{"<![CDATA[", "]]>"},
	{"<?", "?>"},
	{"<!", ">"},
}

// opaqueSectionLen returns the length of the opaque section s starts with,
// including its terminator. An unterminated section extends to the end of
// s. It returns 0 when s starts with none of them.
func opaqueSectionLen(s string) int {
	for _, sec := range opaqueSections {
		if !strings.HasPrefix(s, sec.open) {
			continue
		}
		end := strings.Index(s[len(sec.open):], sec.close)
		if end < 0 {
			return len(s)
		}
		return len(sec.open) + end + len(sec.close)
	}
	return 0
}

// isNameStart reports whether c can begin an element name. Bytes of
// multi-byte UTF-8 sequences are accepted.
func isNameStart(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c == '_' || c == ':' || c >= 0x80
}

// hasEntityPrefix reports whether s starts with a character or entity
// reference such as "&amp;" or "&#60;".
func hasEntityPrefix(s string) bool {
	end := strings.IndexByte(s, ';')
	if end < 2 || end > 10 {
		return false
	}
	name := s[1:end]
	switch name {
	case "lt", "gt", "amp", "quot", "apos":
		return true
	}
	if name[0] != '#' || len(name) < 2 {
		return false
	}
	digits, hex := name[1:], false
	if digits[0] == 'x' || digits[0] == 'X' {
		digits, hex = digits[1:], true
	}
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		c := digits[i]
		switch {
		case c >= '0' && c <= '9':
		case hex && (c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'):
		default:
			return false
		}
	}
	return true
}
