package manifest

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/matzehuels/bumper/pkg/errors"
)

const defaultIndent = "  "

// Document is an order-preserving JSON object.
type Document struct {
	root            *object
	indent          string
	trailingNewline bool
}

// Load reads and parses the manifest at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}
	return Parse(data)
}

// Parse parses data, which must hold a single JSON object.
func Parse(data []byte) (*Document, error) {
	root, err := parseObject(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedManifest, err, "manifest is not a JSON object")
	}
	return &Document{
		root:            root,
		indent:          detectIndent(data),
		trailingNewline: bytes.HasSuffix(bytes.TrimRight(data, " \t\r"), []byte("\n")),
	}, nil
}

// Keys returns the top-level member names in document order.
func (d *Document) Keys() []string {
	return slices.Clone(d.root.keys)
}

// Raw returns the raw JSON of a top-level member.
func (d *Document) Raw(key string) (json.RawMessage, bool) {
	v, ok := d.root.values[key]
	return v, ok
}

// Indent returns the indentation unit used when writing.
func (d *Document) Indent() string { return d.indent }

// Bytes serializes the document with its original indentation.
func (d *Document) Bytes() ([]byte, error) {
	compact, err := d.root.marshal()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", d.indent); err != nil {
		return nil, err
	}
	if d.trailingNewline {
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}

// Save writes the document to path, replacing the file atomically and
// keeping its permissions.
func (d *Document) Save(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}

	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".package-*.json")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}

// detectIndent returns the whitespace in front of the first indented line,
// or two spaces for single-line documents.
func detectIndent(data []byte) string {
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return defaultIndent
		}
		data = data[i+1:]
		n := 0
		for n < len(data) && (data[n] == ' ' || data[n] == '\t') {
			n++
		}
		if n > 0 && n < len(data) && data[n] != '\n' && data[n] != '\r' {
			return string(data[:n])
		}
	}
}

// object is a JSON object whose members keep their order.
type object struct {
	keys   []string
	values map[string]json.RawMessage
}

func parseObject(data []byte) (*object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New(errors.ErrCodeMalformedManifest, "expected object, found %v", tok)
	}

	obj := &object{values: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errors.New(errors.ErrCodeMalformedManifest, "expected member name, found %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		obj.set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(errors.ErrCodeMalformedManifest, "unexpected data after object")
	}
	return obj, nil
}

func (o *object) set(key string, raw json.RawMessage) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = raw
}

func (o *object) marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := encodeString(key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		if err := json.Compact(&buf, o.values[key]); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeString encodes s without HTML escaping, so ">" stays readable.
func encodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
