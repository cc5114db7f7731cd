package descriptor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrKeyNotFound is returned when a key is not defined in the descriptor.
var ErrKeyNotFound = errors.New("key not found")

// ErrCircularReference is matched by every *CircularReferenceError.
var ErrCircularReference = errors.New("circular reference")

// ErrFormat is matched by every *FormatError.
var ErrFormat = errors.New("invalid value format")

// CircularReferenceError reports a $ref$ chain that loops back on itself.
type CircularReferenceError struct {
	// Chain lists the keys visited, ending with the key seen twice.
	Chain []string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("circular reference: %s", strings.Join(e.Chain, " -> "))
}

// Unwrap allows errors.Is(err, ErrCircularReference).
func (e *CircularReferenceError) Unwrap() error {
	return ErrCircularReference
}

// FormatError reports a value that cannot be read as the requested type.
type FormatError struct {
	Key   string
	Value string
	Type  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %q is not a valid %s", e.Key, e.Value, e.Type)
}

// Unwrap allows errors.Is(err, ErrFormat).
func (e *FormatError) Unwrap() error {
	return ErrFormat
}

// refDelim opens and closes a variable reference.
const refDelim = '$'

// Resolve returns the value of name from entries with every $ref$ replaced
// by the resolved value of ref.
//
// References to keys that are not defined are kept literally, as is a
// trailing unmatched '$'. Resolve does not modify entries.
func Resolve(entries []Entry, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrKeyNotFound
	}
	values := make(map[string]string, len(entries))
	for _, e := range entries {
		if _, dup := values[e.Key]; !dup {
			values[e.Key] = e.Value
		}
	}
	r := &resolver{values: values, inStack: make(map[string]bool)}
	return r.resolve(name)
}

type resolver struct {
	values  map[string]string
	inStack map[string]bool
	stack   []string
}

func (r *resolver) resolve(name string) (string, error) {
	raw, ok := r.values[name]
	if !ok {
		return "", ErrKeyNotFound
	}
	if r.inStack[name] {
		chain := append(append([]string(nil), r.stack...), name)
		return "", &CircularReferenceError{Chain: chain}
	}

	r.inStack[name] = true
	r.stack = append(r.stack, name)
	defer func() {
		r.inStack[name] = false
		r.stack = r.stack[:len(r.stack)-1]
	}()

	return r.expand(raw)
}

func (r *resolver) expand(raw string) (string, error) {
	if strings.IndexByte(raw, refDelim) < 0 {
		return raw, nil
	}

	var b strings.Builder
	rest := raw
	for {
		open := strings.IndexByte(rest, refDelim)
		if open < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		rest = rest[open+1:]

		end := strings.IndexByte(rest, refDelim)
		if end < 0 {
			b.WriteByte(refDelim)
			b.WriteString(rest)
			break
		}
		ref := rest[:end]
		rest = rest[end+1:]

		if _, known := r.values[ref]; !known {
			b.WriteByte(refDelim)
			b.WriteString(ref)
			b.WriteByte(refDelim)
			continue
		}
		v, err := r.resolve(ref)
		if err != nil {
			return "", err
		}
		b.WriteString(v)
	}
	return b.String(), nil
}

// References returns the names referenced by value, in order of appearance.
func References(value string) []string {
	var refs []string
	rest := value
	for {
		open := strings.IndexByte(rest, refDelim)
		if open < 0 {
			return refs
		}
		rest = rest[open+1:]
		end := strings.IndexByte(rest, refDelim)
		if end < 0 {
			return refs
		}
		if end > 0 {
			refs = append(refs, rest[:end])
		}
		rest = rest[end+1:]
	}
}
