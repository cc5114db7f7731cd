package descriptor

import "fmt"

// CheckResultType is the overall verdict of Check.
type CheckResultType int

const (
	NoErrors CheckResultType = iota
	HasErrors
)

func (t CheckResultType) String() string {
	if t == HasErrors {
		return "HasErrors"
	}
	return "NoErrors"
}

// MarshalText renders the verdict by name in JSON and YAML reports.
func (t CheckResultType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// CheckErrorKind classifies a malformed descriptor line.
type CheckErrorKind int

const (
	// InvalidKey marks a line without '=' or with an empty key.
	InvalidKey CheckErrorKind = iota
	// InvalidValue marks a line whose value is empty.
	InvalidValue
	// InvalidComment is reserved; comment lines are never malformed.
	InvalidComment
	// DuplicatedKey marks every repeat of an already defined key.
	DuplicatedKey
)

func (k CheckErrorKind) String() string {
	switch k {
	case InvalidKey:
		return "InvalidKey"
	case InvalidValue:
		return "InvalidValue"
	case InvalidComment:
		return "InvalidComment"
	case DuplicatedKey:
		return "DuplicatedKey"
	default:
		return fmt.Sprintf("CheckErrorKind(%d)", int(k))
	}
}

// MarshalText renders the kind by name in JSON and YAML reports.
func (k CheckErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// CheckError is one diagnostic found by Check.
type CheckError struct {
	Kind CheckErrorKind `json:"kind" yaml:"kind"`
	Line int            `json:"line" yaml:"line"`
	// Text is "[<line>] <raw line>".
	Text string `json:"text" yaml:"text"`
}

func (e CheckError) String() string {
	return fmt.Sprintf("%s | Error Type: %s", e.Text, e.Kind)
}

// previewSize is how much of an overlong line a diagnostic quotes.
const previewSize = 80

// truncate shortens an overlong line for its diagnostic text.
func truncate(line string) string {
	if len(line) <= previewSize {
		return line
	}
	return line[:previewSize] + "..."
}

// CheckResult is the outcome of a strict descriptor check.
type CheckResult struct {
	Type   CheckResultType `json:"result" yaml:"result"`
	Errors []CheckError    `json:"errors" yaml:"errors"`
}

// HasErrors reports whether any diagnostic was found.
func (r *CheckResult) HasErrors() bool {
	return r.Type == HasErrors
}

func (r *CheckResult) add(kind CheckErrorKind, lineNo int, line string) {
	r.Type = HasErrors
	r.Errors = append(r.Errors, CheckError{
		Kind: kind,
		Line: lineNo,
		Text: fmt.Sprintf("[%d] %s", lineNo, line),
	})
}

// Check rescans the descriptor file and reports every malformed line.
//
// Unlike Load, Check keeps nothing: it only classifies lines. The first
// occurrence of a key is valid; each later one is DuplicatedKey. A line
// longer than maxLineSize is reported at its own line and scanning goes on.
// An unreadable file yields a single InvalidKey diagnostic on line 0.
func (s *Store) Check() *CheckResult {
	result := &CheckResult{Type: NoErrors}
	seen := make(map[string]bool)

	err := scanFile(s.path, func(lineNo int, line string, tooLong bool) {
		key, _, kind := parseLine(line)
		switch {
		case kind == lineSkip:
			return
		case tooLong:
			if kind == lineEntry || kind == lineEmptyValue {
				result.add(InvalidValue, lineNo, truncate(line))
			} else {
				result.add(InvalidKey, lineNo, truncate(line))
			}
			return
		}
		switch kind {
		case lineNoSeparator, lineEmptyKey:
			result.add(InvalidKey, lineNo, line)
		case lineEmptyValue:
			result.add(InvalidValue, lineNo, line)
		case lineEntry:
			if seen[key] {
				result.add(DuplicatedKey, lineNo, line)
				return
			}
			seen[key] = true
		}
	})
	if err != nil {
		result.Errors = nil
		result.add(InvalidKey, 0, "cannot read descriptor: "+err.Error())
	}
	return result
}
