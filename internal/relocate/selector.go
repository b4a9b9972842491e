package relocate

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"golang.org/x/text/unicode/norm"
)

// MatchOn selects which form of a file's path a Selector tests.
type MatchOn string

const (
	// MatchName tests the base filename.
	MatchName MatchOn = "name"
	// MatchRelative tests the slash-separated path relative to the source root.
	MatchRelative MatchOn = "relative"
	// MatchPath tests the absolute path.
	MatchPath MatchOn = "path"
)

// ParseMatchOn validates a match target, defaulting to MatchName.
func ParseMatchOn(value string) (MatchOn, error) {
	switch MatchOn(strings.ToLower(strings.TrimSpace(value))) {
	case "", MatchName:
		return MatchName, nil
	case MatchRelative:
		return MatchRelative, nil
	case MatchPath:
		return MatchPath, nil
	default:
		return "", fmt.Errorf("match_on must be name, relative, or path, got %q", value)
	}
}

const matchTimeout = time.Second

// Selector filters files within a source directory by pattern. Patterns use
// .NET-style syntax, so lookahead such as (?!.*v\d+) is available. Names are
// NFC-normalized before matching.
type Selector struct {
	pattern string
	on      MatchOn
	re      *regexp2.Regexp
}

// NewSelector compiles pattern for the given match target.
func NewSelector(pattern string, on MatchOn) (*Selector, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("selector: empty pattern")
	}
	if on == "" {
		on = MatchName
	}
	re, err := regexp2.Compile(norm.NFC.String(pattern), regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("selector %q: %w", pattern, err)
	}
	re.MatchTimeout = matchTimeout
	return &Selector{pattern: pattern, on: on, re: re}, nil
}

// MustSelector is NewSelector that panics on error. Use it for literals.
func MustSelector(pattern string, on MatchOn) *Selector {
	sel, err := NewSelector(pattern, on)
	if err != nil {
		panic(err)
	}
	return sel
}

// Pattern returns the source pattern.
func (s *Selector) Pattern() string { return s.pattern }

// On returns the match target.
func (s *Selector) On() MatchOn { return s.on }

// MatchString tests a candidate string directly.
func (s *Selector) MatchString(candidate string) (bool, error) {
	ok, err := s.re.MatchString(norm.NFC.String(candidate))
	if err != nil {
		return false, fmt.Errorf("selector %q: %w", s.pattern, err)
	}
	return ok, nil
}

// Match tests path, found beneath root, according to the selector's target.
func (s *Selector) Match(root, path string) (bool, error) {
	candidate := filepath.Base(path)
	switch s.on {
	case MatchRelative:
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return false, fmt.Errorf("relative path of %s: %w", path, err)
		}
		candidate = filepath.ToSlash(rel)
	case MatchPath:
		candidate = filepath.ToSlash(path)
	}
	return s.MatchString(candidate)
}
