package titles

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"shelver/internal/relocate"
)

//go:embed sample_titles.toml
var sampleTitles string

// Format identifies a title table encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Title binds one content identity to the selector used for its downloads.
type Title struct {
	ContentID int64  `toml:"content_id" yaml:"content_id"`
	Season    int    `toml:"season" yaml:"season"`
	Name      string `toml:"name" yaml:"name"`
	Pattern   string `toml:"pattern" yaml:"pattern"`
	MatchOn   string `toml:"match_on" yaml:"match_on"`

	selector *relocate.Selector
}

// Key returns the dispatch key for the title.
func (t Title) Key() string {
	return relocate.Key(t.ContentID, t.Season)
}

// Selector returns the compiled selector. It is nil until the title has been
// validated by Parse or Load.
func (t Title) Selector() *relocate.Selector {
	return t.selector
}

type document struct {
	Titles []Title `toml:"title" yaml:"titles"`
}

// FormatForPath picks a decoder from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("title table %s: unsupported extension (want .toml, .yaml or .yml)", path)
	}
}

// Load reads and validates the title table at path.
func Load(path string) ([]Title, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read title table: %w", err)
	}
	list, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("title table %s: %w", path, err)
	}
	return list, nil
}

// Parse decodes a title table and compiles every pattern.
func Parse(data []byte, format Format) ([]Title, error) {
	var doc document
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	seen := make(map[string]int, len(doc.Titles))
	for i := range doc.Titles {
		title := &doc.Titles[i]
		if err := title.compile(); err != nil {
			return nil, fmt.Errorf("title %d: %w", i+1, err)
		}
		key := title.Key()
		if prev, dup := seen[key]; dup {
			return nil, fmt.Errorf("title %d: %s already defined by title %d", i+1, key, prev)
		}
		seen[key] = i + 1
	}
	return doc.Titles, nil
}

func (t *Title) compile() error {
	if t.ContentID <= 0 {
		return errors.New("content_id must be positive")
	}
	if t.Season <= 0 {
		return fmt.Errorf("content %d: season must be positive", t.ContentID)
	}
	on, err := relocate.ParseMatchOn(t.MatchOn)
	if err != nil {
		return fmt.Errorf("%s: %w", t.Key(), err)
	}
	sel, err := relocate.NewSelector(t.Pattern, on)
	if err != nil {
		return fmt.Errorf("%s: %w", t.Key(), err)
	}
	t.MatchOn = string(on)
	t.selector = sel
	return nil
}

// Register installs one relocation handler per title.
func Register(reg *relocate.Registry, list []Title, opts relocate.Options) error {
	for _, title := range list {
		sel := title.selector
		if sel == nil {
			if err := title.compile(); err != nil {
				return err
			}
			sel = title.selector
		}
		if err := reg.Register(title.Key(), relocate.NewHandler(sel, opts)); err != nil {
			return err
		}
	}
	return nil
}

// LoadRegistry loads the table at path and returns a frozen registry built
// from it.
func LoadRegistry(path string, opts relocate.Options) (*relocate.Registry, []Title, error) {
	list, err := Load(path)
	if err != nil {
		return nil, nil, err
	}
	reg := relocate.NewRegistry()
	if err := Register(reg, list, opts); err != nil {
		return nil, nil, err
	}
	reg.Freeze()
	return reg, list, nil
}

// Sample returns the embedded example table.
func Sample() string {
	return sampleTitles
}

// CreateSample writes the example table to path. An existing file is left
// untouched.
func CreateSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("title table already exists at %s", path)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create title directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleTitles), 0o644); err != nil {
		return fmt.Errorf("write sample titles: %w", err)
	}
	return nil
}
