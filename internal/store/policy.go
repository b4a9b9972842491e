package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Policy is the part of a cfg document the archive run interprets. Other
// fields are preserved in the stored document and ignored here.
type Policy struct {
	CategoryMapping map[string]string `json:"category_mapping"`
}

// ParsePolicy decodes and validates a policy document: a JSON object whose
// category_mapping maps category labels to absolute destination roots.
func ParsePolicy(document []byte) (Policy, error) {
	trimmed := bytes.TrimSpace(document)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Policy{}, fmt.Errorf("%w: document must be a JSON object", ErrInvalidPolicy)
	}
	var policy Policy
	if err := json.Unmarshal(trimmed, &policy); err != nil {
		return Policy{}, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}
	if len(policy.CategoryMapping) == 0 {
		return Policy{}, fmt.Errorf("%w: category_mapping is missing or empty", ErrInvalidPolicy)
	}
	for category, root := range policy.CategoryMapping {
		if strings.TrimSpace(root) == "" || !filepath.IsAbs(root) {
			return Policy{}, fmt.Errorf("%w: category_mapping[%q] must be an absolute path, got %q", ErrInvalidPolicy, category, root)
		}
	}
	return policy, nil
}

// Root returns the destination root for category.
func (p Policy) Root(category string) (string, error) {
	if root, ok := p.CategoryMapping[category]; ok {
		return filepath.Clean(root), nil
	}
	if root, ok := p.CategoryMapping[strings.TrimSpace(category)]; ok {
		return filepath.Clean(root), nil
	}
	return "", fmt.Errorf("%w: %q (known: %s)", ErrCategoryNotMapped, category, strings.Join(p.Categories(), ", "))
}

// Categories returns the mapped category labels in sorted order.
func (p Policy) Categories() []string {
	out := make([]string, 0, len(p.CategoryMapping))
	for category := range p.CategoryMapping {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}

func compactJSON(document []byte) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, document); err != nil {
		return "", err
	}
	return buf.String(), nil
}
