package concepts

import (
	"fmt"
	"strings"
)

const (
	// PathSeparator delimits segments of a concept path.
	PathSeparator = `\`
	// AltPathSeparator is rejected anywhere in a concept path.
	AltPathSeparator = "/"
)

// Path is the hierarchical identifier shared by source and derived concepts,
// e.g. `\Derived\Renal\eGFR\`.
type Path string

// ParsePath trims surrounding whitespace and validates raw.
func ParsePath(raw string) (Path, error) {
	p := Path(strings.TrimSpace(raw))
	if err := p.Validate(); err != nil {
		return "", err
	}
	return p, nil
}

// Validate reports why p is not a well-formed concept path.
func (p Path) Validate() error {
	s := string(p)
	switch {
	case s == "":
		return fmt.Errorf("concept path is empty")
	case strings.Contains(s, AltPathSeparator):
		return fmt.Errorf("concept path %q must not contain %q", s, AltPathSeparator)
	case !strings.HasPrefix(s, PathSeparator) || !strings.HasSuffix(s, PathSeparator):
		return fmt.Errorf("concept path %q must start and end with %q", s, PathSeparator)
	case len(s) == len(PathSeparator):
		return fmt.Errorf("concept path %q has no segments", s)
	case strings.Contains(s, PathSeparator+PathSeparator):
		return fmt.Errorf("concept path %q contains an empty segment", s)
	}
	return nil
}

func (p Path) String() string { return string(p) }

// Segments returns the path components without separators.
func (p Path) Segments() []string {
	trimmed := strings.Trim(string(p), PathSeparator)
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, PathSeparator)
}

// Leaf is the last segment, usually the concept's display name.
func (p Path) Leaf() string {
	segs := p.Segments()
	if len(segs) == 0 {
		return ""
	}
	return segs[len(segs)-1]
}

// ParsePaths validates every entry and drops duplicates, keeping first-seen order.
func ParsePaths(raw []string) ([]Path, error) {
	out := make([]Path, 0, len(raw))
	seen := make(map[Path]struct{}, len(raw))
	for _, r := range raw {
		p, err := ParsePath(r)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out, nil
}
