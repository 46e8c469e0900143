package document

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const frontmatterDelim = "---"

// metadata is the part of the frontmatter termwiki understands. Every other
// key is ignored.
type metadata struct {
	Scope   string
	Aliases []string
}

type rawMetadata struct {
	Scope string    `yaml:"scope"`
	Alias yaml.Node `yaml:"alias"`
}

// splitFrontmatter separates a leading --- block from the body. bodyStart is
// the index of the first body line. Without a closing delimiter the whole
// text is body.
func splitFrontmatter(lines []string) (meta []string, bodyStart int) {
	if len(lines) == 0 || strings.TrimRight(lines[0], " \t") != frontmatterDelim {
		return nil, 0
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], " \t") == frontmatterDelim {
			return lines[1:i], i + 1
		}
	}
	return nil, 0
}

func parseMetadata(lines []string) (metadata, error) {
	var md metadata
	if len(lines) == 0 {
		return md, nil
	}

	var raw rawMetadata
	if err := yaml.Unmarshal([]byte(strings.Join(lines, "\n")), &raw); err != nil {
		return md, fmt.Errorf("frontmatter: %w", err)
	}
	md.Scope = strings.TrimSpace(raw.Scope)

	aliases, err := decodeAliases(&raw.Alias)
	if err != nil {
		return md, err
	}
	md.Aliases = normalizeAliases(aliases)
	return md, nil
}

// decodeAliases accepts either a YAML sequence or a comma separated scalar.
func decodeAliases(node *yaml.Node) ([]string, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
		return strings.Split(node.Value, ","), nil
	case yaml.SequenceNode:
		var aliases []string
		if err := node.Decode(&aliases); err != nil {
			return nil, fmt.Errorf("frontmatter alias: %w", err)
		}
		return aliases, nil
	default:
		return nil, fmt.Errorf("frontmatter alias: line %d: expected a list or a string", node.Line)
	}
}

// normalizeAliases trims entries and drops blanks and repeats, keeping the
// first occurrence so the canonical name stays first.
func normalizeAliases(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
