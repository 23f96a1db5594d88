package story

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// ManifestFile is the name of the story manifest in a story directory.
const ManifestFile = "story.toml"

// Load reads a story directory, parsing story.toml and all *.md node files.
// Nodes keep the directory's file order.
func Load(dir string) (*Story, error) {
	manifestPath := filepath.Join(dir, ManifestFile)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoManifest
		}
		return nil, fmt.Errorf("reading %s: %w", ManifestFile, err)
	}

	var manifest Manifest
	if err := toml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", ManifestFile, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading story directory: %w", err)
	}

	var nodes []*Node
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}

		node, err := ParseNodeFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", e.Name(), err)
		}
		node.SourceFile = e.Name()
		nodes = append(nodes, node)
	}

	return New(dir, manifest, nodes), nil
}

// New assembles a Story from already-parsed nodes. When two nodes share an
// ID the first one wins the lookup; Validate reports the duplicate.
func New(dir string, manifest Manifest, nodes []*Node) *Story {
	byID := make(map[string]*Node, len(nodes))
	for _, n := range nodes {
		if _, dup := byID[n.ID]; !dup {
			byID[n.ID] = n
		}
	}
	return &Story{
		Dir:      dir,
		Manifest: manifest,
		Nodes:    nodes,
		byID:     byID,
	}
}

// ParseNodeFile reads a markdown file with +++ TOML frontmatter.
func ParseNodeFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseNode(string(data))
}

// ParseNode parses node text with +++ TOML frontmatter. Rules without an ID
// are named "<node>#<index>" so their cached results stay distinct.
func ParseNode(content string) (*Node, error) {
	frontmatter, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var node Node
	if err := toml.Unmarshal([]byte(frontmatter), &node); err != nil {
		return nil, fmt.Errorf("parsing TOML frontmatter: %w", err)
	}

	node.Source = strings.TrimSpace(body)
	for i := range node.Rules {
		if node.Rules[i].ID == "" {
			node.Rules[i].ID = fmt.Sprintf("%s#%d", node.ID, i)
		}
	}
	return &node, nil
}

// Fetch returns the raw source of a node. It satisfies the content source
// used by reader sessions; the context is accepted for parity with remote
// sources.
func (s *Story) Fetch(ctx context.Context, nodeID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	n, ok := s.Node(nodeID)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownNode, nodeID)
	}
	if strings.TrimSpace(n.Source) == "" {
		return "", fmt.Errorf("%w: %q", ErrEmptySource, nodeID)
	}
	return n.Source, nil
}

// splitFrontmatter splits content on +++ delimiters.
// Expected format:
//
//	+++
//	<TOML>
//	+++
//	<body>
func splitFrontmatter(content string) (string, string, error) {
	const delim = "+++"

	content = strings.TrimLeft(content, " \t\r\n")

	if !strings.HasPrefix(content, delim) {
		return "", "", fmt.Errorf("file does not start with +++ frontmatter delimiter")
	}

	rest := content[len(delim):]
	idx := strings.Index(rest, delim)
	if idx < 0 {
		return "", "", fmt.Errorf("missing closing +++ frontmatter delimiter")
	}

	return rest[:idx], rest[idx+len(delim):], nil
}
