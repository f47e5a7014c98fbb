package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the three node forms. A node is exactly one of an
// internal mapping, an ordered paper list, or a single paper leaf.
type Kind int

const (
	KindInternal Kind = iota
	KindPaperList
	KindPaperLeaf
)

// Paper is a leaf descriptor. The URL fields point at the question paper,
// mark scheme, solved paper and information booklet respectively; any of
// them may be empty.
type Paper struct {
	Name string `yaml:"name" json:"name"`
	QP   string `yaml:"qp,omitempty" json:"qp,omitempty"`
	MS   string `yaml:"ms,omitempty" json:"ms,omitempty"`
	SP   string `yaml:"sp,omitempty" json:"sp,omitempty"`
	IN   string `yaml:"in,omitempty" json:"in,omitempty"`
}

// Node is one catalog tree node. Exactly one of Children, Papers or Paper
// is populated, according to Kind.
type Node struct {
	Kind     Kind
	Children []Child
	Papers   []Paper
	Paper    *Paper
}

// Child preserves mapping insertion order, which Go maps would lose.
type Child struct {
	Key  string
	Node *Node
}

// Child returns the named child of an internal node, or nil.
func (n *Node) Child(key string) *Node {
	if n.Kind != KindInternal {
		return nil
	}
	for i := range n.Children {
		if n.Children[i].Key == key {
			return n.Children[i].Node
		}
	}
	return nil
}

// Keys returns the child keys of an internal node in insertion order.
func (n *Node) Keys() []string {
	keys := make([]string, 0, len(n.Children))
	for i := range n.Children {
		keys = append(keys, n.Children[i].Key)
	}
	return keys
}

// Catalog is the immutable paper tree, loaded once at startup. The two
// top-level keys are the exam boards.
type Catalog struct {
	Root *Node
}

// Load reads and parses the bundled catalog artifact.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog artifact: %w", err)
	}
	return Parse(data)
}

// Parse builds a Catalog from YAML bytes, classifying every node into the
// tagged union and validating keys at load time so the path codec never
// has to escape anything.
func Parse(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog artifact: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("catalog artifact: expected a single YAML document")
	}
	root, err := buildNode(doc.Content[0], "")
	if err != nil {
		return nil, err
	}
	if root.Kind != KindInternal {
		return nil, fmt.Errorf("catalog artifact: root must be a mapping of exam boards")
	}
	return &Catalog{Root: root}, nil
}

// paperFields is the full set of keys a leaf descriptor may carry.
var paperFields = map[string]bool{"name": true, "qp": true, "ms": true, "sp": true, "in": true}

func buildNode(n *yaml.Node, at string) (*Node, error) {
	switch n.Kind {
	case yaml.MappingNode:
		if isPaperMapping(n) {
			p, err := decodePaper(n, at)
			if err != nil {
				return nil, err
			}
			return &Node{Kind: KindPaperLeaf, Paper: p}, nil
		}
		node := &Node{Kind: KindInternal}
		seen := map[string]bool{}
		for i := 0; i < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			key := keyNode.Value
			if err := validateKey(key, at); err != nil {
				return nil, err
			}
			if seen[key] {
				return nil, fmt.Errorf("catalog artifact: duplicate key %q under %q", key, at)
			}
			seen[key] = true
			child, err := buildNode(valNode, joinAt(at, key))
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, Child{Key: key, Node: child})
		}
		return node, nil
	case yaml.SequenceNode:
		node := &Node{Kind: KindPaperList}
		for _, item := range n.Content {
			if item.Kind != yaml.MappingNode || !isPaperMapping(item) {
				return nil, fmt.Errorf("catalog artifact: list under %q must contain only paper descriptors", at)
			}
			p, err := decodePaper(item, at)
			if err != nil {
				return nil, err
			}
			node.Papers = append(node.Papers, *p)
		}
		return node, nil
	default:
		return nil, fmt.Errorf("catalog artifact: unexpected scalar node under %q", at)
	}
}

// isPaperMapping reports whether a mapping is a leaf descriptor: it has a
// "name" key and nothing outside the descriptor field set. A mapping that
// mixes descriptor fields with children is rejected by buildNode because
// the extra keys make this return false and validateKey/classification
// then fails on the scalar "name" value.
func isPaperMapping(n *yaml.Node) bool {
	hasName := false
	for i := 0; i < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if !paperFields[key] {
			return false
		}
		if key == "name" {
			hasName = true
		}
	}
	return hasName
}

func decodePaper(n *yaml.Node, at string) (*Paper, error) {
	var p Paper
	if err := n.Decode(&p); err != nil {
		return nil, fmt.Errorf("catalog artifact: bad paper descriptor under %q: %w", at, err)
	}
	if err := validateKey(p.Name, at); err != nil {
		return nil, err
	}
	return &p, nil
}

func validateKey(key, at string) error {
	if key == "" {
		return fmt.Errorf("catalog artifact: empty key under %q", at)
	}
	if strings.Contains(key, Separator) {
		return fmt.Errorf("catalog artifact: key %q under %q contains the path separator", key, at)
	}
	return nil
}

func joinAt(at, key string) string {
	if at == "" {
		return key
	}
	return at + Separator + key
}

// Walk visits every reachable paper depth-first in insertion order. The
// breadcrumb slice passed to fn is reused between calls; copy it if kept.
func (c *Catalog) Walk(fn func(breadcrumbs []string, p *Paper)) {
	walk(c.Root, nil, fn)
}

func walk(n *Node, crumbs []string, fn func([]string, *Paper)) {
	switch n.Kind {
	case KindInternal:
		for i := range n.Children {
			walk(n.Children[i].Node, append(crumbs, n.Children[i].Key), fn)
		}
	case KindPaperList:
		for i := range n.Papers {
			fn(append(crumbs, n.Papers[i].Name), &n.Papers[i])
		}
	case KindPaperLeaf:
		fn(crumbs, n.Paper)
	}
}
