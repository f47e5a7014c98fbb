package catalog

import (
	"bytes"
	"encoding/json"
	"sort"
)

// MarshalJSON renders the tagged union in the shape clients expect: an
// internal node becomes an object with keys in child order, a paper list
// an array, and a leaf the descriptor object itself.
func (n *Node) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case KindPaperLeaf:
		return json.Marshal(n.Paper)
	case KindPaperList:
		return json.Marshal(n.Papers)
	default:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i := range n.Children {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Children[i].Key)
			if err != nil {
				return nil, err
			}
			buf.Write(key)
			buf.WriteByte(':')
			val, err := json.Marshal(n.Children[i].Node)
			if err != nil {
				return nil, err
			}
			buf.Write(val)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
}

// RenderView returns a copy of the tree with 4-digit year keys re-sorted
// descending (most recent first) at every level. Non-year keys keep their
// insertion-order positions; the sort happens at render time only, the
// filtered and unfiltered trees themselves are never reordered.
func RenderView(n *Node) *Node {
	if n == nil || n.Kind != KindInternal {
		return n
	}
	out := &Node{Kind: KindInternal, Children: make([]Child, len(n.Children))}
	copy(out.Children, n.Children)

	var yearIdx []int
	for i := range out.Children {
		if isYearSegment(out.Children[i].Key) {
			yearIdx = append(yearIdx, i)
		}
	}
	if len(yearIdx) > 1 {
		years := make([]Child, len(yearIdx))
		for i, idx := range yearIdx {
			years[i] = out.Children[idx]
		}
		sort.SliceStable(years, func(a, b int) bool { return years[a].Key > years[b].Key })
		for i, idx := range yearIdx {
			out.Children[idx] = years[i]
		}
	}
	for i := range out.Children {
		out.Children[i].Node = RenderView(out.Children[i].Node)
	}
	return out
}
