package catalog

import (
	"errors"
	"strings"
)

// Separator joins path segments. Keys are validated at load time to never
// contain it, so encoding needs no escaping.
const Separator = "/"

// ErrNotFound is returned when a path does not resolve to a paper.
var ErrNotFound = errors.New("catalog: path not found")

// Location is a resolved catalog position: the paper plus the breadcrumb
// trail of keys from the root down to it.
type Location struct {
	Paper       *Paper
	Breadcrumbs []string
}

// EncodePath joins breadcrumbs into the flat path identifier used for
// bookmarks, deep links and goal storage.
func EncodePath(breadcrumbs []string) string {
	return strings.Join(breadcrumbs, Separator)
}

// NormalizePath strips leading and trailing separators and collapses
// repeated ones, so "/IAL//Mathematics/" and "IAL/Mathematics" are the
// same key for duplicate detection and mock matching.
func NormalizePath(path string) string {
	parts := strings.Split(path, Separator)
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return strings.Join(segs, Separator)
}

// DecodePath walks the catalog one segment at a time. It resolves both
// leaf forms: a mapping key whose value is a paper descriptor, and a list
// entry matched by its name against the final segment.
func (c *Catalog) DecodePath(path string) (*Location, error) {
	norm := NormalizePath(path)
	if norm == "" {
		return nil, ErrNotFound
	}
	segs := strings.Split(norm, Separator)
	n := c.Root
	for i, seg := range segs {
		last := i == len(segs)-1
		switch n.Kind {
		case KindInternal:
			child := n.Child(seg)
			if child == nil {
				return nil, ErrNotFound
			}
			if last {
				if child.Kind != KindPaperLeaf {
					return nil, ErrNotFound
				}
				return &Location{Paper: child.Paper, Breadcrumbs: segs}, nil
			}
			n = child
		case KindPaperList:
			if !last {
				return nil, ErrNotFound
			}
			for j := range n.Papers {
				if n.Papers[j].Name == seg {
					return &Location{Paper: &n.Papers[j], Breadcrumbs: segs}, nil
				}
			}
			return nil, ErrNotFound
		default:
			return nil, ErrNotFound
		}
	}
	return nil, ErrNotFound
}

// PaperMeta is the denormalized position of a paper, stored on goal and
// mock records so they can be listed without re-walking the catalog.
type PaperMeta struct {
	ExamBoard string
	Subject   string
	Year      string
	Session   string
	PaperCode string
}

// Meta derives board/subject/year/session from the breadcrumb trail. The
// first segment is always the exam board and the second the subject; the
// year is the first all-digit segment and the session the one after it.
func (l *Location) Meta() PaperMeta {
	m := PaperMeta{PaperCode: l.Paper.Name}
	b := l.Breadcrumbs
	if len(b) > 0 {
		m.ExamBoard = b[0]
	}
	if len(b) > 1 {
		m.Subject = b[1]
	}
	for i := 2; i < len(b); i++ {
		if isYearSegment(b[i]) {
			m.Year = b[i]
			// The session folder sits between the year and the paper itself.
			if i+1 < len(b)-1 {
				m.Session = b[i+1]
			}
			break
		}
	}
	return m
}

func isYearSegment(s string) bool {
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
