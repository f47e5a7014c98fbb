package catalog

import "strings"

// Match is one search hit: the paper, its encoded path and its breadcrumb
// trail. Results are unordered.
type Match struct {
	Paper       *Paper   `json:"paper"`
	Path        string   `json:"path"`
	Breadcrumbs []string `json:"breadcrumbs"`
}

// sessionAliasGroups holds the canonical alias sets for session keywords.
// Any member of a group stands for the whole group, so "summer", "may" and
// "june" all match a "May-June" folder.
var sessionAliasGroups = [][]string{
	{"summer", "may", "june", "may-june"},
	{"winter", "january", "jan"},
	{"autumn", "fall", "october", "november", "oct", "nov", "oct-nov"},
	{"spring", "february", "march", "feb", "feb-march"},
}

// Search runs the best-effort free-text match over every reachable paper.
// The query is tokenized to pull out an optional 2-4 digit year token and
// an optional session keyword; a paper matches if the raw query is a
// substring of its name or of a breadcrumb segment, or if every detected
// token class (year, session, remaining words) is satisfied by the paper's
// name or breadcrumbs. False positives are acceptable; exact year+code
// queries must not produce false negatives.
func (c *Catalog) Search(query string) []Match {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var yearTok string
	var sessSet []string
	var rest []string
	for _, tok := range strings.Fields(q) {
		if yearTok == "" && isYearToken(tok) {
			yearTok = tok
			continue
		}
		if sessSet == nil {
			if set := sessionSetFor(tok); set != nil {
				sessSet = set
				continue
			}
		}
		rest = append(rest, tok)
	}

	var matches []Match
	c.Walk(func(crumbs []string, p *Paper) {
		if matchPaper(q, yearTok, sessSet, rest, crumbs, p) {
			trail := make([]string, len(crumbs))
			copy(trail, crumbs)
			matches = append(matches, Match{Paper: p, Path: EncodePath(trail), Breadcrumbs: trail})
		}
	})
	return matches
}

func matchPaper(q, yearTok string, sessSet, rest, crumbs []string, p *Paper) bool {
	name := strings.ToLower(p.Name)
	if strings.Contains(name, q) {
		return true
	}
	for _, seg := range crumbs {
		if strings.Contains(strings.ToLower(seg), q) {
			return true
		}
	}
	if yearTok == "" && sessSet == nil {
		return false
	}
	if yearTok != "" && !matchesYear(yearTok, name, crumbs) {
		return false
	}
	if sessSet != nil && !matchesSession(sessSet, crumbs) {
		return false
	}
	for _, tok := range rest {
		if !matchesToken(tok, name, crumbs) {
			return false
		}
	}
	return true
}

// matchesYear accepts the year token as a substring of a year-like digit
// run inside the paper's own name, or of any breadcrumb segment.
func matchesYear(yearTok, name string, crumbs []string) bool {
	for _, run := range digitRuns(name) {
		if strings.Contains(run, yearTok) {
			return true
		}
	}
	for _, seg := range crumbs {
		if strings.Contains(strings.ToLower(seg), yearTok) {
			return true
		}
	}
	return false
}

func matchesSession(sessSet []string, crumbs []string) bool {
	for _, seg := range crumbs {
		low := strings.ToLower(seg)
		for _, alias := range sessSet {
			if strings.Contains(low, alias) {
				return true
			}
		}
	}
	return false
}

// matchesToken checks a leftover query word against the paper name, the
// breadcrumb segments, and the subject alias table (so "maths" reaches a
// "Mathematics" folder).
func matchesToken(tok, name string, crumbs []string) bool {
	if strings.Contains(name, tok) {
		return true
	}
	for _, seg := range crumbs {
		if strings.Contains(strings.ToLower(seg), tok) {
			return true
		}
	}
	for _, alias := range aliasGroupFor(tok) {
		for _, seg := range crumbs {
			if strings.EqualFold(seg, alias) {
				return true
			}
		}
	}
	return false
}

// aliasGroupFor resolves a token to a subject alias group, either by slug
// key or by matching one of the group's names.
func aliasGroupFor(tok string) []string {
	if names, ok := subjectAliases[tok]; ok {
		return names
	}
	for _, names := range subjectAliases {
		for _, alias := range names {
			if strings.EqualFold(alias, tok) {
				return names
			}
		}
	}
	return nil
}

func sessionSetFor(tok string) []string {
	for _, group := range sessionAliasGroups {
		for _, alias := range group {
			if alias == tok {
				return group
			}
		}
	}
	return nil
}

func isYearToken(tok string) bool {
	if len(tok) < 2 || len(tok) > 4 {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// digitRuns extracts maximal digit substrings of plausible year length
// (2-4 digits) from a paper name.
func digitRuns(s string) []string {
	var runs []string
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			if n := i - start; n >= 2 && n <= 4 {
				runs = append(runs, s[start:i])
			}
			start = -1
		}
	}
	if start >= 0 {
		if n := len(s) - start; n >= 2 && n <= 4 {
			runs = append(runs, s[start:])
		}
	}
	return runs
}
