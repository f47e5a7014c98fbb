package catalog

import "strings"

// subjectAliases is the curated table mapping a subject slug to the exact
// catalog names it may appear under. Matching is exact per alias (case
// insensitive), never substring, so "mathematics" does not pull in
// "Further Pure Mathematics".
var subjectAliases = map[string][]string{
	"mathematics":         {"Mathematics", "Maths", "Mathematics A", "Mathematics B"},
	"pure-mathematics":    {"Pure Mathematics"},
	"further-mathematics": {"Further Mathematics", "Further Pure Mathematics"},
	"physics":             {"Physics"},
	"chemistry":           {"Chemistry"},
	"biology":             {"Biology", "Human Biology"},
	"economics":           {"Economics"},
	"business":            {"Business", "Business Studies"},
	"accounting":          {"Accounting"},
	"psychology":          {"Psychology"},
	"geography":           {"Geography"},
	"history":             {"History"},
	"law":                 {"Law"},
	"computer-science":    {"Computer Science"},
	"ict":                 {"ICT", "Information and Communication Technology"},
	"english-language":    {"English Language"},
	"english-literature":  {"English Literature"},
}

// FilterBySubjects returns a pruned view of the catalog keeping only
// subjects matching a preference identifier ("<examBoard>-<subject-slug>",
// lowercase). Exam-board roots are retained whenever they lead to a kept
// subject; everything below a kept subject is shared unchanged. An empty
// preference set disables filtering and returns the original root.
func (c *Catalog) FilterBySubjects(prefs []string) *Node {
	if len(prefs) == 0 {
		return c.Root
	}
	root := &Node{Kind: KindInternal}
	for _, board := range c.Root.Children {
		if board.Node.Kind != KindInternal {
			continue
		}
		kept := &Node{Kind: KindInternal}
		for _, subject := range board.Node.Children {
			if subjectMatchesAny(board.Key, subject.Key, prefs) {
				kept.Children = append(kept.Children, subject)
			}
		}
		if len(kept.Children) > 0 {
			root.Children = append(root.Children, Child{Key: board.Key, Node: kept})
		}
	}
	return root
}

// subjectMatchesAny applies the matching policy: a preference only applies
// when its board prefix matches the subject's ancestor exam-board key, and
// the subject name must be an exact entry in the alias table for the
// preference's slug.
func subjectMatchesAny(boardKey, subjectName string, prefs []string) bool {
	for _, pref := range prefs {
		idx := strings.Index(pref, "-")
		if idx <= 0 {
			continue
		}
		board, slug := pref[:idx], pref[idx+1:]
		if !strings.EqualFold(board, boardKey) {
			continue
		}
		for _, alias := range subjectAliases[slug] {
			if strings.EqualFold(alias, subjectName) {
				return true
			}
		}
	}
	return false
}
