package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DurationTable maps {examBoard, subject, paperCode} to a timed-session
// length in minutes, with a default for papers without an entry.
type DurationTable struct {
	entries        map[string]int
	defaultMinutes int
}

type durationEntry struct {
	Board   string `yaml:"board"`
	Subject string `yaml:"subject"`
	Paper   string `yaml:"paper"`
	Minutes int    `yaml:"minutes"`
}

type durationsFile struct {
	DefaultMinutes int             `yaml:"default_minutes"`
	Papers         []durationEntry `yaml:"papers"`
}

// LoadDurations reads the static duration table artifact. A missing file
// is not an error; every lookup then falls back to defaultMinutes.
func LoadDurations(path string, defaultMinutes int) (*DurationTable, error) {
	t := &DurationTable{entries: map[string]int{}, defaultMinutes: defaultMinutes}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("reading duration table: %w", err)
	}
	var f durationsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing duration table: %w", err)
	}
	if f.DefaultMinutes > 0 {
		t.defaultMinutes = f.DefaultMinutes
	}
	for _, e := range f.Papers {
		if e.Minutes <= 0 {
			return nil, fmt.Errorf("duration table: non-positive minutes for %s/%s/%s", e.Board, e.Subject, e.Paper)
		}
		t.entries[durationKey(e.Board, e.Subject, e.Paper)] = e.Minutes
	}
	return t, nil
}

// Lookup returns the timer duration for a paper, or the default when no
// entry matches.
func (t *DurationTable) Lookup(board, subject, paperCode string) int {
	if m, ok := t.entries[durationKey(board, subject, paperCode)]; ok {
		return m
	}
	return t.defaultMinutes
}

// DefaultMinutes returns the fallback duration.
func (t *DurationTable) DefaultMinutes() int {
	return t.defaultMinutes
}

func durationKey(board, subject, paperCode string) string {
	return strings.ToLower(board) + "|" + strings.ToLower(subject) + "|" + strings.ToLower(paperCode)
}
