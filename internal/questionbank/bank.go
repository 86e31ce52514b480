// Package questionbank serves previous-year questions from JSON files on disk.
// Each file is named after a subject (physics.json) and maps a year to its
// question list. correctAnswer is an index into options.
package questionbank

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

var (
	ErrUnknownSubject = errors.New("no question bank for subject")
	ErrUnknownYear    = errors.New("no questions for year")
)

type Entry struct {
	ID            string
	Question      string
	Options       []string
	CorrectAnswer string
	Topic         string
}

type rawEntry struct {
	ID            json.RawMessage `json:"id"`
	Question      string          `json:"question"`
	Options       []string        `json:"options"`
	CorrectAnswer int             `json:"correctAnswer"`
	Topic         string          `json:"topic"`
}

type Bank struct {
	dir string

	mu       sync.RWMutex
	subjects map[string]map[int][]Entry
}

func New(dir string) *Bank {
	return &Bank{
		dir:      dir,
		subjects: make(map[string]map[int][]Entry),
	}
}

// Years lists the available years for subject, newest first.
func (b *Bank) Years(subject string) ([]int, error) {
	years, err := b.load(subject)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(years))
	for y := range years {
		out = append(out, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out, nil
}

func (b *Bank) Questions(subject string, year int) ([]Entry, error) {
	years, err := b.load(subject)
	if err != nil {
		return nil, err
	}
	entries, ok := years[year]
	if !ok || len(entries) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrUnknownYear, year)
	}
	return append([]Entry(nil), entries...), nil
}

func (b *Bank) load(subject string) (map[int][]Entry, error) {
	key := strings.ToLower(strings.TrimSpace(subject))
	if key == "" || strings.ContainsAny(key, `/\.`) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSubject, subject)
	}

	b.mu.RLock()
	years, ok := b.subjects[key]
	b.mu.RUnlock()
	if ok {
		return years, nil
	}

	raw, err := os.ReadFile(filepath.Join(b.dir, key+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSubject, subject)
		}
		return nil, fmt.Errorf("failed to read question bank: %w", err)
	}
	years, err = parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s question bank: %w", key, err)
	}

	b.mu.Lock()
	b.subjects[key] = years
	b.mu.Unlock()
	return years, nil
}

func parse(raw []byte) (map[int][]Entry, error) {
	var doc map[string][]rawEntry
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	years := make(map[int][]Entry, len(doc))
	for yearKey, list := range doc {
		year, err := strconv.Atoi(yearKey)
		if err != nil {
			return nil, fmt.Errorf("invalid year %q", yearKey)
		}
		entries := make([]Entry, 0, len(list))
		for i, r := range list {
			if r.CorrectAnswer < 0 || r.CorrectAnswer >= len(r.Options) {
				return nil, fmt.Errorf("year %d question %d: correct answer index %d out of range", year, i+1, r.CorrectAnswer)
			}
			id := strings.Trim(strings.TrimSpace(string(r.ID)), `"`)
			if id == "" || id == "null" {
				id = fmt.Sprintf("%d-%d", year, i+1)
			}
			entries = append(entries, Entry{
				ID:            id,
				Question:      r.Question,
				Options:       r.Options,
				CorrectAnswer: r.Options[r.CorrectAnswer],
				Topic:         r.Topic,
			})
		}
		years[year] = entries
	}
	return years, nil
}
