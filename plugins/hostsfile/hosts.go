package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const (
	sectionBegin = "# BEGIN focuslock"
	sectionEnd   = "# END focuslock"
	sinkAddress  = "0.0.0.0"
	idMarker     = "# focuslock:"
)

// hostsFile edits a marked section of a hosts file. Lines outside the
// section are preserved byte for byte.
type hostsFile struct {
	path string
}

type hostsEntry struct {
	id     int
	domain string
}

func (h hostsFile) read() (before, after []string, entries map[int]string, err error) {
	entries = map[int]string{}
	file, err := os.Open(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, entries, nil
		}
		return nil, nil, nil, fmt.Errorf("open hosts file: %w", err)
	}
	defer file.Close()

	inSection, seenSection := false, false
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.TrimSpace(line) == sectionBegin:
			inSection, seenSection = true, true
		case strings.TrimSpace(line) == sectionEnd:
			inSection = false
		case inSection:
			if entry, ok := parseEntry(line); ok {
				entries[entry.id] = entry.domain
			}
		case seenSection:
			after = append(after, line)
		default:
			before = append(before, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("scan hosts file: %w", err)
	}
	return before, after, entries, nil
}

// apply removes and adds entries by rule id and rewrites the section.
func (h hostsFile) apply(removeIDs []int, add []hostsEntry) (int, error) {
	before, after, entries, err := h.read()
	if err != nil {
		return 0, err
	}
	for _, id := range removeIDs {
		delete(entries, id)
	}
	for _, entry := range add {
		if _, exists := entries[entry.id]; exists {
			return 0, fmt.Errorf("rule id %d already installed", entry.id)
		}
		entries[entry.id] = entry.domain
	}

	ids := make([]int, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	var b strings.Builder
	for _, line := range before {
		b.WriteString(line + "\n")
	}
	if len(ids) > 0 {
		b.WriteString(sectionBegin + "\n")
		for _, id := range ids {
			fmt.Fprintf(&b, "%s %s %s%d\n", sinkAddress, entries[id], idMarker, id)
		}
		b.WriteString(sectionEnd + "\n")
	}
	for _, line := range after {
		b.WriteString(line + "\n")
	}

	tmp, err := os.CreateTemp(filepath.Dir(h.path), ".hosts-*")
	if err != nil {
		return 0, fmt.Errorf("create temp hosts file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.WriteString(b.String()); err != nil {
		_ = tmp.Close()
		return 0, fmt.Errorf("write temp hosts file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp hosts file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return 0, fmt.Errorf("chmod temp hosts file: %w", err)
	}
	if err := os.Rename(tmp.Name(), h.path); err != nil {
		return 0, fmt.Errorf("replace hosts file: %w", err)
	}
	return len(ids), nil
}

func parseEntry(line string) (hostsEntry, bool) {
	idx := strings.Index(line, idMarker)
	if idx < 0 {
		return hostsEntry{}, false
	}
	id, err := strconv.Atoi(strings.TrimSpace(line[idx+len(idMarker):]))
	if err != nil {
		return hostsEntry{}, false
	}
	fields := strings.Fields(line[:idx])
	if len(fields) < 2 {
		return hostsEntry{}, false
	}
	return hostsEntry{id: id, domain: fields[1]}, true
}
