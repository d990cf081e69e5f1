package genesets

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"goenrich/ports"
)

// GMTFile reads gene-set collections from the tab-separated GMT exchange
// format: one set per line, set name, description, then member identifiers.
type GMTFile struct {
	path string
}

// NewGMTFile creates a gene-set source backed by a GMT file.
func NewGMTFile(path string) *GMTFile {
	return &GMTFile{path: path}
}

var _ ports.GeneSetSource = (*GMTFile)(nil)

// Sets parses the file into a set-name -> members mapping. Blank lines are
// skipped; a line without at least a name, description and one member, or
// a repeated set name, is a format error.
func (g *GMTFile) Sets(ctx context.Context) (map[string][]string, error) {
	f, err := os.Open(g.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open gene-set file: %w", err)
	}
	defer f.Close()

	sets := make(map[string][]string)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, fmt.Errorf("%s:%d: expected name, description and members", g.path, lineNo)
		}
		name := fields[0]
		if name == "" {
			return nil, fmt.Errorf("%s:%d: empty set name", g.path, lineNo)
		}
		if _, dup := sets[name]; dup {
			return nil, fmt.Errorf("%s:%d: duplicate set name %q", g.path, lineNo, name)
		}

		members := make([]string, 0, len(fields)-2)
		for _, member := range fields[2:] {
			if member != "" {
				members = append(members, member)
			}
		}
		sets[name] = members
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read gene-set file: %w", err)
	}

	return sets, nil
}
