// Package watchlist loads the line-delimited watch and holdings files.
package watchlist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"MA5Sentinel/internal/model"
)

// Lists holds the symbols to monitor.
type Lists struct {
	Watch    []model.Symbol
	Holdings []model.Symbol
}

// Load reads both files. Either failing is fatal to startup.
func Load(watchPath, holdingsPath string) (*Lists, error) {
	watch, err := readFile(watchPath)
	if err != nil {
		return nil, fmt.Errorf("load watch list: %w", err)
	}
	held, err := readFile(holdingsPath)
	if err != nil {
		return nil, fmt.Errorf("load holdings: %w", err)
	}
	return Build(watch, held), nil
}

// Build turns raw codes into symbols. Duplicates collapse to their first occurrence, keeping input order.
func Build(watch, held []string) *Lists {
	l := &Lists{}
	for _, code := range dedup(watch) {
		l.Watch = append(l.Watch, model.Symbol{Code: code})
	}
	for _, code := range dedup(held) {
		l.Holdings = append(l.Holdings, model.Symbol{Code: code, Held: true})
	}
	return l
}

func readFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse returns one code per non-blank line. Lines starting with # are comments.
func Parse(r io.Reader) ([]string, error) {
	var codes []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		codes = append(codes, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return codes, nil
}

func dedup(codes []string) []string {
	seen := make(map[string]bool, len(codes))
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
