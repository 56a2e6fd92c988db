package classifier

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed labels.txt
var defaultLabels string

// DefaultLabels returns the built-in result label list.
func DefaultLabels() []string {
	labels, _ := ReadLabels(strings.NewReader(defaultLabels))
	return labels
}

// ReadLabels reads one label per line. Blank lines and lines starting with
// '#' are skipped; line order defines the class index.
func ReadLabels(r io.Reader) ([]string, error) {
	var labels []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		labels = append(labels, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("classifier: read labels: %w", err)
	}
	return labels, nil
}

// LoadLabels reads a label file from disk. An empty path yields DefaultLabels.
func LoadLabels(path string) ([]string, error) {
	if path == "" {
		return DefaultLabels(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("classifier: open labels %s: %w", path, err)
	}
	defer f.Close()
	return ReadLabels(f)
}
