package refdata

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ReadInputScript parses a key-value run script: one "key value…" pair per
// line, '#' starts a comment, blank lines ignored. Values keep their raw
// string form; callers convert as needed.
func ReadInputScript(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("refdata: open input script: %w", err)
	}
	defer f.Close()

	params := make(map[string]string)
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, fmt.Errorf("%w: %s:%d: key %q without value", ErrMalformed, path, line, fields[0])
		}
		params[fields[0]] = strings.Join(fields[1:], " ")
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("refdata: read input script: %w", err)
	}

	return params, nil
}
