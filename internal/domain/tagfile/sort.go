package tagfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// sortFile reorders the written records in place (or onto stdout for
// staged targets). Pseudo-tags sort first by construction of their prefix.
func (s *Session) sortFile() error {
	lines, err := readAllLines(s.name)
	if err != nil {
		return fmt.Errorf("tagfile: cannot sort tag file: %w", err)
	}

	if s.opts.Sort == FoldSorted {
		keys := make([]string, len(lines))
		for i, l := range lines {
			keys[i] = strings.ToLower(l)
		}
		sort.SliceStable(lines, func(i, j int) bool {
			if keys[i] != keys[j] {
				return keys[i] < keys[j]
			}
			return lines[i] < lines[j]
		})
	} else {
		sort.Strings(lines)
	}

	if s.toStdout {
		return writeLines(s.opts.Stdout, lines)
	}
	out, err := os.Create(s.name)
	if err != nil {
		return fmt.Errorf("tagfile: cannot rewrite sorted tag file: %w", err)
	}
	if err := writeLines(out, lines); err != nil {
		out.Close()
		return fmt.Errorf("tagfile: cannot rewrite sorted tag file: %w", err)
	}
	return out.Close()
}

// catFile streams the staging file to stdout unmodified.
func (s *Session) catFile() error {
	f, err := os.Open(s.name)
	if err != nil {
		return fmt.Errorf("tagfile: cannot read staging file: %w", err)
	}
	defer f.Close()
	if err := copyBytes(f, s.opts.Stdout, wholeFile); err != nil {
		return fmt.Errorf("tagfile: cannot copy staged output: %w", err)
	}
	return nil
}

func readAllLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}

func writeLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, l := range lines {
		if _, err := bw.WriteString(l); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
