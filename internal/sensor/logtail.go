package sensor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

// DefaultTailLines is how many log lines a snapshot carries.
const DefaultTailLines = 50

// maxLogLineBytes caps a single kept line; the rest of a longer line is
// dropped.
const maxLogLineBytes = 1 << 20

// TailLog returns the last maxLines non-empty lines of the file at path,
// oldest first. If the file can't be read it returns a single line
// describing the problem together with the error, so callers that only
// display lines still show something useful.
func TailLog(path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		return []string{}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return unreadable(path), fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	lines := make([]string, 0, maxLines)
	r := bufio.NewReaderSize(f, 64*1024)
	for {
		line, err := readLine(r, maxLogLineBytes)
		if line != "" {
			lines = append(lines, line)
			// compact occasionally instead of shifting on every line
			if len(lines) >= 2*maxLines {
				lines = append(lines[:0], lines[len(lines)-maxLines:]...)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return unreadable(path), fmt.Errorf("read %s: %w", path, err)
		}
	}

	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	return lines, nil
}

func unreadable(path string) []string {
	return []string{fmt.Sprintf("Log file '%s' is not readable. Check permissions.", path)}
}

// readLine returns the next line without its terminator, keeping at most
// limit bytes of it. At the end of input it returns io.EOF together with
// any unterminated last line.
func readLine(r *bufio.Reader, limit int) (string, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := r.ReadLine()
		if err != nil {
			return string(buf), err
		}
		if room := limit - len(buf); room > 0 {
			buf = append(buf, chunk[:min(len(chunk), room)]...)
		}
		if !isPrefix {
			return string(buf), nil
		}
	}
}
