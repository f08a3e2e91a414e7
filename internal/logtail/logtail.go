package logtail

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// Read returns at most maxLines from the end of the file at path, or every
// line when maxLines is zero or negative. Line terminators are stripped. Lines
// of any length are accepted.
func Read(fs afero.Fs, path string, maxLines int) ([]string, error) {
	if maxLines <= 0 {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("read log: %w", err)
		}
		return splitLines(string(data)), nil
	}

	file, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			ring[idx] = trimEOL(line)
			idx = (idx + 1) % maxLines
			if count < maxLines {
				count++
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// splitLines splits text on '\n'. The lines share text's memory.
func splitLines(text string) []string {
	var lines []string
	for text != "" {
		line := text
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line, text = text[:i+1], text[i+1:]
		} else {
			text = ""
		}
		lines = append(lines, trimEOL(line))
	}
	return lines
}

func trimEOL(line string) string {
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r")
}
