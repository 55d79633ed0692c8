package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// loadURLs reads URLs from path, or from stdin when path is "-".
func loadURLs(path string, stdin io.Reader) ([]string, error) {
	if path == "-" {
		return readURLs(stdin)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return readURLs(f)
}

// readURLs returns one URL per non-blank line. Lines starting with # are
// skipped.
func readURLs(r io.Reader) ([]string, error) {
	var urls []string

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return urls, nil
}
