package manifest

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// FileManifest reads entries from a .json array or .jsonl file.
type FileManifest struct {
	Path     string
	NameHint string
}

func NewFileManifest(path string) *FileManifest {
	return &FileManifest{Path: path}
}

func (m *FileManifest) Name() string {
	if m.NameHint != "" {
		return m.NameHint
	}
	return filepath.Base(m.Path)
}

func (m *FileManifest) Len(ctx context.Context) (int, error) {
	format, err := detectFormat(m.Path)
	if err != nil {
		return 0, err
	}

	switch format {
	case "json":
		entries, err := loadJSONEntries(m.Path)
		if err != nil {
			return 0, err
		}
		return len(entries), nil
	case "jsonl":
		return countJSONLLines(ctx, m.Path)
	default:
		return 0, errors.New("manifest: unsupported format")
	}
}

func (m *FileManifest) Entries(ctx context.Context) (<-chan Entry, <-chan error) {
	entryCh := make(chan Entry)
	errCh := make(chan error, 1)

	go func() {
		defer close(entryCh)
		defer close(errCh)

		format, err := detectFormat(m.Path)
		if err != nil {
			errCh <- err
			return
		}

		switch format {
		case "json":
			entries, err := loadJSONEntries(m.Path)
			if err != nil {
				errCh <- err
				return
			}
			for _, entry := range entries {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case entryCh <- entry:
				}
			}
		case "jsonl":
			if err := streamJSONL(ctx, m.Path, entryCh); err != nil {
				errCh <- err
			}
		default:
			errCh <- errors.New("manifest: unsupported format")
		}
	}()

	return entryCh, errCh
}

func detectFormat(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".jsonl":
		return "jsonl", nil
	case ".json":
		return "json", nil
	}

	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	for {
		b, err := reader.ReadByte()
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(string(b)) == "" {
			continue
		}
		if b == '[' {
			return "json", nil
		}
		if b == '{' {
			return "jsonl", nil
		}
		return "", errors.New("manifest: unsupported format")
	}
}

func loadJSONEntries(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entries []Entry
	if err := json.NewDecoder(file).Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func streamJSONL(ctx context.Context, path string, out chan<- Entry) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case out <- entry:
		}
	}
	return scanner.Err()
}

func countJSONLLines(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 1024*1024)
	scanner.Buffer(buf, 1024*1024)

	count := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if len(strings.TrimSpace(scanner.Text())) == 0 {
			continue
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, err
	}
	return count, nil
}
