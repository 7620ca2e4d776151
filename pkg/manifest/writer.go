package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// WriteJSON writes entries as an indented JSON array, atomically.
func WriteJSON(path string, entries []Entry) error {
	return writeAtomic(path, func(file *os.File) error {
		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		return encoder.Encode(entries)
	})
}

// WriteJSONL writes one JSON object per line, atomically.
func WriteJSONL(path string, entries []Entry) error {
	return writeAtomic(path, func(file *os.File) error {
		encoder := json.NewEncoder(file)
		for _, entry := range entries {
			if err := encoder.Encode(entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "manifest-*")
	if err != nil {
		return err
	}
	if err := write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
