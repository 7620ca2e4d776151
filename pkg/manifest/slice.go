package manifest

import "context"

// SliceManifest serves entries from memory.
type SliceManifest struct {
	NameHint string
	Items    []Entry
}

func NewSliceManifest(entries []Entry, name string) *SliceManifest {
	if name == "" {
		name = "memory"
	}
	return &SliceManifest{NameHint: name, Items: entries}
}

func (m *SliceManifest) Name() string {
	return m.NameHint
}

func (m *SliceManifest) Len(ctx context.Context) (int, error) {
	return len(m.Items), nil
}

func (m *SliceManifest) Entries(ctx context.Context) (<-chan Entry, <-chan error) {
	entryCh := make(chan Entry)
	errCh := make(chan error, 1)
	go func() {
		defer close(entryCh)
		defer close(errCh)
		for _, entry := range m.Items {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case entryCh <- entry:
			}
		}
	}()
	return entryCh, errCh
}
