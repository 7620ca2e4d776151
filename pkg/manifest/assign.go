package manifest

import (
	"context"

	"github.com/bogdanteleaga/hear-eval-kit/pkg/split"
)

// AssignPartitions drains a manifest and fills in the partition of every
// entry that does not already carry one. The slug is the hashed identifier,
// so renaming a directory does not reshuffle the split.
func AssignPartitions(ctx context.Context, m Manifest, validationPct, testingPct int) ([]Entry, error) {
	entryCh, errCh := m.Entries(ctx)

	var entries []Entry
	for entry := range entryCh {
		if entry.Slug == "" {
			entry.Slug = Slugify(entry.RelPath)
		}
		if entry.Partition == "" {
			entry.Partition = split.ForIdentifier(entry.Slug, validationPct, testingPct)
		}
		entries = append(entries, entry)
	}
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// ByPartition groups entries under their partition label.
func ByPartition(entries []Entry) map[split.Partition][]Entry {
	grouped := map[split.Partition][]Entry{}
	for _, entry := range entries {
		grouped[entry.Partition] = append(grouped[entry.Partition], entry)
	}
	return grouped
}
