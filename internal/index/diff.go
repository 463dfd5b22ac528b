package index

import "bytes"

// Diff is the set of changes between two Index snapshots.
type Diff struct {
	Added    []*Entry
	Deleted  []*Entry
	Modified []*Entry
}

// Empty reports whether the diff carries no changes.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Deleted) == 0 && len(d.Modified) == 0
}

// DiffIndexes computes the difference between local and remote: files
// present only in local are Added, files present only in remote are
// Deleted, and files present in both with a differing hash or length are
// Modified. Path comparison is case-insensitive.
func DiffIndexes(local, remote *Index) Diff {
	var d Diff

	for key, localEntry := range local.entries {
		remoteEntry, ok := remote.entries[key]
		if !ok {
			d.Added = append(d.Added, localEntry.Clone())
			continue
		}
		if localEntry.Length != remoteEntry.Length || !bytes.Equal(localEntry.Hash, remoteEntry.Hash) {
			d.Modified = append(d.Modified, localEntry.Clone())
		}
	}

	for key, remoteEntry := range remote.entries {
		if _, ok := local.entries[key]; !ok {
			d.Deleted = append(d.Deleted, remoteEntry.Clone())
		}
	}

	return d
}
