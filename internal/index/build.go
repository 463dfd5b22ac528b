package index

import (
	"crypto/md5"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// BuildForDirectory walks rootPath and returns an Index with one Entry
// per regular file: its length, modification time, and whole-file MD5
// hash. The chunk list is left empty; chunk locations are populated only
// once a file's content has actually been uploaded.
func BuildForDirectory(rootPath string) (*Index, error) {
	idx := New(time.Now())

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("index: stat %s: %w", path, err)
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			return fmt.Errorf("index: relativize %s: %w", path, err)
		}

		hash, err := hashFile(path)
		if err != nil {
			return fmt.Errorf("index: hash %s: %w", path, err)
		}

		idx.Put(&Entry{
			RelativePath: relPath,
			Length:       uint64(info.Size()),
			ModTime:      info.ModTime(),
			Hash:         hash,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return idx, nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}
