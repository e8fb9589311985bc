package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Scratch is the per-batch working directory. Each batch gets its own
// subdirectory so concurrent batches sharing a root never collide.
type Scratch struct {
	Dir string
}

func NewScratch(root string) (*Scratch, error) {
	dir := filepath.Join(root, uuid.NewString())
	if err := os.MkdirAll(dir, 0o0700); nil != err {
		return nil, fmt.Errorf("failed to create scratch directory: %v", err)
	}

	return &Scratch{Dir: dir}, nil
}

// AssetFiles are the working paths of a single asset. Final stays empty until
// the pipeline names the output after its tags.
type AssetFiles struct {
	Dir         string
	Protected   string
	Unprotected string
	Transcoded  string
	Final       string
}

func (s *Scratch) Asset(id string) AssetFiles {
	return AssetFiles{
		Dir:         s.Dir,
		Protected:   filepath.Join(s.Dir, id+"_protected.mp4"),
		Unprotected: filepath.Join(s.Dir, id+"_unprotected.mp4"),
		Transcoded:  filepath.Join(s.Dir, id+"_fixed.mp3"),
		Final:       "",
	}
}

func (f AssetFiles) RemoveIntermediates() error {
	return removeFiles(f.Protected, f.Unprotected, f.Transcoded)
}

// RemoveAll removes the intermediates and the final output, if named.
func (f AssetFiles) RemoveAll() error {
	return removeFiles(f.Protected, f.Unprotected, f.Transcoded, f.Final)
}

func (s *Scratch) Close() error {
	if err := os.RemoveAll(s.Dir); nil != err {
		return fmt.Errorf("failed to remove scratch directory: %v", err)
	}

	return nil
}

func removeFiles(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if p == "" {
			continue
		}

		if err := os.Remove(p); nil != err && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("failed to remove %s: %v", filepath.Base(p), err))
		}
	}

	return errors.Join(errs...)
}
