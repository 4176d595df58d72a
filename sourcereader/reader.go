// Package sourcereader implements component C4: locate, read, and watch a
// workspace's project source files and the source of each solved
// dependency, delivering (uri, bytes, writeable) tuples to the forest.
//
// Grounded on pkgtree.go's ListPackages, which walks a file tree skipping
// vendor/dot directories and classifying what it finds -- the same shape
// this package needs for enumerating source directories, adapted to use
// karrick/godirwalk (already present in the teacher's vendor tree) instead
// of the stdlib's filepath.Walk.
package sourcereader

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"github.com/pkg/errors"

	"github.com/elmtools/lsp-core/coreerr"
)

// fileExtension is the suffix a source file must carry to be ingested.
const fileExtension = ".elm"

// File is one (uri, bytes, writeable) tuple delivered to the forest
// (spec.md §4.4).
type File struct {
	URI       string
	Bytes     []byte
	Writeable bool
}

// skipDirNames mirrors pkgtree.go's "vendor, Godeps, dot-dirs" skip list,
// generalized to this language's dependency-cache directory name.
var skipDirNames = map[string]bool{
	"elm-stuff": true,
	".git":      true,
}

func shouldSkipDir(name string) bool {
	if skipDirNames[name] {
		return true
	}
	return strings.HasPrefix(name, ".")
}

// EnumerateDirs walks every directory in dirs (each resolved relative to
// root) and returns one File per source file found, each tagged with the
// given writeable flag.
// A missing directory is a ProjectMisconfigured error (spec.md §4.4); a
// per-file read error is returned alongside the files successfully read,
// so the caller can log it and exclude just that file rather than
// aborting the whole enumeration.
func EnumerateDirs(root string, dirs []string, writeable bool) ([]File, []error, error) {
	var files []File
	var readErrs []error

	for _, dir := range dirs {
		abs := filepath.Join(root, dir)
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			return nil, nil, coreerr.Wrap(coreerr.KindProjectMisconfigured, err, "source directory "+abs+" does not exist")
		}

		walkErr := godirwalk.Walk(abs, &godirwalk.Options{
			Callback: func(path string, de *godirwalk.Dirent) error {
				if de.IsDir() {
					if path != abs && shouldSkipDir(de.Name()) {
						return filepath.SkipDir
					}
					return nil
				}
				if !strings.HasSuffix(path, fileExtension) {
					return nil
				}
				bytes, readErr := os.ReadFile(path)
				if readErr != nil {
					readErrs = append(readErrs, errors.Wrapf(readErr, "reading %s", path))
					return nil
				}
				files = append(files, File{URI: toURI(path), Bytes: bytes, Writeable: writeable})
				return nil
			},
			Unsorted: false,
		})
		if walkErr != nil {
			return nil, nil, coreerr.Wrap(coreerr.KindIoError, walkErr, "walking "+abs)
		}
	}

	return files, readErrs, nil
}

// toURI converts an absolute filesystem path to the opaque File URI form
// spec.md §3 names; this package's one degree of freedom in the format is
// kept simple (file:// + the absolute path) since no client-facing URI
// scheme is specified.
func toURI(path string) string {
	return "file://" + filepath.ToSlash(path)
}

// FromURI reverses toURI for callers that need the filesystem path back
// (e.g. to re-stat a file after a watch event).
func FromURI(uri string) string {
	return filepath.FromSlash(strings.TrimPrefix(uri, "file://"))
}
