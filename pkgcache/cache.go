// Package pkgcache implements component C2, the package cache: a pure
// function from package name to its published (version, dependency-map)
// entries, backed by a persistent BoltDB file the way the teacher
// repository's internal/gps/source_cache_bolt.go backs its source cache.
//
// The solver (package solver) treats Cache as read-only and pure; all
// writes happen through Put during cache population, before a workspace
// load begins solving.
package pkgcache

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"github.com/elmtools/lsp-core/coreerr"
	"github.com/elmtools/lsp-core/semver"
)

var releasesBucket = []byte("releases")

// Release is one published version of a package together with the
// constraints it declares on its own dependencies.
type Release struct {
	Version      semver.Version
	Dependencies map[string]semver.Constraint
}

// Cache enumerates available versions of each named package and their
// declared dependency constraints (§4.2). It is backed by a BoltDB file;
// once populated, the solver only ever calls Get.
type Cache struct {
	db *bolt.DB
}

// Open opens (creating if necessary) a BoltDB-backed cache file under dir.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, coreerr.Wrap(coreerr.KindIoError, err, "creating package cache directory")
	}
	path := filepath.Join(dir, "packages.db")
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, coreerr.Wrap(coreerr.KindIoError, err, "opening package cache file "+path)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(releasesBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initializing package cache buckets")
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying BoltDB handle.
func (c *Cache) Close() error {
	return errors.Wrap(c.db.Close(), "closing package cache")
}

// packageBucketKey isolates one package's releases within the shared
// top-level bucket, mirroring the teacher's per-source sub-bucket layout.
func packageBucketKey(name string) []byte {
	return []byte("pkg:" + name)
}

// Put records the full set of known releases for a package, replacing any
// previously stored set. Population is expected to happen once, up front,
// from on-disk package metadata (§4.2's "populated from on-disk metadata").
func (c *Cache) Put(name string, releases []Release) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(releasesBucket)
		buf, err := encodeReleases(releases)
		if err != nil {
			return errors.Wrapf(err, "encoding releases for %s", name)
		}
		return b.Put(packageBucketKey(name), buf)
	})
}

// Get returns every published release of name. Returns a typed
// UnknownPackage error if name has never been Put into the cache.
func (c *Cache) Get(name string) ([]Release, error) {
	var releases []Release
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(releasesBucket)
		raw := b.Get(packageBucketKey(name))
		if raw == nil {
			return coreerr.New(coreerr.KindUnknownPackage, "unknown package "+name)
		}
		decoded, err := decodeReleases(raw)
		if err != nil {
			return errors.Wrapf(err, "decoding releases for %s", name)
		}
		releases = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return releases, nil
}

// jsonRelease is the wire shape stored in Bolt; semver.Version/Constraint
// aren't directly JSON-friendly (they carry an unexported original-string
// field), so we round-trip through plain strings.
type jsonRelease struct {
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

func encodeReleases(releases []Release) ([]byte, error) {
	out := make([]jsonRelease, len(releases))
	for i, r := range releases {
		deps := make(map[string]string, len(r.Dependencies))
		for name, c := range r.Dependencies {
			deps[name] = c.String()
		}
		out[i] = jsonRelease{Version: r.Version.String(), Dependencies: deps}
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeReleases(raw []byte) ([]Release, error) {
	var in []jsonRelease
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, err
	}
	out := make([]Release, len(in))
	for i, jr := range in {
		v, err := semver.Parse(jr.Version)
		if err != nil {
			return nil, err
		}
		deps := make(map[string]semver.Constraint, len(jr.Dependencies))
		for name, s := range jr.Dependencies {
			c, err := semver.ParseConstraint(s)
			if err != nil {
				return nil, errors.Wrapf(err, "dependency constraint for %s", name)
			}
			deps[name] = c
		}
		out[i] = Release{Version: v, Dependencies: deps}
	}
	return out, nil
}
