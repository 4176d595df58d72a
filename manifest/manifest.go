// Package manifest parses the root manifest format named in spec.md §6:
// a structured document naming the package, declaring source directories,
// and listing direct dependencies with constraints of the form
// "LOWER OP v OP UPPER".
//
// Parsing is done with github.com/pelletier/go-toml, the same library the
// teacher repository uses to read Gopkg.toml, here through its plain
// Decoder rather than the teacher's query-based style.
package manifest

import (
	"io"
	"os"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"

	"github.com/elmtools/lsp-core/coreerr"
	"github.com/elmtools/lsp-core/semver"
)

// Kind distinguishes the two manifest shapes elm-style ML package managers
// support (a supplement from original_source/ per SPEC_FULL.md): an
// Application and a Package. Both list their dependencies in the same
// "LOWER OP v OP UPPER" range form; Read does not require an Application's
// ranges to pin a single version and reads no separate indirect or test
// dependency lists. Only a Package keeps its exposed-modules list.
type Kind string

const (
	// KindApplication is an application manifest; it exposes no modules.
	KindApplication Kind = "application"
	// KindPackage declares ranges and an exposed-modules surface.
	KindPackage Kind = "package"
)

// Manifest is the parsed root manifest.
type Manifest struct {
	Name       string
	Kind       Kind
	SourceDirs []string
	// Exposed lists the modules a Package manifest exposes to consumers.
	// Always empty for an Application manifest.
	Exposed []string
	// Dependencies is the normalized root dependency map the solver (§4.3)
	// consumes, regardless of which Kind produced it.
	Dependencies map[string]semver.Constraint
}

// rawManifest is the TOML wire shape.
type rawManifest struct {
	Name         string            `toml:"name"`
	Kind         string            `toml:"type"`
	SourceDirs   []string          `toml:"source-directories"`
	Exposed      []string          `toml:"exposed-modules"`
	Dependencies map[string]string `toml:"dependencies"`
}

// Load reads and parses the manifest file at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, coreerr.Wrap(coreerr.KindProjectMisconfigured, err, "opening manifest "+path)
	}
	defer f.Close()
	return Read(f)
}

// Read parses a manifest from r.
func Read(r io.Reader) (*Manifest, error) {
	var raw rawManifest
	dec := toml.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return nil, coreerr.Wrap(coreerr.KindProjectMisconfigured, err, "parsing manifest")
	}

	m := &Manifest{
		Name:         raw.Name,
		SourceDirs:   raw.SourceDirs,
		Exposed:      raw.Exposed,
		Dependencies: make(map[string]semver.Constraint, len(raw.Dependencies)),
	}

	switch raw.Kind {
	case "", string(KindApplication):
		m.Kind = KindApplication
		m.Exposed = nil
	case string(KindPackage):
		m.Kind = KindPackage
	default:
		return nil, coreerr.New(coreerr.KindProjectMisconfigured, "unknown manifest type "+raw.Kind)
	}

	if m.Name == "" {
		return nil, coreerr.New(coreerr.KindProjectMisconfigured, "manifest is missing a package name")
	}
	if len(m.SourceDirs) == 0 {
		m.SourceDirs = []string{"src"}
	}

	for name, raw := range raw.Dependencies {
		c, err := semver.ParseConstraint(raw)
		if err != nil {
			return nil, coreerr.Wrap(coreerr.KindProjectMisconfigured, err, "dependency constraint for "+name)
		}
		m.Dependencies[name] = c
	}

	return m, nil
}

// Validate re-checks invariants beyond what Read enforces while parsing,
// for manifests constructed programmatically (e.g. in tests).
func Validate(m *Manifest) error {
	if m.Name == "" {
		return errors.New("manifest name must not be empty")
	}
	if len(m.SourceDirs) == 0 {
		return errors.New("manifest must declare at least one source directory")
	}
	return nil
}
