// Command elmlsd is a thin demonstration entrypoint over package workspace.
// It loads a workspace root given on the command line, prints a summary of
// what the forest found, and exits -- it is not an editor server. A real
// host wires package workspace's Handle behind an RPC loop built on
// github.com/sourcegraph/jsonrpc2 and github.com/sourcegraph/go-lsp's
// request/response types (out of scope here per spec.md §1's exclusion of
// the transport itself); this command exists to exercise loadWorkspace end
// to end the way `dep status` exercises the teacher's solver end to end.
//
// Grounded on the teacher's main.go/cmd.go command-dispatch pattern: a
// small command interface, a flag.FlagSet per subcommand, no cobra.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/elmtools/lsp-core/internal/corelog"
	"github.com/elmtools/lsp-core/workspace"
)

type command interface {
	Name() string
	Args() string
	ShortHelp() string
	Register(*flag.FlagSet)
	Run(args []string) error
}

func main() {
	commands := []command{
		&loadCommand{},
		&emptyTypesCommand{},
	}

	usage := func() {
		fmt.Fprintln(os.Stderr, "Usage: elmlsd <command>")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Commands:")
		w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
		for _, c := range commands {
			fmt.Fprintf(w, "\t%s\t%s\n", c.Name(), c.ShortHelp())
		}
		w.Flush()
	}

	if len(os.Args) <= 1 || strings.EqualFold(os.Args[1], "-h") || strings.EqualFold(os.Args[1], "help") {
		usage()
		os.Exit(1)
	}

	for _, c := range commands {
		if c.Name() != os.Args[1] {
			continue
		}
		fs := flag.NewFlagSet(c.Name(), flag.ExitOnError)
		c.Register(fs)
		if err := fs.Parse(os.Args[2:]); err != nil {
			os.Exit(1)
		}
		if err := c.Run(fs.Args()); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "%s: no such command\n", os.Args[1])
	usage()
	os.Exit(1)
}

type loadCommand struct {
	cacheDir string
}

func (c *loadCommand) Name() string      { return "load" }
func (c *loadCommand) Args() string      { return "<root>" }
func (c *loadCommand) ShortHelp() string { return "Load a workspace and print a summary of its forest" }

func (c *loadCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&c.cacheDir, "cache-dir", "", "package cache directory (default: <root>/elm-stuff/cache)")
}

func (c *loadCommand) Run(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("load expects exactly one argument, the workspace root")
	}
	root := args[0]

	cacheDir := c.cacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(root, "elm-stuff", "cache")
	}

	log := corelog.New(os.Stderr)
	h, err := workspace.LoadWorkspace(root, cacheDir, log)
	if err != nil {
		return err
	}
	defer h.Close()

	writeable := h.Forest.AllWriteable()
	all := h.Forest.All()
	fmt.Printf("loaded %s\n", h.Manifest.Name)
	fmt.Printf("  %d writeable files, %d total (including dependencies)\n", len(writeable), len(all))
	fmt.Printf("  %d packages in the solved dependency set\n", len(h.Solution))
	for _, tc := range writeable {
		fmt.Printf("  %s (%s): %d top-level bindings\n", tc.ModuleName, tc.URI, len(tc.TopLevelBindings))
	}
	return nil
}

type emptyTypesCommand struct{}

func (c *emptyTypesCommand) Name() string      { return "empty-types" }
func (c *emptyTypesCommand) Args() string      { return "" }
func (c *emptyTypesCommand) ShortHelp() string { return "Print the grammar-intrinsic type table" }
func (c *emptyTypesCommand) Register(fs *flag.FlagSet) {}

func (c *emptyTypesCommand) Run(args []string) error {
	for _, et := range workspace.GetEmptyTypes() {
		fmt.Printf("%s\n%s\n\n", et.Name, et.Markdown)
	}
	return nil
}
