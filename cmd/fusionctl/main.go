// Command fusionctl gates CI against unreviewed capability drift: it
// writes the mcp-fusion.lock capability lockfile from the server's current
// tool set, checks a checked-in lockfile against that current set, and
// prints the structural deltas between two lockfile snapshots.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vinkius-labs/mcp-fusion/internal/demo"
	"github.com/vinkius-labs/mcp-fusion/internal/fusion"
	"github.com/vinkius-labs/mcp-fusion/internal/introspect"
	"github.com/vinkius-labs/mcp-fusion/internal/sandbox"
)

// Version is set via ldflags at build time.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "lock":
		err = runLock(os.Args[2:])
	case "check":
		err = runCheck(os.Args[2:])
	case "diff":
		err = runDiff(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "fusionctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: fusionctl <lock|check|diff> [flags]

  lock  -o mcp-fusion.lock           write the lockfile for the current tool set
  check -lockfile mcp-fusion.lock    exit non-zero if the lockfile is out of date
  diff  -prev a.lock -cur b.lock     print structural deltas between two lockfiles`)
}

// currentContracts builds the same demo tool fleet cmd/fusiond registers
// and derives a Contract for each. A real deployment would point this at
// its own registry construction instead.
func currentContracts() (map[string]introspect.Contract, error) {
	registry := fusion.NewRegistry(nil)
	engine := sandbox.NewEngine(sandbox.Config{})
	defer engine.Dispose()

	builders := []*fusion.Builder{
		demo.NewUsersTool(),
		demo.NewBillingTool(),
		demo.NewSandboxTool(engine),
	}
	for _, b := range builders {
		if err := registry.Register(b); err != nil {
			return nil, fmt.Errorf("registering tool: %w", err)
		}
	}

	contracts := make(map[string]introspect.Contract)
	for _, t := range registry.Tools() {
		contracts[t.Definition.Name] = introspect.Derive(t, nil)
	}
	return contracts, nil
}

func runLock(args []string) error {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	out := fs.String("o", "mcp-fusion.lock", "output lockfile path")
	serverName := fs.String("server", "mcp-fusion", "server name recorded in the lockfile")
	fs.Parse(args)

	contracts, err := currentContracts()
	if err != nil {
		return err
	}

	lock := introspect.Generate(*serverName, Version, time.Now().UTC().Format(time.RFC3339), contracts)
	data, err := introspect.Serialize(lock)
	if err != nil {
		return fmt.Errorf("serializing lockfile: %w", err)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}
	fmt.Printf("wrote %s (%d tools)\n", *out, len(contracts))
	return nil
}

func runCheck(args []string) error {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	lockPath := fs.String("lockfile", "mcp-fusion.lock", "lockfile to check against")
	fs.Parse(args)

	data, err := os.ReadFile(*lockPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *lockPath, err)
	}
	lock, err := introspect.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", *lockPath, err)
	}

	contracts, err := currentContracts()
	if err != nil {
		return err
	}

	result := introspect.Check(lock, contracts)
	fmt.Println(result.Message)
	if !result.OK {
		if len(result.Added) > 0 {
			fmt.Println("  added:", result.Added)
		}
		if len(result.Removed) > 0 {
			fmt.Println("  removed:", result.Removed)
		}
		if len(result.Changed) > 0 {
			fmt.Println("  changed:", result.Changed)
		}
		return fmt.Errorf("fusion lock check failed")
	}
	return nil
}

func runDiff(args []string) error {
	fs := flag.NewFlagSet("diff", flag.ExitOnError)
	prevPath := fs.String("prev", "", "previous lockfile path")
	curPath := fs.String("cur", "", "current lockfile path")
	fs.Parse(args)

	if *prevPath == "" || *curPath == "" {
		return fmt.Errorf("both -prev and -cur are required")
	}

	prevLock, err := readLockfile(*prevPath)
	if err != nil {
		return err
	}
	curLock, err := readLockfile(*curPath)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for name, curSummary := range curLock.Capabilities.Tools {
		prevSummary, existed := prevLock.Capabilities.Tools[name]
		if !existed {
			fmt.Printf("%s: ADDED\n", name)
			continue
		}
		deltas := introspect.Diff(prevSummary.Contract, curSummary.Contract)
		if len(deltas) == 0 {
			continue
		}
		fmt.Printf("%s:\n", name)
		_ = enc.Encode(deltas)
	}
	for name := range prevLock.Capabilities.Tools {
		if _, ok := curLock.Capabilities.Tools[name]; !ok {
			fmt.Printf("%s: REMOVED\n", name)
		}
	}
	return nil
}

func readLockfile(path string) (introspect.Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return introspect.Lockfile{}, fmt.Errorf("reading %s: %w", path, err)
	}
	lock, err := introspect.Parse(data)
	if err != nil {
		return introspect.Lockfile{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	return lock, nil
}
