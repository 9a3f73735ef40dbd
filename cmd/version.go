package cmd

import (
	"fmt"
	"io"
	"maps"
	"runtime"
	"runtime/debug"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/huangsam/motionwin/schema"
)

// buildVersion is what the version command reports.
type buildVersion struct {
	Version   string
	Commit    string
	Built     string
	Modified  bool
	Runtime   string
	Platform  string
	Backends  []string
	Analyzers []string
}

// currentVersion combines the linker-set values with the module build info,
// so a `go install` binary still reports its commit.
func currentVersion() buildVersion {
	v := buildVersion{
		Version:   version,
		Commit:    commit,
		Built:     date,
		Runtime:   runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		Backends:  sortedKeys(schema.ValidDatabaseBackends),
		Analyzers: sortedKeys(schema.ValidAnalyzerKinds),
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		v = v.withBuildInfo(info)
	}
	return v
}

func (v buildVersion) withBuildInfo(info *debug.BuildInfo) buildVersion {
	if v.Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		v.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if v.Commit == "none" {
				v.Commit = s.Value
			}
		case "vcs.time":
			if v.Built == "unknown" {
				v.Built = s.Value
			}
		case "vcs.modified":
			v.Modified = s.Value == "true"
		}
	}
	return v
}

func sortedKeys[K ~string](m map[K]struct{}) []string {
	out := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, string(k))
	}
	return out
}

func writeVersion(w io.Writer, v buildVersion) {
	commit := v.Commit
	if v.Modified {
		commit += " (modified)"
	}
	_, _ = fmt.Fprintf(w, "motionwin CLI\n")
	_, _ = fmt.Fprintf(w, "  Version:   %s\n", v.Version)
	_, _ = fmt.Fprintf(w, "  Commit:    %s\n", commit)
	_, _ = fmt.Fprintf(w, "  Built:     %s\n", v.Built)
	_, _ = fmt.Fprintf(w, "  Runtime:   %s (%s)\n", v.Runtime, v.Platform)
	_, _ = fmt.Fprintf(w, "  Stores:    %s\n", strings.Join(v.Backends, ", "))
	_, _ = fmt.Fprintf(w, "  Analyzers: %s\n", strings.Join(v.Analyzers, ", "))
}

// versionCmd shows the verbose version for diagnostic purposes.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of motionwin.",
	Long: `Display version and build details of the motionwin binary.

Commit and build time come from the release flags, or from the Go build
info when the binary was built with plain 'go build' or 'go install'.
The store backends and analyzers compiled into the binary are listed too.`,
	Run: func(cmd *cobra.Command, _ []string) {
		writeVersion(cmd.OutOrStdout(), currentVersion())
	},
}
