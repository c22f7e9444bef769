package version

import (
	"runtime/debug"
)

// Stamped at build time via -ldflags; see the package documentation.
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Info is the resolved build metadata of the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	Dirty     bool   `json:"dirty,omitempty"`
}

// Get resolves the build metadata. Values stamped via -ldflags win; in
// module builds without stamps, the VCS settings Go embeds fill the gaps.
func Get() *Info {
	info := &Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = shortRev(s.Value)
			}
		case "vcs.time":
			if info.BuildTime == "" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// Short renders the version with an optional commit suffix and a -dirty
// marker for modified trees, e.g. "1.2.0+3f9c1ab" or "dev+3f9c1ab-dirty".
func (i *Info) Short() string {
	out := i.Version
	if i.Commit != "" {
		out += "+" + i.Commit
	}
	if i.Dirty {
		out += "-dirty"
	}
	return out
}

// String renders the full metadata for startup logs.
func (i *Info) String() string {
	out := i.Short()
	if i.BuildTime != "" {
		out += " built " + i.BuildTime
	}
	if i.GoVersion != "" {
		out += " with " + i.GoVersion
	}
	return out
}

func shortRev(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
