package version

// Build metadata, overridden at build time with
// -ldflags "-X github.com/ericogr/pokearena/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = ""
	Dirty   = "false"
)

// String returns the version with the short commit appended when known.
func String() string {
	if Commit == "" || Commit == "none" {
		return Version
	}
	c := Commit
	if len(c) > 7 {
		c = c[:7]
	}
	s := Version + "+" + c
	if Dirty == "true" {
		s += ".dirty"
	}
	return s
}
