package buildargs

import (
	"slices"
	"strings"
)

// Invocation is a parsed mvnd command line.
type Invocation struct {
	// Args are forwarded to the daemon, default arguments included.
	Args []string

	// PrintVersion asks for the banner only (-v, -version, --version).
	PrintVersion bool
	// ShowVersion asks for the banner before the build (-V, --show-version).
	ShowVersion bool
	// Debug enables verbose output (-X, --debug).
	Debug bool

	Status bool
	Stop   bool

	LogFile    string
	ConfigPath string
}

// Banner reports whether the version banner should be printed.
func (inv Invocation) Banner() bool {
	return inv.PrintVersion || inv.ShowVersion || inv.Debug
}

// Parse extracts client options from argv. The input slice is not modified.
// Flags that only print information (-v, --status, --stop) and the client
// options (-l, --config) are removed; -V and -X stay in Args so the build sees
// them too.
func Parse(argv []string) Invocation {
	args := slices.Clone(argv)
	var inv Invocation

	args, inv.ConfigPath = extractValue(args, "--config")

	for _, flag := range []string{"-v", "-version", "--version"} {
		var ok bool
		if args, ok = removeFirst(args, flag); ok {
			inv.PrintVersion = true
			break
		}
	}
	inv.ShowVersion = slices.Contains(args, "-V") || slices.Contains(args, "--show-version")
	inv.Debug = slices.Contains(args, "-X") || slices.Contains(args, "--debug")

	args, inv.Status = removeFirst(args, "--status")
	args, inv.Stop = removeFirst(args, "--stop")
	args, inv.LogFile = ExtractLogFile(args)

	inv.Args = ApplyDefaults(args)
	return inv
}

// ExtractLogFile removes the first "-l <path>" or "--log-file <path>" pair and
// returns the remaining arguments and the path. A trailing flag without a
// value is left in place.
func ExtractLogFile(args []string) ([]string, string) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-l" || args[i] == "--log-file" {
			path := args[i+1]
			return slices.Delete(slices.Clone(args), i, i+2), path
		}
	}
	return args, ""
}

// ApplyDefaults appends -T1C unless a thread count is given and -bsmart
// unless a builder is given.
func ApplyDefaults(args []string) []string {
	out := slices.Clone(args)
	if !slices.ContainsFunc(out, func(a string) bool { return strings.HasPrefix(a, "-T") || a == "--threads" }) {
		out = append(out, "-T1C")
	}
	if !slices.ContainsFunc(out, func(a string) bool { return strings.HasPrefix(a, "-b") || a == "--builder" }) {
		out = append(out, "-bsmart")
	}
	return out
}

func removeFirst(args []string, flag string) ([]string, bool) {
	i := slices.Index(args, flag)
	if i < 0 {
		return args, false
	}
	return slices.Delete(args, i, i+1), true
}

// extractValue removes "name value" or "name=value" and returns the value.
func extractValue(args []string, name string) ([]string, string) {
	for i, arg := range args {
		if value, ok := strings.CutPrefix(arg, name+"="); ok {
			return slices.Delete(args, i, i+1), value
		}
		if arg == name && i+1 < len(args) {
			value := args[i+1]
			return slices.Delete(args, i, i+2), value
		}
	}
	return args, ""
}
