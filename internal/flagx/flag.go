// Package flagx holds helpers for layered configuration: picking the flags a
// component owns out of os.Args, locating the JSON config file, and
// overlaying values from JSON and the environment.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps only allowedFlags (and their values) from args. Both
// "-f value" and "-f=value" forms are recognized; a following argument that
// starts with "-" is not taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, found := strings.Cut(arg, "="); found && strings.HasPrefix(arg, "-") {
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; !ok {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// JsonConfigFlags returns the -c/-config value, or "" when absent.
func JsonConfigFlags() string {
	var config string

	args := FilterArgs(os.Args[1:], []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(args)

	return config
}

// SetIfNotEmpty assigns v to *dst unless v is empty.
func SetIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// FromEnv assigns the value of the environment variable key to *dst when
// it is set and non-empty.
func FromEnv(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		SetIfNotEmpty(dst, v)
	}
}
