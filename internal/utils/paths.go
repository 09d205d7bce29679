package utils

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

var percentVar = regexp.MustCompile(`%([^%]+)%`)

// ExpandPath expands environment variables and a leading ~ in p.
// On Windows %VAR% references and a ~\ prefix are also expanded.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}

	p = os.ExpandEnv(p)
	if runtime.GOOS == "windows" {
		p = percentVar.ReplaceAllStringFunc(p, func(ref string) string {
			if v, ok := os.LookupEnv(ref[1 : len(ref)-1]); ok {
				return v
			}
			return ref
		})
	}

	homeRelative := strings.HasPrefix(p, "~/") || (runtime.GOOS == "windows" && strings.HasPrefix(p, `~\`))
	if p != "~" && !homeRelative {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}
