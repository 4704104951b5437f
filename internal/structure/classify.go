package structure

import (
	"os"
	"path/filepath"
	"strings"
)

// vendoredNames are folder names that hold bundled third-party code or
// build output. Matching is case-insensitive.
var vendoredNames = map[string]bool{
	"third_party":         true,
	"third-party":         true,
	"thirdparty":          true,
	"3rdparty":            true,
	"3rd_party":           true,
	"3rd-party":           true,
	"vendor":              true,
	"vendors":             true,
	"external":            true,
	"externals":           true,
	"extern":              true,
	"deps":                true,
	"dependencies":        true,
	"node_modules":        true,
	"submodules":          true,
	"build":               true,
	"out":                 true,
	"dist":                true,
	"cmake-build-debug":   true,
	"cmake-build-release": true,
	"opencv":              true,
	"ffmpeg":              true,
	"boost":               true,
	"eigen":               true,
}

// vcsNames are version-control metadata entries. They are kept despite
// being hidden because they mark their parent as vendored.
var vcsNames = map[string]bool{
	".git": true,
	".svn": true,
	".hg":  true,
	".bzr": true,
}

// licensePrefixes mark a directory as a bundled library when a file whose
// upper-cased name starts with one of them sits directly inside it.
var licensePrefixes = []string{"LICENSE", "LICENCE", "COPYING", "COPYRIGHT", "NOTICE"}

var (
	headerExts = map[string]bool{".h": true, ".hh": true, ".hpp": true, ".hxx": true, ".inc": true}
	sourceExts = map[string]bool{".c": true}
	implExts   = map[string]bool{".cc": true, ".cpp": true, ".cxx": true, ".m": true, ".mm": true}
)

// IsVCS reports whether name is version-control metadata.
func IsVCS(name string) bool {
	return vcsNames[name]
}

// IsVendoredName reports whether name is on the third-party allowlist.
func IsVendoredName(name string) bool {
	return vendoredNames[strings.ToLower(name)]
}

func isLicenseFile(name string) bool {
	upper := strings.ToUpper(name)
	for _, p := range licensePrefixes {
		if strings.HasPrefix(upper, p) {
			return true
		}
	}
	return false
}

// classify reports whether the directory at path named name is vendored.
// An unreadable directory is not vendored; the walk reports its error.
func classify(path, name string) bool {
	if IsVCS(name) || IsVendoredName(name) {
		return true
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return false
	}
	for _, e := range entries {
		n := e.Name()
		if IsVCS(n) {
			return true
		}
		if !e.IsDir() && isLicenseFile(n) {
			return true
		}
	}
	return false
}

// Annotate returns the file-kind annotation for name, or "".
func Annotate(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case headerExts[ext]:
		return "header file"
	case sourceExts[ext]:
		return "source file"
	case implExts[ext]:
		return "implementation file"
	default:
		return ""
	}
}

// IsHeader reports whether name has a C/C++ header suffix.
func IsHeader(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return headerExts[ext] && ext != ".inc"
}
