package reasoning

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/julianshen/componentdoc/internal/structure"
)

// Source collection limits, in runes.
const (
	MaxFileRunes  = 2000
	MaxTotalRunes = 10000
)

var sourceExts = map[string]bool{
	".c":   true,
	".h":   true,
	".cc":  true,
	".cpp": true,
	".hpp": true,
}

// CollectSources concatenates the C and C++ sources under root for the
// call-relationship prompt. Each file is introduced by a "// File: <rel>"
// line and cut to MaxFileRunes; the result is cut to MaxTotalRunes. Hidden
// and vendored directories are skipped. Unreadable files leave an inline
// note instead of failing the collection.
func CollectSources(root string) (string, error) {
	var parts []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			rel, _ := filepath.Rel(root, path)
			parts = append(parts, "\n// Error reading "+filepath.ToSlash(rel)+": "+err.Error()+"\n")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !sourceExts[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)
		data, rerr := os.ReadFile(path)
		if rerr != nil {
			parts = append(parts, "\n// Error reading "+rel+": "+rerr.Error()+"\n")
			return nil
		}
		parts = append(parts, "\n// File: "+rel+"\n"+truncateRunes(string(data), MaxFileRunes)+"\n")
		return nil
	})
	if err != nil {
		return "", err
	}
	return truncateRunes(strings.Join(parts, "\n"), MaxTotalRunes), nil
}

func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || structure.IsVendoredName(name)
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
