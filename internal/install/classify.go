package install

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Category says where a classified extension file belongs inside an
// installation.
type Category int

const (
	// CategoryLib files go to <version>/lib.
	CategoryLib Category = iota
	// CategoryExtension files go to <version>/share/extension.
	CategoryExtension
)

// CopyItem pairs an extracted source file with its destination category.
type CopyItem struct {
	Src      string
	Category Category
}

// sharedLibSuffixes are the platform shared-library suffixes an extension
// archive may carry.
var sharedLibSuffixes = []string{".so", ".dylib", ".dll"}

// Classify walks the extracted archive tree rooted at root and decides,
// for the named extension, which files belong where:
//
//   - shared libraries copy into lib/
//   - the control file and versioned SQL migration files
//     ("<name>.control", "<name>--*.sql") copy into share/extension/
//   - everything else (docs, headers, build residue) is ignored
//
// The walk is recursive; archives are not assumed flat. Classification is
// pure: it produces a copy plan without touching the destination.
func Classify(root, extName string) ([]CopyItem, error) {
	var items []CopyItem

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		name := d.Name()
		switch {
		case hasSharedLibSuffix(name):
			items = append(items, CopyItem{Src: path, Category: CategoryLib})
		case name == extName+".control" || strings.HasPrefix(name, extName+"--") && strings.HasSuffix(name, ".sql"):
			items = append(items, CopyItem{Src: path, Category: CategoryExtension})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

func hasSharedLibSuffix(name string) bool {
	for _, suffix := range sharedLibSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}
