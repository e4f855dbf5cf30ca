package store

import "path/filepath"

// pathSeparator is used (rather than a hardcoded "/") when building the
// prefix patterns that identify a subtree, so DeleteSubtree/Rename
// behave correctly on whichever platform the index was built on.
const pathSeparator = string(filepath.Separator)

func basename(p string) string {
	return filepath.Base(p)
}

func dirname(p string) string {
	return filepath.Dir(p)
}
