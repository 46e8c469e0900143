package watcher

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// pathFilter decides which paths never reach the debouncer.
type pathFilter struct {
	patterns []string
}

func newPathFilter(patterns []string) pathFilter {
	return pathFilter{patterns: patterns}
}

// ignored reports whether rel (slash-separated, relative to the root)
// should be dropped. Anything under a hidden segment is dropped, so .git
// and editor swap files never show up.
func (f pathFilter) ignored(rel string, isDir bool) bool {
	if rel == "" || rel == "." {
		return true
	}
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	if f.match(rel) || (isDir && f.match(rel+"/")) {
		return true
	}
	for dir := path.Dir(rel); dir != "."; dir = path.Dir(dir) {
		if f.match(dir) || f.match(dir+"/") {
			return true
		}
	}
	return false
}

func (f pathFilter) match(rel string) bool {
	for _, p := range f.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}
