// Package corpus reads the markdown documents termwiki indexes from a
// directory tree.
//
// Paths handed in and out are slash-separated and relative to the root.
// Include and exclude patterns use doublestar syntax ("**/*.md").
// Hidden files and directories are never part of the corpus.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	wikierrors "github.com/Aman-CERP/termwiki/internal/errors"
	"github.com/Aman-CERP/termwiki/internal/index"
)

// DefaultMaxFileSize is the default maximum document size (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// DefaultInclude matches every markdown file.
var DefaultInclude = []string{"**/*.md"}

// DefaultExclude skips dependency folders that often ship markdown.
var DefaultExclude = []string{"node_modules/**", "vendor/**"}

// Options configures a corpus directory.
type Options struct {
	// Root is the directory holding the documents.
	Root string

	// Include lists patterns a document must match (empty = DefaultInclude).
	Include []string

	// Exclude lists patterns that remove files or whole directories.
	Exclude []string

	// MaxFileSize skips larger files (0 = DefaultMaxFileSize).
	MaxFileSize int64

	// FollowSymlinks includes symlinked files.
	FollowSymlinks bool
}

// FileInfo describes one document on disk.
type FileInfo struct {
	Path    string // Relative, slash-separated
	AbsPath string
	Size    int64
	ModTime time.Time
}

// Dir is a corpus rooted at a directory. It is safe for concurrent use.
type Dir struct {
	root string
	opts Options
}

// Open validates opts and returns the corpus.
func Open(opts Options) (*Dir, error) {
	if opts.Root == "" {
		opts.Root = "."
	}
	absRoot, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, wikierrors.New(wikierrors.ErrCodeFileNotFound, "docs directory not found", err).
			WithDetail("path", absRoot)
	}
	if !info.IsDir() {
		return nil, wikierrors.ConfigError(fmt.Sprintf("docs path is not a directory: %s", absRoot), nil)
	}

	if len(opts.Include) == 0 {
		opts.Include = DefaultInclude
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	for _, p := range append(append([]string{}, opts.Include...), opts.Exclude...) {
		if !doublestar.ValidatePattern(p) {
			return nil, wikierrors.ConfigError(fmt.Sprintf("invalid pattern %q", p), nil)
		}
	}

	return &Dir{root: absRoot, opts: opts}, nil
}

// Root returns the absolute root directory.
func (d *Dir) Root() string { return d.root }

// Excludes returns the exclude patterns.
func (d *Dir) Excludes() []string { return d.opts.Exclude }

// Matches reports whether rel names a document of this corpus. It only
// looks at the path, not at the file.
func (d *Dir) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return false
	}
	for _, seg := range strings.Split(rel, "/") {
		if isHidden(seg) {
			return false
		}
	}
	if d.excluded(rel) {
		return false
	}
	return matchAny(d.opts.Include, rel)
}

func (d *Dir) excluded(rel string) bool {
	if matchAny(d.opts.Exclude, rel) {
		return true
	}
	// A directory pattern such as "drafts/**" also hides "drafts" itself,
	// and a file inside an excluded directory is excluded.
	for dir := path.Dir(rel); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if matchAny(d.opts.Exclude, dir) || matchAny(d.opts.Exclude, dir+"/") {
			return true
		}
	}
	return false
}

func (d *Dir) excludedDir(rel string) bool {
	return matchAny(d.opts.Exclude, rel) || matchAny(d.opts.Exclude, rel+"/")
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// Walk calls fn for every document in lexical path order.
func (d *Dir) Walk(ctx context.Context, fn func(FileInfo) error) error {
	return filepath.WalkDir(d.root, func(p string, entry fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if p == d.root {
				return err
			}
			// Skip entries we can't access
			if entry != nil && entry.IsDir() && p != d.root {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(d.root, p)
		if err != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if isHidden(entry.Name()) || d.excludedDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if entry.Type()&fs.ModeSymlink != 0 && !d.opts.FollowSymlinks {
			return nil
		}
		if !d.Matches(rel) {
			return nil
		}

		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			return nil
		}
		if info.Size() > d.opts.MaxFileSize {
			slog.Warn("skipping oversized document",
				slog.String("path", rel),
				slog.Int64("size", info.Size()),
				slog.Int64("max", d.opts.MaxFileSize))
			return nil
		}

		return fn(FileInfo{Path: rel, AbsPath: p, Size: info.Size(), ModTime: info.ModTime()})
	})
}

// Files returns every document of the corpus without reading it.
func (d *Dir) Files(ctx context.Context) ([]FileInfo, error) {
	var files []FileInfo
	err := d.Walk(ctx, func(fi FileInfo) error {
		files = append(files, fi)
		return nil
	})
	return files, err
}

// ListDocuments reads every document of the corpus. Files that vanish or
// cannot be read between listing and reading are skipped with a warning.
func (d *Dir) ListDocuments(ctx context.Context) ([]index.Document, error) {
	var docs []index.Document
	err := d.Walk(ctx, func(fi FileInfo) error {
		data, err := os.ReadFile(fi.AbsPath)
		if err != nil {
			slog.Warn("skipping unreadable document",
				slog.String("path", fi.Path),
				slog.String("error", err.Error()))
			return nil
		}
		docs = append(docs, index.Document{Path: fi.Path, Content: string(data)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", d.root, err)
	}
	return docs, nil
}

// ReadDocument returns the text of the document at rel. A missing document
// yields an ERR_201_FILE_NOT_FOUND error that matches fs.ErrNotExist;
// paths leaving the root or not naming a document yield ERR_406_INVALID_PATH.
func (d *Dir) ReadDocument(ctx context.Context, rel string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	abs, err := d.Abs(rel)
	if err != nil {
		return "", err
	}
	if !d.Matches(rel) {
		return "", wikierrors.New(wikierrors.ErrCodeInvalidPath, "path is not a document of this corpus", nil).
			WithDetail("path", rel)
	}

	info, err := os.Lstat(abs)
	if err != nil {
		return "", notFoundOr(rel, err)
	}
	if info.Mode()&fs.ModeSymlink != 0 && !d.opts.FollowSymlinks {
		return "", wikierrors.New(wikierrors.ErrCodeInvalidPath, "symlinked documents are not followed", nil).
			WithDetail("path", rel)
	}
	if info.Size() > d.opts.MaxFileSize {
		return "", wikierrors.New(wikierrors.ErrCodeFileTooLarge, "document exceeds the size limit", nil).
			WithDetail("path", rel).
			WithDetail("size", fmt.Sprint(info.Size()))
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", notFoundOr(rel, err)
	}
	return string(data), nil
}

// Abs maps a relative document path to an absolute one, rejecting paths
// that would leave the root.
func (d *Dir) Abs(rel string) (string, error) {
	local := filepath.FromSlash(rel)
	if rel == "" || !filepath.IsLocal(local) {
		return "", wikierrors.New(wikierrors.ErrCodeInvalidPath, "path escapes the docs directory", nil).
			WithDetail("path", rel).
			WithSuggestion("use a path relative to the docs directory")
	}
	return filepath.Join(d.root, local), nil
}

// Rel maps an absolute path back to a slash-separated corpus path.
func (d *Dir) Rel(abs string) (string, bool) {
	rel, err := filepath.Rel(d.root, abs)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func notFoundOr(rel string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return wikierrors.New(wikierrors.ErrCodeFileNotFound, "document not found", err).WithDetail("path", rel)
	}
	if errors.Is(err, fs.ErrPermission) {
		return wikierrors.New(wikierrors.ErrCodeFilePermission, "document is not readable", err).WithDetail("path", rel)
	}
	return fmt.Errorf("read %s: %w", rel, err)
}
