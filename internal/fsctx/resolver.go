// Package fsctx resolves @-mention paths into FileContext records: the file
// content when the mention names a readable, size-bounded UTF-8 text file,
// or a FileContext.Err otherwise.
package fsctx

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/parlance-sh/parlance/internal/apperrors"
	"github.com/parlance-sh/parlance/internal/session"
)

// Resolver materializes mentions relative to a root directory.
type Resolver struct {
	Root        string
	MaxFileSize int64
}

// New builds a Resolver rooted at root with the given max file size in
// bytes.
func New(root string, maxFileSize int64) *Resolver {
	return &Resolver{Root: root, MaxFileSize: maxFileSize}
}

// Resolve materializes every mention into zero or more FileContext records.
// The output sequence is a pure function of the filesystem snapshot and
// configuration (determinism, spec §4.2).
func (r *Resolver) Resolve(mentions []string) []session.FileContext {
	var out []session.FileContext
	for _, m := range mentions {
		out = append(out, r.resolveOne(m)...)
	}
	return out
}

func (r *Resolver) resolveOne(mention string) []session.FileContext {
	full := mention
	if !filepath.IsAbs(full) {
		full = filepath.Join(r.Root, mention)
	}

	info, err := os.Stat(full)
	if err != nil {
		return []session.FileContext{{Path: mention, Err: fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, mention)}}
	}

	if info.IsDir() {
		return r.resolveDir(mention, full)
	}

	return []session.FileContext{r.resolveFile(mention, full, info)}
}

func (r *Resolver) resolveFile(mention, full string, info os.FileInfo) session.FileContext {
	if r.MaxFileSize > 0 && info.Size() > r.MaxFileSize {
		return session.FileContext{Path: mention, Err: fmt.Errorf("%w: exceeds limit (%d bytes, limit %d)", apperrors.ErrFileOversize, info.Size(), r.MaxFileSize)}
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return session.FileContext{Path: mention, Err: fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, mention)}
	}
	if !utf8.Valid(data) {
		return session.FileContext{Path: mention, Err: fmt.Errorf("%w: %s", apperrors.ErrFileBinary, mention)}
	}
	return session.FileContext{Path: mention, Content: string(data)}
}

// resolveDir enumerates eligible text files in lexicographic order of path
// (non-recursive), applying .gitignore patterns found within the directory.
// The .gitignore file itself is not listed.
func (r *Resolver) resolveDir(mention, full string) []session.FileContext {
	entries, err := os.ReadDir(full)
	if err != nil {
		return []session.FileContext{{Path: mention, Err: fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, mention)}}
	}

	ignore := loadGitignore(full)

	var names []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == ".gitignore" {
			continue
		}
		if ignore.Match(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	if len(names) == 0 {
		return []session.FileContext{{Path: mention, Err: fmt.Errorf("empty directory")}}
	}

	var out []session.FileContext
	for _, name := range names {
		childMention := filepath.Join(mention, name)
		childFull := filepath.Join(full, name)
		info, err := os.Stat(childFull)
		if err != nil {
			out = append(out, session.FileContext{Path: childMention, Err: fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, childMention)})
			continue
		}
		out = append(out, r.resolveFile(childMention, childFull, info))
	}
	return out
}
