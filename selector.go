package fileref

import (
	"context"
	"mime"
	"path"
	"strings"

	"github.com/gobwas/glob"
)

// ============================================================================
// Selector Interface
// ============================================================================

// Selector decides which files of a source are offered for selection.
//
// Example usage:
//
//	// Images under 10MB
//	selector := fileref.And(
//	    fileref.Accept("image/*"),
//	    fileref.MaxSize(10*1024*1024),
//	)
//	sel, err := host.SelectMatching(ctx, "uploads", "/photos", selector, true)
type Selector interface {
	// Match returns true if the file should be included in results.
	Match(file *FileInfo) bool

	// TraverseDescendants returns true if directory descendants should be traversed.
	// Only called for directories (file.IsDir == true).
	TraverseDescendants(dir *FileInfo) bool
}

// ListWithSelector lists files under dir matching selector.
// Set recursive to true for deep traversal.
func ListWithSelector(ctx context.Context, fs FileReader, dir string, selector Selector, recursive bool) ([]FileInfo, error) {
	if selector == nil {
		selector = All()
	}

	var results []FileInfo
	if err := listRecursive(ctx, fs, dir, selector, recursive, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func listRecursive(ctx context.Context, fs FileReader, dir string, selector Selector, recursive bool, results *[]FileInfo) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	files, err := fs.ListContents(ctx, dir, false)
	if err != nil {
		return err
	}

	for i := range files {
		file := &files[i]

		if file.IsDir {
			if recursive && selector.TraverseDescendants(file) {
				if err := listRecursive(ctx, fs, file.Path, selector, recursive, results); err != nil {
					return err
				}
			}
		} else if selector.Match(file) {
			*results = append(*results, *file)
		}
	}

	return nil
}

// ============================================================================
// Built-in Selectors
// ============================================================================

type allSelector struct{}

func (allSelector) Match(*FileInfo) bool               { return true }
func (allSelector) TraverseDescendants(*FileInfo) bool { return true }

// All returns a selector that matches all files.
func All() Selector {
	return allSelector{}
}

type globSelector struct {
	g glob.Glob
}

// Glob creates a selector matching file names against pattern.
// Supports: *, ?, [abc], [a-z], {a,b}. An invalid pattern matches nothing.
//
//	Glob("*.{jpg,png}")
//	Glob("report_????.csv")
func Glob(pattern string) Selector {
	g, err := glob.Compile(pattern)
	if err != nil {
		return &globSelector{}
	}
	return &globSelector{g: g}
}

func (s *globSelector) Match(file *FileInfo) bool {
	return s.g != nil && s.g.Match(file.Name)
}

func (s *globSelector) TraverseDescendants(*FileInfo) bool { return true }

// acceptSelector implements the token list of an HTML file input's accept
// attribute.
type acceptSelector struct {
	exts  []string
	types []glob.Glob
}

// Accept creates a selector from file-input accept tokens: extensions
// (".csv"), exact MIME types ("text/plain") and wildcards ("image/*").
// Matching is case-insensitive. A file matches if any token matches; no
// usable tokens matches everything.
func Accept(tokens ...string) Selector {
	s := &acceptSelector{}
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		switch {
		case tok == "":
		case strings.HasPrefix(tok, "."):
			s.exts = append(s.exts, tok)
		default:
			if g, err := glob.Compile(tok); err == nil {
				s.types = append(s.types, g)
			}
		}
	}
	if len(s.exts) == 0 && len(s.types) == 0 {
		return All()
	}
	return s
}

func (s *acceptSelector) Match(file *FileInfo) bool {
	ext := strings.ToLower(path.Ext(file.Name))
	for _, e := range s.exts {
		if ext == e {
			return true
		}
	}

	contentType := file.ContentType
	if contentType == "" {
		contentType = TypeByExtension(file.Name)
	}
	if contentType == "" {
		return false
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		contentType = mediaType
	}
	for _, g := range s.types {
		if g.Match(contentType) {
			return true
		}
	}
	return false
}

func (s *acceptSelector) TraverseDescendants(*FileInfo) bool { return true }

// MaxSize matches files no larger than n bytes.
func MaxSize(n int64) Selector {
	return FuncSelector(func(f *FileInfo) bool { return f.Size <= n })
}

type depthSelector struct {
	maxDepth int
	basePath string
}

// Depth limits traversal to maxDepth levels below basePath.
// Depth 1 = immediate children only.
func Depth(maxDepth int, basePath string) Selector {
	return &depthSelector{
		maxDepth: maxDepth,
		basePath: strings.Trim(basePath, "/"),
	}
}

func (s *depthSelector) depth(p string) int {
	rel := strings.Trim(strings.TrimPrefix(strings.Trim(p, "/"), s.basePath), "/")
	if rel == "" {
		return 0
	}
	return strings.Count(rel, "/") + 1
}

func (s *depthSelector) Match(file *FileInfo) bool {
	return s.depth(file.Path) <= s.maxDepth
}

func (s *depthSelector) TraverseDescendants(dir *FileInfo) bool {
	return s.depth(dir.Path) < s.maxDepth
}

// ============================================================================
// Composable Selectors (And, Or, Not)
// ============================================================================

type andSelector struct {
	selectors []Selector
}

// And matches only if ALL selectors match.
func And(selectors ...Selector) Selector {
	return &andSelector{selectors: selectors}
}

func (s *andSelector) Match(file *FileInfo) bool {
	for _, sel := range s.selectors {
		if !sel.Match(file) {
			return false
		}
	}
	return true
}

// TraverseDescendants descends only if every selector would.
func (s *andSelector) TraverseDescendants(dir *FileInfo) bool {
	for _, sel := range s.selectors {
		if !sel.TraverseDescendants(dir) {
			return false
		}
	}
	return true
}

type orSelector struct {
	selectors []Selector
}

// Or matches if ANY selector matches.
func Or(selectors ...Selector) Selector {
	return &orSelector{selectors: selectors}
}

func (s *orSelector) Match(file *FileInfo) bool {
	for _, sel := range s.selectors {
		if sel.Match(file) {
			return true
		}
	}
	return false
}

func (s *orSelector) TraverseDescendants(dir *FileInfo) bool {
	for _, sel := range s.selectors {
		if sel.TraverseDescendants(dir) {
			return true
		}
	}
	return false
}

type notSelector struct {
	selector Selector
}

// Not inverts a selector's match result.
func Not(selector Selector) Selector {
	return &notSelector{selector: selector}
}

func (s *notSelector) Match(file *FileInfo) bool {
	return !s.selector.Match(file)
}

func (s *notSelector) TraverseDescendants(*FileInfo) bool { return true }

type funcSelector struct {
	matchFn func(*FileInfo) bool
}

// FuncSelector creates a selector from a custom function.
func FuncSelector(fn func(*FileInfo) bool) Selector {
	return &funcSelector{matchFn: fn}
}

func (s *funcSelector) Match(file *FileInfo) bool          { return s.matchFn(file) }
func (s *funcSelector) TraverseDescendants(*FileInfo) bool { return true }
