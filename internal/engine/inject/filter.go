package inject

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"autoinject/internal/core/errors"
	"autoinject/internal/shared/util"

	"github.com/gobwas/glob"
)

// DefaultExtensions are the script and single-file component extensions the
// transform considers.
var DefaultExtensions = []string{
	".js", ".jsx", ".mjs", ".cjs",
	".ts", ".tsx", ".mts", ".cts",
	".vue", ".nvue", ".uvue",
}

// fragmentQueryFlag marks a request for a generated block of a composite
// file rather than the file itself.
const fragmentQueryFlag = "vue"

type FilterOptions struct {
	Include    []string
	Exclude    []string
	Root       string
	Extensions []string
	Qualifiers []string
}

// Request is a decomposed file identity.
type Request struct {
	ID       string
	Filename string
	Query    url.Values
}

// Filter decides, before parsing, whether a file can need injection.
type Filter struct {
	include    []glob.Glob
	exclude    []glob.Glob
	extensions map[string]bool
	prescan    *regexp.Regexp
}

func NewFilter(opts FilterOptions) (*Filter, error) {
	f := &Filter{extensions: make(map[string]bool)}

	var err error
	if f.include, err = compilePatterns(opts.Root, opts.Include); err != nil {
		return nil, err
	}
	if f.exclude, err = compilePatterns(opts.Root, opts.Exclude); err != nil {
		return nil, err
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		f.extensions[ext] = true
	}

	if roots := qualifierRoots(opts.Qualifiers); len(roots) > 0 {
		quoted := make([]string, len(roots))
		for i, root := range roots {
			quoted[i] = regexp.QuoteMeta(root)
		}
		f.prescan = regexp.MustCompile("(?:" + strings.Join(quoted, "|") + ")")
	}
	return f, nil
}

// qualifierRoots returns the distinct first segments of the qualifiers.
// A dotted reference may be written with whitespace, comments or optional
// chaining between its segments, so only the root is certain to appear
// verbatim in the source.
func qualifierRoots(qualifiers []string) []string {
	seen := make(map[string]bool, len(qualifiers))
	var roots []string
	for _, q := range qualifiers {
		root, _, _ := strings.Cut(q, ".")
		if root == "" || seen[root] {
			continue
		}
		seen[root] = true
		roots = append(roots, root)
	}
	return roots
}

func compilePatterns(root string, patterns []string) ([]glob.Glob, error) {
	var out []glob.Glob
	root = util.NormalizePatternPath(root)
	for _, pattern := range patterns {
		normalized := util.NormalizePatternPath(pattern)
		if normalized == "" {
			continue
		}
		if root != "" && !path.IsAbs(normalized) && !strings.HasPrefix(normalized, "*") {
			normalized = path.Join(root, normalized)
		}
		g, err := glob.Compile(normalized, '/')
		if err != nil {
			return nil, errors.AddContext(
				errors.Wrap(err, errors.CodeValidationError, "invalid glob pattern"),
				errors.CtxKey, pattern,
			)
		}
		out = append(out, g)
	}
	return out, nil
}

// ParseRequest splits an id of the form filename[?query].
func ParseRequest(id string) Request {
	filename, rawQuery, _ := strings.Cut(id, "?")
	query, _ := url.ParseQuery(rawQuery)
	return Request{ID: id, Filename: filename, Query: query}
}

// IsFragment reports whether the request targets a generated block of a
// composite file.
func (r Request) IsFragment() bool {
	_, ok := r.Query[fragmentQueryFlag]
	return ok
}

// ModuleID is the filename with forward slashes, compared against binding
// targets by the self-import guard.
func (r Request) ModuleID() string {
	return strings.ReplaceAll(r.Filename, "\\", "/")
}

// Accept applies the path, query and extension predicates.
func (f *Filter) Accept(id string) (Request, bool) {
	if f.prescan == nil || strings.ContainsRune(id, 0) {
		return Request{}, false
	}
	req := ParseRequest(id)
	if req.IsFragment() {
		return req, false
	}
	if !f.matchPath(util.NormalizePatternPath(req.Filename)) {
		return req, false
	}
	if !f.extensions[strings.ToLower(path.Ext(req.ModuleID()))] {
		return req, false
	}
	return req, true
}

func (f *Filter) matchPath(p string) bool {
	for _, g := range f.exclude {
		if g.Match(p) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(p) {
			return true
		}
	}
	return false
}

// MayMatch is a superset test: false means no qualifier root occurs
// anywhere in code, so no reference can resolve.
func (f *Filter) MayMatch(code string) bool {
	return f.prescan != nil && f.prescan.MatchString(code)
}
