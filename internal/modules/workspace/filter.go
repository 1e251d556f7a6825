package workspace

import (
	"path"
	"sort"
	"strings"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/github"
)

const (
	MaxFileSize     = 100 * 1024
	DefaultMaxFiles = 300
)

// Directory names are matched as substrings of the full path.
var deniedDirs = []string{
	"node_modules/", ".git/", "dist/", "build/", "vendor/", ".next/", "target/",
	"__pycache__/", "coverage/", ".cache/", ".idea/", ".vscode/", ".gradle/",
	"bin/", "obj/", ".venv/", "venv/", ".terraform/",
}

var binaryExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true, ".ico": true,
	".webp": true, ".svg": true, ".pdf": true, ".zip": true, ".tar": true, ".gz": true,
	".tgz": true, ".bz2": true, ".xz": true, ".7z": true, ".rar": true, ".jar": true,
	".war": true, ".class": true, ".exe": true, ".dll": true, ".so": true, ".dylib": true,
	".a": true, ".o": true, ".wasm": true, ".bin": true, ".dat": true, ".db": true,
	".sqlite": true, ".woff": true, ".woff2": true, ".ttf": true, ".otf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".mov": true, ".avi": true, ".wav": true, ".ogg": true,
	".pyc": true, ".psd": true, ".lock": true,
}

// Include reports whether a tree entry is worth fetching as workspace text.
func Include(e github.TreeEntry) bool {
	if e.Type != "blob" {
		return false
	}
	if e.Size > MaxFileSize {
		return false
	}
	p := "/" + strings.TrimPrefix(e.Path, "/")
	for _, d := range deniedDirs {
		if strings.Contains(p, "/"+d) {
			return false
		}
	}
	ext := strings.ToLower(path.Ext(e.Path))
	if strings.HasSuffix(strings.ToLower(e.Path), ".min.js") {
		return false
	}
	return !binaryExts[ext]
}

// Select filters entries and keeps at most max of them in path order.
func Select(entries []github.TreeEntry, max int) []github.TreeEntry {
	out := make([]github.TreeEntry, 0, len(entries))
	for _, e := range entries {
		if Include(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
