package emblem

import (
	"path"
	"strings"
)

type Kind int

const (
	KindNone Kind = iota
	KindSVG
	KindRaster
	KindUnsupported
)

type Info struct {
	Kind Kind
	Path string
}

// Inspect classifies a team emblem reference. Windows separators are
// normalized so paths copied from the desktop app still resolve.
func Inspect(ref *string) Info {
	if ref == nil || strings.TrimSpace(*ref) == "" {
		return Info{Kind: KindNone}
	}

	p := path.Clean(strings.ReplaceAll(strings.TrimSpace(*ref), `\`, "/"))

	switch strings.ToLower(path.Ext(p)) {
	case ".svg":
		return Info{Kind: KindSVG, Path: p}
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return Info{Kind: KindRaster, Path: p}
	}
	return Info{Kind: KindUnsupported, Path: p}
}

// Valid reports whether ref is empty or points at an image the bracket page
// can show.
func Valid(ref *string) bool {
	return Inspect(ref).Kind != KindUnsupported
}

// URL is the path the web UI serves the emblem from, or "" when there is none.
func URL(ref *string) string {
	info := Inspect(ref)
	if info.Kind != KindSVG && info.Kind != KindRaster {
		return ""
	}
	return "/emblems/" + strings.TrimPrefix(path.Base(info.Path), "/")
}
