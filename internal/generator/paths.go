package generator

import (
	"fmt"
	"path"
	"strings"

	"github.com/goliatone/go-slug"
)

// pageOutputPath maps a content path to its HTML output path. The directory is
// kept so the output tree mirrors the content tree; the file stem is
// slugified unless slugOverride is set. "blog/My Post.md" becomes
// "blog/my-post.html".
func pageOutputPath(pagePath, slugOverride string) (string, error) {
	cleaned := path.Clean(strings.ReplaceAll(strings.TrimSpace(pagePath), "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "." || cleaned == "" || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("generator: invalid page path %q", pagePath)
	}

	dir, file := path.Split(cleaned)
	stem := strings.TrimSuffix(file, path.Ext(file))
	if override := strings.TrimSpace(slugOverride); override != "" {
		stem = override
	}
	normalized, err := slug.Normalize(stem)
	if err != nil || normalized == "" {
		return "", fmt.Errorf("generator: page %s: cannot derive output name from %q", pagePath, stem)
	}
	return path.Join(dir, normalized+".html"), nil
}

// linkDepth counts the directories between an output file and the site root.
func linkDepth(outputPath string) int {
	dir := path.Dir(strings.TrimPrefix(outputPath, "/"))
	if dir == "." || dir == "" {
		return 0
	}
	return strings.Count(dir, "/") + 1
}

// rootPrefix returns the relative prefix reaching the site root from depth.
func rootPrefix(depth int) string {
	if depth <= 0 {
		return ""
	}
	return strings.Repeat("../", depth)
}

// pageRoute is the site-absolute URL path of an output file.
func pageRoute(outputPath string) string {
	return "/" + strings.TrimPrefix(outputPath, "/")
}
