package templates

import (
	"fmt"
	"io/fs"
	"path"
	"strings"
)

var templateExtensions = map[string]struct{}{
	".html": {},
	".htm":  {},
}

// LoadDir reads template files under root into a new Store.
//
//	<name>.html            group <name>, key _html
//	<group>/<key>.html     group <group>, key <key>
//	<group>/<a>/<b>.html   group <group>, key a.b
//
// Files with other extensions are ignored.
func LoadDir(fsys fs.FS, root string) (*Store, error) {
	root = path.Clean(strings.TrimPrefix(root, "/"))
	if root == "" {
		root = "."
	}

	store := NewStore()
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		if _, ok := templateExtensions[ext]; !ok {
			return nil
		}

		rel := strings.TrimPrefix(p, root+"/")
		if root == "." {
			rel = p
		}
		ref, ok := referenceForPath(strings.TrimSuffix(rel, path.Ext(rel)))
		if !ok {
			return fmt.Errorf("templates: cannot derive reference from %s", p)
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("templates: read %s: %w", p, err)
		}
		store.Set(ref.Group, ref.Key, string(data))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

func referenceForPath(stem string) (Reference, bool) {
	segments := strings.Split(stem, "/")
	inner := segments[0]
	if len(segments) > 1 {
		inner += "." + strings.Join(segments[1:], ".")
	}
	return ParseReference(inner)
}
