package identity

import (
	"path"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// Callers must prefix keys by kind so pages and builds never collide.
func UUID(key string) uuid.UUID {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(trimmed, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(trimmed))
	}
	return uid
}

// PageUUID identifies a page by its slash separated path relative to the
// content root. "./a/b.md" and "a/b.md" share an identifier.
func PageUUID(pagePath string) uuid.UUID {
	cleaned := path.Clean(strings.ReplaceAll(strings.TrimSpace(pagePath), "\\", "/"))
	if cleaned == "." || cleaned == "" {
		return uuid.Nil
	}
	return UUID("go-mdsite:page:" + strings.TrimPrefix(cleaned, "/"))
}
