package board

import (
	"fmt"
	"strings"
)

// BuildArchiveFromDSN maps a DSN to a revision archive implementation.
// Supported forms: "" or "none" (disabled), "memory://",
// "postgres://..." / "postgresql://...".
func BuildArchiveFromDSN(dsn string) (RevisionArchive, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "" || dsn == "none":
		return nil, nil
	case dsn == "memory://" || dsn == "memory":
		return NewMemoryArchive(0), nil
	case strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresArchive(dsn)
	default:
		return nil, fmt.Errorf("%w: unsupported archive DSN: %s", ErrInvalidInput, dsn)
	}
}
