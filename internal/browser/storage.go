package browser

import "context"

// Storage is the remote storage API the browser reads from.
type Storage interface {
	// ListFolder returns the entries directly inside path. Both "a/b" and
	// "/a/b" name the same folder; "" is the root.
	ListFolder(ctx context.Context, path string, includeMediaInfo bool) ([]*Entry, error)
	LinkResolver
}

// LinkResolver hands out temporary download links for files.
type LinkResolver interface {
	GetTemporaryLink(ctx context.Context, path string) (string, error)
}
