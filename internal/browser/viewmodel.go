package browser

import (
	"context"
	"fmt"

	"github.com/slmtnm/s4view/internal/metrics"
)

var byteSizes = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatSize returns a human readable size such as "500 Bytes" or "2 KB".
// The value is rounded to a whole number; sizes past TB stay in TB.
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Byte"
	}
	// floor(log1024(bytes)) without floating point error at exact powers.
	i, div := 0, int64(1)
	for i < len(byteSizes)-1 && bytes/div >= 1024 {
		div *= 1024
		i++
	}
	value := (bytes + div/2) / div
	return fmt.Sprintf("%d %s", value, byteSizes[i])
}

// FolderView wraps a folder row. Creating one warms the cache for the folder.
type FolderView struct {
	Entry *Entry
}

// NewFolderView wraps entry and submits a prefetch of its contents.
func NewFolderView(entry *Entry, prefetcher *Prefetcher) *FolderView {
	if prefetcher != nil {
		prefetcher.Submit(entry.PathLower)
	}
	return &FolderView{Entry: entry}
}

// Name returns the folder name.
func (v *FolderView) Name() string { return v.Entry.Name }

// Href returns the location fragment that opens the folder.
func (v *FolderView) Href() string { return EncodeHash(v.Entry.PathLower) }

// FileView wraps a file row. The download link is resolved on demand.
type FileView struct {
	Entry *Entry
	links LinkResolver
}

// NewFileView wraps entry. No API call is made until Link is called.
func NewFileView(entry *Entry, links LinkResolver) *FileView {
	return &FileView{Entry: entry, links: links}
}

// Name returns the file name.
func (v *FileView) Name() string { return v.Entry.Name }

// Size returns the human readable file size.
func (v *FileView) Size() string { return FormatSize(v.Entry.Size) }

// CachedLink returns the link if it was already resolved.
func (v *FileView) CachedLink() (string, bool) {
	return v.Entry.DownloadLink()
}

// Link returns the download link, asking the storage API the first time it
// is needed for the entry. The link is kept on the entry for the session.
func (v *FileView) Link(ctx context.Context) (string, error) {
	return v.Entry.resolveLink(ctx, func(ctx context.Context, path string) (string, error) {
		link, err := v.links.GetTemporaryLink(ctx, path)
		metrics.RecordTemporaryLink(err)
		if err != nil {
			return "", &APIError{Op: "get_temporary_link", Path: path, Err: err}
		}
		return link, nil
	})
}

// Views wraps every entry of a listing.
func Views(l Listing, prefetcher *Prefetcher, links LinkResolver) ([]*FolderView, []*FileView) {
	folders := make([]*FolderView, 0, len(l.Folders))
	for _, e := range l.Folders {
		folders = append(folders, NewFolderView(e, prefetcher))
	}
	files := make([]*FileView, 0, len(l.Files))
	for _, e := range l.Files {
		files = append(files, NewFileView(e, links))
	}
	return folders, files
}
