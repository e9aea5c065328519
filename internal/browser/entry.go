package browser

import (
	"context"
	"sync"
)

// Tag tells folders and files apart.
type Tag string

const (
	TagFolder Tag = "folder"
	TagFile   Tag = "file"
)

// Entry is a folder or file record returned by the storage API.
// Apart from the download link of a file it is never modified after the fetch.
type Entry struct {
	Tag       Tag
	Name      string
	PathLower string
	Size      int64
	Meta      map[string]string

	linkMu sync.Mutex
	link   string
}

// NewFolder returns a folder entry.
func NewFolder(name, pathLower string) *Entry {
	return &Entry{Tag: TagFolder, Name: name, PathLower: pathLower}
}

// NewFile returns a file entry.
func NewFile(name, pathLower string, size int64) *Entry {
	return &Entry{Tag: TagFile, Name: name, PathLower: pathLower, Size: size}
}

// IsFolder reports whether the entry is a folder.
func (e *Entry) IsFolder() bool {
	return e.Tag == TagFolder
}

// DownloadLink returns the cached download link, if one was resolved.
func (e *Entry) DownloadLink() (string, bool) {
	e.linkMu.Lock()
	defer e.linkMu.Unlock()
	return e.link, e.link != ""
}

// SetDownloadLink stores a link obtained elsewhere, e.g. returned with the listing.
func (e *Entry) SetDownloadLink(link string) {
	e.linkMu.Lock()
	e.link = link
	e.linkMu.Unlock()
}

// resolveLink returns the cached link or calls resolve once and keeps its result.
// Concurrent callers wait for the first one. Failures are not kept.
func (e *Entry) resolveLink(ctx context.Context, resolve func(ctx context.Context, path string) (string, error)) (string, error) {
	e.linkMu.Lock()
	defer e.linkMu.Unlock()
	if e.link != "" {
		return e.link, nil
	}
	link, err := resolve(ctx, e.PathLower)
	if err != nil {
		return "", err
	}
	e.link = link
	return link, nil
}

// Listing is the content of one folder split into folders and files.
type Listing struct {
	Folders []*Entry
	Files   []*Entry
}

// Partition splits entries by tag, keeping their order.
func Partition(entries []*Entry) Listing {
	var l Listing
	for _, e := range entries {
		if e.IsFolder() {
			l.Folders = append(l.Folders, e)
		} else {
			l.Files = append(l.Files, e)
		}
	}
	return l
}

// Len returns the number of entries in the listing.
func (l Listing) Len() int {
	return len(l.Folders) + len(l.Files)
}
