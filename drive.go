package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/slmtnm/s4view/internal/browser"
)

const (
	mimeTypeGoogleAppFolder = "application/vnd.google-apps.folder"

	driveListFields  = "nextPageToken,files(id,name,mimeType,size,modifiedTime,webContentLink)"
	driveMediaFields = "nextPageToken,files(id,name,mimeType,size,modifiedTime,webContentLink,imageMediaMetadata(width,height))"
)

// ErrNotExist is returned for paths with no matching item in storage.
var ErrNotExist = errors.New("not exist")

// DriveClient exposes a Google Drive folder tree as browser storage. Drive
// addresses items by id, so paths are resolved one segment at a time; names
// match case-insensitively and resolved folder ids are remembered.
type DriveClient struct {
	service *drive.Service
	rootID  string

	mu  sync.Mutex
	ids map[string]string // lower-cased path without leading "/" -> folder id
}

var _ browser.Storage = (*DriveClient)(nil)

// NewDriveClient connects with the credentials file, or with application
// default credentials when none is configured.
func NewDriveClient(ctx context.Context, cfg DriveConfig) (*DriveClient, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts,
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(drive.DriveReadonlyScope),
		)
	} else {
		client, err := google.DefaultClient(ctx, drive.DriveReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("failed to find default credentials: %w", err)
		}
		opts = append(opts, option.WithHTTPClient(client))
	}

	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return newDriveClient(service, cfg.RootID), nil
}

func newDriveClient(service *drive.Service, rootID string) *DriveClient {
	if rootID == "" {
		rootID = "root"
	}
	return &DriveClient{
		service: service,
		rootID:  rootID,
		ids:     map[string]string{"": rootID},
	}
}

func splitDrivePath(path string) []string {
	var parts []string
	for _, p := range strings.Split(path, "/") {
		if p != "" {
			parts = append(parts, strings.ToLower(p))
		}
	}
	return parts
}

func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", `\'`)
	return s
}

func (c *DriveClient) list(ctx context.Context, query, fields string) ([]*drive.File, error) {
	var files []*drive.File
	err := c.service.Files.List().
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Q(query).
		Fields(googleapi.Field(fields)).
		Pages(ctx, func(list *drive.FileList) error {
			files = append(files, list.Files...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	return files, nil
}

func (c *DriveClient) children(ctx context.Context, parentID string, fields string) ([]*drive.File, error) {
	return c.list(ctx, fmt.Sprintf("'%s' in parents and trashed = false", escapeQuery(parentID)), fields)
}

func (c *DriveClient) remember(key, id string) {
	c.mu.Lock()
	c.ids[key] = id
	c.mu.Unlock()
}

func (c *DriveClient) lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[key]
	return id, ok
}

// resolveFolder returns the id of the folder at parts.
func (c *DriveClient) resolveFolder(ctx context.Context, parts []string) (string, error) {
	id := c.rootID
	for i, part := range parts {
		key := strings.Join(parts[:i+1], "/")
		if known, ok := c.lookup(key); ok {
			id = known
			continue
		}

		q := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false", escapeQuery(id), mimeTypeGoogleAppFolder)
		folders, err := c.list(ctx, q, driveListFields)
		if err != nil {
			return "", err
		}
		found := ""
		for _, f := range folders {
			if strings.EqualFold(f.Name, part) {
				found = f.Id
				break
			}
		}
		if found == "" {
			return "", fmt.Errorf("folder %q: %w", "/"+key, ErrNotExist)
		}
		c.remember(key, found)
		id = found
	}
	return id, nil
}

// ListFolder lists the items directly inside path.
func (c *DriveClient) ListFolder(ctx context.Context, path string, includeMediaInfo bool) ([]*browser.Entry, error) {
	parts := splitDrivePath(path)
	id, err := c.resolveFolder(ctx, parts)
	if err != nil {
		return nil, err
	}

	fields := driveListFields
	if includeMediaInfo {
		fields = driveMediaFields
	}
	files, err := c.children(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	parent := strings.Join(parts, "/")
	entries := make([]*browser.Entry, 0, len(files))
	for _, f := range files {
		key := strings.ToLower(f.Name)
		if parent != "" {
			key = parent + "/" + key
		}

		if f.MimeType == mimeTypeGoogleAppFolder {
			c.remember(key, f.Id)
			entries = append(entries, browser.NewFolder(f.Name, "/"+key))
			continue
		}

		entry := browser.NewFile(f.Name, "/"+key, f.Size)
		if f.WebContentLink != "" {
			entry.SetDownloadLink(f.WebContentLink)
		}
		if includeMediaInfo {
			entry.Meta = driveMeta(f)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func driveMeta(f *drive.File) map[string]string {
	meta := map[string]string{
		"mime_type":     f.MimeType,
		"modified_time": f.ModifiedTime,
	}
	if m := f.ImageMediaMetadata; m != nil {
		meta["width"] = strconv.FormatInt(m.Width, 10)
		meta["height"] = strconv.FormatInt(m.Height, 10)
	}
	return meta
}

// GetTemporaryLink returns the download link of the file at path. Drive
// links are tied to the user's session rather than to an expiry.
func (c *DriveClient) GetTemporaryLink(ctx context.Context, path string) (string, error) {
	parts := splitDrivePath(path)
	if len(parts) == 0 {
		return "", fmt.Errorf("file %q: %w", path, ErrNotExist)
	}
	parentID, err := c.resolveFolder(ctx, parts[:len(parts)-1])
	if err != nil {
		return "", err
	}
	files, err := c.children(ctx, parentID, driveListFields)
	if err != nil {
		return "", err
	}
	name := parts[len(parts)-1]
	for _, f := range files {
		if f.MimeType == mimeTypeGoogleAppFolder || !strings.EqualFold(f.Name, name) {
			continue
		}
		if f.WebContentLink == "" {
			return "", fmt.Errorf("file %q has no download link (Google Docs files must be exported)", path)
		}
		return f.WebContentLink, nil
	}
	return "", fmt.Errorf("file %q: %w", path, ErrNotExist)
}
