package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/slmtnm/s4view/internal/browser"
)

// s3API is the part of *s3.Client the browser uses.
type s3API interface {
	s3.ListObjectsV2APIClient
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Client exposes one bucket as browser storage. Folders are key prefixes
// ending in "/". Paths are matched case-insensitively: entries carry
// lower-cased paths and the real keys are remembered as listings arrive.
type S3Client struct {
	client  s3API
	presign func(ctx context.Context, input *s3.GetObjectInput, ttl time.Duration) (string, error)
	bucket  string
	linkTTL time.Duration

	mu   sync.Mutex
	keys map[string]string // lower-cased key or prefix -> real key or prefix
}

var _ browser.Storage = (*S3Client)(nil)

// NewS3Client creates a new S3 client from configuration
func NewS3Client(ctx context.Context, cfg *S3Config, bucket string, linkTTL time.Duration) (*S3Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		config.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.GetEndpointURL())
		o.UsePathStyle = true // Required for MinIO and some S3-compatible services
	})
	presigner := s3.NewPresignClient(client)

	return &S3Client{
		client: client,
		presign: func(ctx context.Context, input *s3.GetObjectInput, ttl time.Duration) (string, error) {
			req, err := presigner.PresignGetObject(ctx, input, s3.WithPresignExpires(ttl))
			if err != nil {
				return "", err
			}
			return req.URL, nil
		},
		bucket:  bucket,
		linkTTL: linkTTL,
	}, nil
}

func (c *S3Client) remember(key string) {
	lower := strings.ToLower(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.keys == nil {
		c.keys = make(map[string]string)
	}
	// Keys differing only in case: the first listed wins.
	if _, ok := c.keys[lower]; !ok {
		c.keys[lower] = key
	}
}

func (c *S3Client) lookup(lower string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, ok := c.keys[lower]
	return key, ok
}

// resolve returns the real key or prefix for a lower-cased one. Unknown keys
// are learned by listing their parent folder.
func (c *S3Client) resolve(ctx context.Context, lower string) (string, error) {
	if lower == "" {
		return "", nil
	}
	if key, ok := c.lookup(lower); ok {
		return key, nil
	}

	name := strings.TrimSuffix(lower, "/")
	parent := ""
	if i := strings.LastIndex(name, "/"); i >= 0 {
		parent = name[:i+1]
	}
	parentPrefix, err := c.resolve(ctx, parent)
	if err != nil {
		return "", err
	}
	if _, err := c.list(ctx, parentPrefix, false); err != nil {
		return "", err
	}
	if key, ok := c.lookup(lower); ok {
		return key, nil
	}
	return "", fmt.Errorf("%q: %w", "/"+name, ErrNotExist)
}

// folderPrefix turns a browser path into the key prefix listing that folder.
func folderPrefix(path string) string {
	prefix := strings.Trim(path, "/")
	if prefix == "" {
		return ""
	}
	return prefix + "/"
}

// objectKey turns a browser path into an object key.
func objectKey(path string) string {
	return strings.TrimPrefix(path, "/")
}

// ListFolder lists the objects and common prefixes directly under path.
func (c *S3Client) ListFolder(ctx context.Context, path string, includeMediaInfo bool) ([]*browser.Entry, error) {
	prefix, err := c.resolve(ctx, folderPrefix(strings.ToLower(path)))
	if err != nil {
		return nil, err
	}
	return c.list(ctx, prefix, includeMediaInfo)
}

func (c *S3Client) list(ctx context.Context, prefix string, includeMediaInfo bool) ([]*browser.Entry, error) {
	paginator := s3.NewListObjectsV2Paginator(c.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(c.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var entries []*browser.Entry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		// Add directories (common prefixes)
		for _, p := range page.CommonPrefixes {
			folder := aws.ToString(p.Prefix)
			key := strings.TrimSuffix(folder, "/")
			if key == "" {
				continue
			}
			c.remember(folder)
			entries = append(entries, browser.NewFolder(baseName(key), "/"+strings.ToLower(key)))
		}

		// Add files
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") { // Skip directory markers
				continue
			}
			c.remember(key)
			entry := browser.NewFile(baseName(key), "/"+strings.ToLower(key), aws.ToInt64(obj.Size))
			if includeMediaInfo {
				entry.Meta = objectMeta(obj)
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}

func objectMeta(obj types.Object) map[string]string {
	meta := map[string]string{
		"etag":          strings.Trim(aws.ToString(obj.ETag), `"`),
		"storage_class": string(obj.StorageClass),
	}
	if obj.LastModified != nil {
		meta["last_modified"] = obj.LastModified.Format("2006-01-02 15:04:05")
	}
	return meta
}

func baseName(key string) string {
	if i := strings.LastIndex(key, "/"); i >= 0 {
		return key[i+1:]
	}
	return key
}

// GetTemporaryLink presigns a GET for the object at path.
func (c *S3Client) GetTemporaryLink(ctx context.Context, path string) (string, error) {
	key, err := c.resolve(ctx, strings.ToLower(objectKey(path)))
	if err != nil {
		return "", err
	}
	link, err := c.presign(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, c.linkTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign object: %w", err)
	}
	return link, nil
}

// HeadBucket checks if a bucket exists and is accessible
func (c *S3Client) HeadBucket(ctx context.Context) error {
	input := &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	}

	_, err := c.client.HeadBucket(ctx, input)
	if err != nil {
		if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "NoSuchBucket") {
			return fmt.Errorf("bucket '%s' does not exist", c.bucket)
		}
		return fmt.Errorf("failed to access bucket '%s': %w", c.bucket, err)
	}

	return nil
}
