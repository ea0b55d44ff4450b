// Package bucket serves documents stored in an S3 (or S3-compatible) bucket.
//
// Objects under KeyPrefix are exposed under PathPrefix: with PathPrefix
// "/DOCS/" and KeyPrefix "frog/", selector "/DOCS/care.txt" serves object
// "frog/care.txt". Objects ending in .gz, .zst or .lz4 are decompressed
// before being sent and listed without the suffix: "frog/care.txt.gz" is
// served as "/DOCS/care.txt". An uncompressed object wins over a compressed
// one of the same name.
//
// Every Find and every menu listing goes to S3; nothing is cached.
package bucket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/frogopher/internal/logger"
	"github.com/marmos91/frogopher/internal/protocol/gopher"
	"github.com/marmos91/frogopher/pkg/metrics"
)

const (
	// DefaultMaxObjectSize caps the decoded size of a served object.
	DefaultMaxObjectSize = 1 << 20

	// DefaultMaxListItems caps how many objects are listed in the root menu.
	DefaultMaxListItems = 1000
)

var (
	// ErrObjectNotFound is returned when the key does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrObjectTooLarge is returned when an object exceeds the size cap.
	ErrObjectTooLarge = errors.New("object too large")
)

// API is the subset of *s3.Client used by Source.
type API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config configures a bucket Source.
type Config struct {
	// Client is the S3 client. Required.
	Client API

	// Bucket is the bucket name. Required.
	Bucket string

	// KeyPrefix restricts the source to keys starting with it.
	KeyPrefix string

	// PathPrefix is the selector prefix. It is normalized to start and end with "/".
	PathPrefix string

	// MaxObjectSize caps the decoded size of a served object.
	// Default: DefaultMaxObjectSize
	MaxObjectSize int64

	// MaxListItems caps the number of menu entries.
	// Default: DefaultMaxListItems
	MaxListItems int
}

// Source serves objects of one bucket prefix.
type Source struct {
	name          string
	client        API
	bucket        string
	keyPrefix     string
	pathPrefix    string
	maxObjectSize int64
	maxListItems  int
	metrics       metrics.SourceMetrics
}

// New returns a bucket Source. A nil m disables metrics.
func New(name string, cfg Config, m metrics.SourceMetrics) (*Source, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	if cfg.MaxObjectSize <= 0 {
		cfg.MaxObjectSize = DefaultMaxObjectSize
	}
	if cfg.MaxListItems <= 0 {
		cfg.MaxListItems = DefaultMaxListItems
	}
	if m == nil {
		m = metrics.NewNoopSourceMetrics()
	}

	return &Source{
		name:          name,
		client:        cfg.Client,
		bucket:        cfg.Bucket,
		keyPrefix:     cfg.KeyPrefix,
		pathPrefix:    normalizePathPrefix(cfg.PathPrefix),
		maxObjectSize: cfg.MaxObjectSize,
		maxListItems:  cfg.MaxListItems,
		metrics:       m,
	}, nil
}

func normalizePathPrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return "/"
	}
	return "/" + p + "/"
}

// PathPrefix returns the normalized selector prefix.
func (s *Source) PathPrefix() string {
	return s.pathPrefix
}

// Find serves the object named by the selector below PathPrefix.
func (s *Source) Find(ctx context.Context, path gopher.Path) (gopher.Selected, bool) {
	rel, ok := strings.CutPrefix(path.Val, s.pathPrefix)
	if !ok || rel == "" || strings.HasSuffix(rel, "/") {
		return nil, false
	}

	body, err := s.fetchAny(ctx, s.keyPrefix+rel)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			logger.Debug("[%s] %s: %v", s.name, path.Val, err)
		} else {
			logger.Warn("[%s] %s: %v", s.name, path.Val, err)
		}
		return nil, false
	}

	return gopher.Text{Body: body}, true
}

// fetchAny fetches key, then key with each compression suffix, stopping at the
// first object that exists.
func (s *Source) fetchAny(ctx context.Context, key string) (string, error) {
	body, err := s.fetch(ctx, key)
	if !errors.Is(err, ErrObjectNotFound) || isCompressed(key) {
		return body, err
	}

	for _, ext := range compressedExts {
		body, err = s.fetch(ctx, key+ext)
		if !errors.Is(err, ErrObjectNotFound) {
			return body, err
		}
	}
	return "", fmt.Errorf("key %q: %w", key, ErrObjectNotFound)
}

func (s *Source) fetch(ctx context.Context, key string) (body string, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveCall(s.name, "get_object", time.Since(start), err)
	}()

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NoSuchKey
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("key %q: %w", key, ErrObjectNotFound)
		}
		return "", fmt.Errorf("get object %q: %w", key, err)
	}
	defer func() { _ = result.Body.Close() }()

	if result.ContentLength != nil && !isCompressed(key) && *result.ContentLength > s.maxObjectSize {
		return "", fmt.Errorf("key %q is %d bytes: %w", key, *result.ContentLength, ErrObjectTooLarge)
	}

	r, err := decoder(key, result.Body)
	if err != nil {
		return "", fmt.Errorf("decode object %q: %w", key, err)
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(io.LimitReader(r, s.maxObjectSize+1))
	if err != nil {
		return "", fmt.Errorf("read object %q: %w", key, err)
	}
	if int64(len(data)) > s.maxObjectSize {
		return "", fmt.Errorf("key %q exceeds %d bytes: %w", key, s.maxObjectSize, ErrObjectTooLarge)
	}

	return string(data), nil
}

// MenuItems lists the objects below KeyPrefix in key order, compression
// suffixes dropped and duplicates listed once. Listing failures end the
// sequence early and are logged.
func (s *Source) MenuItems(ctx context.Context) iter.Seq[gopher.MenuItem] {
	return func(yield func(gopher.MenuItem) bool) {
		start := time.Now()
		var err error
		defer func() {
			s.metrics.ObserveCall(s.name, "list_objects", time.Since(start), err)
		}()

		paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
			Bucket: aws.String(s.bucket),
			Prefix: aws.String(s.keyPrefix),
		})

		seen := make(map[string]bool)
		for paginator.HasMorePages() {
			var page *s3.ListObjectsV2Output
			page, err = paginator.NextPage(ctx)
			if err != nil {
				logger.Warn("[%s] list objects in %s/%s: %v", s.name, s.bucket, s.keyPrefix, err)
				return
			}

			for _, obj := range page.Contents {
				rel := trimCompression(strings.TrimPrefix(aws.ToString(obj.Key), s.keyPrefix))
				if rel == "" || strings.HasSuffix(rel, "/") || seen[rel] {
					continue
				}
				if len(seen) >= s.maxListItems {
					return
				}
				seen[rel] = true

				if !yield(gopher.TextItem{Path: gopher.NewPath(s.pathPrefix + rel), Desc: rel}) {
					return
				}
			}
		}
	}
}
