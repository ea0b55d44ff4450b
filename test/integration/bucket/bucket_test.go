//go:build integration

package bucket_test

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/frogopher/internal/protocol/gopher"
	"github.com/marmos91/frogopher/pkg/config"
)

const bucketName = "frogopher-test-bucket"

func localstackEndpoint() string {
	if endpoint := os.Getenv("LOCALSTACK_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	return "http://localhost:4566"
}

// setupTestS3 creates the test bucket on Localstack and returns a client
// for seeding it. The bucket is emptied and removed on cleanup.
func setupTestS3(t *testing.T) *s3.Client {
	t.Helper()
	ctx := context.Background()

	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion("us-east-1"),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "")),
	)
	require.NoError(t, err)

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(localstackEndpoint())
		o.UsePathStyle = true
	})

	_, err = client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucketName)})
	require.NoError(t, err, "is Localstack running? docker run --rm -p 4566:4566 localstack/localstack")

	t.Cleanup(func() {
		listResp, _ := client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(bucketName)})
		if listResp != nil {
			for _, obj := range listResp.Contents {
				_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucketName), Key: obj.Key})
			}
		}
		_, _ = client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucketName)})
	})

	return client
}

func putObject(t *testing.T, client *s3.Client, key string, body []byte) {
	t.Helper()
	_, err := client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket: aws.String(bucketName),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	require.NoError(t, err)
}

// TestBucketSource_Integration serves objects of a real S3-compatible
// service through a source built from configuration.
//
// Run with: go test -tags=integration ./test/integration/bucket/...
func TestBucketSource_Integration(t *testing.T) {
	ctx := context.Background()
	client := setupTestS3(t)

	putObject(t, client, "docs/POND.txt", []byte("A FROG SITS IN A POND."))

	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte("COMPRESSED FROG."))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	putObject(t, client, "docs/LILY.txt.gz", gz.Bytes())

	putObject(t, client, "elsewhere/HIDDEN.txt", []byte("NOT UNDER THE PREFIX"))

	cfg := config.GetDefaultConfig()
	src, err := config.CreateSource(ctx, cfg, config.SourceConfig{
		Name: "docs",
		Type: "bucket",
		Options: map[string]any{
			"bucket":            bucketName,
			"region":            "us-east-1",
			"endpoint":          localstackEndpoint(),
			"access_key_id":     "test",
			"secret_access_key": "test",
			"key_prefix":        "docs/",
			"path_prefix":       "/DOCS",
		},
	}, nil)
	require.NoError(t, err)

	sel, ok := src.Find(ctx, gopher.NewPath("/DOCS/POND.txt"))
	require.True(t, ok)
	assert.Equal(t, gopher.Text{Body: "A FROG SITS IN A POND."}, sel)

	sel, ok = src.Find(ctx, gopher.NewPath("/DOCS/LILY.txt"))
	require.True(t, ok)
	assert.Equal(t, gopher.Text{Body: "COMPRESSED FROG."}, sel)

	_, ok = src.Find(ctx, gopher.NewPath("/DOCS/MISSING.txt"))
	assert.False(t, ok)

	var paths []string
	for item := range src.MenuItems(ctx) {
		text, isText := item.(gopher.TextItem)
		require.True(t, isText)
		paths = append(paths, text.Path.Val)
	}
	assert.Equal(t, []string{"/DOCS/LILY.txt", "/DOCS/POND.txt"}, paths)
}
