package config

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/frogopher/internal/logger"
	"github.com/marmos91/frogopher/pkg/metrics"
	"github.com/marmos91/frogopher/pkg/source"
	"github.com/marmos91/frogopher/pkg/source/bucket"
	"github.com/marmos91/frogopher/pkg/source/tips"
)

// InfoOptions configures an "info" source.
type InfoOptions struct {
	// Text is shown as informational lines; "\n" starts a new line.
	Text string `mapstructure:"text" validate:"required"`
}

// TextOptions configures a "text" source. Exactly one of Body and File is set.
type TextOptions struct {
	Path string `mapstructure:"path" validate:"required,startswith=/"`
	Desc string `mapstructure:"desc" validate:"required"`
	Body string `mapstructure:"body" validate:"required_without=File,excluded_with=File"`
	File string `mapstructure:"file" validate:"required_without=Body,excluded_with=Body"`
}

// LinkOptions configures a "link" source.
type LinkOptions struct {
	URL  string `mapstructure:"url" validate:"required,url"`
	Desc string `mapstructure:"desc" validate:"required"`
}

// PlaceholderOptions configures a "placeholder" source.
type PlaceholderOptions struct {
	Path string `mapstructure:"path" validate:"required,startswith=/"`
	Desc string `mapstructure:"desc" validate:"required"`
}

// TipsOptions configures a "tips" source. Unset fields fall back to the
// top-level tips section.
type TipsOptions struct {
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url" validate:"omitempty,url"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"min=0"`
	RequestsPerSecond uint          `mapstructure:"requests_per_second"`
	Burst             uint          `mapstructure:"burst"`
}

// BucketOptions configures a "bucket" source.
type BucketOptions struct {
	Bucket     string `mapstructure:"bucket" validate:"required"`
	Region     string `mapstructure:"region" validate:"required"`
	KeyPrefix  string `mapstructure:"key_prefix"`
	PathPrefix string `mapstructure:"path_prefix" validate:"required"`

	// Endpoint points at an S3-compatible service (MinIO, Localstack).
	// Path-style addressing is used when it is set.
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url"`

	// Static credentials. The default AWS credential chain is used when empty.
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	MaxRetries    int   `mapstructure:"max_retries" validate:"min=0"`
	MaxObjectSize int64 `mapstructure:"max_object_size" validate:"min=0"`
	MaxListItems  int   `mapstructure:"max_list_items" validate:"min=0"`
}

// CreateSource builds the source described by sc.
//
// The Type field selects the implementation; Options are decoded into the
// matching *Options struct and validated before the source is constructed.
// Unknown option keys are rejected.
//
// Parameters:
//   - ctx: Context for initialization operations (AWS config loading)
//   - cfg: The complete configuration, for sections shared between sources
//   - sc: The source entry
//   - sourceMetrics: Collector for remote sources (nil = no metrics)
func CreateSource(ctx context.Context, cfg *Config, sc SourceConfig, sourceMetrics metrics.SourceMetrics) (source.Source, error) {
	switch sc.Type {
	case "info":
		var opts InfoOptions
		if err := decodeOptions(sc, &opts); err != nil {
			return nil, err
		}
		return source.NewInfo(opts.Text), nil

	case "text":
		var opts TextOptions
		if err := decodeOptions(sc, &opts); err != nil {
			return nil, err
		}
		if opts.File != "" {
			return source.NewTextFromFile(opts.Path, opts.Desc, opts.File)
		}
		return source.NewText(opts.Path, opts.Desc, opts.Body), nil

	case "link":
		var opts LinkOptions
		if err := decodeOptions(sc, &opts); err != nil {
			return nil, err
		}
		return source.NewLink(opts.URL, opts.Desc), nil

	case "placeholder":
		var opts PlaceholderOptions
		if err := decodeOptions(sc, &opts); err != nil {
			return nil, err
		}
		return source.NewPlaceholder(opts.Path, opts.Desc), nil

	case "tips":
		return createTipsSource(cfg, sc, sourceMetrics)

	case "bucket":
		return createBucketSource(ctx, sc, sourceMetrics)

	default:
		return nil, fmt.Errorf("source %q: unknown type %q", sc.Name, sc.Type)
	}
}

// decodeOptions decodes and validates the options map of sc into out.
func decodeOptions(sc SourceConfig, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("source %q: failed to create options decoder: %w", sc.Name, err)
	}

	if err := decoder.Decode(sc.Options); err != nil {
		return fmt.Errorf("source %q: invalid %s options: %w", sc.Name, sc.Type, err)
	}

	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("source %q: %w", sc.Name, formatValidationError(err))
	}

	return nil
}

// createTipsSource creates a frog.tips source on top of the shared tips section.
func createTipsSource(cfg *Config, sc SourceConfig, sourceMetrics metrics.SourceMetrics) (source.Source, error) {
	var opts TipsOptions
	if err := decodeOptions(sc, &opts); err != nil {
		return nil, err
	}

	clientCfg := tips.ClientConfig{
		BaseURL:           cfg.Tips.BaseURL,
		APIKey:            cfg.Tips.APIKey,
		Timeout:           cfg.Tips.Timeout,
		RequestsPerSecond: cfg.Tips.RequestsPerSecond,
		Burst:             cfg.Tips.Burst,
	}
	if opts.APIKey != "" {
		clientCfg.APIKey = opts.APIKey
	}
	if opts.BaseURL != "" {
		clientCfg.BaseURL = opts.BaseURL
	}
	if opts.Timeout > 0 {
		clientCfg.Timeout = opts.Timeout
	}
	if opts.RequestsPerSecond > 0 || opts.Burst > 0 {
		clientCfg.RequestsPerSecond = opts.RequestsPerSecond
		clientCfg.Burst = opts.Burst
	}

	if clientCfg.APIKey == "" {
		return nil, fmt.Errorf("source %q: frog.tips API key is required", sc.Name)
	}

	logger.Debug("Tips source %q: base_url=%s timeout=%v rps=%d burst=%d",
		sc.Name, clientCfg.BaseURL, clientCfg.Timeout, clientCfg.RequestsPerSecond, clientCfg.Burst)

	return tips.New(sc.Name, tips.NewClient(clientCfg), sourceMetrics), nil
}

// createBucketSource creates an S3-backed source.
func createBucketSource(ctx context.Context, sc SourceConfig, sourceMetrics metrics.SourceMetrics) (source.Source, error) {
	var opts BucketOptions
	if err := decodeOptions(sc, &opts); err != nil {
		return nil, err
	}

	client, err := newS3Client(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", sc.Name, err)
	}

	src, err := bucket.New(sc.Name, bucket.Config{
		Client:        client,
		Bucket:        opts.Bucket,
		KeyPrefix:     opts.KeyPrefix,
		PathPrefix:    opts.PathPrefix,
		MaxObjectSize: opts.MaxObjectSize,
		MaxListItems:  opts.MaxListItems,
	}, sourceMetrics)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", sc.Name, err)
	}

	logger.Debug("Bucket source %q: s3://%s/%s served under %s", sc.Name, opts.Bucket, opts.KeyPrefix, src.PathPrefix())
	return src, nil
}

// newS3Client builds an S3 client from bucket options.
//
// No request is made here, so a missing bucket surfaces on the first
// lookup rather than at startup.
func newS3Client(ctx context.Context, opts BucketOptions) (*s3.Client, error) {
	configOptions := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(opts.Region),
	}

	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			opts.AccessKeyID,
			opts.SecretAccessKey,
			"",
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	maxRetries := opts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries
		})
	}))

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}
