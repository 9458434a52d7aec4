// Package s3 provides connect, ensure and disconnect handlers for S3
// compatible object storage.
//
// The handle stored in the registry is a *Client, which pairs the SDK client
// with the configured bucket.
package s3

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/marmos91/connmgr/internal/logger"
	"github.com/marmos91/connmgr/pkg/drivers/props"
	"github.com/marmos91/connmgr/pkg/manager"
	"github.com/marmos91/connmgr/pkg/registry"
)

// ServicePath is the catalog service path of this driver.
const ServicePath = registry.StoreS3

// Client is an S3 client bound to a bucket.
type Client struct {
	*s3.Client
	Bucket string
	Region string
}

// Register adds the s3 handlers to c.
func Register(c *manager.Catalog) error {
	if err := c.Register(ServicePath, manager.DefaultConnectHandler, manager.ConnectFunc(Connect)); err != nil {
		return err
	}
	if err := c.Register(ServicePath, manager.DefaultEnsureHandler, manager.EnsureFunc(Ensure)); err != nil {
		return err
	}
	return c.Register(ServicePath, manager.DefaultDisconnectHandler, manager.DisconnectFunc(Disconnect))
}

// Connect builds the SDK client. No request is sent.
func Connect(ctx context.Context, p manager.Props) (any, error) {
	var cfg Config
	if err := props.Decode(p, &cfg); err != nil {
		return nil, err
	}
	return NewClient(ctx, &cfg)
}

// NewClient builds a Client from cfg.
func NewClient(ctx context.Context, cfg *Config) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	})

	logger.DebugCtx(ctx, "S3 client created",
		logger.KeyBucket, cfg.Bucket,
		logger.KeyRegion, cfg.Region,
		logger.KeyAddress, cfg.Endpoint,
	)
	return &Client{Client: client, Bucket: cfg.Bucket, Region: cfg.Region}, nil
}

// Ensure checks that the bucket is reachable, creating it when the
// "create_bucket" prop is set.
func Ensure(ctx context.Context, p manager.Props, conn any) error {
	c, err := clientFrom(conn)
	if err != nil {
		return err
	}

	var cfg Config
	if err := props.Decode(p, &cfg); err != nil {
		return err
	}

	_, err = c.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.Bucket)})
	if err == nil {
		return nil
	}
	if !isNotFound(err) {
		return fmt.Errorf("failed to check bucket %q: %w", c.Bucket, err)
	}
	if !cfg.CreateBucket {
		return fmt.Errorf("bucket %q does not exist", c.Bucket)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(c.Bucket)}
	// us-east-1 rejects an explicit location constraint.
	if c.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(c.Region),
		}
	}
	if _, err := c.CreateBucket(ctx, input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket %q: %w", c.Bucket, err)
	}

	logger.InfoCtx(ctx, "S3 bucket created", logger.KeyBucket, c.Bucket)
	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NotFound"
}

// Disconnect does nothing: the SDK client holds no resources that need
// releasing.
func Disconnect(context.Context, manager.Props, any) error {
	return nil
}

func clientFrom(conn any) (*Client, error) {
	c, ok := conn.(*Client)
	if !ok || c == nil {
		return nil, fmt.Errorf("s3: expected *s3.Client handle, got %T", conn)
	}
	return c, nil
}
