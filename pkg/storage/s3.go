package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Store reads and writes execution artefacts under `<executionID>/` in a
// single bucket.
type S3Store struct {
	client      *s3.Client
	bucket      string
	executionID string
	logger      *zap.Logger
}

// NewS3Store builds an S3-backed store for the given execution.
func NewS3Store(ctx context.Context, bucket, executionID string, logger *zap.Logger) (*S3Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("object store bucket is not configured")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Store{
		client:      s3.NewFromConfig(awsCfg),
		bucket:      bucket,
		executionID: executionID,
		logger:      logger,
	}, nil
}

// ExecutionIDFromArn extracts the execution id from a state machine
// execution ARN (the last colon-separated segment).
func ExecutionIDFromArn(arn string) string {
	parts := strings.Split(arn, ":")
	return parts[len(parts)-1]
}

func (s *S3Store) key(name string) string {
	return s.executionID + "/" + name
}

// GetInput fetches `<executionID>/input.json`.
func (s *S3Store) GetInput(ctx context.Context) ([]byte, error) {
	key := s.key("input.json")
	s.logger.Info("fetching input object", zap.String("bucket", s.bucket), zap.String("key", key))

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer out.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	return body, nil
}

// PutOutput stores `<executionID>/output.json`.
func (s *S3Store) PutOutput(ctx context.Context, body []byte) error {
	return s.put(ctx, "output.json", body)
}

// PutText stores `<executionID>/<name>.txt`.
func (s *S3Store) PutText(ctx context.Context, name, content string) error {
	return s.put(ctx, name+".txt", []byte(content))
}

func (s *S3Store) put(ctx context.Context, name string, body []byte) error {
	key := s.key(name)
	s.logger.Info("storing object", zap.String("bucket", s.bucket), zap.String("key", key))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   bytes.NewReader(body),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}
