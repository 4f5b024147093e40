package objects

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"metaregistry/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	uploadTimeout  = 2 * time.Minute
)

// S3Storage хранит объекты в S3-совместимом бакете
type S3Storage struct {
	client *s3.Client
	bucket string
}

// NewS3Storage создает клиента S3 и проверяет доступность бакета
func NewS3Storage(conf *Config) (*S3Storage, error) {
	if conf == nil {
		return nil, fmt.Errorf("configuration is required")
	}

	creds := aws.NewCredentialsCache(credentials.NewStaticCredentialsProvider(
		conf.AccessKeyID,
		conf.SecretAccessKey,
		"",
	))

	opts := s3.Options{
		Region:           conf.Region,
		Credentials:      creds,
		RetryMode:        aws.RetryModeAdaptive,
		RetryMaxAttempts: 3,
	}
	if conf.Endpoint != "" {
		opts.BaseEndpoint = aws.String(conf.Endpoint)
	}

	storage := &S3Storage{
		client: s3.New(opts),
		bucket: conf.Bucket,
	}

	// Проверяем подключение к бакету
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	_, err := storage.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(conf.Bucket),
	})
	if err != nil {
		return nil, fmt.Errorf("unable to access bucket %s: %w", conf.Bucket, err)
	}

	return storage, nil
}

// PutObject загружает байты объекта в бакет
func (s *S3Storage) PutObject(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageWrite, err)
	}

	return nil
}

// GetObject получает объект из бакета
func (s *S3Storage) GetObject(ctx context.Context, key string) (Object, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("%w: object %s", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}

	contentType := "application/json"
	if result.ContentType != nil {
		contentType = *result.ContentType
	}

	var contentLength int64
	if result.ContentLength != nil {
		contentLength = *result.ContentLength
	}

	return &object{
		ReadCloser:    result.Body,
		contentLength: contentLength,
		contentType:   contentType,
	}, nil
}
