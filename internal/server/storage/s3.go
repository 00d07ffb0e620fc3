package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/deliverhub/deliverhub/internal/common"
	sc "github.com/deliverhub/deliverhub/internal/server/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/sethvargo/go-retry"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignUploadPart = func(pc *s3.PresignClient, ctx context.Context, in *s3.UploadPartInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignUploadPart(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Storage implements ObjectStorage against an S3-compatible backend.
// Constructed once at startup and passed explicitly to the components that
// need it.
type S3Storage struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	timeout time.Duration
}

// NewS3Storage builds the S3 client from the server configuration.
func NewS3Storage(ctx context.Context, cfg *sc.Config) (*S3Storage, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Storage{
		client:  client,
		presign: newS3PresignClient(client),
		bucket:  cfg.S3Bucket,
		timeout: cfg.StorageTimeout,
	}, nil
}

// withRetry runs op with the bounded retry policy used for idempotent calls.
func (s *S3Storage) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(250*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := op(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (s *S3Storage) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *S3Storage) CreateMultipartUpload(ctx context.Context, key, contentType string) (string, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var uploadID string
	err := s.withRetry(ctx, func(ctx context.Context) error {
		out, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(key),
			ContentType: aws.String(contentType),
		})
		if err != nil {
			return err
		}
		uploadID = aws.ToString(out.UploadId)
		return nil
	})
	if err != nil {
		return "", &common.UpstreamError{Op: "s3 create multipart upload", Err: err}
	}
	return uploadID, nil
}

func (s *S3Storage) PresignUploadPart(ctx context.Context, key, uploadID string, partNumber int32, ttl time.Duration) (string, error) {
	req, err := presignUploadPart(s.presign, ctx, &s3.UploadPartInput{
		Bucket:     aws.String(s.bucket),
		Key:        aws.String(key),
		UploadId:   aws.String(uploadID),
		PartNumber: aws.Int32(partNumber),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", &common.UpstreamError{Op: "s3 presign upload part", Err: err}
	}
	return req.URL, nil
}

// CompleteMultipartUpload is deliberately not wrapped in withRetry: a blind
// retry after an ambiguous failure can double-finalize. Callers disambiguate
// via ObjectExists instead.
func (s *S3Storage) CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []CompletedPart) (string, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	completed := make([]types.CompletedPart, 0, len(parts))
	for _, p := range parts {
		completed = append(completed, types.CompletedPart{
			PartNumber: aws.Int32(p.PartNumber),
			ETag:       aws.String(p.ETag),
		})
	}

	out, err := s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return "", &common.UpstreamError{Op: "s3 complete multipart upload", Err: err}
	}
	return aws.ToString(out.Location), nil
}

func (s *S3Storage) AbortMultipartUpload(ctx context.Context, key, uploadID string) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	err := s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
			Bucket:   aws.String(s.bucket),
			Key:      aws.String(key),
			UploadId: aws.String(uploadID),
		})
		if err != nil && isNoSuchUpload(err) {
			// already aborted or never existed; abort is idempotent
			return nil
		}
		return err
	})
	if err != nil {
		return &common.UpstreamError{Op: "s3 abort multipart upload", Err: err}
	}
	return nil
}

func (s *S3Storage) DeleteObject(ctx context.Context, key string) error {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	err := s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		return &common.UpstreamError{Op: "s3 delete object", Err: err}
	}
	return nil
}

func (s *S3Storage) ObjectExists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, &common.UpstreamError{Op: "s3 head object", Err: err}
	}
	return true, nil
}

func (s *S3Storage) PresignGetObject(ctx context.Context, key string, ttl time.Duration, disposition string) (string, error) {
	in := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if disposition != "" {
		in.ResponseContentDisposition = aws.String(disposition)
	}

	req, err := presignGetObject(s.presign, ctx, in, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", &common.UpstreamError{Op: "s3 presign get object", Err: err}
	}
	return req.URL, nil
}

func (s *S3Storage) ListUnfinishedUploads(ctx context.Context, olderThan time.Time) ([]UnfinishedUpload, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var result []UnfinishedUpload
	err := s.withRetry(ctx, func(ctx context.Context) error {
		result = result[:0]
		var keyMarker, idMarker *string
		for {
			out, err := s.client.ListMultipartUploads(ctx, &s3.ListMultipartUploadsInput{
				Bucket:         aws.String(s.bucket),
				KeyMarker:      keyMarker,
				UploadIdMarker: idMarker,
			})
			if err != nil {
				return err
			}
			for _, u := range out.Uploads {
				if u.Initiated != nil && u.Initiated.Before(olderThan) {
					result = append(result, UnfinishedUpload{
						Key:       aws.ToString(u.Key),
						UploadID:  aws.ToString(u.UploadId),
						Initiated: *u.Initiated,
					})
				}
			}
			if !aws.ToBool(out.IsTruncated) {
				return nil
			}
			keyMarker = out.NextKeyMarker
			idMarker = out.NextUploadIdMarker
		}
	})
	if err != nil {
		return nil, &common.UpstreamError{Op: "s3 list multipart uploads", Err: err}
	}
	return result, nil
}

func isNoSuchUpload(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchUpload"
}
