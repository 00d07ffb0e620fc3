package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/deliverhub/deliverhub/internal/common"
	sc "github.com/deliverhub/deliverhub/internal/server/config"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Storage_ClientOptions(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	origPresign := newS3PresignClient
	defer func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
		newS3PresignClient = origPresign
	}()

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*config.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}

	var gotOpts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&gotOpts)
		}
		return nil
	}
	newS3PresignClient = func(*s3.Client) *s3.PresignClient { return nil }

	cfg := &sc.Config{
		S3Bucket:       "deliverhub",
		S3Region:       "us-east-1",
		S3BaseEndpoint: "http://127.0.0.1:9000/",
		StorageTimeout: 15 * time.Second,
	}
	store, err := NewS3Storage(context.Background(), cfg)
	require.NoError(t, err)

	assert.True(t, gotOpts.UsePathStyle)
	assert.Equal(t, "http://127.0.0.1:9000/", aws.ToString(gotOpts.BaseEndpoint))
	assert.Equal(t, "deliverhub", store.bucket)
	assert.Equal(t, 15*time.Second, store.timeout)
}

func TestPresignUploadPart(t *testing.T) {
	orig := presignUploadPart
	defer func() { presignUploadPart = orig }()

	var got *s3.UploadPartInput
	presignUploadPart = func(_ *s3.PresignClient, _ context.Context, in *s3.UploadPartInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		got = in
		return &v4.PresignedHTTPRequest{URL: "https://signed.example/part"}, nil
	}

	s := &S3Storage{bucket: "b", timeout: time.Second}
	url, err := s.PresignUploadPart(context.Background(), "k", "u1", 3, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, "https://signed.example/part", url)

	require.NotNil(t, got)
	assert.Equal(t, "b", aws.ToString(got.Bucket))
	assert.Equal(t, "k", aws.ToString(got.Key))
	assert.Equal(t, "u1", aws.ToString(got.UploadId))
	assert.Equal(t, int32(3), aws.ToInt32(got.PartNumber))
}

func TestPresignGetObject_Disposition(t *testing.T) {
	orig := presignGetObject
	defer func() { presignGetObject = orig }()

	var got *s3.GetObjectInput
	presignGetObject = func(_ *s3.PresignClient, _ context.Context, in *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		got = in
		return &v4.PresignedHTTPRequest{URL: "https://signed.example/get"}, nil
	}

	s := &S3Storage{bucket: "b", timeout: time.Second}

	_, err := s.PresignGetObject(context.Background(), "k", 30*time.Minute, `attachment; filename="a.mp4"`)
	require.NoError(t, err)
	assert.Equal(t, `attachment; filename="a.mp4"`, aws.ToString(got.ResponseContentDisposition))

	_, err = s.PresignGetObject(context.Background(), "k", 30*time.Minute, "")
	require.NoError(t, err)
	assert.Nil(t, got.ResponseContentDisposition)
}

func TestPresignFailureIsUpstream(t *testing.T) {
	orig := presignGetObject
	defer func() { presignGetObject = orig }()

	presignGetObject = func(*s3.PresignClient, context.Context, *s3.GetObjectInput, ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("signer broken")
	}

	s := &S3Storage{bucket: "b", timeout: time.Second}
	_, err := s.PresignGetObject(context.Background(), "k", time.Minute, "")
	assert.True(t, errors.Is(err, common.ErrorUpstream))
}

func TestIsNoSuchUpload(t *testing.T) {
	assert.True(t, isNoSuchUpload(&smithy.GenericAPIError{Code: "NoSuchUpload", Message: "gone"}))
	assert.False(t, isNoSuchUpload(&smithy.GenericAPIError{Code: "AccessDenied"}))
	assert.False(t, isNoSuchUpload(errors.New("plain")))
}
