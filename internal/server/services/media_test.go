package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fudbi/fudbi/internal/common"
	sc "github.com/fudbi/fudbi/internal/server/config"
	"github.com/fudbi/fudbi/internal/server/models"
)

func newMediaSvc() *MediaService {
	return NewMediaService(&sc.Config{
		S3Region:       "ap-south-1",
		S3AccessKey:    "minioadmin",
		S3SecretKey:    "minioadmin",
		S3BaseEndpoint: "http://127.0.0.1:9000",
		S3Bucket:       "fudbi-food-images",
		UploadURLTTL:   5 * time.Minute,
		MaxImageSize:   1 << 20,
	})
}

// stubS3 replaces the SDK seams for the duration of the test.
func stubS3(t *testing.T) {
	t.Helper()
	origLoad, origNewS3, origNewPre := loadDefaultAWSConfig, newS3ClientFromConfig, newS3PresignClient
	origPut, origGet := presignPutObject, presignGetObject
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNewS3
		newS3PresignClient = origNewPre
		presignPutObject = origPut
		presignGetObject = origGet
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, nil
	}
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client { return &s3.Client{} }
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient { return &s3.PresignClient{} }
}

func Test_getPresignClient_AppliesConfig(t *testing.T) {
	stubS3(t)
	svc := newMediaSvc()

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "ap-south-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "minioadmin", creds.AccessKeyID)
		return aws.Config{}, nil
	}
	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	pc, err := svc.getPresignClient()
	require.NoError(t, err)
	assert.NotNil(t, pc)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://127.0.0.1:9000", *opts.BaseEndpoint)
	assert.True(t, opts.UsePathStyle)

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}
	_, err = svc.getPresignClient()
	assert.EqualError(t, err, "load-fail")
}

func TestMediaService_PresignUpload(t *testing.T) {
	stubS3(t)
	svc := newMediaSvc()
	host := &models.UserContext{UserID: "h1", Role: models.RoleHost}

	var got *s3.PutObjectInput
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		got = in
		var po s3.PresignOptions
		for _, fn := range optFns {
			fn(&po)
		}
		assert.Equal(t, 5*time.Minute, po.Expires)
		return &v4.PresignedHTTPRequest{URL: "https://s3/upload?sig=1"}, nil
	}

	target, err := svc.PresignUpload(context.Background(), host, "image/png", 2048)
	require.NoError(t, err)
	assert.Equal(t, "https://s3/upload?sig=1", target.UploadURL)
	assert.True(t, strings.HasPrefix(target.Key, "posts/h1/"))
	assert.True(t, strings.HasSuffix(target.Key, ".png"))

	require.NotNil(t, got)
	assert.Equal(t, "fudbi-food-images", *got.Bucket)
	assert.Equal(t, target.Key, *got.Key)
	assert.Equal(t, "image/png", *got.ContentType)
	assert.Equal(t, int64(2048), *got.ContentLength)
}

func TestMediaService_PresignUploadRejects(t *testing.T) {
	stubS3(t)
	svc := newMediaSvc()
	ctx := context.Background()
	host := &models.UserContext{UserID: "h1", Role: models.RoleHost}

	_, err := svc.PresignUpload(ctx, host, "image/gif", 100)
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = svc.PresignUpload(ctx, host, "image/jpeg", 2<<20)
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = svc.PresignUpload(ctx, host, "image/jpeg", 0)
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = svc.PresignUpload(ctx, &models.UserContext{UserID: "v1", Role: models.RoleVolunteer}, "image/jpeg", 10)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign-put-fail")
	}
	_, err = svc.PresignUpload(ctx, host, "image/jpeg", 10)
	assert.EqualError(t, err, "presign-put-fail")
}

func TestMediaService_PresignDownload(t *testing.T) {
	stubS3(t)
	svc := newMediaSvc()
	ctx := context.Background()

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return &v4.PresignedHTTPRequest{URL: "https://s3/" + *in.Key}, nil
	}

	url, err := svc.PresignDownload(ctx, "posts/h1/2025/03/01/x.jpg")
	require.NoError(t, err)
	assert.Equal(t, "https://s3/posts/h1/2025/03/01/x.jpg", url)

	_, err = svc.PresignDownload(ctx, "users/secret")
	assert.ErrorIs(t, err, common.ErrorValidation)
	_, err = svc.PresignDownload(ctx, "posts/../users/secret")
	assert.ErrorIs(t, err, common.ErrorValidation)
}
