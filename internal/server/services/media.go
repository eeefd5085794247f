package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/fudbi/fudbi/internal/common"
	sc "github.com/fudbi/fudbi/internal/server/config"
	"github.com/fudbi/fudbi/internal/server/models"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

const imageKeyPrefix = "posts/"

var imageExtensions = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

// UploadTarget tells the client where to PUT a food photo and which key to
// attach to the post afterwards.
type UploadTarget struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
}

// MediaService hands out presigned S3 URLs for food photos. The server never
// proxies image bytes.
type MediaService struct {
	config *sc.Config
}

func NewMediaService(config *sc.Config) *MediaService {
	return &MediaService{config: config}
}

func GetRandomStorageKey(userID, ext string) string {
	d := time.Now().UTC()
	return fmt.Sprintf("%s%s/%d/%02d/%02d/%v.%s", imageKeyPrefix, userID, d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}

func (s *MediaService) getPresignClient() (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(context.Background(),
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3AccessKey,
			s.config.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// PresignUpload validates the announced image and returns a short-lived PUT
// URL bound to its content type and size.
func (s *MediaService) PresignUpload(ctx context.Context, uc *models.UserContext, contentType string, size int64) (*UploadTarget, error) {
	if err := requireRole(uc, models.RoleHost, models.RoleAdmin); err != nil {
		return nil, err
	}
	ext, ok := imageExtensions[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, fmt.Errorf("%w: only JPEG, PNG and WebP images are accepted", common.ErrorValidation)
	}
	if size <= 0 || size > s.config.MaxImageSize {
		return nil, fmt.Errorf("%w: image must be between 1 byte and %d bytes", common.ErrorValidation, s.config.MaxImageSize)
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := GetRandomStorageKey(uc.UserID, ext)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:        &bucket,
		Key:           &key,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	}, s3.WithPresignExpires(s.config.UploadURLTTL))
	if err != nil {
		return nil, err
	}

	return &UploadTarget{Key: key, UploadURL: req.URL}, nil
}

// PresignDownload returns a GET URL for a stored food photo.
func (s *MediaService) PresignDownload(ctx context.Context, key string) (string, error) {
	if !strings.HasPrefix(key, imageKeyPrefix) || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: unknown image key", common.ErrorValidation)
	}

	presignClient, err := s.getPresignClient()
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.config.UploadURLTTL))
	if err != nil {
		return "", err
	}

	return req.URL, nil
}
