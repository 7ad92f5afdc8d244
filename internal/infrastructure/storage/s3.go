package storage

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/tubehub/user-service/internal/core/domain"
)

const partSize = 5 * 1024 * 1024

// Config describes an S3-compatible bucket.
type Config struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	PublicBaseURL string
}

type objectUploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type objectDeleter interface {
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store implements ports.MediaStore on an S3-compatible bucket. The object
// key doubles as the media public id.
type S3Store struct {
	uploader objectUploader
	deleter  objectDeleter
	bucket   string
	baseURL  string
	newKey   func(folder, name string) string
}

// NewS3Store loads the AWS configuration and builds the client. Static
// credentials are used when both keys are set, otherwise the default chain.
func NewS3Store(ctx context.Context, cfg Config) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("s3 store: bucket is required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := strings.TrimSuffix(strings.TrimSpace(cfg.Endpoint), "/")
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = partSize
		u.LeavePartsOnError = false
	})

	return newS3Store(uploader, client, cfg.Bucket, publicBaseURL(cfg, endpoint)), nil
}

func newS3Store(up objectUploader, del objectDeleter, bucket, baseURL string) *S3Store {
	return &S3Store{
		uploader: up,
		deleter:  del,
		bucket:   bucket,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		newKey:   objectKey,
	}
}

// Upload stores file under folder and returns its public URL and key.
func (s *S3Store) Upload(ctx context.Context, file domain.MediaFile, folder string) (*domain.Media, error) {
	if file.Body == nil {
		return nil, fmt.Errorf("s3 store: empty upload")
	}
	key := s.newKey(folder, file.Name)

	contentType := file.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(file.Name))
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   file.Body,
		ACL:    s3types.ObjectCannedACLPublicRead,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if file.Size > 0 {
		input.ContentLength = aws.Int64(file.Size)
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return nil, fmt.Errorf("s3 upload %s: %w", key, err)
	}
	return &domain.Media{URL: s.baseURL + "/" + key, PublicID: key}, nil
}

// Delete removes the object. Deleting a missing key is not an error on S3.
func (s *S3Store) Delete(ctx context.Context, publicID string) error {
	key := strings.TrimLeft(publicID, "/")
	if key == "" {
		return nil
	}
	_, err := s.deleter.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

// objectKey builds folder/<uuid><ext>. The client filename only contributes
// its extension.
func objectKey(folder, name string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(name, "\\", "/"))))
	if len(ext) > 8 {
		ext = ""
	}
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return uuid.NewString() + ext
	}
	return folder + "/" + uuid.NewString() + ext
}

func publicBaseURL(cfg Config, endpoint string) string {
	switch {
	case cfg.PublicBaseURL != "":
		return cfg.PublicBaseURL
	case endpoint != "":
		return endpoint + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}
