package s3

import (
	"FaceDetect/pkg/storage"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// ItfS3 stores uploads in a bucket. It satisfies storage.IStorage,
// storage.Presigner and storage.Remover.
type ItfS3 interface {
	storage.IStorage
	storage.Presigner
	storage.Remover
}

const presignTTL = 15 * time.Minute

type s3Client struct {
	client     *s3.S3
	uploader   *s3manager.Uploader
	bucketName string
	prefix     string
}

func New() (ItfS3, error) {
	bucket := os.Getenv("AWS_BUCKET_NAME")
	if bucket == "" {
		return nil, errors.New("AWS_BUCKET_NAME is required for the s3 storage driver")
	}

	sess, err := newSession()
	if err != nil {
		return nil, err
	}

	return &s3Client{
		client:     s3.New(sess),
		uploader:   s3manager.NewUploader(sess),
		bucketName: bucket,
		prefix:     strings.Trim(os.Getenv("AWS_UPLOAD_PREFIX"), "/"),
	}, nil
}

func (s *s3Client) Save(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	input := &s3manager.UploadInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.key(name)),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	out, err := s.uploader.UploadWithContext(ctx, input)
	if err != nil {
		return "", err
	}

	return out.Location, nil
}

func (s *s3Client) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

// PresignUrl accepts an upload location (or bare key) and returns a GET link
// valid for presignTTL.
func (s *s3Client) PresignUrl(fileUrl string) (string, error) {
	decodedKey := s.keyFromLocation(fileUrl)

	_, err := s.client.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(decodedKey),
	})
	if err != nil {
		return "", fmt.Errorf("file does not exist: %w", err)
	}

	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(decodedKey),
	})

	return req.Presign(presignTTL)
}

func (s *s3Client) DeleteFile(fileName string) error {
	_, err := s.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.keyFromLocation(fileName)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", fileName, err)
	}

	return nil
}

// keyFromLocation turns an upload Location, virtual-hosted or path-style,
// back into its object key. Anything that is not a URL is taken as a key.
func (s *s3Client) keyFromLocation(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.Host == "" {
		return location
	}

	key := strings.TrimPrefix(u.Path, "/")
	if !strings.HasPrefix(u.Host, s.bucketName+".") {
		key = strings.TrimPrefix(key, s.bucketName+"/")
	}
	return key
}

// newSession honors AWS_ENDPOINT for S3-compatible stores such as MinIO,
// which need path-style addressing.
func newSession() (*session.Session, error) {
	cfg := &aws.Config{
		Region: aws.String(os.Getenv("AWS_REGION")),
		Credentials: credentials.NewStaticCredentials(
			os.Getenv("AWS_ACCESS_KEY_ID"),
			os.Getenv("AWS_SECRET_ACCESS_KEY"),
			"",
		),
	}

	if endpoint := os.Getenv("AWS_ENDPOINT"); endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
		cfg.S3ForcePathStyle = aws.Bool(true)
	}

	return session.NewSession(cfg)
}
