package profiles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/eduassist/internal/common"
	"github.com/dmitrijs2005/eduassist/internal/models"
)

var loadDefaultAWSConfig = config.LoadDefaultConfig

// objectAPI is the subset of *s3.Client used by S3Repository.
type objectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Options locates the bucket. Endpoint may point at MinIO.
type S3Options struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// S3Repository keeps one JSON object per profile under profiles/<id>.json.
// Writes are read-modify-write and serialised within the process.
type S3Repository struct {
	api    objectAPI
	bucket string
	mu     sync.Mutex
}

func NewS3Repository(ctx context.Context, o S3Options) (*S3Repository, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
		}
		so.UsePathStyle = true
	})
	return newS3Repository(client, o.Bucket), nil
}

func newS3Repository(api objectAPI, bucket string) *S3Repository {
	return &S3Repository{api: api, bucket: bucket}
}

func objectKey(id string) string {
	return "profiles/" + id + ".json"
}

func isNoSuchKey(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func (r *S3Repository) Read(ctx context.Context, id string) (*models.ProfileRecord, error) {
	out, err := r.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectKey(id)),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("s3 error: %w", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("s3 error: %w", err)
	}
	var rec models.ProfileRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return &rec, nil
}

func (r *S3Repository) Upsert(ctx context.Context, id string, fields models.ProfileFields, merge bool) (*models.ProfileRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := &models.ProfileRecord{ID: id}
	if merge {
		cur, err := r.Read(ctx, id)
		switch {
		case err == nil:
			rec = cur
		case !errors.Is(err, common.ErrorNotFound):
			return nil, err
		}
	}
	fields.Apply(rec, merge)

	body, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	_, err = r.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(objectKey(id)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 error: %w", err)
	}
	return rec, nil
}

func (r *S3Repository) Delete(ctx context.Context, id string) error {
	_, err := r.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectKey(id)),
	})
	if err != nil && !isNoSuchKey(err) {
		return fmt.Errorf("s3 error: %w", err)
	}
	return nil
}
