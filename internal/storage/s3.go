package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"tso/internal/config"
	"tso/internal/domain"
)

// ErrNotFound is returned when a mirrored journal does not exist
var ErrNotFound = errors.New("journal not found")

const journalObject = "results.json"

// S3Mirror copies journals to an S3-compatible bucket, one object per run
type S3Mirror struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

// NewS3Mirror connects to the bucket described by cfg
func NewS3Mirror(cfg config.S3Config) (*S3Mirror, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = config.DefaultS3Region
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &S3Mirror{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

func (s *S3Mirror) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucketName)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Put uploads the journal under its run id
func (s *S3Mirror) Put(ctx context.Context, j *domain.Journal) error {
	if strings.TrimSpace(j.RunID) == "" {
		return fmt.Errorf("run id is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}

	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshal journal: %w", err)
	}
	_, err = s.client.PutObject(ctx, s.bucketName, objectKey(j.RunID), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("put journal %s: %w", j.RunID, err)
	}
	return nil
}

// Get downloads the journal of a run
func (s *S3Mirror) Get(ctx context.Context, runID string) (*domain.Journal, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run id is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, objectKey(runID), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		errResp := minio.ToErrorResponse(err)
		if errResp.Code == "NoSuchKey" || errResp.Code == "NoSuchBucket" {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var j domain.Journal
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse journal %s: %w", runID, err)
	}
	return &j, nil
}

// Runs lists the mirrored run ids, oldest first (ULIDs sort by time)
func (s *S3Mirror) Runs(ctx context.Context) ([]string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}

	var runs []string
	for obj := range s.client.ListObjects(ctx, s.bucketName, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if runID, ok := runFromKey(obj.Key); ok {
			runs = append(runs, runID)
		}
	}
	sort.Strings(runs)
	return runs, nil
}

func objectKey(runID string) string {
	return strings.TrimSpace(runID) + "/" + journalObject
}

func runFromKey(key string) (string, bool) {
	runID, ok := strings.CutSuffix(key, "/"+journalObject)
	if !ok || runID == "" || strings.Contains(runID, "/") {
		return "", false
	}
	return runID, true
}
