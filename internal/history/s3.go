package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"starscope/internal/cache"
	"starscope/internal/utils"
)

// S3Writer uploads analysis batches to S3 as JSON Lines files.
type S3Writer struct {
	client *s3.Client
	bucket string
	prefix string
	logger *utils.Logger
}

func NewS3Writer(ctx context.Context, bucket, region, prefix string) (*S3Writer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Writer{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
		logger: utils.NewLogger("s3-writer"),
	}, nil
}

// WriteBatch uploads one batch and returns the S3 key it was written to.
// Keys are date-partitioned: prefix + 2026/08/31/analyses-20260831-143022-123456789.jsonl
func (w *S3Writer) WriteBatch(ctx context.Context, records []cache.Record) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	now := time.Now()
	key := fmt.Sprintf("%s%04d/%02d/%02d/analyses-%s-%d.jsonl",
		w.prefix,
		now.Year(),
		now.Month(),
		now.Day(),
		now.Format("20060102-150405"),
		now.Nanosecond(),
	)

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	for _, record := range records {
		if err := encoder.Encode(record); err != nil {
			w.logger.Error("failed to encode record", "id", record.ID, "error", err)
			continue
		}
	}

	_, err := w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	w.logger.Info("wrote batch to S3", "key", key, "count", len(records), "bytes", buf.Len())
	return key, nil
}
