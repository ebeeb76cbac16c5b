package sink

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// S3Mirror uploads each flushed JSONL batch as one object, adapted from the
// teacher's S3Storage.Write (which uploads one object per staticated page)
// to "one object per flushed batch," since the unit of output here is a
// batch rather than a page.
type S3Mirror struct {
	svc    *s3.S3
	bucket string
	prefix string
}

// NewS3Mirror builds a mirror writing to region/bucket under prefix. Use
// requires AWS credentials resolved the standard SDK way (environment,
// shared config, or instance role), exactly as the teacher's storage/s3.go
// documents.
func NewS3Mirror(region, bucket, prefix string) (*S3Mirror, error) {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(region)})
	if err != nil {
		return nil, fmt.Errorf("sink: create aws session: %w", err)
	}
	return &S3Mirror{
		svc:    s3.New(sess),
		bucket: bucket,
		prefix: strings.TrimSuffix(prefix, "/"),
	}, nil
}

// WriteBatch uploads lines, newline-joined, as one S3 object keyed by the
// current time, so repeated flushes never collide.
func (m *S3Mirror) WriteBatch(lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	key := fmt.Sprintf("%s/%d.jsonl", m.prefix, time.Now().UnixNano())
	body := strings.Join(lines, "\n") + "\n"

	_, err := m.svc.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader([]byte(body)),
		ContentType: aws.String("application/x-ndjson"),
	})
	return err
}
