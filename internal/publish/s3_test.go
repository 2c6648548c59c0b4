package publish

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	bucket      string
	key         string
	contentType string
	body        []byte
	err         error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	f.contentType = aws.ToString(in.ContentType)
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = body
	return &s3.PutObjectOutput{}, nil
}

func writeReport(t *testing.T) string {
	t.Helper()

	p := filepath.Join(t.TempDir(), "execution_20260101120000.csv")
	require.NoError(t, os.WriteFile(p, []byte("fuel_type,buy_amount\n1,2\n"), 0o644))
	return p
}

func TestPublish(t *testing.T) {
	report := writeReport(t)
	fake := &fakePutter{}
	p := newWithClient(fake, "reports", "/runs/")

	key, err := p.Publish(context.Background(), report)
	require.NoError(t, err)

	assert.Equal(t, "runs/execution_20260101120000.csv", key)
	assert.Equal(t, "reports", fake.bucket)
	assert.Equal(t, key, fake.key)
	assert.Equal(t, "text/csv", fake.contentType)
	assert.Equal(t, "fuel_type,buy_amount\n1,2\n", string(fake.body))
}

func TestPublish_NoPrefix(t *testing.T) {
	p := newWithClient(&fakePutter{}, "reports", "")
	assert.Equal(t, "execution.csv", p.Key("/tmp/results/execution.csv"))
}

func TestPublish_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		p := newWithClient(&fakePutter{}, "reports", "")
		_, err := p.Publish(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
		require.Error(t, err)
	})

	t.Run("put failure", func(t *testing.T) {
		boom := errors.New("access denied")
		p := newWithClient(&fakePutter{err: boom}, "reports", "")
		_, err := p.Publish(context.Background(), writeReport(t))
		assert.ErrorIs(t, err, boom)
	})
}

func TestNew(t *testing.T) {
	_, err := New(context.Background(), Config{})
	assert.ErrorIs(t, err, ErrNoBucket)

	p, err := New(context.Background(), Config{
		Bucket:          "reports",
		Endpoint:        "http://localhost:9000",
		PathStyle:       true,
		AccessKeyID:     "minio",
		SecretAccessKey: "minio123",
	})
	require.NoError(t, err)
	assert.Equal(t, "reports", p.bucket)
}
