// Package publish выгружает готовый отчёт в S3-совместимое хранилище.
package publish

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ContentType задаётся у каждого выгружаемого отчёта.
const ContentType = "text/csv"

const defaultRegion = "us-east-1"

// ErrNoBucket возвращается, если бакет не задан.
var ErrNoBucket = errors.New("s3 bucket required")

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config содержит параметры подключения к хранилищу.
type Config struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
	// PathStyle включает адресацию вида endpoint/bucket/key (MinIO).
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// S3Publisher выгружает файлы отчётов в один бакет.
type S3Publisher struct {
	client putObjectAPI
	bucket string
	prefix string
}

// New создаёт публикатор. Если ключ доступа не задан, используется стандартная цепочка учётных данных AWS.
func New(ctx context.Context, cfg Config) (*S3Publisher, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}

	region := cfg.Region
	if region == "" {
		region = defaultRegion
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return newWithClient(client, cfg.Bucket, cfg.Prefix), nil
}

func newWithClient(client putObjectAPI, bucket, prefix string) *S3Publisher {
	return &S3Publisher{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Key возвращает ключ объекта для файла отчёта.
func (p *S3Publisher) Key(reportPath string) string {
	name := filepath.Base(reportPath)
	if p.prefix == "" {
		return name
	}
	return path.Join(p.prefix, name)
}

// Publish выгружает файл отчёта и возвращает ключ созданного объекта.
func (p *S3Publisher) Publish(ctx context.Context, reportPath string) (string, error) {
	f, err := os.Open(reportPath)
	if err != nil {
		return "", fmt.Errorf("open report: %w", err)
	}
	defer f.Close()

	key := p.Key(reportPath)
	_, err = p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s/%s: %w", p.bucket, key, err)
	}

	return key, nil
}
