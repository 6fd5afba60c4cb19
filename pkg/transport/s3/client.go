// Package s3 implements the transport over an S3 bucket.
//
// Remote paths are object keys relative to the bucket; a leading slash is
// ignored. Uploads go through the multipart upload manager with CRC64NVME
// checksums.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/spf13/afero"
	"github.com/yuya-takeyama/atm-sync/pkg/transport"
)

const sniffLen = 512

// API is the subset of the S3 client the transport uses.
type API interface {
	manager.UploadAPIClient
	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
}

type Options struct {
	Profile      string
	Region       string
	Endpoint     string
	UsePathStyle bool

	// AccessKey and SecretKey replace the default credential chain when both are set.
	AccessKey string
	SecretKey string
}

// LoadConfig loads the default AWS configuration honouring profile, region
// and static credentials.
func LoadConfig(ctx context.Context, opts Options) (aws.Config, error) {
	var configOpts []func(*config.LoadOptions) error
	if opts.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Region != "" {
		configOpts = append(configOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		configOpts = append(configOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, configOpts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load AWS config: %w", err)
	}
	return cfg, nil
}

// NewClient creates the S3 API client, pointing it at a custom endpoint when given.
func NewClient(cfg aws.Config, opts Options) *awss3.Client {
	return awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.UsePathStyle
	})
}

type Transport struct {
	api      API
	uploader *manager.Uploader
	bucket   string
	local    afero.Fs
	retry    retryPolicy
}

// New creates a transport writing to bucket and reading uploads from local.
func New(api API, bucket string, local afero.Fs) *Transport {
	return &Transport{
		api:      api,
		uploader: manager.NewUploader(api),
		bucket:   bucket,
		local:    local,
		retry:    defaultRetryPolicy(),
	}
}

func (t *Transport) Exists(ctx context.Context, remotePath string) (bool, error) {
	key := objectKey(remotePath)
	err := t.retry.do(ctx, func() error {
		_, err := t.api.HeadObject(ctx, &awss3.HeadObjectInput{
			Bucket: aws.String(t.bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("head object %s: %w", key, err)
	}
	return true, nil
}

func (t *Transport) Read(ctx context.Context, remotePath string) ([]byte, error) {
	key := objectKey(remotePath)

	var data []byte
	err := t.retry.do(ctx, func() error {
		resp, err := t.api.GetObject(ctx, &awss3.GetObjectInput{
			Bucket: aws.String(t.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("get object %s: %w", key, transport.ErrNotFound)
		}
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return data, nil
}

func (t *Transport) Write(ctx context.Context, remotePath string, data []byte) error {
	key := objectKey(remotePath)
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}

	err := t.retry.do(ctx, func() error {
		_, err := t.api.PutObject(ctx, &awss3.PutObjectInput{
			Bucket:            aws.String(t.bucket),
			Key:               aws.String(key),
			Body:              bytes.NewReader(data),
			ContentLength:     aws.Int64(int64(len(data))),
			ContentType:       aws.String(contentTypeFor(key, head)),
			ChecksumAlgorithm: types.ChecksumAlgorithmCrc64nvme,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (t *Transport) Upload(ctx context.Context, localPath, remotePath string) error {
	key := objectKey(remotePath)

	err := t.retry.do(ctx, func() error {
		file, err := t.local.Open(localPath)
		if err != nil {
			return fmt.Errorf("open local file: %w", err)
		}
		defer file.Close()

		contentType, err := sniffContentType(file, key)
		if err != nil {
			return err
		}

		_, err = t.uploader.Upload(ctx, &awss3.PutObjectInput{
			Bucket:            aws.String(t.bucket),
			Key:               aws.String(key),
			Body:              file,
			ContentType:       aws.String(contentType),
			ChecksumAlgorithm: types.ChecksumAlgorithmCrc64nvme,
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

func (t *Transport) Close() error {
	return nil
}

// sniffContentType reads the head of file to detect its type and rewinds it.
func sniffContentType(file afero.File, key string) (string, error) {
	if ct := guessContentType(key); ct != "" {
		return ct, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", fmt.Errorf("read local file: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind local file: %w", err)
	}
	return contentTypeFor(key, head[:n]), nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
