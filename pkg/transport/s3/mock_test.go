package s3

import (
	"context"
	"fmt"
	"io"
	"sync"

	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

type putCall struct {
	key         string
	contentType string
	body        string
}

// mockAPI is a mock implementation of API for testing
type mockAPI struct {
	headObjectFunc func(ctx context.Context, in *awss3.HeadObjectInput) (*awss3.HeadObjectOutput, error)
	getObjectFunc  func(ctx context.Context, in *awss3.GetObjectInput) (*awss3.GetObjectOutput, error)
	putObjectFunc  func(ctx context.Context, in *awss3.PutObjectInput) (*awss3.PutObjectOutput, error)

	mu   sync.Mutex
	puts []putCall
}

func (m *mockAPI) HeadObject(ctx context.Context, in *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	if m.headObjectFunc != nil {
		return m.headObjectFunc(ctx, in)
	}
	return nil, fmt.Errorf("HeadObject not implemented")
}

func (m *mockAPI) GetObject(ctx context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	if m.getObjectFunc != nil {
		return m.getObjectFunc(ctx, in)
	}
	return nil, fmt.Errorf("GetObject not implemented")
}

func (m *mockAPI) PutObject(ctx context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	call := putCall{key: *in.Key, body: string(body)}
	if in.ContentType != nil {
		call.contentType = *in.ContentType
	}
	m.mu.Lock()
	m.puts = append(m.puts, call)
	m.mu.Unlock()

	if m.putObjectFunc != nil {
		return m.putObjectFunc(ctx, in)
	}
	return &awss3.PutObjectOutput{}, nil
}

func (m *mockAPI) UploadPart(ctx context.Context, in *awss3.UploadPartInput, _ ...func(*awss3.Options)) (*awss3.UploadPartOutput, error) {
	return nil, fmt.Errorf("UploadPart not implemented")
}

func (m *mockAPI) CreateMultipartUpload(ctx context.Context, in *awss3.CreateMultipartUploadInput, _ ...func(*awss3.Options)) (*awss3.CreateMultipartUploadOutput, error) {
	return nil, fmt.Errorf("CreateMultipartUpload not implemented")
}

func (m *mockAPI) CompleteMultipartUpload(ctx context.Context, in *awss3.CompleteMultipartUploadInput, _ ...func(*awss3.Options)) (*awss3.CompleteMultipartUploadOutput, error) {
	return nil, fmt.Errorf("CompleteMultipartUpload not implemented")
}

func (m *mockAPI) AbortMultipartUpload(ctx context.Context, in *awss3.AbortMultipartUploadInput, _ ...func(*awss3.Options)) (*awss3.AbortMultipartUploadOutput, error) {
	return &awss3.AbortMultipartUploadOutput{}, nil
}
