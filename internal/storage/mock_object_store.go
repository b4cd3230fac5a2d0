package storage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"arkive/internal/model"
)

// MockObjectStore mocks presigning and deletes against the bucket.
type MockObjectStore struct {
	mock.Mock
}

func (m *MockObjectStore) PresignUpload(ctx context.Context, key string, contentType string, size int64) (model.PresignedURL, error) {
	args := m.Called(ctx, key, contentType, size)
	return args.Get(0).(model.PresignedURL), args.Error(1)
}

func (m *MockObjectStore) PresignDownload(ctx context.Context, key string, filename string) (model.PresignedURL, error) {
	args := m.Called(ctx, key, filename)
	return args.Get(0).(model.PresignedURL), args.Error(1)
}

func (m *MockObjectStore) DeleteObject(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
