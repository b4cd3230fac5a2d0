package identity

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token string) (Assertion, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(Assertion), args.Error(1)
}
