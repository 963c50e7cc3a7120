package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/JamesPrial/holon-descriptors/pkg/descriptor"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Create(ctx context.Context, kind descriptor.EntityKind, entry []byte) (*Record, error) {
	args := m.Called(ctx, kind, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockBackend) Read(ctx context.Context, handle Handle) (*Record, error) {
	args := m.Called(ctx, handle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockBackend) Update(ctx context.Context, original, previous Handle, entry []byte) (*Record, error) {
	args := m.Called(ctx, original, previous, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockBackend) Delete(ctx context.Context, handle Handle) error {
	args := m.Called(ctx, handle)
	return args.Error(0)
}

func (m *MockBackend) ListAll(ctx context.Context, kind descriptor.EntityKind) ([]Handle, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Handle), args.Error(1)
}

func (m *MockBackend) Subscribe(kinds ...descriptor.EntityKind) *Subscription {
	args := m.Called(kinds)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*Subscription)
}

func (m *MockBackend) Statistics(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}

func (m *MockBackend) Close() error {
	args := m.Called()
	return args.Error(0)
}
