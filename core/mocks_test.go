package core

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"
)

type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) FetchEvents(ctx context.Context) ([]Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]Event), args.Error(1)
}

func (m *MockRemote) FetchEvent(ctx context.Context, id string) (*Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*Event), args.Error(1)
}

func (m *MockRemote) UpdateEvent(ctx context.Context, event *Event) (*Event, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*Event), args.Error(1)
}

func (m *MockRemote) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*Event), args.Error(1)
}

func (m *MockRemote) FetchUser(ctx context.Context, id string) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRemote) Authenticate(ctx context.Context, email string, password string) (*Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*Session), args.Error(1)
}

// brokenStore fails every operation.
type brokenStore struct{}

var errStoreDown = errors.New("store down")

func (brokenStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errStoreDown
}

func (brokenStore) Set(context.Context, string, string) error {
	return errStoreDown
}

func (brokenStore) RemoveMany(context.Context, ...string) error {
	return errStoreDown
}

func offline(op string) error {
	return &NetworkError{Op: op, Err: errors.New("connection refused")}
}
