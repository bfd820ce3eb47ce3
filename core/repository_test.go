package core

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"volunteer-sync/pkg/store"
)

func newTestRepository(remote Remote, mem store.Store, opts ...RepositoryOption) (Repository, *Cache) {
	cache := NewCache(mem)
	return NewRepository(remote, cache, NewSyncMetrics(), opts...), cache
}

func TestRepository_LoadEvents(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fetchedAt := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	events := []Event{{Id: "e1"}, {Id: "e2"}}

	mem := store.NewMemory()
	remote := new(MockRemote)
	remote.On("FetchEvents", mock.Anything).Return(events, nil).Once()
	remote.On("FetchEvents", mock.Anything).Return(nil, offline("fetch_events")).Once()

	repo, _ := newTestRepository(remote, mem, WithClock(func() time.Time { return fetchedAt }))

	got, info, err := repo.LoadEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, events, got)
	assert.Equal(t, QueryInfo{LastFetched: fetchedAt, Total: 2, Source: SourceNetwork}, info)

	got, info, err = repo.LoadEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, events, got)
	assert.Equal(t, SourceCache, info.Source)
	assert.True(t, fetchedAt.Equal(info.LastFetched))
	assert.Equal(t, 2, info.Total)

	remote.AssertExpectations(t)
}

func TestRepository_LoadEvents_NothingCached(t *testing.T) {
	t.Parallel()

	remote := new(MockRemote)
	remote.On("FetchEvents", mock.Anything).Return(nil, offline("fetch_events"))

	repo, _ := newTestRepository(remote, store.NewMemory())

	_, _, err := repo.LoadEvents(context.Background())

	var missErr *CacheMissError
	require.ErrorAs(t, err, &missErr)
	assert.Equal(t, KeyAllEvents, missErr.Key)
}

func TestRepository_LoadUser_NotCached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	remote := new(MockRemote)
	remote.On("FetchUser", mock.Anything, "u1").Return(&User{Id: "u1", Name: UserName{First: "Ada", Last: "L"}}, nil).Once()
	remote.On("FetchUser", mock.Anything, "u1").Return(nil, offline("fetch_user")).Once()

	repo, _ := newTestRepository(remote, mem)

	user, err := repo.LoadUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name.First)
	assert.Equal(t, 0, mem.Len())

	_, err = repo.LoadUser(ctx, "u1")

	var networkErr *NetworkError
	require.ErrorAs(t, err, &networkErr)

	remote.AssertExpectations(t)
}

func TestRepository_CreateThenReadOffline(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remote := new(MockRemote)

	event := &Event{Id: "e1", Name: "Cleanup", Description: "Beach", VolunteersNeeded: 3, VolunteersIds: []string{}}
	remote.On("CreateEvent", mock.Anything, event).Return(event, nil)
	remote.On("FetchEvent", mock.Anything, "e1").Return(nil, offline("fetch_event"))

	repo, _ := newTestRepository(remote, store.NewMemory())

	created, err := repo.CreateEvent(ctx, event)
	require.NoError(t, err)
	assert.Equal(t, "e1", created.Id)

	got, err := repo.LoadEvent(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "e1", got.Id)
	assert.Equal(t, "Cleanup", got.Name)
	assert.Equal(t, 3, got.VolunteersNeeded)
	assert.Equal(t, []string{}, got.VolunteersIds)

	remote.AssertExpectations(t)
}

func TestRepository_CreateEvent_Retry(t *testing.T) {
	t.Parallel()

	event := &Event{Id: "e1", Name: "Cleanup"}

	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{
			name:      "transport failure then success",
			errs:      []error{offline("create_event")},
			wantCalls: 2,
		},
		{
			name: "server errors exhaust attempts",
			errs: []error{
				&NetworkError{Op: "create_event", StatusCode: http.StatusBadGateway, Err: errors.New("bad gateway")},
				&NetworkError{Op: "create_event", StatusCode: http.StatusServiceUnavailable, Err: errors.New("unavailable")},
				&NetworkError{Op: "create_event", StatusCode: http.StatusInternalServerError, Err: errors.New("boom")},
			},
			wantCalls: 3,
			wantErr:   true,
		},
		{
			name:      "client error is not retried",
			errs:      []error{&NetworkError{Op: "create_event", StatusCode: http.StatusBadRequest, Err: errors.New("bad request")}},
			wantCalls: 1,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mem := store.NewMemory()
			remote := new(MockRemote)

			for _, err := range tt.errs {
				remote.On("CreateEvent", mock.Anything, event).Return(nil, err).Once()
			}

			if !tt.wantErr {
				remote.On("CreateEvent", mock.Anything, event).Return(event, nil).Once()
			}

			repo, _ := newTestRepository(remote, mem, WithCreateAttempts(3, time.Millisecond))

			_, err := repo.CreateEvent(context.Background(), event)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, 0, mem.Len())
			} else {
				require.NoError(t, err)
				assert.Equal(t, 1, mem.Len())
			}

			remote.AssertNumberOfCalls(t, "CreateEvent", tt.wantCalls)
		})
	}
}

func TestRepository_VolunteerForEvent_NoFallback(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := store.NewMemory()
	candidate := &Event{Id: "e1", VolunteersNeeded: 2, VolunteersIds: []string{"u1"}}

	remote := new(MockRemote)
	remote.On("UpdateEvent", mock.Anything, candidate).Return(nil, offline("update_event"))

	repo, _ := newTestRepository(remote, mem)

	_, err := repo.VolunteerForEvent(ctx, candidate)

	var networkErr *NetworkError
	require.ErrorAs(t, err, &networkErr)
	assert.Equal(t, 0, mem.Len())
}

func TestRepository_Authenticate(t *testing.T) {
	t.Parallel()

	remote := new(MockRemote)
	remote.On("Authenticate", mock.Anything, "a@b.c", "secret").
		Return(&Session{AccessToken: "tok", User: User{Id: "u1"}}, nil)

	repo, _ := newTestRepository(remote, store.NewMemory())

	session, err := repo.Authenticate(context.Background(), "a@b.c", "secret")
	require.NoError(t, err)
	assert.Equal(t, "u1", session.User.Id)
}
