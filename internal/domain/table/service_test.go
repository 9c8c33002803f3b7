package table

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Select(ctx context.Context, s Schema, userID int, f Filter) ([]Row, error) {
	args := m.Called(ctx, s, userID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Row), args.Error(1)
}

func (m *MockRepository) Insert(ctx context.Context, s Schema, userID int, row Row) (Row, error) {
	args := m.Called(ctx, s, userID, row)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Row), args.Error(1)
}

func (m *MockRepository) Upsert(ctx context.Context, s Schema, userID int, row Row, onConflict []string) (Row, error) {
	args := m.Called(ctx, s, userID, row, onConflict)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(Row), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, s Schema, userID int, key any, row Row) (int64, error) {
	args := m.Called(ctx, s, userID, key, row)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, s Schema, userID int, f Filter) (int64, error) {
	args := m.Called(ctx, s, userID, f)
	return args.Get(0).(int64), args.Error(1)
}

func newTestService(repo Repository) *Service {
	svc := NewService(repo, slog.Default())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestService_Select_CoercesFilter(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo)

	expected := Filter{{Field: "local_id", Value: int64(5)}, {Field: "name", Value: "Bench", Fold: true}}
	mockRepo.On("Select", mock.Anything, mock.AnythingOfType("table.Schema"), 7, expected).
		Return([]Row{{"id": int64(1)}}, nil)

	rows, err := svc.Select(context.Background(), 7, Exercises, Where(Eq("local_id", 5.0), IEq("name", "Bench")))
	require.NoError(t, err)
	assert.Len(t, rows, 1)
	mockRepo.AssertExpectations(t)
}

func TestService_Select_Errors(t *testing.T) {
	tests := []struct {
		name    string
		table   string
		filter  Filter
		wantErr error
	}{
		{name: "unknown table", table: "passwords", wantErr: ErrUnknownTable},
		{name: "unknown column", table: Exercises, filter: Where(Eq("password", "x")), wantErr: ErrUnknownColumn},
		{name: "bad value", table: Exercises, filter: Where(Eq("local_id", "abc")), wantErr: ErrInvalidValue},
		{name: "fold on int", table: Exercises, filter: Filter{{Field: "local_id", Value: 1.0, Fold: true}}, wantErr: ErrInvalidValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockRepository)
			svc := newTestService(mockRepo)

			_, err := svc.Select(context.Background(), 1, tt.table, tt.filter)
			assert.ErrorIs(t, err, tt.wantErr)
			mockRepo.AssertNotCalled(t, "Select")
		})
	}
}

func TestService_Insert_DropsReadOnlyAndStampsUpdatedAt(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo)

	mockRepo.On("Insert", mock.Anything, mock.AnythingOfType("table.Schema"), 3, mock.MatchedBy(func(row Row) bool {
		_, hasID := row["id"]
		_, hasOwner := row[OwnerColumn]
		ts, ok := row[UpdatedAtColumn].(time.Time)
		return !hasID && !hasOwner && ok &&
			row["name"] == "Push Day" &&
			ts.Equal(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	})).Return(Row{"id": int64(10), "name": "Push Day"}, nil)

	row, err := svc.Insert(context.Background(), 3, Templates, Row{
		"id":        99.0,
		OwnerColumn: 42.0,
		"name":      "Push Day",
		"exercises": []any{},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), row["id"])
	mockRepo.AssertExpectations(t)
}

func TestService_Insert_KeepsClientUpdatedAt(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo)
	clientTime := time.Date(2023, 1, 2, 3, 4, 5, 0, time.UTC)

	mockRepo.On("Insert", mock.Anything, mock.Anything, 3, mock.MatchedBy(func(row Row) bool {
		ts, ok := row[UpdatedAtColumn].(time.Time)
		return ok && ts.Equal(clientTime)
	})).Return(Row{}, nil)

	_, err := svc.Insert(context.Background(), 3, Templates, Row{"name": "A", UpdatedAtColumn: clientTime.Format(time.RFC3339Nano)})
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestService_Upsert_ValidatesConflictColumns(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo)

	_, err := svc.Upsert(context.Background(), 1, Workouts, Row{"name": "Legs"}, nil)
	assert.ErrorIs(t, err, ErrEmptyFilter)

	_, err = svc.Upsert(context.Background(), 1, Workouts, Row{"name": "Legs"}, []string{"local_id"})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = svc.Upsert(context.Background(), 1, Workouts, Row{"name": "Legs"}, []string{"nope"})
	assert.ErrorIs(t, err, ErrUnknownColumn)

	mockRepo.On("Upsert", mock.Anything, mock.Anything, 1, mock.Anything, []string{OwnerColumn}).
		Return(Row{OwnerColumn: int64(1)}, nil)
	_, err = svc.Upsert(context.Background(), 1, UserSettings, Row{"settings": map[string]any{"weightUnit": "kg"}}, []string{OwnerColumn})
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestService_Update(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo)

	mockRepo.On("Update", mock.Anything, mock.Anything, 1, int64(5), mock.Anything).Return(int64(1), nil).Once()
	require.NoError(t, svc.Update(context.Background(), 1, Exercises, int64(5), Row{"deleted": true}))

	mockRepo.On("Update", mock.Anything, mock.Anything, 1, int64(6), mock.Anything).Return(int64(0), nil).Once()
	assert.ErrorIs(t, svc.Update(context.Background(), 1, Exercises, int64(6), Row{"deleted": true}), ErrNotFound)

	assert.ErrorIs(t, svc.Update(context.Background(), 1, Exercises, "x", Row{"deleted": true}), ErrInvalidValue)
	assert.ErrorIs(t, svc.Update(context.Background(), 1, Exercises, int64(5), Row{"id": 1.0}), ErrEmptyRow)
	mockRepo.AssertExpectations(t)
}

func TestService_Delete(t *testing.T) {
	mockRepo := new(MockRepository)
	svc := newTestService(mockRepo)

	_, err := svc.Delete(context.Background(), 1, Templates, nil)
	assert.ErrorIs(t, err, ErrEmptyFilter)

	_, err = svc.Delete(context.Background(), 1, Templates, Where(Eq(OwnerColumn, 1.0)))
	assert.ErrorIs(t, err, ErrEmptyFilter)

	mockRepo.On("Delete", mock.Anything, mock.Anything, 1, Filter{{Field: "id", Value: int64(3)}}).
		Return(int64(0), ErrReferenced)
	_, err = svc.Delete(context.Background(), 1, Exercises, Where(Eq("id", 3.0)))
	assert.ErrorIs(t, err, ErrReferenced)

	mockRepo.On("Delete", mock.Anything, mock.Anything, 1, Filter{{Field: "name", Value: "Push Day", Fold: true}}).
		Return(int64(2), nil)
	n, err := svc.Delete(context.Background(), 1, Templates, Where(IEq("name", "Push Day")))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	mockRepo.AssertExpectations(t)
}

func TestColumn_Coerce(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		col     Column
		in      any
		want    any
		wantErr bool
	}{
		{name: "int from float", col: Column{Kind: KindInt}, in: 3.0, want: int64(3)},
		{name: "int from fraction", col: Column{Kind: KindInt}, in: 3.5, wantErr: true},
		{name: "int from string", col: Column{Kind: KindInt}, in: "12", want: int64(12)},
		{name: "float from int", col: Column{Kind: KindFloat}, in: 2, want: 2.0},
		{name: "text", col: Column{Kind: KindText}, in: "x", want: "x"},
		{name: "text from number", col: Column{Kind: KindText}, in: 1.0, wantErr: true},
		{name: "bool from string", col: Column{Kind: KindBool}, in: "true", want: true},
		{name: "time from string", col: Column{Kind: KindTime}, in: ts.Format(time.RFC3339), want: ts},
		{name: "empty time", col: Column{Kind: KindTime}, in: "", want: nil},
		{name: "json passthrough", col: Column{Kind: KindJSON}, in: "[\"Chest\"]", want: "[\"Chest\"]"},
		{name: "nil", col: Column{Kind: KindInt}, in: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.col.Coerce(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup(t *testing.T) {
	for _, name := range Names() {
		s, err := Lookup(name)
		require.NoError(t, err)
		_, ok := s.Column(s.Key)
		assert.True(t, ok, name)
	}

	_, err := Lookup("unknown")
	assert.True(t, errors.Is(err, ErrUnknownTable))
}
