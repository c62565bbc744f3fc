package domain

import (
	"testing"
	"time"

	"github.com/bookclubapp/bookclub-server/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestApplyStatusChange_ReadingIsIdempotent(t *testing.T) {
	rec := BookRecord{ID: "book-1", OwnerID: "user-1", Status: StatusWantToRead}
	t1 := epoch
	t2 := epoch.Add(48 * time.Hour)

	first, err := ApplyStatusChange(rec, StatusReading, t1)
	require.NoError(t, err)
	second, err := ApplyStatusChange(first, StatusReading, t2)
	require.NoError(t, err)

	require.NotNil(t, second.StartDate)
	assert.Equal(t, t1, *second.StartDate)
	assert.Equal(t, t2, second.UpdatedAt)
}

func TestApplyStatusChange_FinishedAlwaysRefreshes(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		offset := rapid.Int64Range(1, 1<<32).Draw(t, "offset")
		prior := epoch
		t2 := epoch.Add(time.Duration(offset) * time.Second)

		rec := BookRecord{Status: StatusFinished, CompletedDate: &prior}
		got, err := ApplyStatusChange(rec, StatusFinished, t2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.CompletedDate == nil || !got.CompletedDate.Equal(t2) {
			t.Fatalf("completedDate = %v, want %v", got.CompletedDate, t2)
		}
	})
}

func TestApplyStatusChange_Transitions(t *testing.T) {
	start := epoch.Add(-time.Hour)
	done := epoch.Add(-time.Minute)

	tests := []struct {
		name          string
		from          BookRecord
		to            BookStatus
		wantStart     *time.Time
		wantCompleted *time.Time
	}{
		{
			name:      "want-to-read to reading sets start",
			from:      BookRecord{Status: StatusWantToRead},
			to:        StatusReading,
			wantStart: &epoch,
		},
		{
			name:          "finished back to reading restarts the clock",
			from:          BookRecord{Status: StatusFinished, StartDate: &start, CompletedDate: &done},
			to:            StatusReading,
			wantStart:     &epoch,
			wantCompleted: &done,
		},
		{
			name:          "reading to want-to-read has no side effects",
			from:          BookRecord{Status: StatusReading, StartDate: &start},
			to:            StatusWantToRead,
			wantStart:     &start,
			wantCompleted: nil,
		},
		{
			name:          "reading to finished keeps start",
			from:          BookRecord{Status: StatusReading, StartDate: &start},
			to:            StatusFinished,
			wantStart:     &start,
			wantCompleted: &epoch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyStatusChange(tt.from, tt.to, epoch)
			require.NoError(t, err)

			assert.Equal(t, tt.to, got.Status)
			assert.Equal(t, epoch, got.UpdatedAt)
			assert.Equal(t, tt.wantStart, got.StartDate)
			assert.Equal(t, tt.wantCompleted, got.CompletedDate)
		})
	}
}

func TestApplyStatusChange_RejectsUnknownStatus(t *testing.T) {
	rec := BookRecord{Status: StatusReading, UpdatedAt: epoch}

	got, err := ApplyStatusChange(rec, BookStatus("abandoned"), epoch.Add(time.Hour))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidStatus))
	assert.Equal(t, epoch, got.UpdatedAt)
	assert.Equal(t, StatusReading, got.Status)
}

func TestApplyStatusChange_DoesNotAliasInput(t *testing.T) {
	rec := BookRecord{Status: StatusWantToRead}
	got, err := ApplyStatusChange(rec, StatusReading, epoch)
	require.NoError(t, err)

	assert.Nil(t, rec.StartDate)
	assert.Equal(t, StatusWantToRead, rec.Status)
	assert.NotNil(t, got.StartDate)
}

func TestNewBookRecord(t *testing.T) {
	rec, err := NewBookRecord("book-1", "user-1", StatusFinished, epoch)
	require.NoError(t, err)
	assert.Equal(t, epoch, rec.CreatedAt)
	assert.Nil(t, rec.StartDate)
	require.NotNil(t, rec.CompletedDate)
	assert.Equal(t, epoch, *rec.CompletedDate)

	_, err = NewBookRecord("book-2", "", StatusReading, epoch)
	assert.True(t, errors.Is(err, errors.ErrNotAuthenticated))
}

func TestParseBookStatus(t *testing.T) {
	for _, s := range BookStatuses {
		got, err := ParseBookStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	for _, bad := range []string{"", "Reading", "done", "want_to_read"} {
		_, err := ParseBookStatus(bad)
		assert.True(t, errors.Is(err, errors.ErrInvalidStatus), bad)
	}
}

func TestBookRecord_AuthorList(t *testing.T) {
	rec := BookRecord{Authors: "Terry Pratchett, Neil Gaiman,  "}
	assert.Equal(t, []string{"Terry Pratchett", "Neil Gaiman"}, rec.AuthorList())
}
