package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/battlab/cycler-queue-service/internal/domain"
)

// Error-path tests use sqlmock so database failures can be injected
// without a real backend.

func newMockStore(t *testing.T) (*sqlStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &sqlStore{db: db}, mock
}

func TestUpsertJob_DatabaseError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO jobs").WillReturnError(errors.New("disk I/O error"))

	err := store.UpsertJob(context.Background(), &domain.Job{ID: "7", State: domain.JobStateQueued})
	if err == nil {
		t.Fatal("UpsertJob did not surface the database error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListJobs_CountError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("connection reset"))

	_, _, err := store.ListJobs(context.Background(), domain.JobFilter{})
	if err == nil {
		t.Fatal("ListJobs did not surface the count error")
	}
}

func TestMarkCompletedNotSeenSince_DatabaseError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("UPDATE jobs").WillReturnError(errors.New("deadlock detected"))

	_, err := store.MarkCompletedNotSeenSince(context.Background(), time.Now())
	if err == nil {
		t.Fatal("MarkCompletedNotSeenSince did not surface the database error")
	}
}

func TestDeleteJob_DatabaseError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM jobs").WillReturnError(errors.New("read-only database"))

	err := store.DeleteJob(context.Background(), "7")
	if err == nil {
		t.Fatal("DeleteJob did not surface the database error")
	}
}
