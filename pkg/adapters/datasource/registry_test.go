package datasource

import (
	"context"
	"testing"
)

func TestRegistryOpenDispatchesToFactory(t *testing.T) {
	mock := &MockExecutor{}
	Register(Registration{
		Type: "fake",
		Executor: func(ctx context.Context, dsn string) (SQLExecutor, error) {
			if dsn != "fake://dsn" {
				t.Errorf("factory received dsn %q, want %q", dsn, "fake://dsn")
			}
			return mock, nil
		},
	})

	exec, err := Open(context.Background(), "fake", "fake://dsn")
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	if exec != SQLExecutor(mock) {
		t.Error("Open did not return the factory's executor")
	}

	if !IsRegistered("fake") {
		t.Error("IsRegistered(fake) = false after Register")
	}
}

func TestRegistryOpenUnknownType(t *testing.T) {
	_, err := Open(context.Background(), "no-such-adapter", "")
	if err == nil {
		t.Fatal("expected error for unregistered adapter type")
	}

	_, err = OpenSchemaSource(context.Background(), "no-such-adapter", "")
	if err == nil {
		t.Fatal("expected error for unregistered schema source type")
	}
}

func TestRegistryOpenSchemaSourceNilFactory(t *testing.T) {
	Register(Registration{
		Type: "executor-only",
		Executor: func(ctx context.Context, dsn string) (SQLExecutor, error) {
			return &MockExecutor{}, nil
		},
	})

	_, err := OpenSchemaSource(context.Background(), "executor-only", "")
	if err == nil {
		t.Fatal("expected error when adapter has no schema source factory")
	}
}

func TestMockExecutorRecordsQueries(t *testing.T) {
	mock := &MockExecutor{
		ExecuteFunc: func(ctx context.Context, query string) (*QueryResult, error) {
			return &QueryResult{Columns: []string{"n"}, Rows: [][]any{{int64(1)}}}, nil
		},
	}

	result, err := mock.Execute(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if result.RowCount() != 1 {
		t.Errorf("RowCount() = %d, want 1", result.RowCount())
	}
	if mock.ExecuteCalls != 1 || len(mock.Queries) != 1 || mock.Queries[0] != "SELECT 1" {
		t.Errorf("mock did not record call: calls=%d queries=%v", mock.ExecuteCalls, mock.Queries)
	}

	mock.Reset()
	if mock.ExecuteCalls != 0 || mock.Queries != nil {
		t.Error("Reset did not clear recorded calls")
	}
}
