package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/askdb/askdb/internal/storage"
)

type fakeClient struct {
	objects      map[string][]byte
	contentTypes map[string]string
	bucketExists bool
	created      []string
	putErr       error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		objects:      map[string][]byte{},
		contentTypes: map[string]string{},
	}
}

func (f *fakeClient) Put(_ context.Context, _, key string, reader io.Reader, _ int64, contentType string) (storage.ObjectInfo, error) {
	if f.putErr != nil {
		return storage.ObjectInfo{}, f.putErr
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	f.objects[key] = body
	f.contentTypes[key] = contentType
	return storage.ObjectInfo{Key: key, Size: int64(len(body))}, nil
}

func (f *fakeClient) Get(_ context.Context, _, key string) (io.ReadCloser, error) {
	body, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (f *fakeClient) Stat(_ context.Context, _, key string) (storage.ObjectInfo, error) {
	body, ok := f.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrObjectNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(body))}, nil
}

func (f *fakeClient) Delete(_ context.Context, _, key string) error {
	if _, ok := f.objects[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeClient) BucketExists(context.Context, string) (bool, error) {
	return f.bucketExists, nil
}

func (f *fakeClient) CreateBucket(_ context.Context, bucket, _ string) error {
	f.created = append(f.created, bucket)
	f.bucketExists = true
	return nil
}

func TestPutAppliesPrefixAndNormalizesKey(t *testing.T) {
	fake := newFakeClient()
	store, err := NewWithClient("askdb-exports", "/exports/", fake)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	info, err := store.Put(context.Background(), "/2026/08/query_results.csv", strings.NewReader("id,name\n"), 8, storage.PutOptions{ContentType: "text/csv"})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if info.Key != "exports/2026/08/query_results.csv" {
		t.Fatalf("Put() key = %q", info.Key)
	}
	if got := fake.contentTypes[info.Key]; got != "text/csv" {
		t.Fatalf("content type = %q", got)
	}
}

func TestPutRejectsPathTraversal(t *testing.T) {
	store, err := NewWithClient("askdb-exports", "", newFakeClient())
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	for _, key := range []string{"", "../secrets.csv", "a/../../b.csv"} {
		if _, err := store.Put(context.Background(), key, strings.NewReader("x"), 1, storage.PutOptions{}); err == nil {
			t.Fatalf("Put(%q) expected error", key)
		}
	}
}

func TestGetRoundTripsObject(t *testing.T) {
	fake := newFakeClient()
	store, err := NewWithClient("askdb-exports", "exports", fake)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	if _, err := store.Put(context.Background(), "run-1/query_results.csv", strings.NewReader("id\n1\n"), 5, storage.PutOptions{}); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	reader, err := store.Get(context.Background(), "run-1/query_results.csv")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer reader.Close()

	body, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("read object: %v", err)
	}
	if string(body) != "id\n1\n" {
		t.Fatalf("object body = %q", body)
	}
}

func TestGetMissingObjectReturnsNotFound(t *testing.T) {
	store, err := NewWithClient("askdb-exports", "", newFakeClient())
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	if _, err := store.Get(context.Background(), "missing.csv"); !errors.Is(err, storage.ErrObjectNotFound) {
		t.Fatalf("Get() error = %v, want ErrObjectNotFound", err)
	}
}

func TestDeleteMissingObjectIsIdempotent(t *testing.T) {
	store, err := NewWithClient("askdb-exports", "", newFakeClient())
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	if err := store.Delete(context.Background(), "missing.csv"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
}

func TestEnsureBucketCreatesWhenMissing(t *testing.T) {
	fake := newFakeClient()
	store, err := NewWithClient("askdb-exports", "", fake)
	if err != nil {
		t.Fatalf("NewWithClient() error = %v", err)
	}

	if err := store.ensureBucket(context.Background(), "us-east-1"); err != nil {
		t.Fatalf("ensureBucket() error = %v", err)
	}
	if len(fake.created) != 1 || fake.created[0] != "askdb-exports" {
		t.Fatalf("created buckets = %v", fake.created)
	}

	if err := store.ensureBucket(context.Background(), "us-east-1"); err != nil {
		t.Fatalf("ensureBucket() second call error = %v", err)
	}
	if len(fake.created) != 1 {
		t.Fatalf("bucket created twice: %v", fake.created)
	}
}

func TestCleanPrefix(t *testing.T) {
	cases := map[string]string{
		"":           "",
		"/":          "",
		"exports":    "exports",
		"/exports/":  "exports",
		"a//b":       "a/b",
		"./exports":  "exports",
		"/deep/a/b/": "deep/a/b",
	}
	for in, want := range cases {
		if got := cleanPrefix(in); got != want {
			t.Fatalf("cleanPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
