package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mouguu/reddit-crawler/config"
)

func TestFileSink_WritePost(t *testing.T) {
	base := t.TempDir()
	sink, err := NewFileSink(base, "run-123")
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	if err := sink.WritePost(context.Background(), "abc", []byte(`{"id":"abc"}`)); err != nil {
		t.Fatalf("WritePost: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(base, "run-123", "abc.json"))
	if err != nil {
		t.Fatalf("read archived file: %v", err)
	}
	if string(got) != `{"id":"abc"}` {
		t.Errorf("archived content = %s", got)
	}
}

func TestFileSink_RejectsPathEscapes(t *testing.T) {
	sink, err := NewFileSink(t.TempDir(), "run-123")
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		if err := sink.WritePost(context.Background(), id, []byte("x")); err == nil {
			t.Errorf("id %q must be rejected", id)
		}
	}
}

type fakeS3 struct {
	keys []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.keys = append(f.keys, *in.Key)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink_KeyLayout(t *testing.T) {
	fake := &fakeS3{}
	sink := &S3Sink{client: fake, bucket: "crawl-archive", prefix: "reddit/run-9"}

	if err := sink.WritePost(context.Background(), "xyz", []byte("{}")); err != nil {
		t.Fatalf("WritePost: %v", err)
	}
	if len(fake.keys) != 1 || fake.keys[0] != "reddit/run-9/xyz.json" {
		t.Errorf("keys = %v", fake.keys)
	}
}

func TestOpen_NoneIsNilSink(t *testing.T) {
	sink, err := Open(context.Background(), config.ArchiveConfig{Backend: "none"}, "run-1")
	if err != nil || sink != nil {
		t.Errorf("got %v, %v; want nil, nil", sink, err)
	}

	if _, err := Open(context.Background(), config.ArchiveConfig{Backend: "tape"}, "run-1"); err == nil {
		t.Error("unknown backend must error")
	}
}
