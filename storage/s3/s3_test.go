package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/voiceid/storage"
)

type fakeS3 struct {
	objects map[string][]byte
	headErr error
}

func newFake() *fakeS3 { return &fakeS3{objects: make(map[string][]byte)} }

func (f *fakeS3) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &awss3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &awss3.HeadObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	out := &awss3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for k, v := range f.objects {
		if len(k) >= len(aws.ToString(in.Prefix)) && k[:len(aws.ToString(in.Prefix))] == aws.ToString(in.Prefix) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(int64(len(v)))})
		}
	}
	return out, nil
}

func TestS3RoundTripWithPrefix(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	s := NewWithClient(fake, "voiceid", "/cache/")

	if err := s.Upload(ctx, "transcription/ep1.json", bytes.NewReader([]byte("{}"))); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, ok := fake.objects["cache/transcription/ep1.json"]; !ok {
		t.Fatalf("expected prefixed key, have %v", fake.objects)
	}

	rc, err := s.Download(ctx, "transcription/ep1.json")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	rc.Close()

	files, err := s.List(ctx, "transcription/")
	if err != nil || len(files) != 1 || files[0].Path != "transcription/ep1.json" {
		t.Fatalf("List = %+v, %v", files, err)
	}

	if ok, err := s.Exists(ctx, "transcription/ep1.json"); !ok || err != nil {
		t.Errorf("Exists = %v, %v", ok, err)
	}
	_ = s.Delete(ctx, "transcription/ep1.json")
	if ok, err := s.Exists(ctx, "transcription/ep1.json"); ok || err != nil {
		t.Errorf("Exists after delete = %v, %v", ok, err)
	}
}

func TestS3MissingKey(t *testing.T) {
	s := NewWithClient(newFake(), "voiceid", "")
	if _, err := s.Download(context.Background(), "missing.json"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestS3HeadErrorPropagates(t *testing.T) {
	fake := newFake()
	fake.headErr = errors.New("access denied")
	s := NewWithClient(fake, "voiceid", "")
	if _, err := s.Exists(context.Background(), "x"); err == nil {
		t.Error("expected head error to surface")
	}
}
