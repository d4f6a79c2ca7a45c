package recipe

import (
	"bytes"
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// mockS3 is an in-memory s3API
type mockS3 struct {
	objects      map[string][]byte
	contentTypes map[string]string
	putErr       error
	getErr       error
	deleteErr    error
}

func newMockS3() *mockS3 {
	return &mockS3{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	m.objects[key] = data
	m.contentTypes[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	delete(m.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

var _ = Describe("S3Storage", func() {
	var (
		api     *mockS3
		storage *S3Storage
		ctx     context.Context
	)

	BeforeEach(func() {
		api = newMockS3()
		storage = newS3StorageWithClient(api, "recipes", "uploads")
		ctx = context.Background()
	})

	It("uploads under the prefix and detects the content type", func() {
		key, err := storage.Save(ctx, "photo.png", []byte("\x89PNG\r\n\x1a\nrest"))
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(Equal("uploads/photo.png"))
		Expect(api.objects).To(HaveKey("recipes/uploads/photo.png"))
		Expect(api.contentTypes["recipes/uploads/photo.png"]).To(Equal("image/png"))
	})

	It("downloads a saved object", func() {
		key, err := storage.Save(ctx, "card.txt", []byte("hello"))
		Expect(err).NotTo(HaveOccurred())

		data, err := storage.Get(ctx, key)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("hello")))
	})

	It("deletes a saved object", func() {
		key, err := storage.Save(ctx, "card.txt", []byte("hello"))
		Expect(err).NotTo(HaveOccurred())

		Expect(storage.Delete(ctx, key)).To(Succeed())
		Expect(api.objects).To(BeEmpty())
	})

	It("wraps client errors with the key", func() {
		api.putErr = errors.New("access denied")
		_, err := storage.Save(ctx, "card.txt", []byte("hello"))
		Expect(err).To(MatchError(ContainSubstring("uploading uploads/card.txt")))
		Expect(err).To(MatchError(ContainSubstring("access denied")))

		_, err = storage.Get(ctx, "uploads/missing.txt")
		Expect(err).To(MatchError(ContainSubstring("downloading uploads/missing.txt")))

		api.deleteErr = errors.New("access denied")
		Expect(storage.Delete(ctx, "uploads/card.txt")).To(MatchError(ContainSubstring("deleting")))
	})

	It("requires a bucket", func() {
		_, err := NewS3Storage(ctx, S3Config{})
		Expect(err).To(MatchError(ContainSubstring("bucket is required")))
	})
})
