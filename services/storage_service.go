package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/HSouheill/marketplace_backend/utils"
	"github.com/google/uuid"
)

// ObjectStorage stores receipt images and returns a durable URL.
type ObjectStorage interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, objectPath string) error
}

// FirebaseStorage uploads to the project's Firebase Storage bucket and returns a token download URL.
type FirebaseStorage struct {
	bucket     *storage.BucketHandle
	bucketName string
}

func NewFirebaseStorage(ctx context.Context, app *firebase.App, bucketName string) (*FirebaseStorage, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting storage client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("error opening bucket %s: %w", bucketName, err)
	}
	return &FirebaseStorage{bucket: bucket, bucketName: bucketName}, nil
}

func (s *FirebaseStorage) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	token := uuid.NewString()

	w := s.bucket.Object(objectPath).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{"firebaseStorageDownloadTokens": token}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}

	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		s.bucketName, url.PathEscape(objectPath), token), nil
}

func (s *FirebaseStorage) Delete(ctx context.Context, objectPath string) error {
	err := s.bucket.Object(objectPath).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

// LocalStorage writes under the uploads directory that the HTTP server serves statically.
type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

func (s *LocalStorage) Upload(_ context.Context, objectPath string, data []byte, _ string) (string, error) {
	url, _, err := utils.SaveUploadedFile(s.dir, path.Dir(objectPath), path.Base(objectPath), data)
	return url, err
}

func (s *LocalStorage) Delete(_ context.Context, objectPath string) error {
	return utils.DeleteUploadedFile(s.dir, objectPath)
}
