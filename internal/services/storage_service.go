// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pigmarket/pigmarket-backend/internal/config"
	"github.com/pigmarket/pigmarket-backend/internal/utils"
)

const (
	UploadPigPicture   = "pigs"
	UploadPaymentProof = "payment_proofs"
	UploadProfilePhoto = "profile_photos"

	presignTTL = 15 * time.Minute
	megabyte   = 1 << 20
)

var (
	imageTypes = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

	uploadPresets = map[string]UploadOptions{
		UploadPigPicture:   {Folder: "pig_pictures", MaxSize: 10 * megabyte, AllowedTypes: imageTypes, IsPublic: true},
		UploadPaymentProof: {Folder: "payment_proofs", MaxSize: 10 * megabyte, AllowedTypes: []string{".jpg", ".jpeg", ".png", ".pdf"}},
		UploadProfilePhoto: {Folder: "profile_photos", MaxSize: 2 * megabyte, AllowedTypes: []string{".jpg", ".jpeg", ".png"}, IsPublic: true},
	}
)

// blobStore is where uploaded bytes end up: an S3 bucket when AWS credentials
// are configured, the local upload directory otherwise.
type blobStore interface {
	put(key, contentType string, data []byte, public bool) (url string, err error)
	remove(key string) error
	// presign returns "" when the store serves files directly.
	presign(key string, ttl time.Duration) (string, error)
}

type StorageService struct {
	store blobStore
	now   func() time.Time
}

type UploadResult struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
	Checksum string `json:"checksum"`
}

type UploadOptions struct {
	Folder       string
	MaxSize      int64
	AllowedTypes []string
	IsPublic     bool
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	svc := &StorageService{now: time.Now}
	if cfg.AWS.AccessKeyID == "" {
		svc.store = &diskStore{root: cfg.Server.UploadDir, baseURL: strings.TrimRight(cfg.Server.PublicBaseURL, "/") + "/uploads"}
		return svc, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region:      aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	svc.store = &s3Store{
		client: s3.New(sess),
		bucket: cfg.AWS.S3Bucket,
		region: cfg.AWS.Region,
		cdn:    strings.TrimRight(cfg.AWS.CloudFrontURL, "/"),
	}
	return svc, nil
}

// UploadPreset returns the size and type rules of an upload category.
func (s *StorageService) UploadPreset(category string) UploadOptions {
	if opts, ok := uploadPresets[category]; ok {
		return opts
	}
	return UploadOptions{Folder: "general", MaxSize: 5 * megabyte, AllowedTypes: []string{".jpg", ".jpeg", ".png", ".pdf"}}
}

// UploadFile validates and stores one multipart file. Rule violations are
// reported as ErrValidation.
func (s *StorageService) UploadFile(header *multipart.FileHeader, opts UploadOptions) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if opts.MaxSize > 0 && header.Size > opts.MaxSize {
		return nil, fmt.Errorf("%w: file size %d bytes exceeds maximum allowed size %d bytes", ErrValidation, header.Size, opts.MaxSize)
	}
	if len(opts.AllowedTypes) > 0 && !containsString(opts.AllowedTypes, ext) {
		return nil, fmt.Errorf("%w: file type %s is not allowed", ErrValidation, ext)
	}

	data, err := readUpload(header)
	if err != nil {
		return nil, err
	}
	if !signatureMatches(data, ext) {
		return nil, fmt.Errorf("%w: file content does not match %s", ErrValidation, ext)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	key := path.Join(opts.Folder, fmt.Sprintf("%s_%s%s", s.now().Format("20060102"), uuid.NewString()[:8], ext))
	url, err := s.store.put(key, contentType, data, opts.IsPublic)
	if err != nil {
		return nil, err
	}
	return &UploadResult{
		URL:      url,
		Key:      key,
		Size:     int64(len(data)),
		MimeType: contentType,
		Checksum: utils.HashBytes(data),
	}, nil
}

func (s *StorageService) DeleteFile(key string) error {
	return s.store.remove(key)
}

// DeleteFiles is best effort; failures are logged.
func (s *StorageService) DeleteFiles(keys []string) {
	for _, key := range keys {
		if err := s.DeleteFile(key); err != nil {
			logrus.WithError(err).WithField("key", key).Warn("Failed to remove uploaded file")
		}
	}
}

// ResolveURL returns a short-lived link for private bucket objects and the
// stored URL otherwise.
func (s *StorageService) ResolveURL(key, storedURL string) string {
	if key == "" {
		return storedURL
	}
	signed, err := s.store.presign(key, presignTTL)
	if err != nil {
		logrus.WithError(err).WithField("key", key).Warn("Failed to presign file URL")
		return storedURL
	}
	if signed == "" {
		return storedURL
	}
	return signed
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// signatureMatches compares the leading magic bytes with the extension.
// Extensions without a known signature always pass.
func signatureMatches(data []byte, ext string) bool {
	switch ext {
	case ".pdf":
		return bytes.HasPrefix(data, []byte("%PDF"))
	case ".jpg", ".jpeg":
		return bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF})
	case ".png":
		return bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'})
	case ".gif":
		return bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a"))
	case ".webp":
		return len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WEBP"
	}
	return true
}

type diskStore struct {
	root    string
	baseURL string
}

func (d *diskStore) put(key, _ string, data []byte, _ bool) (string, error) {
	dst := filepath.Join(d.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return d.baseURL + "/" + key, nil
}

func (d *diskStore) remove(key string) error {
	err := os.Remove(filepath.Join(d.root, filepath.FromSlash(key)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete local file: %w", err)
	}
	return nil
}

func (d *diskStore) presign(string, time.Duration) (string, error) {
	return "", nil
}

type s3Store struct {
	client *s3.S3
	bucket string
	region string
	cdn    string
}

func (b *s3Store) put(key, contentType string, data []byte, public bool) (string, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if public {
		input.ACL = aws.String(s3.ObjectCannedACLPublicRead)
	}
	if _, err := b.client.PutObject(input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	if b.cdn != "" {
		return b.cdn + "/" + key, nil
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", b.bucket, b.region, key), nil
}

func (b *s3Store) remove(key string) error {
	if _, err := b.client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

func (b *s3Store) presign(key string, ttl time.Duration) (string, error) {
	req, _ := b.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}
