package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/macromeal-backend/config"
)

// ImageService mirrors recipe images into our own S3 bucket so the corpus
// does not depend on third-party image hosting staying up.
type ImageService struct {
	s3Config *config.S3Config
	client   *http.Client
	logger   *zap.Logger
}

// NewImageService creates a new ImageService instance
func NewImageService(s3Config *config.S3Config, logger *zap.Logger) *ImageService {
	return &ImageService{
		s3Config: s3Config,
		client:   &http.Client{Timeout: 60 * time.Second},
		logger:   logger,
	}
}

// MirrorImage downloads an image from the source URL and uploads it to S3,
// returning the public S3 URL. On failure the original URL is returned so a
// broken mirror never loses the image reference.
func (s *ImageService) MirrorImage(ctx context.Context, imageURL string) (string, error) {
	if imageURL == "" {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return imageURL, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return imageURL, fmt.Errorf("failed to download image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return imageURL, fmt.Errorf("failed to download image, status: %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return imageURL, fmt.Errorf("failed to read image data: %w", err)
	}

	fileName := fmt.Sprintf("recipe-images/%s.jpg", uuid.New().String())
	s3URL, err := s.UploadImageToS3(ctx, imageData, fileName)
	if err != nil {
		s.logger.Warn("failed to upload to S3, keeping original URL", zap.Error(err))
		return imageURL, nil
	}

	return s3URL, nil
}

// UploadImageToS3 uploads image data to S3 and returns the public URL
func (s *ImageService) UploadImageToS3(ctx context.Context, imageData []byte, fileName string) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(fileName),
		Body:        bytes.NewReader(imageData),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, fileName)
	s.logger.Info("uploaded recipe image to S3", zap.String("url", publicURL))

	return publicURL, nil
}
