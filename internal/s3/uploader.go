// Package s3 публикует офлайн-треки в S3-совместимое хранилище
package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sirupsen/logrus"

	"github.com/hazadus/go-sonata/internal/config"
	"github.com/hazadus/go-sonata/internal/data"
)

// Префикс ключей опубликованных треков
const keyPrefix = "tracks/"

// Config содержит настройки для S3
type Config struct {
	Region     string
	AccessKey  string
	SecretKey  string
	Endpoint   string
	BucketName string
}

// ConfigFrom берет настройки S3 из конфигурации приложения
func ConfigFrom(cfg *config.Config) *Config {
	return &Config{
		Region:     cfg.AwsRegion,
		AccessKey:  cfg.AwsAccessKey,
		SecretKey:  cfg.AwsSecretKey,
		Endpoint:   cfg.AwsEndpoint,
		BucketName: cfg.AwsBucketName,
	}
}

type uploadAPI interface {
	UploadWithContext(ctx aws.Context, input *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

type deleteAPI interface {
	DeleteObjectWithContext(ctx aws.Context, input *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error)
}

// Uploader обертка для S3 uploader
type Uploader struct {
	s3Uploader uploadAPI
	s3Client   deleteAPI
	config     *Config
	logger     *logrus.Logger
}

// NewUploader создает новый S3 uploader
func NewUploader(config *Config, logger *logrus.Logger) (*Uploader, error) {
	awsConfig := &aws.Config{
		Region: aws.String(config.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
	}

	// Если указан endpoint, добавляем его
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания AWS сессии: %w", err)
	}

	return newUploader(config, s3manager.NewUploader(sess), s3.New(sess), logger), nil
}

func newUploader(config *Config, up uploadAPI, client deleteAPI, logger *logrus.Logger) *Uploader {
	if logger == nil {
		logger = logrus.New()
	}
	return &Uploader{
		s3Uploader: up,
		s3Client:   client,
		config:     config,
		logger:     logger,
	}
}

// ObjectKey возвращает ключ объекта для трека
func ObjectKey(t data.Track) string {
	key := keyPrefix + t.ID
	if t.Format != "" {
		key += "." + t.Format
	}
	return key
}

// baseURL возвращает адрес бакета без завершающего слеша
func (u *Uploader) baseURL() string {
	if u.config.Endpoint != "" {
		return strings.TrimSuffix(u.config.Endpoint, "/") + "/" + u.config.BucketName
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", u.config.BucketName, u.config.Region)
}

// ObjectURL возвращает публичный URL объекта
func (u *Uploader) ObjectURL(key string) string {
	return u.baseURL() + "/" + key
}

// KeyFromURL извлекает ключ из URL объекта этого бакета
func (u *Uploader) KeyFromURL(url string) (string, bool) {
	prefix := u.baseURL() + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}

// UploadFile загружает содержимое в S3 и возвращает URL объекта
func (u *Uploader) UploadFile(ctx context.Context, reader io.Reader, key, contentType string) (string, error) {
	input := &s3manager.UploadInput{
		Bucket: aws.String(u.config.BucketName),
		Key:    aws.String(key),
		Body:   reader,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := u.s3Uploader.UploadWithContext(ctx, input); err != nil {
		return "", fmt.Errorf("ошибка загрузки: %w", err)
	}

	url := u.ObjectURL(key)
	u.logger.WithFields(logrus.Fields{
		"bucket": u.config.BucketName,
		"key":    key,
	}).Info("Файл загружен в S3")
	return url, nil
}

// DeleteFile удаляет опубликованный объект по его URL
func (u *Uploader) DeleteFile(ctx context.Context, url string) error {
	key, ok := u.KeyFromURL(url)
	if !ok {
		return fmt.Errorf("URL не относится к бакету %s: %s", u.config.BucketName, url)
	}

	_, err := u.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("ошибка удаления файла из S3: %w", err)
	}

	u.logger.WithField("key", key).Info("Файл удален из S3")
	return nil
}
