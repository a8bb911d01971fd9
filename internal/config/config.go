// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "github.com/hazadus/go-sonata/internal/errors"
	"github.com/hazadus/go-sonata/internal/utils"
)

// Префикс переменных окружения, переопределяющих значения из файла
const envPrefix = "SONATA_"

// Config структура для хранения конфигурации приложения
type Config struct {
	DataFile       string   `yaml:"data_file"`
	StorePath      string   `yaml:"store_path"`
	DownloadDir    string   `yaml:"download_dir"`
	LibraryDir     string   `yaml:"library_dir"`
	WatchLibrary   bool     `yaml:"watch_library"`
	DefaultVolume  float64  `yaml:"default_volume"`
	MaxImportBatch int      `yaml:"max_import_batch"`
	Formats        []string `yaml:"supported_formats"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	LogFile   string `yaml:"log_file"`

	AwsBucketName string `yaml:"aws_bucket_name"`
	AwsAccessKey  string `yaml:"aws_access_key"`
	AwsSecretKey  string `yaml:"aws_secret_key"`
	AwsRegion     string `yaml:"aws_region"`
	AwsEndpoint   string `yaml:"aws_endpoint"`
}

// DefaultConfig возвращает конфигурацию со значениями по умолчанию
func DefaultConfig() *Config {
	return &Config{
		DataFile:       "~/.sonata/library.yaml",
		StorePath:      "~/.sonata/offline.db",
		DownloadDir:    "~/Downloads",
		DefaultVolume:  0.8,
		MaxImportBatch: 3,
		Formats:        []string{".mp3", ".wav", ".flac", ".ogg"},
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// LoadConfig загружает конфигурацию приложения из указанного файла.
// Отсутствующий файл не является ошибкой: используются значения по умолчанию
func LoadConfig(filePath string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	config := DefaultConfig()

	data, err := os.ReadFile(utils.ExpandHome(filePath))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("ошибка разбора yaml конфигурации: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("ошибка чтения файла конфигурации: %w", err)
	}

	config.applyEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv переопределяет значения переменными окружения SONATA_*
func (c *Config) applyEnv() {
	overrides := map[string]*string{
		"AWS_BUCKET_NAME": &c.AwsBucketName,
		"AWS_ACCESS_KEY":  &c.AwsAccessKey,
		"AWS_SECRET_KEY":  &c.AwsSecretKey,
		"AWS_REGION":      &c.AwsRegion,
		"AWS_ENDPOINT":    &c.AwsEndpoint,
		"LOG_LEVEL":       &c.LogLevel,
		"LOG_FILE":        &c.LogFile,
		"LIBRARY_DIR":     &c.LibraryDir,
		"DATA_FILE":       &c.DataFile,
		"STORE_PATH":      &c.StorePath,
	}
	for name, field := range overrides {
		if v, ok := os.LookupEnv(envPrefix + name); ok && v != "" {
			*field = v
		}
	}

	if v, ok := os.LookupEnv(envPrefix + "WATCH_LIBRARY"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			c.WatchLibrary = b
		}
	}
}

// applyDefaults заполняет пустые значения и раскрывает тильду в путях
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.DataFile == "" {
		c.DataFile = defaults.DataFile
	}
	if c.StorePath == "" {
		c.StorePath = defaults.StorePath
	}
	if c.DownloadDir == "" {
		c.DownloadDir = defaults.DownloadDir
	}
	if len(c.Formats) == 0 {
		c.Formats = defaults.Formats
	}

	c.DataFile = utils.ExpandHome(c.DataFile)
	c.StorePath = utils.ExpandHome(c.StorePath)
	c.DownloadDir = utils.ExpandHome(c.DownloadDir)
	c.LibraryDir = utils.ExpandHome(c.LibraryDir)
	c.LogFile = utils.ExpandHome(c.LogFile)
}

// Validate проверяет корректность конфигурации
func (c *Config) Validate() error {
	if c.DefaultVolume < 0 || c.DefaultVolume > 1 {
		return fmt.Errorf("%w: default_volume должен быть в диапазоне [0, 1], получено %v",
			apperrors.ErrInvalidConfig, c.DefaultVolume)
	}

	if c.MaxImportBatch < 1 {
		return fmt.Errorf("%w: max_import_batch должен быть не меньше 1", apperrors.ErrInvalidConfig)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("%w: неверный уровень логирования: %s (debug, info, warn или error)",
			apperrors.ErrInvalidConfig, c.LogLevel)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.LogFormat] {
		return fmt.Errorf("%w: неверный формат логов: %s (text или json)",
			apperrors.ErrInvalidConfig, c.LogFormat)
	}

	return nil
}

// HasS3 сообщает, настроена ли публикация в S3
func (c *Config) HasS3() bool {
	return c.AwsBucketName != "" && c.AwsAccessKey != "" && c.AwsSecretKey != ""
}

// IsFormatSupported проверяет, поддерживается ли расширение файла
func (c *Config) IsFormatSupported(ext string) bool {
	for _, f := range c.Formats {
		if f == ext {
			return true
		}
	}
	return false
}
