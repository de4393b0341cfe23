package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	OutputDir string

	HTTPAddr            string
	HTTPReadTimeoutSec  int
	HTTPWriteTimeoutSec int
	MaxUploadBytes      int64

	PreviewRows int
	SampleRows  int

	ExportSheetName string
	ExportFileName  string

	LogFile string
	LogJSON bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		HTTPReadTimeoutSec:  getEnvInt("HTTP_READ_TIMEOUT_SEC", 60),
		HTTPWriteTimeoutSec: getEnvInt("HTTP_WRITE_TIMEOUT_SEC", 120),
		MaxUploadBytes:      getEnvInt64("MAX_UPLOAD_BYTES", 50*1024*1024),

		PreviewRows: getEnvInt("PREVIEW_ROWS", 10),
		SampleRows:  getEnvInt("SAMPLE_ROWS", 5),

		ExportSheetName: getEnv("EXPORT_SHEET_NAME", "Padronizado"),
		ExportFileName:  getEnv("EXPORT_FILE_NAME", "Juizes_Padronizados.xlsx"),

		LogFile: getEnv("LOG_FILE", ""),
		LogJSON: getEnvBool("LOG_JSON", false),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Require("HTTP_ADDR", c.HTTPAddr); err != nil {
		return err
	}
	if err := c.Require("EXPORT_SHEET_NAME", c.ExportSheetName); err != nil {
		return err
	}
	if len([]rune(c.ExportSheetName)) > 31 {
		return fmt.Errorf("EXPORT_SHEET_NAME exceeds 31 characters: %s", c.ExportSheetName)
	}
	if !strings.HasSuffix(strings.ToLower(c.ExportFileName), ".xlsx") {
		return fmt.Errorf("EXPORT_FILE_NAME must end with .xlsx: %s", c.ExportFileName)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt64(key string, fallback int64) int64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
