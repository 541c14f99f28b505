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
	DBPath           string
	ExportDir        string
	CarrierTablePath string

	ExportSource      string
	ExportXLSXPath    string
	ExportIMEIProbe   string
	ExportICCIDColumn int
	ExportCleanDir    bool
	ExportIntervalSec int
	ExportNotifyChat  string

	SheetsSpreadsheetID string
	SheetsWorksheet     string
	SheetsDeviceColumn  string
	SheetsStatusColumn  string
	SheetsOperatorCol   string
	SheetsICCIDColumn   string
	SheetsTrafficColumn string
	SheetsTariffColumn  string
	SheetsTimeoutMs     int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	GoogleRefreshToken string

	PachkaBotName      string
	PachkaAPIBaseURL   string
	PachkaAPIToken     string
	PachkaWebhookURL   string
	PachkaMinDelayMs   int
	PachkaTimeoutMs    int
	PachkaMaxAttempts  int
	BotListenAddr      string
	BotShutdownTimeout int

	LogLevel  string
	LogFormat string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:           getEnv("DB_PATH", filepath.Join(cwd, "data", "simops.db")),
		ExportDir:        getEnv("EXPORT_DIR", filepath.Join(cwd, "exports")),
		CarrierTablePath: getEnv("CARRIER_TABLE_PATH", ""),

		ExportSource:      getEnv("EXPORT_SOURCE", "sheets"),
		ExportXLSXPath:    getEnv("EXPORT_XLSX_PATH", ""),
		ExportIMEIProbe:   getEnv("EXPORT_IMEI_PROBE", "imei"),
		ExportICCIDColumn: getEnvInt("EXPORT_ICCID_COLUMN", 4),
		ExportCleanDir:    getEnvBool("EXPORT_CLEAN_DIR", false),
		ExportIntervalSec: getEnvInt("EXPORT_INTERVAL_SEC", 3600),
		ExportNotifyChat:  getEnv("EXPORT_NOTIFY_CHAT", ""),

		SheetsSpreadsheetID: getEnv("GOOGLE_SHEETS_ID", ""),
		SheetsWorksheet:     getEnv("GOOGLE_SHEETS_WORKSHEET", "SIMS"),
		SheetsDeviceColumn:  getEnv("SHEETS_DEVICE_COLUMN", "Устройство"),
		SheetsStatusColumn:  getEnv("SHEETS_STATUS_COLUMN", "Состояние симкарт"),
		SheetsOperatorCol:   getEnv("SHEETS_OPERATOR_COLUMN", "2 Оператор"),
		SheetsICCIDColumn:   getEnv("SHEETS_ICCID_COLUMN", "ICCID"),
		SheetsTrafficColumn: getEnv("SHEETS_TRAFFIC_COLUMN", "Трафик"),
		SheetsTariffColumn:  getEnv("SHEETS_TARIFF_COLUMN", "Тариф"),
		SheetsTimeoutMs:     getEnvInt("SHEETS_TIMEOUT_MS", 30000),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),

		PachkaBotName:      getEnv("PACHKA_BOT_NAME", "SIM bot"),
		PachkaAPIBaseURL:   getEnv("PACHKA_API_BASE_URL", "https://api.pachca.com/api/shared/v1"),
		PachkaAPIToken:     getEnv("PACHKA_API_TOKEN", ""),
		PachkaWebhookURL:   getEnv("PACHKA_WEBHOOK_URL", ""),
		PachkaMinDelayMs:   getEnvInt("PACHKA_MIN_DELAY_MS", 2000),
		PachkaTimeoutMs:    getEnvInt("PACHKA_TIMEOUT_MS", 10000),
		PachkaMaxAttempts:  getEnvInt("PACHKA_MAX_ATTEMPTS", 3),
		BotListenAddr:      getEnv("BOT_LISTEN_ADDR", "0.0.0.0:5000"),
		BotShutdownTimeout: getEnvInt("BOT_SHUTDOWN_TIMEOUT_SEC", 10),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}

	return cfg, nil
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
