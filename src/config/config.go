package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	DatabasePath    string
	LogLevel        string
	PoliticiansPath string
	DownloadDir     string

	// Scraper settings
	ScrapeBaseURL   string
	ScrapeInterval  time.Duration // minimum delay between registry requests
	ScrapeBurst     int
	SearchYearsBack int
	MaxFilings      int

	// Notifier settings
	NotifierProvider   string
	DiscordWebhookURL  string
	DiscordChannelName string

	MailgunDomain        string
	MailgunPrivateAPIKey string
	SenderEmail          string
	SenderName           string
	NotifyEmail          string

	// Extraction settings
	ClassifierDefault string

	RunInterval time.Duration
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	scrapeIntervalStr := getEnv("SCRAPE_REQUEST_INTERVAL", "1s")
	scrapeInterval, err := time.ParseDuration(scrapeIntervalStr)
	if err != nil {
		log.Printf("WARNING: Invalid SCRAPE_REQUEST_INTERVAL format '%s'. Using default 1s. Error: %v", scrapeIntervalStr, err)
		scrapeInterval = time.Second
	}

	runIntervalStr := getEnv("RUN_INTERVAL", "1h")
	runInterval, err := time.ParseDuration(runIntervalStr)
	if err != nil {
		log.Printf("WARNING: Invalid RUN_INTERVAL format '%s'. Using default 1h. Error: %v", runIntervalStr, err)
		runInterval = time.Hour
	}

	Cfg = &AppConfig{
		DatabasePath:    getEnv("DATABASE_PATH", "./tradewatch.db"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		PoliticiansPath: getEnv("POLITICIANS_CONFIG_PATH", "politicians.json"),
		DownloadDir:     getEnv("DOWNLOAD_DIR", os.TempDir()),

		ScrapeBaseURL:   getEnv("SCRAPE_BASE_URL", "https://disclosures-clerk.house.gov"),
		ScrapeInterval:  scrapeInterval,
		ScrapeBurst:     getEnvAsInt("SCRAPE_BURST", 2),
		SearchYearsBack: getEnvAsInt("SEARCH_YEARS_BACK", 2),
		MaxFilings:      getEnvAsInt("MAX_FILINGS_PER_POLITICIAN", 1),

		NotifierProvider:   getEnv("NOTIFIER_PROVIDER", "discord"),
		DiscordWebhookURL:  getEnv("DISCORD_WEBHOOK_URL", ""),
		DiscordChannelName: getEnv("DISCORD_CHANNEL_NAME", "#congressional-trades"),

		MailgunDomain:        getEnv("MAILGUN_DOMAIN", ""),
		MailgunPrivateAPIKey: getEnv("MAILGUN_PRIVATE_API_KEY", ""),
		SenderEmail:          getEnv("SENDER_EMAIL", "noreply@example.com"),
		SenderName:           getEnv("SENDER_NAME", "Tradewatch"),
		NotifyEmail:          getEnv("NOTIFY_EMAIL", ""),

		ClassifierDefault: getEnv("CLASSIFIER_DEFAULT", "equity"),

		RunInterval: runInterval,
	}

	if Cfg.NotifierProvider == "mailgun" {
		if Cfg.MailgunDomain == "" || Cfg.MailgunPrivateAPIKey == "" {
			log.Fatalf("FATAL: MAILGUN_DOMAIN and MAILGUN_PRIVATE_API_KEY are required when NOTIFIER_PROVIDER is 'mailgun', but they are not set in environment or .env file.")
		}
		if Cfg.NotifyEmail == "" {
			log.Fatalf("FATAL: NOTIFY_EMAIL must be configured when NOTIFIER_PROVIDER is 'mailgun'.")
		}
	}

	log.Printf("Configuration loaded: LogLevel=%s, DBPath=%s, NotifierProvider=%s, RunInterval=%s",
		Cfg.LogLevel, Cfg.DatabasePath, Cfg.NotifierProvider, Cfg.RunInterval)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}
