package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string
	Env         string

	JWTSecret string

	LLMProvider string
	GeminiKey   string
	OpenAIKey   string
	LLMModel    string

	// Welcome bonus granted once at registration
	FreeCredits int

	// Payment gateway selector; only "manual" ships today
	PaymentMode string

	// Cron expression for the nightly ledger audit ("" disables it)
	LedgerAuditSchedule string
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ .env file not found, using system environment variables")
	}

	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Port:        os.Getenv("PORT"),
		Env:         os.Getenv("ENV"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		LLMProvider: os.Getenv("LLM_PROVIDER"),
		GeminiKey:   os.Getenv("GEMINI_API_KEY"),
		OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
		LLMModel:    os.Getenv("LLM_MODEL"),
		PaymentMode: os.Getenv("PAYMENT_MODE"),
	}

	// Setting LEDGER_AUDIT_SCHEDULE to an empty value disables the audit;
	// leaving it unset keeps the nightly default.
	if v, ok := os.LookupEnv("LEDGER_AUDIT_SCHEDULE"); ok {
		cfg.LedgerAuditSchedule = v
	} else {
		cfg.LedgerAuditSchedule = "0 3 * * *"
	}

	// Default values
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.Env == "" {
		cfg.Env = "development"
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "gemini"
	}
	if cfg.PaymentMode == "" {
		cfg.PaymentMode = "manual"
	}

	cfg.FreeCredits = 3
	if v := os.Getenv("FREE_CREDITS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.FreeCredits = n
		}
	}

	return cfg
}
