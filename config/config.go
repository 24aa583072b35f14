package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Drivers de armazenamento suportados.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config armazena todas as configurações do CrateTrack.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string

	// Armazenamento
	StorageDriver string
	DatabaseURL   string
	DBTimeout     time.Duration

	// Cache (Redis). Vazio desativa cache e rate limiting.
	// CacheTimeout é o TTL das mercadorias em cache.
	RedisAddr         string
	CacheTimeout      time.Duration
	InventoryCacheTTL time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// Quota de caixas por tenant (0 = ilimitado)
	CrateQuota int
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
// Variáveis obrigatórias ausentes encerram o processo.
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("❌ Erro de Configuração: %v", err)
	}
	return cfg
}

// Load é a versão de LoadConfig que devolve o erro ao chamador.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", StoragePostgres)),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DBTimeout:     getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		RedisAddr:         getEnv("REDIS_ADDR", ""),
		CacheTimeout:      getDurationEnv("CACHE_TIMEOUT_SEC", 10) * time.Second,
		InventoryCacheTTL: getDurationEnv("INVENTORY_CACHE_TTL_SEC", 30) * time.Second,

		JWTSecretKey: getEnv("JWT_SECRET_KEY", ""),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 60) * time.Minute,

		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		CrateQuota: getIntEnv("CRATE_QUOTA_PER_TENANT", 0),
	}

	switch cfg.StorageDriver {
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("a variável de ambiente DATABASE_URL deve ser definida para STORAGE_DRIVER=%s", StoragePostgres)
		}
	case StorageMemory:
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER inválido: %q (use %s ou %s)", cfg.StorageDriver, StoragePostgres, StorageMemory)
	}

	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("a variável de ambiente JWT_SECRET_KEY deve ser definida")
	}

	return cfg, nil
}

// LoadDatabase lê apenas DATABASE_URL e DB_TIMEOUT_SEC, usado pelas migrações.
func LoadDatabase() (*Config, error) {
	cfg := &Config{
		StorageDriver: StoragePostgres,
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		DBTimeout:     getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("a variável de ambiente DATABASE_URL deve ser definida")
	}
	return cfg, nil
}

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getDurationEnv lê uma variável numérica e retorna-a como time.Duration (sem unidade).
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}
