package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Infraestrutura e utilitários
	"cratetrack/config"
	"cratetrack/internal/ledger"
	"cratetrack/internal/pkg/cache"
	"cratetrack/internal/pkg/database"
	"cratetrack/internal/pkg/logger"
	"cratetrack/internal/pkg/middleware"
	"cratetrack/internal/pkg/token"

	// Handlers
	"cratetrack/internal/api/catalog"
	"cratetrack/internal/api/crate"
	"cratetrack/internal/api/inventory"
	"cratetrack/internal/api/router"
	"cratetrack/internal/api/shipment"
	"cratetrack/internal/api/user"

	// Acesso a dados
	"cratetrack/internal/repository/catalogrepo"
	"cratetrack/internal/repository/craterepo"
	"cratetrack/internal/repository/inventoryrepo"
	"cratetrack/internal/repository/memstore"
	"cratetrack/internal/repository/shipmentrepo"
	"cratetrack/internal/repository/txledger"
	"cratetrack/internal/repository/userrepo"

	// Lógica de negócio
	"cratetrack/internal/service/catalogservice"
	"cratetrack/internal/service/crateservice"
	"cratetrack/internal/service/inventoryservice"
	"cratetrack/internal/service/shipmentservice"
	"cratetrack/internal/service/userservice"
)

// repositories reúne as portas de armazenamento escolhidas por STORAGE_DRIVER.
type repositories struct {
	crates    crateservice.CrateRepository
	types     crateservice.CrateTypeRepository
	orders    shipmentservice.OrderRepository
	catalog   catalogservice.CatalogRepository
	lookup    shipmentservice.CatalogLookup
	inventory inventoryservice.InventoryRepository
	users     userservice.UserRepository
	tx        ledger.Transactor
}

// @title CrateTrack API
// @version 1.0
// @description Rastreamento de caixas NFC e ordens de movimentação multi-tenant.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// 1. Configuração e Inicialização
	log.Println("⚡ Inicializando serviço CrateTrack...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", map[string]interface{}{"env": cfg.Environment, "storage": cfg.StorageDriver})

	// 2. Cache (Redis). Sem REDIS_ADDR o cache vira no-op e o rate limiting é desligado.
	var cacheClient cache.Client = cache.NopClient{}
	var rateLimit func(http.Handler) http.Handler
	if cfg.RedisAddr != "" {
		redisClient, err := cache.NewRedisClient(cfg.RedisAddr)
		if err != nil {
			log.Fatal("Falha ao conectar ao Redis.", err)
		}
		defer redisClient.Close()
		cacheClient = redisClient
		rateLimit = middleware.RateLimiter(redisClient, cfg.RateLimitMaxRequests, cfg.RateLimitPeriod, log)
		log.Info("Conexão Redis estabelecida.", map[string]interface{}{"addr": cfg.RedisAddr})
	} else {
		log.Warn("REDIS_ADDR vazio: cache e rate limiting desativados.", nil)
	}

	// 3. Armazenamento
	var repos repositories
	switch cfg.StorageDriver {
	case config.StoragePostgres:
		db, err := database.NewPostgresDB(cfg.DatabaseURL, cfg.DBTimeout)
		if err != nil {
			log.Fatal("Falha ao conectar ao banco de dados.", err)
		}
		defer db.Close()
		log.Info("Conexão PostgreSQL estabelecida.", nil)
		repos = postgresRepositories(db, cacheClient, cfg, log)
	case config.StorageMemory:
		store := memstore.New()
		log.Warn("Armazenamento em memória: os dados serão perdidos ao encerrar.", nil)
		repos = repositories{
			crates: store, types: store, orders: store, catalog: store, lookup: store,
			inventory: store, users: store, tx: store,
		}
	}

	// 4. Injeção de dependências: Repository -> Service -> Handler
	engine := ledger.NewEngine(log)
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)

	inventorySvc := inventoryservice.NewService(repos.inventory, repos.crates, cacheClient, cfg.InventoryCacheTTL, log)
	crateSvc := crateservice.NewService(repos.crates, repos.types, repos.tx, engine, inventorySvc, cfg.CrateQuota, log)
	shipmentSvc := shipmentservice.NewService(repos.orders, repos.crates, repos.lookup, repos.tx, engine, inventorySvc, log)
	catalogSvc := catalogservice.NewService(repos.catalog, log)
	userSvc := userservice.NewService(repos.users, tokenSvc, log)
	log.Debug("Serviços inicializados.", nil)

	handlers := router.Handlers{
		Crate:     crate.NewHandler(crateSvc, log),
		Shipment:  shipment.NewHandler(shipmentSvc, log),
		Inventory: inventory.NewHandler(inventorySvc, log),
		Catalog:   catalog.NewHandler(catalogSvc, log),
		User:      user.NewHandler(userSvc, log),
	}

	// 5. Roteador e servidor
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.NewRouter(handlers, tokenSvc, rateLimit),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("🚀 Servidor CrateTrack ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	// 6. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("🛑 Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("✅ Servidor encerrado com sucesso.", nil)
}

func postgresRepositories(db *sql.DB, cacheClient cache.Client, cfg *config.Config, log logger.Logger) repositories {
	crates := craterepo.NewCrateRepository(db, cfg.DBTimeout, log)
	catalogRepo := catalogrepo.NewCatalogRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTimeout, log)
	return repositories{
		crates:    crates,
		types:     crates,
		orders:    shipmentrepo.NewShipmentRepository(db, cfg.DBTimeout, log),
		catalog:   catalogRepo,
		lookup:    catalogRepo,
		inventory: inventoryrepo.NewInventoryRepository(db, cfg.DBTimeout, log),
		users:     userrepo.NewUserRepository(db, cfg.DBTimeout, log),
		tx:        txledger.NewTransactor(db, cfg.DBTimeout, log),
	}
}
