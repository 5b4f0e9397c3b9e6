// Package main is the application entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"codexai-go/internal/config"
	"codexai-go/internal/handler"
	"codexai-go/internal/middleware"
	"codexai-go/internal/model"
	"codexai-go/internal/pipeline"
	"codexai-go/internal/repository"
	"codexai-go/internal/service"
	"codexai-go/pkg/database"
	"codexai-go/pkg/embedding"
	"codexai-go/pkg/es"
	"codexai-go/pkg/kafka"
	"codexai-go/pkg/llm"
	"codexai-go/pkg/log"
	"codexai-go/pkg/storage"
	"codexai-go/pkg/tika"
	"codexai-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()
	log.Info("logger initialized")

	database.InitMySQL(cfg.Database.MySQL.DSN)
	database.InitRedis(cfg.Database.Redis.Addr, cfg.Database.Redis.Password, cfg.Database.Redis.DB)
	storage.InitMinIO(cfg.MinIO)
	kafka.InitProducer(cfg.Kafka)

	if err := database.DB.AutoMigrate(
		&model.User{},
		&model.Conversation{},
		&model.Message{},
		&model.VaultDocument{},
		&model.PublicSource{},
		&model.RagChunk{},
		&model.AuditLog{},
	); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}

	var candidateIndex service.CandidateIndex
	if cfg.Elasticsearch.Enabled {
		if err := es.InitES(cfg.Elasticsearch, cfg.Embedding.Dimensions); err != nil {
			log.Fatalf("elasticsearch initialization failed: %v", err)
		}
		candidateIndex = service.NewESCandidateIndex(cfg.Elasticsearch.IndexName)
	} else {
		log.Warnf("elasticsearch disabled, searches scan the chunk store")
	}

	// repositories
	userRepo := repository.NewUserRepository(database.DB)
	chunkRepo := repository.NewChunkRepository(database.DB, cfg.Embedding.Dimensions)
	vaultRepo := repository.NewVaultRepository(database.DB)
	convRepo := repository.NewConversationRepository(database.DB)
	auditRepo := repository.NewAuditRepository(database.DB)
	sourceRepo := repository.NewPublicSourceRepository(database.DB)
	ingestStateRepo := repository.NewIngestStateRepository(database.RDB)

	// services
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	tikaClient := tika.NewClient(cfg.Tika)
	embeddingClient := embedding.NewClient(cfg.Embedding)
	llmClient := llm.NewClient(cfg.LLM)

	ragService := service.NewRagService(embeddingClient, chunkRepo, ingestStateRepo, candidateIndex, service.RagOptions{
		ChunkSize:    cfg.RAG.ChunkSize,
		ChunkOverlap: cfg.RAG.ChunkOverlap,
		SearchLimit:  cfg.RAG.SearchLimit,
		Threshold:    cfg.RAG.Threshold,
	})
	userService := service.NewUserService(userRepo, jwtManager)
	assistantService := service.NewAssistantService(convRepo, auditRepo, ragService, llmClient)
	knowledgeService := service.NewKnowledgeService(sourceRepo, chunkRepo, auditRepo, ragService)
	vaultService := service.NewVaultService(vaultRepo, auditRepo, ragService, cfg.Vault, cfg.MinIO.BucketName)
	chatService := service.NewChatService(ragService, llmClient)

	processor := pipeline.NewProcessor(tikaClient, ragService, vaultRepo, cfg.Vault, cfg.MinIO.BucketName)
	go kafka.StartConsumer(cfg.Kafka, processor)

	seedCtx, cancelSeed := context.WithCancel(context.Background())
	defer cancelSeed()
	go seedPublicSources(seedCtx, cfg.Vault.SeedDir, knowledgeService)

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(middleware.RequestLogger(), gin.Recovery())

	userHandler := handler.NewUserHandler(userService)
	assistantHandler := handler.NewAssistantHandler(assistantService)
	knowledgeHandler := handler.NewKnowledgeHandler(knowledgeService)
	vaultHandler := handler.NewVaultHandler(vaultService, cfg.MinIO)
	chatHandler := handler.NewChatHandler(chatService, userService, jwtManager)

	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
			auth.POST("/refreshToken", userHandler.RefreshToken)
		}

		users := apiV1.Group("/users")
		users.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			users.GET("/me", userHandler.GetProfile)
			users.POST("/logout", userHandler.Logout)
		}

		assistant := apiV1.Group("/assistant")
		assistant.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			assistant.POST("/conversations", assistantHandler.CreateConversation)
			assistant.GET("/conversations", assistantHandler.ListConversations)
			assistant.GET("/conversations/:id/messages", assistantHandler.GetMessages)
			assistant.POST("/conversations/:id/messages", assistantHandler.SendMessage)
		}

		knowledge := apiV1.Group("/knowledge")
		knowledge.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			knowledge.POST("/search", knowledgeHandler.Search)
			knowledge.GET("/sources", knowledgeHandler.ListSources)

			admin := knowledge.Group("/")
			admin.Use(middleware.AdminAuthMiddleware())
			{
				admin.POST("/sources", knowledgeHandler.RegisterSource)
				admin.GET("/stats", knowledgeHandler.CorpusStats)
			}
		}

		vault := apiV1.Group("/vault")
		vault.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			vault.POST("/documents", vaultHandler.Upload)
			vault.GET("/documents", vaultHandler.ListDocuments)
			vault.GET("/documents/:id/download", vaultHandler.GetDownloadURL)
			vault.DELETE("/documents/:id", vaultHandler.Delete)
			vault.POST("/search", vaultHandler.Search)
		}

		chat := apiV1.Group("/chat")
		chat.Use(middleware.AuthMiddleware(jwtManager, userService))
		{
			chat.GET("/stop-token", chatHandler.GetStopToken)
		}
	}
	r.GET("/chat/:token", chatHandler.Handle)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received, stopping server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}
	log.Info("server stopped")
}

// seedPublicSources imports any JSON source definitions found in dir into
// the public corpus. Already-registered sources are skipped, so restarts
// are idempotent.
func seedPublicSources(ctx context.Context, dir string, knowledgeService service.KnowledgeService) {
	if dir == "" {
		return
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		log.Infof("seedPublicSources: directory '%s' unavailable, skipping", dir)
		return
	}

	walkErr := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.Warnf("seedPublicSources: failed to read %s: %v", path, err)
			return nil
		}

		var inputs []service.RegisterSourceInput
		if err := json.Unmarshal(data, &inputs); err != nil {
			var single service.RegisterSourceInput
			if err := json.Unmarshal(data, &single); err != nil {
				log.Warnf("seedPublicSources: %s is not a valid source definition: %v", path, err)
				return nil
			}
			inputs = []service.RegisterSourceInput{single}
		}

		for _, input := range inputs {
			_, err := knowledgeService.RegisterSource(ctx, 0, input)
			switch {
			case err == nil:
				log.Infof("seedPublicSources: imported '%s' from %s", input.ExternalID, path)
			case errors.Is(err, service.ErrSourceAlreadyRegistered):
				// already in the corpus
			default:
				log.Warnf("seedPublicSources: failed to import '%s': %v", input.ExternalID, err)
			}
		}
		return nil
	})
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		log.Warnf("seedPublicSources: walk failed: %v", walkErr)
	}
}
