package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"metaregistry/internal/config"
	"metaregistry/internal/handler"
	"metaregistry/internal/ledger"
	"metaregistry/internal/service"
	"metaregistry/internal/service/objects"
)

func main() {
	// Загружаем конфигурации
	appConfig, err := config.NewConfig(".app.env")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ledgerConfig, err := ledger.NewConfig(".ledger.env", appConfig.Server.DataDir)
	if err != nil {
		log.Fatalf("Failed to load ledger config: %v", err)
	}

	objectsConfig, err := objects.NewConfig(".objects.env")
	if err != nil {
		log.Fatalf("Failed to load objects config: %v", err)
	}

	// Инициализация объектного хранилища
	storage, err := objects.NewStorage(objectsConfig, appConfig.Server.DataDir)
	if err != nil {
		log.Fatalf("Failed to create object storage: %v", err)
	}

	// Подключение к ноде и подготовка контракта (кэш либо авто-деплой)
	bootstrapCtx, cancelBootstrap := context.WithTimeout(context.Background(), 5*time.Minute)
	ledgerClient, err := ledger.NewClient(bootstrapCtx, ledgerConfig)
	cancelBootstrap()
	if err != nil {
		log.Fatalf("Failed to connect to ledger: %v", err)
	}

	// Инициализация сервисов и хендлеров
	recordService := service.NewRecordService(ledgerClient, storage, appConfig.Server.PublicBaseURL)
	recordHandler := handler.NewRecordHandler(recordService)
	staticHandler := handler.NewStaticHandler(storage)

	// Настройка HTTP роутера
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// HTTP маршруты
	r.Get("/", staticHandler.Index)
	r.Get("/objects/*", staticHandler.ServeObject)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", recordHandler.Health)
		r.Get("/address", recordHandler.Address)

		r.Route("/metadata", func(r chi.Router) {
			r.Get("/", recordHandler.List)
			r.Post("/", recordHandler.Create)
			r.Get("/{recordIdHex}", recordHandler.Get)
			r.Put("/{recordIdHex}", recordHandler.Update)
		})
	})

	// Создаем HTTP сервер
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", appConfig.Server.Port),
		Handler: r,
	}

	// Канал для сигналов завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Запускаем HTTP сервер
	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Printf("HTTP server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
