package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"github.com/GinaFerl/Ecommerce-Rest-API/config"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/cache"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/database"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/logger"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/mailer"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/pkg/token"

	// Camadas da aplicação para Injeção de Dependências
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/api/product"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/api/router"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/api/user"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/repository/productrepo"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/repository/userrepo"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/service/productservice"
	"github.com/GinaFerl/Ecommerce-Rest-API/internal/service/userservice"
)

func main() {
	log.Println("⚡ Inicializando serviço Ecommerce-Rest-API...")

	// 0. Carregar variáveis de ambiente (.env)
	// Se o arquivo não existir, seguimos em frente: as variáveis essenciais
	// podem estar no ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado. Carregando configs apenas do ambiente do sistema.")
	}

	cfg := config.LoadConfig()
	appLog := logger.NewLogger(cfg.LogLevel)
	appLog.Info("Configurações carregadas.", nil)

	// 1. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	appLog.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	appLog.Info("Conexão Redis estabelecida.", nil)

	// C. Colaboradores externos: JWT e SMTP
	tokenSvc := token.NewService(cfg.JWTSecretKey, cfg.TokenExpiry)
	smtpMailer := mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)

	// 2. Injeção de Dependências (Repository -> Service -> Handler)

	userRepo := userrepo.NewUserRepository(db, cfg.DBTimeout, appLog)
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, cfg.CacheTTL, appLog)

	userSvc := userservice.NewService(userRepo, tokenSvc, smtpMailer, cfg.ResetTokenExpiry, appLog)
	productSvc := productservice.NewService(productRepo, appLog)

	userHandler := user.NewHandler(userSvc, appLog, cfg.CookieName)
	productHandler := product.NewHandler(productSvc, appLog)

	// 3. Roteador e Servidor HTTP

	r := router.NewRouter(productHandler, userHandler, tokenSvc, userRepo, cacheClient, cfg, appLog)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Execução e Graceful Shutdown
	go func() {
		appLog.Info("Servidor ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	appLog.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("Desligamento do servidor forçado.", err)
	}

	appLog.Info("Servidor encerrado com sucesso.", nil)
}
