package main

import (
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"memchat/internal/api/handlers"
	"memchat/internal/app"
	"memchat/internal/auth"
	"memchat/internal/config"
	"memchat/internal/logger"
	"memchat/internal/repository/postgres"
	chatService "memchat/internal/service/chat"
	conversationService "memchat/internal/service/conversation"
	"memchat/internal/service/llm"
	memoryService "memchat/internal/service/memory"
	usageService "memchat/internal/service/usage"
	"memchat/internal/worker"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug("No .env file found, using environment variables")
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}

	logger.Log.Info("Initializing database...")
	database, err := postgres.NewPostgresDB(appConfig.Database)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close()

	appCfg := app.NewConfig(database, appConfig)

	provider := llm.NewOpenRouterProvider(&appConfig.LLM)

	memories := memoryService.NewStore(appCfg.DB, provider)
	extractor := memoryService.NewExtractor(provider, appConfig.LLM.ExtractionPrompt)
	ledger := usageService.NewLedger(appCfg.DB)

	pool := worker.NewPool(2, 64, 2*time.Minute)
	defer pool.Shutdown()

	chat := chatService.NewService(appCfg.DB, provider, memories, extractor, ledger, pool, appConfig)
	conversations := conversationService.NewService(appCfg.DB)

	authService := auth.NewService(appCfg.DB, &appConfig.Auth)
	chatHandlers := handlers.NewChatHandlers(chat, conversations, ledger, provider)

	// Go 1.22+ method/path routing
	mux := http.NewServeMux()

	corsHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.WriteHeader(http.StatusOK)
	}

	// Public routes
	mux.HandleFunc("POST /api/register", enableCORS(authService.RegisterHandler))
	mux.HandleFunc("OPTIONS /api/register", corsHandler)
	mux.HandleFunc("POST /api/login", enableCORS(authService.LoginHandler))
	mux.HandleFunc("OPTIONS /api/login", corsHandler)
	mux.HandleFunc("GET /api/health", enableCORS(chatHandlers.HealthHandler))
	mux.HandleFunc("OPTIONS /api/health", corsHandler)
	mux.HandleFunc("GET /api/models", enableCORS(chatHandlers.GetModelsHandler))
	mux.HandleFunc("OPTIONS /api/models", corsHandler)

	// Protected routes
	mux.HandleFunc("POST /api/chat/stream", enableCORS(authService.AuthMiddleware(chatHandlers.ChatStreamHandler)))
	mux.HandleFunc("OPTIONS /api/chat/stream", corsHandler)
	// Read routes fail open: no or invalid session means an empty list
	mux.HandleFunc("GET /api/conversations", enableCORS(authService.OptionalAuthMiddleware(chatHandlers.GetConversationsHandler)))
	mux.HandleFunc("OPTIONS /api/conversations", corsHandler)
	mux.HandleFunc("GET /api/conversations/{id}/messages", enableCORS(authService.OptionalAuthMiddleware(chatHandlers.GetConversationMessagesHandler)))
	mux.HandleFunc("OPTIONS /api/conversations/{id}/messages", corsHandler)
	mux.HandleFunc("DELETE /api/conversations/{id}", enableCORS(authService.AuthMiddleware(chatHandlers.DeleteConversationHandler)))
	mux.HandleFunc("OPTIONS /api/conversations/{id}", corsHandler)
	mux.HandleFunc("GET /api/usage", enableCORS(authService.AuthMiddleware(chatHandlers.GetUsageHandler)))
	mux.HandleFunc("OPTIONS /api/usage", corsHandler)

	addr := ":" + appConfig.Server.Port
	logger.Log.WithField("addr", addr).Info("Server starting")

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Log.WithError(err).Fatal("Server failed to start")
	}
}
