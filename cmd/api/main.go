package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"talkie/internal/adapter/api"
	"talkie/internal/adapter/api/handler"
	apimiddleware "talkie/internal/adapter/api/middleware"
	"talkie/internal/adapter/api/router"
	"talkie/internal/adapter/repository"
	"talkie/internal/adapter/trigger"
	"talkie/internal/infrastructure/firebase"
	"talkie/internal/usecase"
	"talkie/pkg/config"
	"talkie/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	var opt option.ClientOption

	if cfg.ServiceAccountJSON != "" {
		log.Printf("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
	} else {
		if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", cfg.ServiceAccountPath)
		}

		log.Printf("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		opt = option.WithCredentialsFile(cfg.ServiceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	messagingClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Messaging: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	userChatRepo := repository.NewFirestoreUserChatRepository(firestoreClient)
	messageRepo := repository.NewFirestoreMessageRepository(firestoreClient)
	tokenRepo := repository.NewFirestoreTokenRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)
	pushSender := firebase.NewMessagingClient(messagingClient)

	notificationUseCase := usecase.NewNotificationUseCase(tokenRepo, userRepo, pushSender)
	lifecycleUseCase := usecase.NewChatLifecycleUseCase(chatRepo, userChatRepo, messageRepo, userRepo, notificationUseCase)
	fanoutUseCase := usecase.NewMessageFanoutUseCase(chatRepo, userChatRepo, messageRepo, notificationUseCase)
	claimsUseCase := usecase.NewTokenClaimsUseCase(userRepo, firebaseAuthClient)
	messageUseCase := usecase.NewMessageUseCase(chatRepo, messageRepo)

	dispatcher := trigger.NewDispatcher(firestoreClient, lifecycleUseCase, fanoutUseCase, claimsUseCase)
	dispatcher.Start(ctx)

	handler.SetupHealthHandler(firebaseAuthClient)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)
	chatHandler := handler.NewChatHandler(lifecycleUseCase, messageUseCase)

	router.Setup(e, chatHandler, authMiddleware)

	logger.Info("Starting server on port %s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
