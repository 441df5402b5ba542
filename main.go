package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"sitetrack/microservices/tasks-service/handlers"
	"sitetrack/microservices/tasks-service/logging"
	"sitetrack/microservices/tasks-service/repositories"
	"sitetrack/microservices/tasks-service/services"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Role, User-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Tasks Service...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	var (
		taskRepo    services.TaskRepository
		projectRepo services.ProjectDirectory
		userRepo    services.UserDirectory
	)

	if os.Getenv("REPO_DRIVER") == "memory" {
		logging.Logger.Info("Event ID: REPO_DRIVER_MEMORY, Description: Using in-memory repositories.")
		taskRepo = repositories.NewMemoryTaskRepo()
		projectRepo = repositories.NewMemoryProjectRepo()
		userRepo = repositories.NewMemoryUserRepo()
	} else {
		mongoURI := os.Getenv("MONGO_URI")
		mongoDBName := os.Getenv("MONGO_DB_NAME")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
		if err != nil {
			logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
		}
		defer client.Disconnect(ctx)

		if err := client.Ping(ctx, nil); err != nil {
			logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
		}
		logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

		db := client.Database(mongoDBName)
		taskRepo = repositories.NewTaskRepo(db.Collection("tasks"))
		projectRepo = repositories.NewProjectRepo(db.Collection("projects"))
		userRepo = repositories.NewUserRepo(db.Collection("users"))
	}

	var notifier services.Notifier = services.NoopNotifier{}
	if notificationsURL := os.Getenv("NOTIFICATIONS_SERVICE_URL"); notificationsURL != "" {
		notificationsBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "notifications-cb",
			MaxRequests: 1,
			Timeout:     5 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
			},
		})
		notifier = services.NewHTTPNotifier(notificationsURL, &http.Client{Timeout: 5 * time.Second}, notificationsBreaker)
	}

	taskService := services.NewTaskService(taskRepo, projectRepo, userRepo, notifier)
	taskHandler := handlers.NewTaskHandler(taskService)

	r := mux.NewRouter()
	r.HandleFunc("/api/tasks", taskHandler.ListTasks).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{taskID}", taskHandler.GetTask).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{taskID}", taskHandler.UpdateTask).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{taskID}", taskHandler.DeleteTask).Methods(http.MethodDelete)

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
