package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-landscaping/internal/auth"
	"ms-landscaping/internal/cache"
	"ms-landscaping/internal/config"
	"ms-landscaping/internal/database/migrations"
	"ms-landscaping/internal/equipment"
	equipment_db "ms-landscaping/internal/equipment/db"
	"ms-landscaping/internal/equipment/equipment_api"
	"ms-landscaping/internal/equipment/qr"
	rediswrap "ms-landscaping/internal/equipment/redis"
	"ms-landscaping/internal/events"
	events_db "ms-landscaping/internal/events/db"
	"ms-landscaping/internal/events/event_api"
	"ms-landscaping/internal/kafka"
	"ms-landscaping/internal/logger"
	"ms-landscaping/internal/materials"
	materials_db "ms-landscaping/internal/materials/db"
	"ms-landscaping/internal/materials/material_api"
	"ms-landscaping/internal/profiles"
	profiles_db "ms-landscaping/internal/profiles/db"
	"ms-landscaping/internal/profiles/profile_api"
	"ms-landscaping/internal/reporting"
	reporting_api "ms-landscaping/internal/reporting/api"
	"ms-landscaping/internal/tasks"
	tasks_db "ms-landscaping/internal/tasks/db"
	"ms-landscaping/internal/tasks/task_api"
)

// subscribeHoldExpiry listens for expired equipment-hold keys and
// auto-releases the matching assignment. An expired hold means the booked
// window ran out with nobody returning the item by hand.
func subscribeHoldExpiry(rdb *redis.Client, equipmentService *equipment.EquipmentService, log *logger.Logger) {
	ctx := context.Background()

	val, err := rdb.ConfigGet(ctx, "notify-keyspace-events").Result()
	if err != nil {
		log.Error("REDIS", fmt.Sprintf("Failed to get keyspace config: %v", err))
	} else {
		log.Info("REDIS", fmt.Sprintf("Current keyspace notifications setting: %v", val))
		if len(val) < 2 || !strings.Contains(val[1].(string), "x") || !strings.Contains(val[1].(string), "E") {
			log.Warn("REDIS", "Keyspace notifications not properly configured for expiry events!")
		}
	}

	pubsub := rdb.PSubscribe(ctx, "__keyevent@0__:expired")
	log.Info("REDIS", fmt.Sprintf("Subscribed to Redis keyevent expired notifications (DB %d)", rdb.Options().DB))

	go func() {
		for msg := range pubsub.Channel() {
			if !strings.HasPrefix(msg.Payload, rediswrap.HoldKeyPrefix) {
				continue
			}
			equipmentID := strings.TrimPrefix(msg.Payload, rediswrap.HoldKeyPrefix)
			log.Info("EQUIPMENT", fmt.Sprintf("Hold expired for equipment: %s", equipmentID))

			if err := equipmentService.ReleaseExpired(ctx, equipmentID); err != nil {
				log.Error("EQUIPMENT", fmt.Sprintf("Failed to auto-release equipment %s: %v", equipmentID, err))
			}
		}
	}()
}

// subscribeChangeEvents keeps this instance's cache in step with mutations
// made by other instances: every change event carries the cache keys it
// invalidated, and each consumer drops the same keys locally. Events
// published by this instance are skipped.
func subscribeChangeEvents(ctx context.Context, cfg *config.Config, entityCache *cache.Cache, log *logger.Logger) *kafka.Consumer {
	topics := []string{
		cfg.Kafka.Topics.EventsChanged,
		cfg.Kafka.Topics.TasksChanged,
		cfg.Kafka.Topics.MaterialsChanged,
		cfg.Kafka.Topics.EquipmentChanged,
	}
	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, topics, cfg.Kafka.GroupID, log)

	go consumer.Start(ctx, func(event kafka.ChangeEvent) {
		if event.Origin == cfg.Cache.ServiceName {
			return
		}
		log.Info("KAFKA", fmt.Sprintf("Change event: %s %s %s", event.Entity, event.ID, event.Action))
		if len(event.CacheKeys) > 0 {
			if err := entityCache.Invalidate(ctx, event.CacheKeys...); err != nil {
				log.Warn("CACHE", fmt.Sprintf("Failed to invalidate keys from change event: %v", err))
			}
		}
	})

	return consumer
}

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}

	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}

	_, err = redisClient.ConfigSet(ctx, "notify-keyspace-events", "Ex").Result()
	if err != nil {
		log.Warn("REDIS", fmt.Sprintf("Failed to enable keyspace notifications: %v", err))
	} else {
		log.Info("REDIS", "Keyspace notifications enabled for expired events")
	}

	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Redis.Addr, redisClient.Options().DB))
	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Landscaping Ops Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	if os.Getenv("AUTO_MIGRATE") != "false" {
		opts := migrations.DefaultOptions()
		opts.SeedData = os.Getenv("SEED_DATA") == "true"
		runner := migrations.NewRunner(bunDB, opts)
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migration failed: %v", err))
		}
		if err := runner.Close(); err != nil {
			log.Warn("DATABASE", fmt.Sprintf("Failed to close migrator: %v", err))
		}
	}

	var producer *kafka.Producer
	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		log.Info("KAFKA", fmt.Sprintf("Using Kafka brokers: %v", cfg.Kafka.Brokers))
		producer = kafka.NewProducer(cfg.Kafka.Brokers)
		log.Info("KAFKA", "Kafka producer initialized successfully")

		requiredTopics := []string{
			cfg.Kafka.Topics.EventsChanged,
			cfg.Kafka.Topics.TasksChanged,
			cfg.Kafka.Topics.MaterialsChanged,
			cfg.Kafka.Topics.EquipmentChanged,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	} else {
		log.Warn("KAFKA", "Kafka disabled, cross-instance cache invalidation is off")
	}

	entityCache := cache.New(redisClient, cfg.Cache.TTL, log)
	holds := rediswrap.NewHolds(redisClient)
	tags := qr.NewTagGenerator(os.Getenv("QR_BASE_URL"))

	var publisher events.ChangePublisher
	if producer != nil {
		publisher = producer
	}

	origin := cfg.Cache.ServiceName

	eventService := events.NewEventService(
		&events_db.DB{Bun: bunDB}, entityCache, publisher,
		cfg.Kafka.Topics.EventsChanged, origin, log)
	taskService := tasks.NewTaskService(
		&tasks_db.DB{Bun: bunDB}, entityCache, publisher,
		cfg.Kafka.Topics.TasksChanged, origin, log)
	materialService := materials.NewMaterialService(
		&materials_db.DB{Bun: bunDB}, entityCache, publisher,
		cfg.Kafka.Topics.MaterialsChanged, origin, log)
	equipmentService := equipment.NewEquipmentService(
		&equipment_db.DB{Bun: bunDB}, holds, entityCache, publisher, tags,
		cfg.Kafka.Topics.EquipmentChanged, origin, log)
	profileService := profiles.NewProfileService(
		&profiles_db.DB{Bun: bunDB}, entityCache, log)
	reportService := reporting.NewService(bunDB, entityCache, eventService, log)

	eventHandler := &event_api.Handler{EventService: eventService, Logger: log}
	taskHandler := &task_api.Handler{TaskService: taskService, Logger: log}
	materialHandler := &material_api.Handler{MaterialService: materialService, Logger: log}
	equipmentHandler := &equipment_api.Handler{EquipmentService: equipmentService, Logger: log}
	profileHandler := &profile_api.Handler{ProfileService: profileService, Logger: log}
	reportHandler := &reporting_api.Handler{ReportService: reportService, Logger: log}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/api/events/count", eventHandler.GetEventCount)
	log.Info("ROUTER", "Public endpoints registered at /healthz and /api/events/count")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())
		log.Info("AUTH", "OIDC middleware applied to protected API routes")

		r.Route("/api", func(r chi.Router) {
			r.Route("/events", func(r chi.Router) {
				r.Post("/", eventHandler.CreateEvent)
				r.Get("/", eventHandler.ListEvents)

				r.Route("/{eventId}", func(r chi.Router) {
					r.Get("/", eventHandler.GetEvent)
					r.Put("/", eventHandler.UpdateEvent)
					r.Delete("/", eventHandler.DeleteEvent)
					r.Put("/status", eventHandler.ChangeStatus)
					r.Get("/report", reportHandler.GetEventReport)
					r.Get("/setup", eventHandler.GetSetup)
					r.Put("/setup", eventHandler.PutSetup)

					r.Route("/tasks", func(r chi.Router) {
						r.Post("/", taskHandler.CreateTask)
						r.Get("/", taskHandler.ListTasks)
						r.Put("/{taskId}", taskHandler.UpdateTask)
						r.Delete("/{taskId}", taskHandler.DeleteTask)
						r.Post("/{taskId}/progress", taskHandler.RecordProgress)
						r.Get("/{taskId}/progress", taskHandler.ListProgress)
					})

					r.Route("/checklist", func(r chi.Router) {
						r.Post("/", taskHandler.AddChecklistItem)
						r.Get("/", taskHandler.ListChecklist)
						r.Put("/{itemId}", taskHandler.UpdateChecklistItem)
					})

					r.Route("/materials", func(r chi.Router) {
						r.Post("/", materialHandler.CreateMaterial)
						r.Get("/", materialHandler.ListMaterials)
						r.Put("/{materialId}", materialHandler.UpdateMaterial)
						r.Delete("/{materialId}", materialHandler.DeleteMaterial)
						r.Post("/{materialId}/deliveries", materialHandler.RecordDelivery)
						r.Get("/{materialId}/deliveries", materialHandler.ListDeliveries)
					})

					r.Route("/extras", func(r chi.Router) {
						r.Post("/tasks", taskHandler.AddAdditionalTask)
						r.Get("/tasks", taskHandler.ListAdditionalTasks)
						r.Put("/tasks/{extraId}", taskHandler.UpdateAdditionalTask)
						r.Post("/materials", materialHandler.AddAdditionalMaterial)
						r.Get("/materials", materialHandler.ListAdditionalMaterials)
						r.Put("/materials/{extraId}", materialHandler.UpdateAdditionalMaterial)
					})

					r.Route("/equipment", func(r chi.Router) {
						r.Get("/", equipmentHandler.ListEventEquipment)
						r.Post("/", equipmentHandler.AssignEquipment)
						r.Put("/{usageId}/release", equipmentHandler.ReleaseEquipment)
					})
				})
			})
			log.Info("ROUTER", "Event routes registered under /api/events")

			r.Route("/equipment", func(r chi.Router) {
				r.Post("/", equipmentHandler.CreateEquipment)
				r.Get("/", equipmentHandler.ListEquipment)
				r.Get("/{equipmentId}", equipmentHandler.GetEquipment)
				r.Put("/{equipmentId}", equipmentHandler.UpdateEquipment)
				r.Get("/{equipmentId}/tag", equipmentHandler.GetTag)
			})
			log.Info("ROUTER", "Equipment routes registered under /api/equipment")

			r.Route("/profiles", func(r chi.Router) {
				r.Get("/me", profileHandler.GetMyProfile)
				r.Put("/me", profileHandler.SaveMyProfile)
			})

			r.Get("/reports/overview", reportHandler.GetOverview)
			log.Info("ROUTER", "Profile and report routes registered")
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Info("REDIS", "Starting equipment hold expiry subscription")
	subscribeHoldExpiry(redisClient, equipmentService, log)

	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()
	if cfg.Kafka.Enabled {
		log.Info("KAFKA", "Starting cache invalidation consumer")
		consumer = subscribeChangeEvents(consumerCtx, cfg, entityCache, log)
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Landscaping Ops Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancelConsumer()
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Failed to close consumer: %v", err))
		}
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Failed to close producer: %v", err))
		}
	}

	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Landscaping Ops Service shutdown complete")
	}
}
