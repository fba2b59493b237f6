package main

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/susanpikesquare/keepswell-sub001/internal/config"
	"github.com/susanpikesquare/keepswell-sub001/internal/controller"
	"github.com/susanpikesquare/keepswell-sub001/internal/db"
	"github.com/susanpikesquare/keepswell-sub001/internal/dispatch"
	"github.com/susanpikesquare/keepswell-sub001/internal/gateway"
	"github.com/susanpikesquare/keepswell-sub001/internal/inbound"
	"github.com/susanpikesquare/keepswell-sub001/internal/pending"
	"github.com/susanpikesquare/keepswell-sub001/internal/queue"
	"github.com/susanpikesquare/keepswell-sub001/internal/repository"
	"github.com/susanpikesquare/keepswell-sub001/internal/schedule"
	"github.com/susanpikesquare/keepswell-sub001/internal/selector"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	// Init DB
	db.Init()

	// Engine config (keyword vocabulary, rotation defaults)
	cfg := config.Default()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	// Repositories
	journalRepo := &repository.JournalRepository{DB: db.DB}
	participantRepo := &repository.ParticipantRepository{DB: db.DB}
	promptRepo := &repository.PromptRepository{DB: db.DB}
	usageRepo := &repository.UsageLogRepository{DB: db.DB}
	firingRepo := &repository.FiringRepository{DB: db.DB}
	deliveryRepo := &repository.DeliveryRepository{DB: db.DB}
	entryRepo := &repository.EntryRepository{DB: db.DB}

	// Pending selection store: redis when configured, in-memory otherwise
	var pendingStore pending.Store
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		if err := client.Ping(context.Background()).Err(); err != nil {
			log.Fatalf("failed to ping redis: %v", err)
		}
		pendingStore = pending.NewRedisStore(client)
		log.Println("✅ Connected to redis")
	} else {
		log.Println("⚠️ REDIS_ADDR not set, using in-memory pending store")
		pendingStore = pending.NewMemoryStore()
	}

	// Messaging gateway
	var gw gateway.MessageGateway
	if url := os.Getenv("PROVIDER_URL"); url != "" {
		gw = gateway.NewHTTPGateway(url, os.Getenv("PROVIDER_TOKEN"))
	} else {
		log.Println("⚠️ PROVIDER_URL not set, using log-only gateway")
		gw = &gateway.LogGateway{}
	}

	// Delivery queue: RabbitMQ when configured, in-process otherwise
	var q queue.Queue
	if url := os.Getenv("AMQP_URL"); url != "" {
		amqpQueue, err := queue.NewAMQPQueue(url)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		q = amqpQueue
		log.Println("✅ Connected to RabbitMQ, deliveries handled by worker")
	} else {
		inMem := queue.NewInMemoryQueue()
		queue.StartDeliverySubscriber(inMem, deliveryRepo, participantRepo, firingRepo, promptRepo, gw)
		q = inMem
	}

	// Scheduling & dispatch
	evaluator := schedule.NewEvaluator(firingRepo)
	sel := selector.NewSelector(promptRepo, usageRepo, rand.New(rand.NewSource(time.Now().UnixNano())), cfg.Rotation)
	dispatcher := &dispatch.Dispatcher{
		Selector:     sel,
		Participants: participantRepo,
		Prompts:      promptRepo,
		Firings:      firingRepo,
		Deliveries:   deliveryRepo,
		Usage:        usageRepo,
		Queue:        q,
	}
	ticker := &dispatch.Ticker{
		Journals:   journalRepo,
		Evaluator:  evaluator,
		Dispatcher: dispatcher,
	}
	go ticker.Start(context.Background())

	// Inbound pipeline
	resolver := &inbound.Resolver{
		Participants: participantRepo,
		Deliveries:   deliveryRepo,
		Journals:     journalRepo,
		Pending:      pendingStore,
		Gateway:      gw,
	}
	engine := &inbound.Engine{
		Vocabulary:   cfg.Vocabulary,
		Participants: participantRepo,
		Journals:     journalRepo,
		Usage:        usageRepo,
		Pending:      pendingStore,
		Entries:      entryRepo,
		Gateway:      gw,
		Resolver:     resolver,
	}

	webhookController := &controller.WebhookController{Engine: engine}
	adminController := &controller.AdminController{
		Journals:   journalRepo,
		Firings:    firingRepo,
		Deliveries: deliveryRepo,
		Usage:      usageRepo,
		Dispatcher: dispatcher,
	}

	r := chi.NewRouter()

	// Webhook
	r.Post("/webhook/sms", webhookController.HandleSMS)

	// Operator routes
	r.Get("/firings", adminController.ListFirings)
	r.Get("/firings/{id}/deliveries", adminController.ListFiringDeliveries)
	r.Post("/journals/{id}/trigger", adminController.TriggerJournal)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("🚀 Server running on :" + port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
