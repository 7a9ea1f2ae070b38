package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/MarcGrol/ticketshop/lib/myconfig"
	"github.com/MarcGrol/ticketshop/lib/mymetrics"
	"github.com/MarcGrol/ticketshop/lib/mypublisher"
	"github.com/MarcGrol/ticketshop/lib/mypubsub"
	"github.com/MarcGrol/ticketshop/lib/myqueue"
	"github.com/MarcGrol/ticketshop/lib/mystore"
	"github.com/MarcGrol/ticketshop/lib/mytime"
	"github.com/MarcGrol/ticketshop/lib/myuuid"
	"github.com/MarcGrol/ticketshop/services/blog"
	"github.com/MarcGrol/ticketshop/services/cms"
	"github.com/MarcGrol/ticketshop/services/order"
	"github.com/MarcGrol/ticketshop/services/paypal"
	"github.com/MarcGrol/ticketshop/services/tickets"
	"github.com/MarcGrol/ticketshop/services/warmup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("TICKETSHOP_CONFIG"), "path to the toml config file")
	flag.Parse()

	c := context.Background()

	cfg, err := myconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %s", err)
	}

	router := mux.NewRouter()

	cleanups, err := registerServices(c, cfg, router)
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()
	if err != nil {
		log.Printf("Error starting services: %s", err)
		return
	}

	startWebServerBlocking(c, cfg.Port, router)
}

func registerServices(c context.Context, cfg myconfig.Config, router *mux.Router) ([]func(), error) {
	cleanups := []func(){}
	nower := mytime.RealNower{}
	uuider := myuuid.RealUUIDer{}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := mymetrics.New(registry)
	router.Use(metrics.Middleware)
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	postStore, cleanup, err := createPostStore(c, cfg)
	if err != nil {
		return cleanups, err
	}
	cleanups = append(cleanups, cleanup)

	queue, cleanup, err := myqueue.New(c, cfg.BaseURL)
	if err != nil {
		return cleanups, fmt.Errorf("error creating task queue: %s", err)
	}
	cleanups = append(cleanups, cleanup)

	pubsub, cleanup, err := mypubsub.New(c)
	if err != nil {
		return cleanups, fmt.Errorf("error creating pubsub: %s", err)
	}
	cleanups = append(cleanups, cleanup)

	publisher, cleanup, err := mypublisher.New(c, pubsub, queue, nower)
	if err != nil {
		return cleanups, fmt.Errorf("error creating publisher: %s", err)
	}
	cleanups = append(cleanups, cleanup)
	publisher.RegisterEndpoints(c, router)

	orderStore, cleanup, err := mystore.New[order.Order](c)
	if err != nil {
		return cleanups, fmt.Errorf("error creating order store: %s", err)
	}
	cleanups = append(cleanups, cleanup)

	orders := order.NewService(orderStore, publisher, nower, uuider)
	err = orders.CreateTopic(c)
	if err != nil {
		return cleanups, fmt.Errorf("error creating order topic: %s", err)
	}

	cmsClient := cms.NewClient(cfg.CmsBaseURL, cfg.CmsAPIKey, nil, cfg.ProductCacheSizeBytes(), cfg.CmsProductCacheSeconds)

	blogService := blog.NewWebService(postStore, nower)
	blogService.RegisterEndpoints(c, router)

	payer := paypal.NewPayer(c, cfg.PaypalBaseURL, cfg.PaypalClientID, cfg.PaypalSecret)
	paypalService := paypal.NewWebService(payer, cmsClient, orders, metrics, cfg.PaypalSuccessURL, cfg.PaypalFailureURL)
	paypalService.RegisterEndpoints(c, router)

	issueStore, cleanup, err := mystore.New[tickets.TicketIssue](c)
	if err != nil {
		return cleanups, fmt.Errorf("error creating ticket store: %s", err)
	}
	cleanups = append(cleanups, cleanup)

	ticketService := tickets.NewWebService(issueStore, cmsClient, pubsub, nower, cfg.BaseURL)
	err = ticketService.RegisterEndpoints(c, router)
	if err != nil {
		return cleanups, fmt.Errorf("error registering ticket service: %s", err)
	}

	warmupService := warmup.NewService(map[string]warmup.Pinger{
		"blog":  blogService,
		"order": orders,
	})
	warmupService.RegisterEndpoints(c, router)

	return cleanups, nil
}

func createPostStore(c context.Context, cfg myconfig.Config) (blog.PostStore, func(), error) {
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(c, cfg.DatabaseURL)
		if err != nil {
			return nil, func() {}, fmt.Errorf("error connecting to database: %s", err)
		}
		store := blog.NewPostgresStore(pool)
		err = store.Migrate(c)
		if err != nil {
			return nil, pool.Close, err
		}
		return store, pool.Close, nil
	}

	documents, cleanup, err := mystore.New[blog.Post](c)
	if err != nil {
		return nil, func() {}, fmt.Errorf("error creating post store: %s", err)
	}
	return blog.NewDocumentStore(documents), cleanup, nil
}

func startWebServerBlocking(c context.Context, port int, router *mux.Router) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting webserver on port %d (try http://localhost:%d/blog)", port, port)
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting webserver on port %d: %s", port, err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Printf("Shutting down webserver")
	c, cancel := context.WithTimeout(c, shutdownTimeout)
	defer cancel()
	err := srv.Shutdown(c)
	if err != nil {
		log.Printf("Error shutting down webserver: %s", err)
	}
}
