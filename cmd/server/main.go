package main

import (
	"log"
	"net/http"

	"mobimart-be/internal/cart"
	"mobimart-be/internal/config"
	"mobimart-be/internal/db"
	"mobimart-be/internal/event"
	"mobimart-be/internal/logger"
	"mobimart-be/internal/metrics"
	"mobimart-be/internal/order"
	"mobimart-be/internal/product"
	"mobimart-be/internal/transport"
	"mobimart-be/internal/user"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := db.InitDB(cfg)
	defer database.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	var publisher event.Publisher = event.NopPublisher{}
	if cfg.AmqpURL != "" {
		p, err := event.NewAmqpPublisher(cfg.AmqpURL)
		if err != nil {
			logger.L().Warn("amqp unavailable, order events disabled", zap.Error(err))
		} else {
			publisher = p
			defer p.Close()
		}
	}

	productRepo := product.NewRepository(database)

	userRepo := user.NewRepository(database)
	userSvc := user.NewService(userRepo)

	cartRepo := cart.NewRepository(database)
	cartSvc := cart.NewService(cartRepo, productRepo)

	orderRepo := order.NewRepository(database)
	orderSvc := order.NewService(orderRepo, publisher, m)

	router := transport.NewRouter(transport.Services{
		Users:    userSvc,
		Products: productRepo,
		Carts:    cartSvc,
		Orders:   orderSvc,
		Metrics:  m,
	})

	log.Printf("🚀 API server running at http://localhost:%s/", cfg.AppPort)
	log.Fatal(http.ListenAndServe(":"+cfg.AppPort, router))
}
