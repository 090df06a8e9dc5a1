package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	rediscache "github.com/corray333/gamesbakery/internal/dal/cache/redis"
	"github.com/corray333/gamesbakery/internal/dal/events"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/icartrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/icategoryrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/igamerepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/igiftrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderitemrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iorderrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/ioutboxrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/ireviewrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/isellerrepo"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/istatuscache"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuow"
	"github.com/corray333/gamesbakery/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/gamesbakery/internal/dal/memory"
	"github.com/corray333/gamesbakery/internal/dal/postgres"
	"github.com/corray333/gamesbakery/internal/dal/rabbitmq"
	cartrepo "github.com/corray333/gamesbakery/internal/dal/repositories/cart/postgres"
	categoryrepo "github.com/corray333/gamesbakery/internal/dal/repositories/category/postgres"
	gamerepo "github.com/corray333/gamesbakery/internal/dal/repositories/game/postgres"
	giftrepo "github.com/corray333/gamesbakery/internal/dal/repositories/gift/postgres"
	orderrepo "github.com/corray333/gamesbakery/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/corray333/gamesbakery/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/corray333/gamesbakery/internal/dal/repositories/outbox/postgres"
	reviewrepo "github.com/corray333/gamesbakery/internal/dal/repositories/review/postgres"
	sellerrepo "github.com/corray333/gamesbakery/internal/dal/repositories/seller/postgres"
	userrepo "github.com/corray333/gamesbakery/internal/dal/repositories/user/postgres"
	"github.com/corray333/gamesbakery/internal/dal/uow"
	"github.com/corray333/gamesbakery/internal/metrics"
	"github.com/corray333/gamesbakery/internal/otel"
	"github.com/corray333/gamesbakery/internal/service/services/cartsvc"
	"github.com/corray333/gamesbakery/internal/service/services/catalogsvc"
	"github.com/corray333/gamesbakery/internal/service/services/giftsvc"
	"github.com/corray333/gamesbakery/internal/service/services/orderitemsvc"
	"github.com/corray333/gamesbakery/internal/service/services/ordersvc"
	"github.com/corray333/gamesbakery/internal/service/services/reviewsvc"
	"github.com/corray333/gamesbakery/internal/service/services/sellersvc"
	"github.com/corray333/gamesbakery/internal/service/services/usersvc"
	httptransport "github.com/corray333/gamesbakery/internal/transport/http"
	"github.com/corray333/gamesbakery/internal/transport/http/admin"
	"github.com/corray333/gamesbakery/internal/transport/http/carts"
	"github.com/corray333/gamesbakery/internal/transport/http/catalog"
	"github.com/corray333/gamesbakery/internal/transport/http/gifts"
	"github.com/corray333/gamesbakery/internal/transport/http/orderitems"
	"github.com/corray333/gamesbakery/internal/transport/http/orders"
	"github.com/corray333/gamesbakery/internal/transport/http/reviews"
	"github.com/corray333/gamesbakery/internal/transport/http/sellers"
	"github.com/corray333/gamesbakery/internal/transport/http/users"
	"github.com/corray333/gamesbakery/internal/worker/orderstatus"
	outboxworker "github.com/corray333/gamesbakery/internal/worker/outbox"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// storage is the set of repositories backing the services.
type storage struct {
	users      iuserrepo.IUserRepository
	sellers    isellerrepo.ISellerRepository
	categories icategoryrepo.ICategoryRepository
	games      igamerepo.IGameRepository
	orders     iorderrepo.IOrderRepository
	orderItems iorderitemrepo.IOrderItemRepository
	carts      icartrepo.ICartRepository
	reviews    ireviewrepo.IReviewRepository
	gifts      igiftrepo.IGiftRepository
	outbox     ioutboxrepo.IOutboxRepository
	uow        iuow.IFactory
}

// App represents the application.
type App struct {
	transport      *httptransport.HTTPTransport
	statusWorker   *orderstatus.Worker
	outboxWorker   *outboxworker.Worker
	publisher      events.Publisher
	otelController *otel.OtelController
	postgresClient *postgres.Client
	redisClient    *goredis.Client
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	a := &App{otelController: otel.MustInitOtel()}
	pingers := map[string]httptransport.Pinger{}

	var store storage
	switch driver := viper.GetString("storage.driver"); driver {
	case "", "postgres":
		a.postgresClient = postgres.MustNewClient()
		pingers["postgres"] = a.postgresClient
		store = postgresStorage(a.postgresClient)
	case "memory":
		slog.Warn("Using in-memory storage, data is lost on restart")
		store = memoryStorage(memory.NewStore())
	default:
		panic("unknown storage driver " + driver)
	}

	var statusCache istatuscache.IOrderStatusCache
	if viper.GetBool("redis.enabled") {
		a.redisClient = rediscache.MustNewClient()
		cache := rediscache.NewOrderStatusCache(a.redisClient)
		pingers["redis"] = cache
		statusCache = cache
	}

	a.publisher = mustNewPublisher()
	m := metrics.New(prometheus.DefaultRegisterer)

	orderEvents := ordersvc.EventsConfig{
		Topic:      viper.GetString("events.exchange"),
		Producer:   viper.GetString("events.producer"),
		MaxRetries: viper.GetInt("outbox.max_retries"),
	}

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(store.orders),
		ordersvc.WithOrderItemRepository(store.orderItems),
		ordersvc.WithUnitOfWork(store.uow),
		ordersvc.WithStatusCache(statusCache),
		ordersvc.WithEvents(orderEvents),
	)

	userSvc := usersvc.MustNewUserService(
		usersvc.WithUserRepository(store.users),
		usersvc.WithUnitOfWork(store.uow),
	)
	sellerSvc := sellersvc.MustNewSellerService(
		sellersvc.WithSellerRepository(store.sellers),
	)
	catalogSvc := catalogsvc.MustNewCatalogService(
		catalogsvc.WithCategoryRepository(store.categories),
		catalogsvc.WithGameRepository(store.games),
	)
	orderItemSvc := orderitemsvc.MustNewOrderItemService(
		orderitemsvc.WithOrderItemRepository(store.orderItems),
		orderitemsvc.WithGameRepository(store.games),
	)
	cartSvc := cartsvc.MustNewCartService(
		cartsvc.WithCartRepository(store.carts),
		cartsvc.WithOrderItemRepository(store.orderItems),
		cartsvc.WithGameRepository(store.games),
	)
	giftSvc := giftsvc.MustNewGiftService(
		giftsvc.WithGiftRepository(store.gifts),
		giftsvc.WithOrderItemRepository(store.orderItems),
		giftsvc.WithUnitOfWork(store.uow),
	)
	reviewSvc := reviewsvc.MustNewReviewService(
		reviewsvc.WithReviewRepository(store.reviews),
		reviewsvc.WithUserRepository(store.users),
		reviewsvc.WithGameRepository(store.games),
	)

	statusWorker, err := orderstatus.NewWorker(store.uow, store.orders, store.orderItems,
		orderstatus.WithMetrics(m.Scheduler),
		orderstatus.WithEvents(orderstatus.EventsConfig(orderEvents)),
		orderstatus.WithStatusCache(statusCache),
	)
	if err != nil {
		panic(err)
	}
	a.statusWorker = statusWorker
	a.outboxWorker = outboxworker.NewWorker(store.outbox, a.publisher, m.Outbox)

	a.transport = httptransport.NewHTTPTransport(m.Server, metrics.Handler(), pingers,
		users.New(userSvc),
		sellers.New(sellerSvc),
		catalog.New(catalogSvc),
		orderitems.New(orderItemSvc),
		carts.New(cartSvc),
		orders.New(orderSvc),
		gifts.New(giftSvc),
		reviews.New(reviewSvc),
		admin.New(statusWorker),
	)
	a.transport.RegisterRoutes()

	return a
}

func postgresStorage(client *postgres.Client) storage {
	pool := client.Pool()

	return storage{
		users:      userrepo.NewPostgresUserRepository(pool),
		sellers:    sellerrepo.NewPostgresSellerRepository(pool),
		categories: categoryrepo.NewPostgresCategoryRepository(pool),
		games:      gamerepo.NewPostgresGameRepository(pool),
		orders:     orderrepo.NewPostgresOrderRepository(pool),
		orderItems: orderitemrepo.NewPostgresOrderItemRepository(pool),
		carts:      cartrepo.NewPostgresCartRepository(pool),
		reviews:    reviewrepo.NewPostgresReviewRepository(pool),
		gifts:      giftrepo.NewPostgresGiftRepository(pool),
		outbox:     outboxrepo.NewOutboxRepository(pool),
		uow:        uow.NewFactory(client),
	}
}

func memoryStorage(s *memory.Store) storage {
	return storage{
		users:      s.Users(),
		sellers:    s.Sellers(),
		categories: s.Categories(),
		games:      s.Games(),
		orders:     s.Orders(),
		orderItems: s.OrderItems(),
		carts:      s.Carts(),
		reviews:    s.Reviews(),
		gifts:      s.Gifts(),
		outbox:     s.Outbox(),
		uow:        s,
	}
}

// mustNewPublisher picks the broker named by events.broker.
func mustNewPublisher() events.Publisher {
	broker, err := events.ParseBroker(viper.GetString("events.broker"))
	if err != nil {
		panic(err)
	}

	switch broker {
	case events.BrokerRabbitMQ:
		p, err := events.NewRabbitPublisher(rabbitmq.MustNewClient(), viper.GetString("events.exchange"))
		if err != nil {
			panic(err)
		}
		return p
	case events.BrokerKafka:
		return events.NewKafkaPublisher(viper.GetStringSlice("kafka.brokers"), viper.GetString("kafka.topic"))
	default:
		slog.Warn("No events broker configured, outbox messages are discarded")
		return events.Noop{}
	}
}

// Run starts the HTTP server and the workers.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("Starting order status scheduler")
		a.statusWorker.Start(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutdown signal received")
		a.shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		slog.Error("Application stopped with error", "error", err)
	}

	slog.Info("Application shutdown complete")
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	a.statusWorker.Stop()
	a.outboxWorker.Stop()

	if err := a.publisher.Close(); err != nil {
		slog.Error("Events publisher close error", "error", err)
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			slog.Error("Redis connection close error", "error", err)
		}
	}
	if a.postgresClient != nil {
		a.postgresClient.Close()
		slog.Info("Database connection closed gracefully")
	}
	if err := a.otelController.Shutdown(ctx); err != nil {
		slog.Error("Tracer shutdown error", "error", err)
	}
}
