package appcontext

import (
	"context"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/pizzabot/internal/api"
	apihandler "github.com/RoyceAzure/lab/pizzabot/internal/api/handler"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/flow"
	"github.com/RoyceAzure/lab/pizzabot/internal/bot/handler"
	"github.com/RoyceAzure/lab/pizzabot/internal/config"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/geocoder"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/limiter"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/producer"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/redis_client"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/seed"
	"github.com/RoyceAzure/lab/pizzabot/internal/service"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const healthTimeout = 2 * time.Second

// admin API 每個 IP 的限流
var apiLimiterConfig = limiter.LimiterConfig{Prefix: "ratelimit:api", Capacity: 20, RatePS: 10}

type ApplicationContext struct {
	Cf     *config.Config
	Logger *zerolog.Logger

	DbDao       *db.DbDao
	Redis       *redis.Client
	ProductRepo *db.ProductRepo
	UserRepo    *db.UserRepo
	OrderRepo   *db.OrderRepo
	CartRepo    *redis_repo.CartRepo
	SessionRepo *redis_repo.SessionRepo

	Publisher  producer.OrderEventPublisher
	Geocoder   geocoder.StreetResolver
	Limiter    limiter.ILimiter
	APILimiter limiter.ILimiter

	CartService    service.ICartService
	OrderService   service.IOrderService
	PaymentService service.IPaymentService
	UserService    service.IUserService
	ProductService service.IProductService
	HealthService  *service.HealthService

	BotAPI *tgbotapi.BotAPI
	Bot    *handler.Bot
	Server *api.Server
}

func NewApplicationContext(ctx context.Context, cf *config.Config, logger *zerolog.Logger) (*ApplicationContext, error) {
	app := ApplicationContext{
		Cf:     cf,
		Logger: logger,
	}
	logger.Info().
		Str("database", redactDSN(cf.DatabaseURL)).
		Str("redis", cf.RedisAddr()).
		Strs("kafka_brokers", cf.KafkaBrokerList()).
		Str("currency", cf.Currency).
		Int64("admin_id", cf.AdminID).
		Msg("loaded config")

	if err := app.Init(ctx); err != nil {
		// 已建立的連線要釋放
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = app.Shutdown(shutdownCtx)
		return nil, err
	}
	return &app, nil
}

func (app *ApplicationContext) Init(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(ctx context.Context) error
	}{
		{"database", app.setUpDb},
		{"redis", app.setUpRedis},
		{"repositories", app.setUpRepositories},
		{"catalog seed", app.setUpSeed},
		{"event publisher", app.setUpPublisher},
		{"geocoder", app.setUpGeocoder},
		{"rate limiter", app.setUpLimiter},
		{"services", app.setUpServices},
		{"telegram bot", app.setUpBot},
		{"http server", app.setUpServer},
	}
	for _, step := range steps {
		app.Logger.Info().Msgf("Start setup %s", step.name)
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("setup %s: %w", step.name, err)
		}
		app.Logger.Info().Msgf("Finish setup %s", step.name)
	}
	return nil
}

func (app *ApplicationContext) setUpDb(ctx context.Context) error {
	conn, err := db.GetDbConn(app.Cf.DatabaseURL)
	if err != nil {
		return err
	}
	app.DbDao = db.NewDbDao(conn)
	if err := app.DbDao.Ping(ctx); err != nil {
		return err
	}
	return app.DbDao.InitMigrate()
}

func (app *ApplicationContext) setUpRedis(ctx context.Context) error {
	client, err := redis_client.Connect(ctx, app.Cf.RedisAddr(),
		redis_client.WithPassword(app.Cf.RedisPassword),
		redis_client.WithDB(app.Cf.RedisDB),
	)
	if err != nil {
		return err
	}
	app.Redis = client
	return nil
}

func (app *ApplicationContext) setUpRepositories(_ context.Context) error {
	app.ProductRepo = db.NewProductRepo(app.DbDao)
	app.UserRepo = db.NewUserRepo(app.DbDao)
	app.OrderRepo = db.NewOrderRepo(app.DbDao)
	app.CartRepo = redis_repo.NewCartRepo(app.Redis)
	app.SessionRepo = redis_repo.NewSessionRepo(app.Redis)
	return nil
}

func (app *ApplicationContext) setUpSeed(ctx context.Context) error {
	n, err := seed.LoadIfEmpty(ctx, app.ProductRepo, app.Cf.CatalogSeedFile, app.Logger)
	if err != nil {
		return err
	}
	if n > 0 {
		app.Logger.Info().Int("products", n).Msg("catalog seeded")
	}
	return nil
}

func (app *ApplicationContext) setUpPublisher(_ context.Context) error {
	brokers := app.Cf.KafkaBrokerList()
	if len(brokers) == 0 {
		app.Logger.Info().Msg("no kafka brokers configured, order events disabled")
	}
	app.Publisher = producer.NewOrderEventPublisher(brokers, app.Cf.KafkaOrderTopic)
	return nil
}

func (app *ApplicationContext) setUpGeocoder(_ context.Context) error {
	if app.Cf.MapsAPIKey == "" {
		app.Logger.Warn().Msg("MAPS_API_KEY is empty, streets will not be verified")
	}
	app.Geocoder = geocoder.NewClient(geocoder.Config{
		BaseURL: app.Cf.GeocoderURL,
		APIKey:  app.Cf.MapsAPIKey,
		Country: app.Cf.GeoCountry,
		City:    app.Cf.GeoCity,
	})
	return nil
}

func (app *ApplicationContext) setUpLimiter(_ context.Context) error {
	cf := limiter.GetDefaultLimiterConfig()
	if app.Cf.RateLimitCapacity > 0 {
		cf.Capacity = app.Cf.RateLimitCapacity
	}
	if app.Cf.RateLimitPerSec > 0 {
		cf.RatePS = app.Cf.RateLimitPerSec
	}
	app.Limiter = limiter.NewRsBucketToken(app.Redis, &cf)

	apiCf := apiLimiterConfig
	app.APILimiter = limiter.NewRsBucketToken(app.Redis, &apiCf)
	return nil
}

func (app *ApplicationContext) setUpServices(_ context.Context) error {
	cart := service.NewCartService(app.CartRepo, app.ProductRepo, app.Logger)
	orders := service.NewOrderService(app.OrderRepo, cart, app.Publisher, app.Logger)

	app.CartService = cart
	app.OrderService = orders
	app.PaymentService = service.NewPaymentService(orders, app.ProductRepo, app.Cf.Currency)
	app.UserService = service.NewUserService(app.UserRepo, app.Cf.AdminID, app.Logger)
	app.ProductService = service.NewProductService(app.ProductRepo)
	app.HealthService = service.NewHealthService(healthTimeout).
		Register("database", app.DbDao).
		Register("redis", service.PingFunc(func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}))
	return nil
}

func (app *ApplicationContext) setUpBot(_ context.Context) error {
	botAPI, err := tgbotapi.NewBotAPI(app.Cf.BotToken)
	if err != nil {
		return err
	}
	app.BotAPI = botAPI
	app.Logger.Info().Str("username", botAPI.Self.UserName).Msg("authorized on telegram")

	app.Bot = handler.New(handler.Deps{
		Sender:    botAPI,
		Users:     app.UserService,
		Products:  app.ProductService,
		Cart:      app.CartService,
		Orders:    app.OrderService,
		Payments:  app.PaymentService,
		Health:    app.HealthService,
		Sessions:  app.SessionRepo,
		OrderFlow: flow.NewOrderFlow(app.Geocoder, app.Logger),
		Limiter:   app.Limiter,
		Logger:    app.Logger,
	}, handler.Options{
		Currency:      app.Cf.Currency,
		ProviderToken: app.Cf.PaymentProviderToken,
		ContactPhone:  app.Cf.ContactPhone,
	})
	return nil
}

func (app *ApplicationContext) setUpServer(_ context.Context) error {
	app.Server = api.NewServer(
		apihandler.NewUserHandler(app.UserService, app.Logger),
		apihandler.NewHealthHandler(app.HealthService),
	)
	return nil
}

// Shutdown 依建立的反向順序釋放資源
func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	app.Logger.Info().Msg("Start application shutdown")

	done := make(chan error, 1)
	go func() {
		var firstErr error
		keep := func(name string, err error) {
			if err == nil {
				return
			}
			// 有錯誤不結束流程
			app.Logger.Error().Err(err).Msgf("%s shutdown error", name)
			if firstErr == nil {
				firstErr = err
			}
		}

		if app.Bot != nil {
			app.Bot.Close()
		}
		if app.Publisher != nil {
			keep("event publisher", app.Publisher.Close())
		}
		if app.Redis != nil {
			keep("redis", redis_client.Release(app.Cf.RedisAddr()))
		}
		if app.DbDao != nil {
			keep("database", app.DbDao.Close())
		}

		app.Logger.Info().Msg("Application shutdown complete")
		done <- firstErr
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("shutdown timeout: %w", ctx.Err())
	}
}
