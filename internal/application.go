package application

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/tictactoe-relay/internal/config"
	"github.com/rocketscienceinc/tictactoe-relay/internal/entity"
	"github.com/rocketscienceinc/tictactoe-relay/internal/repository"
	"github.com/rocketscienceinc/tictactoe-relay/internal/transport/redis"
	"github.com/rocketscienceinc/tictactoe-relay/internal/usecase"
	"github.com/rocketscienceinc/tictactoe-relay/transport/rest"
	"github.com/rocketscienceinc/tictactoe-relay/transport/websocket"
)

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	hub := websocket.NewHub(logger)

	drivers, err := newDrivers(ctx, logger, conf, hub)
	if err != nil {
		return err
	}
	defer drivers.close()

	gameManager := usecase.NewGameManager(logger, drivers.roomRepo, drivers.broadcaster)
	wsServer := websocket.New(logger, hub, gameManager, websocket.Options{
		AllowedOrigin: conf.AllowedOrigin,
		DefaultRoom:   conf.DefaultRoom,
	})

	// run hub event loop
	go wsServer.Run(ctx)

	subErrCh := make(chan error, 1)
	if drivers.subscribe != nil {
		go func() {
			if subErr := drivers.subscribe(ctx); subErr != nil {
				log.Error("Redis subscriber error", "error", subErr)
				subErrCh <- subErr
			}
		}()
	}

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		handler := rest.NewHandler(logger, conf.AllowedOrigin, rest.Routes{Socket: wsServer})
		httpErrCh <- rest.Start(ctx, logger, conf.SocketPort, handler)
	}()

	select {
	case err = <-httpErrCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case err = <-subErrCh:
		return fmt.Errorf("redis subscriber error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		// wait for graceful HTTP shutdown
		if err = <-httpErrCh; err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	}
}

type broadcaster interface {
	Broadcast(ctx context.Context, event entity.Event) error
}

// drivers - room storage and fan-out for the configured broadcast driver.
type drivers struct {
	roomRepo    repository.RoomRepository
	broadcaster broadcaster
	subscribe   func(ctx context.Context) error
	close       func()
}

// newDrivers - picks storage and fan-out. With redis, every edge arbitrates against the
// room state stored in redis and events make a round trip through the broker, coming
// back into the hub via subscribe.
func newDrivers(ctx context.Context, logger *slog.Logger, conf *config.Config, hub *websocket.Hub) (*drivers, error) {
	if !conf.UseRedis() {
		return &drivers{
			roomRepo:    repository.NewRoomRepository(),
			broadcaster: hub,
			close:       func() {},
		}, nil
	}

	client, err := redis.Connect(ctx, conf.Redis.GetRedisAddr())
	if err != nil {
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}

	redisBroadcaster := redis.NewBroadcaster(logger, client, conf.Redis.ChannelPrefix)

	return &drivers{
		roomRepo:    repository.NewRedisRoomRepository(client),
		broadcaster: redisBroadcaster,
		subscribe: func(ctx context.Context) error {
			return redisBroadcaster.Subscribe(ctx, hub, nil)
		},
		close: func() {
			if closeErr := client.Close(); closeErr != nil {
				logger.Error("could not close redis client", "error", closeErr)
			}
		},
	}, nil
}
