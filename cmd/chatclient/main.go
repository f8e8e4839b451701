package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/fathima-sithara/chat-client/internal/auth"
	"github.com/fathima-sithara/chat-client/internal/config"
	"github.com/fathima-sithara/chat-client/internal/engine"
	"github.com/fathima-sithara/chat-client/internal/logger"
	"github.com/fathima-sithara/chat-client/internal/rest"
	"github.com/fathima-sithara/chat-client/internal/sink"
	"github.com/fathima-sithara/chat-client/internal/store"
	"github.com/fathima-sithara/chat-client/internal/transport"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to config file")
	convID := flag.String("conversation", "", "conversation to open")
	transportKind := flag.String("transport", "ws", "realtime transport: ws or nats")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config load: %v", err)
	}
	lg, err := logger.New(logger.Config{Development: cfg.App.Env != "production"})
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	token := cfg.App.Token
	if token == "" {
		token = os.Getenv("CHAT_TOKEN")
	}
	claims, err := auth.ParseIdentity(token)
	if err != nil {
		lg.Fatalw("cannot read identity from token", "err", err)
	}

	var tr transport.Transport
	switch *transportKind {
	case "nats":
		tr, err = transport.NewNATSTransport(cfg.NATS.URL, claims.UserUUID, lg)
		if err != nil {
			lg.Fatalw("nats transport init", "err", err)
		}
	default:
		tr = transport.NewWSTransport(cfg.Server.WSURL, token, lg)
	}

	var durable store.Store = store.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		durable = store.NewRedisStore(redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Pass,
			DB:       cfg.Redis.DB,
		}), cfg.Redis.Prefix)
	}
	defer func() { _ = durable.Close() }()

	var events sink.Sink
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.TopicInbound != "" {
		ks := sink.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.TopicInbound)
		defer func() { _ = ks.Close() }()
		events = ks
	}

	eng, err := engine.New(engine.Options{
		Transport:      tr,
		Persistence:    rest.NewClient(cfg.Server.BaseURL, token, cfg.Engine.RequestTimeout),
		Durable:        durable,
		Sink:           events,
		Log:            lg,
		SelfID:         claims.UserUUID,
		Username:       claims.Username,
		TypingQuiet:    cfg.Engine.TypingQuiet,
		CallTeardown:   cfg.Engine.CallTeardown,
		RequestTimeout: cfg.Engine.RequestTimeout,
	})
	if err != nil {
		lg.Fatalw("engine init", "err", err)
	}
	defer eng.Close()

	if *convID != "" {
		if err := eng.OpenConversation(*convID); err != nil {
			lg.Fatalw("open conversation", "conversation", *convID, "err", err)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	lg.Infow("chat client running", "user", claims.UserUUID, "transport", *transportKind)
	for {
		select {
		case <-eng.Updates():
			if *convID == "" {
				continue
			}
			v, err := eng.Conversation(*convID)
			if err != nil {
				continue
			}
			if v.LoadErr != nil {
				lg.Warnw("history load failed, retrying", "err", v.LoadErr)
				_ = eng.RetryLoad(*convID)
				continue
			}
			lg.Infow("conversation updated",
				"messages", len(v.Messages),
				"typing", v.TypingUsername,
				"peer_online", v.PeerOnline,
			)
		case s := <-sig:
			lg.Infow("signal received, shutting down", "signal", s.String())
			return
		}
	}
}
