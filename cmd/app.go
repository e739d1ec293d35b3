package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	specialistx "github.com/tanpawarit/Chative-Retail-Assistant/agent/agents/specialist"
	contractx "github.com/tanpawarit/Chative-Retail-Assistant/agent/contract"
	graphx "github.com/tanpawarit/Chative-Retail-Assistant/agent/graph"
	llmx "github.com/tanpawarit/Chative-Retail-Assistant/agent/llm"
	promptx "github.com/tanpawarit/Chative-Retail-Assistant/agent/prompt"
	statex "github.com/tanpawarit/Chative-Retail-Assistant/agent/state"
	toolx "github.com/tanpawarit/Chative-Retail-Assistant/agent/tool"
	chatx "github.com/tanpawarit/Chative-Retail-Assistant/chat"
	"github.com/tanpawarit/Chative-Retail-Assistant/commerce"
	"github.com/tanpawarit/Chative-Retail-Assistant/conversation"
	"github.com/tanpawarit/Chative-Retail-Assistant/gateway"
	"github.com/uptrace/bun"
)

// app owns every long-lived dependency of a process. It is built once and
// closed on shutdown.
type app struct {
	cfg *AppConfig

	db       *bun.DB
	rdb      *redis.Client
	tools    contractx.ToolGateway
	commerce *commerce.Service
	catalog  *toolx.Catalog
	local    *gateway.Local
	router   *graphx.Router
	chat     *chatx.Service

	closers []func() error
}

// newCommerce builds the commerce side: repository, service, catalog and the
// in-process gateway. The toolserver command stops here.
func newCommerce(ctx context.Context, cfg *AppConfig) (*app, error) {
	a := &app{cfg: cfg}
	categories := cfg.Categories()

	var repo commerce.Repository
	switch cfg.Store {
	case BackendPostgres:
		pgCfg, err := loadPostgresConfig()
		if err != nil {
			return nil, err
		}
		db, err := pgCfg.New(ctx)
		if err != nil {
			return nil, err
		}
		a.db = db
		a.closers = append(a.closers, db.Close)
		bunRepo, err := commerce.NewBunRepository(db)
		if err != nil {
			a.Close()
			return nil, err
		}
		repo = bunRepo
	default:
		mem := commerce.NewMemoryRepository()
		commerce.SeedDemo(mem, categories.Values()[0], time.Now())
		repo = mem
	}

	svc, err := commerce.NewService(repo, commerce.WithCategories(categories))
	if err != nil {
		a.Close()
		return nil, err
	}
	catalog, err := toolx.NewCatalog(categories)
	if err != nil {
		a.Close()
		return nil, err
	}
	local, err := gateway.NewLocal(svc, catalog)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.commerce = svc
	a.catalog = catalog
	a.local = local
	return a, nil
}

func newApp(ctx context.Context, cfg *AppConfig, llmCfg *llmx.Config) (*app, error) {
	a, err := newCommerce(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := a.wire(ctx, llmCfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context, llmCfg *llmx.Config) error {
	cfg := a.cfg
	categories := cfg.Categories()

	if err := a.connectTools(ctx); err != nil {
		return err
	}

	prompts := promptx.LoadPromptSet(promptx.Vars{
		StoreName:  cfg.StoreName,
		Categories: categories.Values(),
	})
	registry, err := specialistx.NewRegistry(ctx, specialistx.Deps{
		Models:     llmCfg.NewModel,
		Prompts:    prompts,
		Catalog:    a.catalog,
		Gateway:    a.tools,
		Categories: categories,
	})
	if err != nil {
		return err
	}

	policy := cfg.Policy()
	router, err := graphx.New(ctx, registry,
		graphx.WithCategories(categories),
		graphx.WithBudget(policy.Chat.MaxSteps, policy.Chat.Timeout),
	)
	if err != nil {
		return err
	}
	a.router = router

	if cfg.StateStore == BackendRedis || cfg.Locker == BackendRedis {
		if err := a.connectRedis(ctx); err != nil {
			return err
		}
	}

	snapshots, err := a.snapshotStore()
	if err != nil {
		return err
	}
	locker, err := a.locker()
	if err != nil {
		return err
	}
	conversations, err := a.conversationStore()
	if err != nil {
		return err
	}

	svc, err := chatx.New(ctx, chatx.Deps{
		Router:        router,
		Conversations: conversations,
		Snapshots:     snapshots,
		Carts:         a.commerce,
		Locker:        locker,
		Guardrails:    chatx.NewGuardrails(),
		Categories:    categories,
		Policy:        policy,
	})
	if err != nil {
		return err
	}
	a.chat = svc
	return nil
}

func (a *app) connectTools(ctx context.Context) error {
	switch a.cfg.ToolTransport {
	case TransportMCP:
		command := a.cfg.ToolServerCommand
		args := []string{}
		if command == "" {
			self, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve tool server command: %w", err)
			}
			command = self
			args = append(args, "toolserver")
			if envFile != "" {
				args = append(args, "--env", envFile)
			}
		}
		client, err := gateway.NewStdioMCPClient(ctx, command, os.Environ(), args...)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client.Close)
		a.tools = client
		log.Info().Str("command", command).Msg("tool gateway connected over mcp")
	default:
		a.tools = a.local
	}
	return nil
}

func (a *app) connectRedis(ctx context.Context) error {
	redisCfg, err := loadRedisConfig()
	if err != nil {
		return err
	}
	rdb, err := redisCfg.New(ctx)
	if err != nil {
		return err
	}
	a.rdb = rdb
	a.closers = append(a.closers, rdb.Close)
	return nil
}

func (a *app) snapshotStore() (statex.Store, error) {
	switch a.cfg.StateStore {
	case BackendRedis:
		return statex.NewRedisStore(a.rdb)
	case BackendUpstash:
		upCfg, err := loadUpstashConfig()
		if err != nil {
			return nil, err
		}
		return statex.NewUpstashRedisStore(*upCfg)
	default:
		return statex.NewMemoryStore(), nil
	}
}

func (a *app) locker() (chatx.Locker, error) {
	if a.cfg.Locker == BackendRedis {
		return chatx.NewRedisLocker(a.rdb, a.cfg.LockTTL)
	}
	return chatx.NewKeyedMutex(), nil
}

func (a *app) conversationStore() (conversation.Store, error) {
	if a.db != nil {
		return conversation.NewBunStore(a.db)
	}
	return conversation.NewMemoryStore(), nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
