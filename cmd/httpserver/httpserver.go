// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-petr/receipt-ledger/internal/ledgerdelivery"
	"github.com/go-petr/receipt-ledger/internal/ledgerevents"
	"github.com/go-petr/receipt-ledger/internal/ledgerrepo"
	"github.com/go-petr/receipt-ledger/internal/ledgerservice"
	"github.com/go-petr/receipt-ledger/internal/middleware"
	"github.com/go-petr/receipt-ledger/internal/transactiondelivery"
	"github.com/go-petr/receipt-ledger/internal/transactionrepo"
	"github.com/go-petr/receipt-ledger/internal/transactionservice"
	"github.com/go-petr/receipt-ledger/pkg/configpkg"
	"github.com/go-petr/receipt-ledger/pkg/tokenpkg"
)

// ErrNoDatabase indicates a postgres backend configured without a connection.
var ErrNoDatabase = errors.New("postgres backend requires a database connection")

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB      *sql.DB
	Engine  *gin.Engine
	Config  configpkg.Config
	closers []io.Closer
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// Close releases the embedded ledger file and the event publisher.
func (s *Server) Close() error {
	var errs []error

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// New creates Server type with instantiated domains and routes. conn may be
// nil when neither the ledger backend nor the draft store is postgres.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	server := &Server{
		DB:     conn,
		Config: config,
	}

	backend, err := newLedgerBackend(conn, config, server)
	if err != nil {
		_ = server.Close()
		return nil, err
	}

	breaker := ledgerrepo.NewBreaker(backend, ledgerrepo.BreakerConfig{
		MaxFailures: config.BreakerMaxFailures,
		OpenTimeout: config.BreakerOpenTimeout,
	}, logger)

	draftRepo, err := newDraftRepo(conn, config)
	if err != nil {
		_ = server.Close()
		return nil, err
	}

	tokenMaker, err := newTokenMaker(config)
	if err != nil {
		_ = server.Close()
		return nil, err
	}

	var publisher transactionservice.Publisher = ledgerevents.Nop{}
	if len(config.KafkaBrokers) > 0 {
		kp := ledgerevents.NewKafkaPublisher(config.KafkaBrokers, config.KafkaTopic)
		server.closers = append(server.closers, kp)
		publisher = kp
	}

	ledgerService := ledgerservice.New(breaker)
	transactionService := transactionservice.New(draftRepo, ledgerService, publisher)

	ledgerHandler := ledgerdelivery.NewHandler(ledgerService)
	transactionHandler := transactiondelivery.NewHandler(transactionService)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(gctx *gin.Context) {
		gctx.JSON(http.StatusOK, gin.H{
			"ledger_backend": breaker.Name(),
			"breaker":        breaker.State().String(),
		})
	})

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.POST("/ledger/entries", ledgerHandler.Record)
	authRoutes.GET("/ledger/entries", ledgerHandler.GetByKey)
	authRoutes.GET("/ledger/entries/:id", ledgerHandler.Get)
	authRoutes.POST("/ledger/entries/:id/reverse", ledgerHandler.Reverse)
	authRoutes.GET("/ledger/balance", ledgerHandler.Balance)
	authRoutes.GET("/ledger/trial-balance", ledgerHandler.TrialBalance)
	authRoutes.POST("/allocations", ledgerHandler.Allocate)

	authRoutes.POST("/transactions", transactionHandler.Create)
	authRoutes.POST("/transactions/split", transactionHandler.CreateSplit)
	authRoutes.GET("/transactions", transactionHandler.List)
	authRoutes.GET("/transactions/:id", transactionHandler.Get)
	authRoutes.POST("/transactions/:id/approve", transactionHandler.Approve)
	authRoutes.POST("/transactions/:id/void", transactionHandler.Void)
	authRoutes.DELETE("/transactions/:id", transactionHandler.Delete)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("accountpath", ledgerdelivery.ValidAccountPath)
		if err != nil {
			_ = server.Close()
			return nil, errors.New("cannot register account path validator")
		}
	}

	server.Engine = engine

	return server, nil
}

func newLedgerBackend(conn *sql.DB, config configpkg.Config, server *Server) (ledgerrepo.Backend, error) {
	switch config.LedgerBackend {
	case configpkg.BackendMemory:
		return ledgerrepo.NewRepoMem(), nil
	case configpkg.BackendPostgres:
		if conn == nil {
			return nil, ErrNoDatabase
		}

		return ledgerrepo.NewRepoPGS(conn), nil
	case configpkg.BackendBolt:
		repo, err := ledgerrepo.NewRepoBolt(config.BoltPath)
		if err != nil {
			return nil, fmt.Errorf("cannot open bolt ledger %q: %w", config.BoltPath, err)
		}

		server.closers = append(server.closers, repo)

		return repo, nil
	}

	return nil, fmt.Errorf("unknown ledger backend %q", config.LedgerBackend)
}

func newDraftRepo(conn *sql.DB, config configpkg.Config) (transactionservice.Repo, error) {
	switch config.DraftStore {
	case configpkg.BackendMemory:
		return transactionrepo.NewRepoMem(), nil
	case configpkg.BackendPostgres:
		if conn == nil {
			return nil, ErrNoDatabase
		}

		return transactionrepo.NewRepoPGS(conn), nil
	}

	return nil, fmt.Errorf("unknown draft store %q", config.DraftStore)
}

func newTokenMaker(config configpkg.Config) (tokenpkg.Maker, error) {
	var (
		maker tokenpkg.Maker
		err   error
	)

	switch config.TokenFormat {
	case "jwt":
		maker, err = tokenpkg.NewJWTMaker(config.TokenSymmetricKey)
	default:
		maker, err = tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	}

	if err != nil {
		return nil, fmt.Errorf("cannot create token maker: %w", err)
	}

	return maker, nil
}

// NeedsDatabase reports whether config selects postgres for any store.
func NeedsDatabase(config configpkg.Config) bool {
	return config.LedgerBackend == configpkg.BackendPostgres || config.DraftStore == configpkg.BackendPostgres
}
