// Package main runs the receipt ledger API server.
package main

import (
	"database/sql"

	"github.com/rs/zerolog/log"

	"github.com/go-petr/receipt-ledger/cmd/httpserver"
	"github.com/go-petr/receipt-ledger/internal/middleware"
	"github.com/go-petr/receipt-ledger/pkg/configpkg"
	"github.com/go-petr/receipt-ledger/pkg/dbpkg"

	_ "github.com/lib/pq"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	var db *sql.DB
	if httpserver.NeedsDatabase(config) {
		db, err = dbpkg.Setup(config.DBDriver, config.DBSource)
		if err != nil {
			logger.Fatal().Err(err).Msg("cannot connect to database")
		}
	}

	server, err := httpserver.New(db, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	logger.Info().
		Str("ledger_backend", config.LedgerBackend).
		Str("draft_store", config.DraftStore).
		Msg("RECEIPT LEDGER SERVER HAS STARTED")

	if err := server.Engine.Run(config.ServerAddress); err != nil {
		_ = server.Close()
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}
