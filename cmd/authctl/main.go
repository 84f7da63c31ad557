// Command authctl runs administrative tasks against the auth database.
//
//	authctl createsuperuser -login admin
package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/moviesauth/internal/authctl"
	"github.com/dmitrijs2005/moviesauth/internal/logging"
	"github.com/dmitrijs2005/moviesauth/internal/server/auth"
	"github.com/dmitrijs2005/moviesauth/internal/server/cache"
	"github.com/dmitrijs2005/moviesauth/internal/server/config"
	"github.com/dmitrijs2005/moviesauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/moviesauth/internal/server/revocation"
	"github.com/dmitrijs2005/moviesauth/internal/server/services"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("%v", err)
	}

	db, err := repomanager.OpenDB(cfg.DatabaseDSN())
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	signer, err := auth.NewSigner(cfg.SecretKey, cfg.Algorithm)
	if err != nil {
		log.Fatalf("%v", err)
	}

	// No tokens are minted here, so revocations never leave the process.
	revocations := revocation.NewStore(cache.NewMemoryCache())
	users := services.NewUserService(db, rm, signer, revocations, cfg, logging.New(cfg.AppEnv))

	if err := authctl.Run(ctx, users, positional(os.Args[1:]), os.Stdin, os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}

// positional returns args from the first non-flag argument on, so config
// flags may precede the command.
func positional(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] != '-' {
			if i > 0 && takesValue(args[i-1]) {
				continue
			}
			return args[i:]
		}
	}
	return nil
}

// takesValue reports whether a config flag consumes the next argument.
func takesValue(arg string) bool {
	switch arg {
	case "-a", "-g", "-s", "-t", "-r", "-e", "-c", "-config":
		return true
	}
	return false
}
