// Command boopctl is the admin CLI: it prepares the database and inspects
// counters and badges without going through the HTTP server.
//
//	boopctl init-db
//	boopctl stats
//	boopctl badges
//	boopctl check-badges <username>
//
// Storage is selected the same way as for the server (DATABASE_URL or
// DB_PATH, optionally from .env); --database-url and --db-path override it.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
