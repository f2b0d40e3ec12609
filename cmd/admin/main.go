// Command admin grants, revokes and lists the admin capability. It is the
// only way to change a profile's is_admin flag.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/B-Mitchell/JobRecruit/db"
	"github.com/B-Mitchell/JobRecruit/service"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fatalf("load .env: %v", err)
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		fatalf("DATABASE_URL environment variable is required")
	}
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "postgres"
	}

	database, err := db.Open(db.Config{
		DSN:            dbURL,
		DriverName:     driver,
		MaxOpenConns:   2,
		DefaultTimeout: 10 * time.Second,
	})
	if err != nil {
		fatalf("database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	admin := service.New(database, slog.Default()).Admin

	switch cmd := args[0]; cmd {
	case "grant", "revoke":
		ids := args[1:]
		if len(ids) == 0 {
			fatalf("%s: at least one identity id is required", cmd)
		}
		if err := admin.SetAdmin(ctx, cmd == "grant", ids...); err != nil {
			if db.IsNotFound(err) {
				fatalf("%s: no profile for one of %v (nothing changed)", cmd, ids)
			}
			fatalf("%s failed: %v", cmd, err)
		}
		slog.Info("admin: capability updated", "command", cmd, "identities", ids)

	case "list":
		admins, err := admin.Admins(ctx)
		if err != nil {
			fatalf("list failed: %v", err)
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "IDENTITY\tNAME\tEMAIL\tROLE")
		for _, p := range admins {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ExternalID, p.Name, p.Email, p.Role)
		}
		_ = tw.Flush()

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: admin <command> [args]

Commands:
  grant <id>...    Give the admin capability to completed profiles
  revoke <id>...   Take it away again
  list             Print every admin

Environment (a .env file is read when present):
  DATABASE_URL   Required. Driver-specific DSN.
  DB_DRIVER      postgres | pgx | mysql | sqlite3 (default: postgres)`)
}

func fatalf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
	os.Exit(1)
}
