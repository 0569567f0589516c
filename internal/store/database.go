package store

import (
	"database/sql"
	"log"
	"runtime"

	"github.com/haatos/simple-deploy/internal/settings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// InitDatabase opens either the local SQLite database or, when the database
// URL uses a postgres scheme, a Postgres connection through pgx. SQLite gets
// the usual split: a read-only pool and a single-connection writer.
func InitDatabase(readonly bool) *sql.DB {
	if settings.Settings.UsesPostgres() {
		db, err := sql.Open("pgx", settings.Settings.Database)
		if err != nil {
			log.Fatal("fatal error opening postgres database:", err)
		}
		db.SetMaxOpenConns(max(4, runtime.NumCPU()))
		return db
	}

	db, err := sql.Open("sqlite", settings.Settings.SQLiteDbString(readonly))
	if err != nil {
		log.Fatal("fatal error opening sqlite database:", err)
	}

	if readonly {
		db.SetMaxOpenConns(max(4, runtime.NumCPU()))
	} else {
		if _, err := db.Exec("PRAGMA temp_store=memory"); err != nil {
			log.Fatal(err)
		}
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			log.Fatal(err)
		}
		db.SetMaxOpenConns(1)
	}

	return db
}
