package store

import (
	"context"
	devenv "cqscraper/dev/env"
	"cqscraper/internal/components/telemetry"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

const (
	report_sql_list = "sql.list"
	report_sql_get  = "sql.get"
	report_sql_put  = "sql.put"
)

const Schema = `
create table if not exists objects (
	key text primary key,
	body blob,
	updated_at integer not null
);
`

type SQLOptions struct {
	// File is a local sqlite database, it may start with <dev_state>.
	File string `json:"file"`
	// Url is a remote libsql database, it takes precedence over File.
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

func (opts SQLOptions) OpenDB() (*sql.DB, error) {
	if opts.Url != "" {
		dsn, err := url.Parse(opts.Url)
		if err != nil {
			return nil, err
		}
		if opts.AuthToken != "" {
			query := dsn.Query()
			query.Set("authToken", opts.AuthToken)
			dsn.RawQuery = query.Encode()
		}
		return sql.Open("libsql", dsn.String())
	}

	if opts.File == "" {
		return nil, fmt.Errorf("a path was not specified")
	}
	dbpath, err := devenv.ResolvePath(opts.File)
	if err != nil {
		return nil, err
	}

	_, statErr := os.Stat(dbpath)
	if os.IsNotExist(statErr) {
		f, err := os.Create(dbpath)
		if err != nil {
			return nil, err
		}
		f.Close()
	}

	db, err := sql.Open("sqlite", dbpath)
	if err != nil {
		return nil, err
	}
	// sqlite only supports a single writer
	db.SetMaxOpenConns(1)
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SQL stores records in a single key/value table of a sqlite or libsql database.
type SQL struct {
	db  *sql.DB
	tel telemetry.API
}

func NewSQL(ctx context.Context, db *sql.DB, tel telemetry.API) (SQL, error) {
	_, err := db.ExecContext(ctx, Schema)
	if err != nil {
		return SQL{}, fmt.Errorf("sql store: create schema: %w", err)
	}
	return SQL{db: db, tel: telemetry.NewScopedAPI("store", tel)}, nil
}

func (s SQL) List(ctx context.Context, prefix string) ([]string, error) {
	lp := listPrefix(prefix)
	rows, err := s.db.QueryContext(
		ctx,
		"select key from objects where substr(key, 1, length(?)) = ? order by key",
		lp, lp,
	)
	if err != nil {
		s.tel.ReportBroken(report_sql_list, err, prefix)
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		err = rows.Scan(&key)
		if err != nil {
			s.tel.ReportBroken(report_sql_list, err, prefix)
			return nil, err
		}
		if isMarker(prefix, key) {
			continue
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s SQL) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, "select body from objects where key = ?", key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		s.tel.ReportBroken(report_sql_get, err, key)
		return nil, err
	}
	return body, nil
}

func (s SQL) Put(ctx context.Context, key string, doc []byte) error {
	_, err := s.db.ExecContext(
		ctx,
		`insert into objects (key, body, updated_at) values (?, ?, ?)
		on conflict (key) do update set body = excluded.body, updated_at = excluded.updated_at`,
		key, doc, time.Now().Unix(),
	)
	if err != nil {
		s.tel.ReportBroken(report_sql_put, err, key)
		return err
	}
	return nil
}
