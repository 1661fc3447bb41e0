package purge

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	// Blank-imported for their database/sql driver registration side effect.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// EnvDBOpener discovers relational backend credentials from an entity's
// .env file via godotenv, grounded on aristath-portfolioManager's go.mod,
// and opens postgres/mariadb connections accordingly.
type EnvDBOpener struct{}

// Discover reads envPath and returns a Backend for each relational driver
// whose connection variables are present. Absence of a variable set is not
// an error: an entity with no database simply yields zero backends.
func (EnvDBOpener) Discover(entity string, envPath string) ([]Backend, error) {
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil, nil
	}
	vars, err := godotenv.Read(envPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", envPath, err)
	}

	var backends []Backend

	if dsn, ok := postgresDSN(vars); ok {
		dbName := vars["POSTGRES_DB"]
		backends = append(backends, Backend{
			Kind:   "postgres",
			DBName: dbName,
			Drop:   func(ctx context.Context, name string) error { return dropPostgres(ctx, dsn, name) },
			Trunc:  func(ctx context.Context, name string) error { return truncatePostgres(ctx, dsn, name) },
		})
	}

	if dsn, ok := mariadbDSN(vars); ok {
		dbName := vars["MYSQL_DATABASE"]
		backends = append(backends, Backend{
			Kind:   "mariadb",
			DBName: dbName,
			Drop:   func(ctx context.Context, name string) error { return dropMariaDB(ctx, dsn, name) },
			Trunc:  func(ctx context.Context, name string) error { return truncateMariaDB(ctx, dsn, name) },
		})
	}

	return backends, nil
}

func postgresDSN(vars map[string]string) (string, bool) {
	host, db := vars["POSTGRES_HOST"], vars["POSTGRES_DB"]
	if host == "" || db == "" {
		return "", false
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=postgres sslmode=disable",
		host, orDefault(vars["POSTGRES_PORT"], "5432"), vars["POSTGRES_USER"], vars["POSTGRES_PASSWORD"]), true
}

func mariadbDSN(vars map[string]string) (string, bool) {
	host, db := vars["MYSQL_HOST"], vars["MYSQL_DATABASE"]
	if host == "" || db == "" {
		return "", false
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/", vars["MYSQL_USER"], vars["MYSQL_PASSWORD"], host, orDefault(vars["MYSQL_PORT"], "3306")), true
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

var systemDatabases = map[string]bool{
	"postgres": true, "template0": true, "template1": true,
	"mysql": true, "information_schema": true, "performance_schema": true, "sys": true,
}

func dropPostgres(ctx context.Context, dsn, dbName string) error {
	if systemDatabases[dbName] || dbName == "" {
		return fmt.Errorf("refusing to drop system database %q", dbName)
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx,
		`SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1`, dbName); err != nil {
		return fmt.Errorf("terminate backends: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(`DROP DATABASE IF EXISTS %s`, quoteIdent(dbName))); err != nil {
		return fmt.Errorf("drop database: %w", err)
	}
	return nil
}

func truncatePostgres(ctx context.Context, dsn, dbName string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT tablename FROM pg_tables WHERE schemaname = 'public'`)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return err
		}
		tables = append(tables, quoteIdent(t))
	}
	if len(tables) == 0 {
		return nil
	}

	stmt := "TRUNCATE TABLE "
	for i, t := range tables {
		if i > 0 {
			stmt += ", "
		}
		stmt += t
	}
	stmt += " CASCADE"
	_, err = db.ExecContext(ctx, stmt)
	return err
}

func dropMariaDB(ctx context.Context, dsn, dbName string) error {
	if systemDatabases[dbName] || dbName == "" {
		return fmt.Errorf("refusing to drop system database %q", dbName)
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, fmt.Sprintf("DROP DATABASE IF EXISTS `%s`", dbName))
	return err
}

func truncateMariaDB(ctx context.Context, dsn, dbName string) error {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, fmt.Sprintf("SHOW TABLES FROM `%s`", dbName))
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	var tables []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			rows.Close()
			return err
		}
		tables = append(tables, t)
	}
	rows.Close()
	if len(tables) == 0 {
		return nil
	}

	if _, err := db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS=0"); err != nil {
		return err
	}
	defer db.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS=1")

	for _, t := range tables {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE `%s`.`%s`", dbName, t)); err != nil {
			return err
		}
	}
	return nil
}

func quoteIdent(s string) string {
	return `"` + s + `"`
}
