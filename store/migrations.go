package store

import (
	"context"
	nativeerrors "errors"
	"fmt"
	"github.com/doug-martin/goqu/v9"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lefinal/masc-match/embedded"
	"github.com/lefinal/masc-match/errors"
	"go.uber.org/zap"
)

// DefaultMaxDBConnections is the maximum number of database connections that is
// used when no other one is provided.
const DefaultMaxDBConnections = 16

// pgErrUndefinedTable is the PostgreSQL error code for missing relations.
const pgErrUndefinedTable = "42P01"

// dbVersionKey is the key in the masc table that holds the dbVersion.
const dbVersionKey = "db-version"

// dbVersion is used for determining the current database version. This is
// saved in a special table when properly set up. If the version does not exist,
// the database needs to be initialized. If it is and the latest version is
// greater, migrations are performed.
type dbVersion string

// dbVersionZero is used when no database version could be found.
const dbVersionZero dbVersion = "0"

// dbMigration is an SQL migration to the given version.
type dbMigration struct {
	version dbVersion
	up      string
}

// dbMigrations are the sql migrations in an ordered list. The order is used to
// determine which migrations need to be done when the current database version
// is not the latest one.
var dbMigrations = []dbMigration{
	{
		version: "1.0",
		up:      embedded.DBMigration1x0,
	},
	{
		version: "1.1",
		up:      embedded.DBMigration1x1,
	},
}

// Connect to the database with the given connection string, test the
// connection and perform all pending migrations.
func Connect(ctx context.Context, logger *zap.Logger, connectionStr string, maxConnections int) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connectionStr)
	if err != nil {
		return nil, errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindInvalidConfig,
			Err:     err,
			Message: "parse database connection string",
		}
	}
	if maxConnections <= 0 {
		maxConnections = DefaultMaxDBConnections
	}
	config.MaxConns = int32(maxConnections)
	pool, err := pgxpool.ConnectConfig(ctx, config)
	if err != nil {
		return nil, errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindDB,
			Err:     err,
			Message: "connect to database",
		}
	}
	err = testDBConnection(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "test db connection", nil)
	}
	err = performDBMigrations(ctx, logger, pool)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "perform db migrations", nil)
	}
	return pool, nil
}

// testDBConnection tests the database connection by simply querying 1.
func testDBConnection(ctx context.Context, pool *pgxpool.Pool) error {
	q, _, err := goqu.Dialect("postgres").Select(goqu.V(1)).ToSQL()
	if err != nil {
		return errors.NewInternalErrorFromErr(err, "test query to sql", nil)
	}
	var got int
	err = pool.QueryRow(ctx, q).Scan(&got)
	if err != nil {
		return errors.NewScanDBRowError(err, "test query failed", q)
	}
	if got != 1 {
		return errors.Error{
			Code:    errors.ErrFatal,
			Kind:    errors.KindDB,
			Message: fmt.Sprintf("test db connection: expected 1 as result but got %d", got),
			Details: errors.Details{"got": got},
		}
	}
	return nil
}

// performDBMigrations performs all needed database migrations according to the
// (un)set database version. Migrations and the version update are performed in
// a single transaction.
func performDBMigrations(ctx context.Context, logger *zap.Logger, pool *pgxpool.Pool) error {
	currentVersion, err := retrieveCurrentDBVersion(ctx, pool)
	if err != nil {
		return errors.Wrap(err, "retrieve current db version", nil)
	}
	logger.Info("current database version", zap.Any("version", currentVersion))
	migrationsToDo, err := dbMigrationsToDo(currentVersion)
	if err != nil {
		return errors.Wrap(err, "get db migrations to do", nil)
	}
	if len(migrationsToDo) == 0 {
		return nil
	}
	tx, err := pool.Begin(ctx)
	if err != nil {
		return errors.NewDBTxBeginError(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	var newVersion dbVersion
	for i, migration := range migrationsToDo {
		logger.Info(fmt.Sprintf("performing database migration %d/%d", i+1, len(migrationsToDo)),
			zap.Any("target_version", migration.version))
		_, err = tx.Exec(ctx, migration.up)
		if err != nil {
			return errors.NewExecQueryError(err, "exec migration", migration.up)
		}
		newVersion = migration.version
	}
	dialect := goqu.Dialect("postgres")
	var q string
	if currentVersion == dbVersionZero {
		q, _, err = dialect.Insert(goqu.T("masc")).Rows(goqu.Record{
			"key":   dbVersionKey,
			"value": newVersion,
		}).ToSQL()
	} else {
		q, _, err = dialect.Update(goqu.T("masc")).
			Set(goqu.Record{"value": newVersion}).
			Where(goqu.C("key").Eq(dbVersionKey)).ToSQL()
	}
	if err != nil {
		return errors.NewInternalErrorFromErr(err, "update db version query to sql", nil)
	}
	_, err = tx.Exec(ctx, q)
	if err != nil {
		return errors.NewExecQueryError(err, "update db version", q)
	}
	err = tx.Commit(ctx)
	if err != nil {
		return errors.NewDBTxCommitError(err)
	}
	logger.Info("database migrated", zap.Any("version", newVersion))
	return nil
}

// dbMigrationsToDo retrieves all database migrations that need to be
// performed. If the version is dbVersionZero, it returns all migrations. If the
// version is unknown, an error is returned.
func dbMigrationsToDo(currentVersion dbVersion) ([]dbMigration, error) {
	if currentVersion == dbVersionZero {
		return dbMigrations, nil
	}
	found := false
	migrationsToDo := make([]dbMigration, 0)
	for _, migration := range dbMigrations {
		if migration.version == currentVersion {
			if found {
				return nil, errors.Error{
					Code:    errors.ErrInternal,
					Kind:    errors.KindShouldNotHappen,
					Message: fmt.Sprintf("duplicate database version %v in available migrations", currentVersion),
					Details: errors.Details{"version": currentVersion},
				}
			}
			found = true
			continue
		}
		if found {
			migrationsToDo = append(migrationsToDo, migration)
		}
	}
	if !found {
		return nil, errors.NewResourceNotFoundError(fmt.Sprintf("no database version found matching %v", currentVersion),
			errors.Details{"version": currentVersion})
	}
	return migrationsToDo, nil
}

// retrieveCurrentDBVersion retrieves the current dbVersion. If no version could
// be found, dbVersionZero is returned.
func retrieveCurrentDBVersion(ctx context.Context, pool *pgxpool.Pool) (dbVersion, error) {
	q, _, err := goqu.Dialect("postgres").From(goqu.T("masc")).
		Select(goqu.C("value")).
		Where(goqu.C("key").Eq(dbVersionKey)).ToSQL()
	if err != nil {
		return "", errors.NewInternalErrorFromErr(err, "version query to sql", nil)
	}
	var version string
	err = pool.QueryRow(ctx, q).Scan(&version)
	if err != nil {
		var pgErr *pgconn.PgError
		if nativeerrors.As(err, &pgErr) && pgErr.Code == pgErrUndefinedTable {
			return dbVersionZero, nil
		}
		if nativeerrors.Is(err, pgx.ErrNoRows) {
			return dbVersionZero, nil
		}
		return "", errors.NewScanDBRowError(err, "scan db version", q)
	}
	return dbVersion(version), nil
}
