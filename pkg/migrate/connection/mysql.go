package connection

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/baderkha/cdm-runner/pkg/migrate/config/ledgercfg"
	"github.com/rs/zerolog"
	sqldblogger "github.com/simukti/sqldb-logger"
	"github.com/simukti/sqldb-logger/logadapter/zerologadapter"
)

const pingTimeout = 5 * time.Second

func AddLogger(db *sql.DB, dsn string, driverName string, log zerolog.Logger) *sql.DB {
	loggerAdapter := zerologadapter.New(log.With().Str("driver", driverName).Logger())
	wrapped := sqldblogger.OpenDriver(dsn, db.Driver(), loggerAdapter,
		sqldblogger.WithWrapResult(false),
		sqldblogger.WithDurationFieldname("dur_ms"),
		sqldblogger.WithDurationUnit(sqldblogger.DurationMillisecond),
		sqldblogger.WithSQLQueryAsMessage(true),        // default: false
		sqldblogger.WithSQLQueryFieldname("sql_query"), // default: query
	) // default: LevelInfo)
	// the unwrapped pool has not connected yet, closing it only releases the handle
	db.Close()
	return wrapped
}

// DialMysql : opens and pings the ledger database
func DialMysql(ctx context.Context, cfg *ledgercfg.MYSQL, log zerolog.Logger) (*sql.DB, error) {
	dsn := cfg.GetDSN()
	log.Debug().Str("host", cfg.Host).Int("port", cfg.Port).Str("db", cfg.DB).Msg("getting DialMysql con")
	sqlDB, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("MYSQL_LEDGER : Could not dial connection to mysql due to : %w", err)
	}
	if cfg.QueryLogging {
		sqlDB = AddLogger(sqlDB, dsn, "mysql", log)
	}
	maxConns := cfg.MaxConns
	if maxConns < 1 {
		maxConns = 1
	}
	sqlDB.SetMaxOpenConns(maxConns)
	sqlDB.SetMaxIdleConns(maxConns)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("MYSQL_LEDGER : Could not reach %s:%d due to : %w", cfg.Host, cfg.Port, err)
	}
	log.Debug().Msg("got DialMysql con")
	return sqlDB, nil
}
