package sqlgateway

import (
	"context"
	"database/sql"
	"time"

	"github.com/denismitr/blueprint/internal/retry"
	"github.com/denismitr/blueprint/schema"
	"github.com/pkg/errors"
)

const (
	DefaultConnectionAttempts    = 100
	DefaultConnectionTimeout     = 60 * time.Second
	DefaultConnectionAttemptStep = 2 * time.Second
)

type ConnectOptions struct {
	MaxAttempts int
	MaxTimeout  time.Duration
	RetryStep   time.Duration
}

func NewDefaultConnectOptions() *ConnectOptions {
	return &ConnectOptions{
		MaxAttempts: DefaultConnectionAttempts,
		MaxTimeout:  DefaultConnectionTimeout,
		RetryStep:   DefaultConnectionAttemptStep,
	}
}

type Connector interface {
	Connect(ctx context.Context) (*sql.Conn, error)
	Timeout() time.Duration
	Close() error
}

// ConnInitializer runs on a freshly established connection before it is handed out
type ConnInitializer func(ctx context.Context, conn *sql.Conn) error

// RetryingConnector establishes a single connection to the database,
// retrying with incremental intervals until it succeeds or runs out of attempts
type RetryingConnector struct {
	options *ConnectOptions
	db      *sql.DB
	conn    *sql.Conn
	init    ConnInitializer
}

func MakeRetryingConnector(db *sql.DB, options *ConnectOptions, init ...ConnInitializer) *RetryingConnector {
	if options == nil {
		options = NewDefaultConnectOptions()
	}

	c := &RetryingConnector{db: db, options: options}
	if len(init) > 0 {
		c.init = init[0]
	}

	return c
}

func (c *RetryingConnector) Timeout() time.Duration {
	return c.options.MaxTimeout
}

// Connect returns the same connection on every call once established.
// Any failure is reported as *schema.StoreUnavailableError.
func (c *RetryingConnector) Connect(ctx context.Context) (*sql.Conn, error) {
	if c.conn != nil {
		return c.conn, nil
	}

	if c.db == nil {
		return nil, &schema.StoreUnavailableError{Op: "connect", Err: errors.New("database handle is not set")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.options.MaxTimeout)
	defer cancel()

	var conn *sql.Conn
	err := retry.Incremental(ctx, c.options.RetryStep, c.options.MaxAttempts, func(attempt int) error {
		var err error
		conn, err = c.db.Conn(ctx)
		if err != nil {
			return retry.Error(errors.Wrap(err, "could not establish DB connection"), attempt)
		}

		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return retry.Error(errors.Wrap(err, "db ping failed"), attempt)
		}

		return nil
	})

	if err != nil {
		return nil, &schema.StoreUnavailableError{Op: "connect", Err: err}
	}

	if c.init != nil {
		if err := c.init(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, &schema.StoreUnavailableError{
				Op:  "connect",
				Err: errors.Wrap(err, "could not initialize connection"),
			}
		}
	}

	c.conn = conn

	return conn, nil
}

func (c *RetryingConnector) Close() error {
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return errors.Wrap(err, "retrying connector could not close the connection")
		}

		c.conn = nil
	}

	return nil
}
