package sqlgateway

import (
	"database/sql"
	"database/sql/driver"

	"github.com/denismitr/blueprint/schema"
	"github.com/pkg/errors"
)

// ClassifyCommonError recognizes driver independent connectivity failures
func ClassifyCommonError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return &schema.StoreUnavailableError{Op: op, Err: err}
	}

	return err
}
