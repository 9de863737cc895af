package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/clientsphere/internal/domain"
)

const (
	codeUniqueViolation    = "23505"
	codeInvalidTextRep     = "22P02"
	codeTooManyConnections = "53300"
	codeAdminShutdown      = "57P01"
	codeCannotConnectNow   = "57P03"
)

// classify maps a driver error onto the domain taxonomy.
// Unknown errors are wrapped with op and passed through.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrCustomerNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == codeUniqueViolation:
			return domain.ErrDuplicateEmail
		case pgErr.Code == codeInvalidTextRep:
			return domain.ErrInvalidCustomerID
		case strings.HasPrefix(pgErr.Code, "08"),
			pgErr.Code == codeTooManyConnections,
			pgErr.Code == codeAdminShutdown,
			pgErr.Code == codeCannotConnectNow:
			return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStoreUnavailable, err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	if isTransient(err) {
		return fmt.Errorf("%s: %w", op, errors.Join(domain.ErrStoreUnavailable, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
