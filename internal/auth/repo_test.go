package auth

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// rowOf mimics a pgx row: plain values assign directly, nil values go
// through the destination's Scanner the way the driver delivers NULL.
type rowOf []any

func (r rowOf) Scan(dest ...any) error {
	for i, d := range dest {
		switch v := d.(type) {
		case *int64:
			*v = r[i].(int64)
		case *string:
			*v = r[i].(string)
		case *bool:
			*v = r[i].(bool)
		case sql.Scanner:
			if err := v.Scan(r[i]); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unexpected destination %T", d)
		}
	}
	return nil
}

func TestScanUserNullLastLogin(t *testing.T) {
	user, err := scanUser(rowOf{int64(7), "reader", "reader@example.com", "$2a$10$hash", true, nil})
	require.NoError(t, err)
	require.Equal(t, int64(7), user.ID)
	require.Equal(t, "reader", user.Username)
	require.True(t, user.LastLogin.IsZero())
}

func TestScanUserLastLoginSet(t *testing.T) {
	at := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	user, err := scanUser(rowOf{int64(7), "reader", "reader@example.com", "$2a$10$hash", true, at})
	require.NoError(t, err)
	require.True(t, user.LastLogin.Equal(at))
}
