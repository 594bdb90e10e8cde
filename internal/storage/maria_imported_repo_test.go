package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMariaDSN(t *testing.T) {
	dsn, err := mariaDSN("alarm:secret@tcp(db:3306)/missions")
	require.NoError(t, err)

	cfg, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, cfg.ParseTime, "parseTime включается всегда")
	assert.Equal(t, "alarm", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "missions", cfg.DBName)

	// явный parseTime=false перекрывается
	dsn, err = mariaDSN("alarm@tcp(db:3306)/missions?parseTime=false")
	require.NoError(t, err)
	cfg, err = mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.True(t, cfg.ParseTime)

	_, err = mariaDSN("no-database-separator")
	assert.Error(t, err)
}

func TestMapMariaSaveError(t *testing.T) {
	assert.NoError(t, mapMariaSaveError("Tree", nil))

	dup := &mysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry 'Tree' for key 'PRIMARY'"}
	assert.ErrorIs(t, mapMariaSaveError("Tree", dup), ErrAlreadyExists)
	assert.ErrorIs(t, mapMariaSaveError("Tree", fmt.Errorf("exec: %w", dup)), ErrAlreadyExists)

	other := &mysql.MySQLError{Number: 1146, Message: "Table doesn't exist"}
	err := mapMariaSaveError("Tree", other)
	assert.NotErrorIs(t, err, ErrAlreadyExists)
	assert.ErrorIs(t, err, other)
}

func TestMapMariaGetError(t *testing.T) {
	assert.NoError(t, mapMariaGetError("Tree", nil))
	assert.ErrorIs(t, mapMariaGetError("Tree", sql.ErrNoRows), ErrNotFound)

	cause := errors.New("bad connection")
	err := mapMariaGetError("Tree", cause)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
}
