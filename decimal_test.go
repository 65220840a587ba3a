package mysqlclient

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LadybugDB/go-mysqlclient/native"
	"github.com/LadybugDB/go-mysqlclient/native/nativemock"
)

func TestFormatDecimal(t *testing.T) {
	buf := make([]byte, 16)
	n, err := FormatDecimal(decimal.RequireFromString("-1234.50"), buf)
	require.NoError(t, err)
	assert.Equal(t, "-1234.5", string(buf[:n]))

	_, err = FormatDecimal(decimal.RequireFromString("123456789.123456789"), make([]byte, 4))
	assert.ErrorIs(t, err, ErrLogic)
}

func TestDecimalParameter(t *testing.T) {
	lib, drv := acquireMock(t, nativemock.Config{})
	conn := connectMock(t, lib)
	stmt := newStatement(t, conn, "UPDATE accounts SET balance = ? WHERE id = ?")

	buf := make([]byte, 32)
	id := int64(9)
	stmt.AddDecimalParameter(buf)
	require.NoError(t, stmt.AddParameter(&id))
	assert.Equal(t, native.TypeNewDecimal, stmt.Parameters()[0].Type)

	n, err := FormatDecimal(decimal.RequireFromString("1999.99"), buf)
	require.NoError(t, err)
	require.NoError(t, stmt.SetParameterLength(0, n))
	require.NoError(t, stmt.BindParameters())
	require.NoError(t, stmt.Execute())

	execs := drv.Executions()
	require.Len(t, execs, 1)
	assert.Equal(t, []any{"1999.99", int64(9)}, execs[0].Params)
}

func TestDecimalResult(t *testing.T) {
	const query = "SELECT balance FROM accounts"
	lib, _ := acquireMock(t, nativemock.Config{
		Statements: map[string]nativemock.Script{
			query: {Rows: [][]any{{"1234.56"}, {nil}, {"not a number"}}},
		},
	})
	conn := connectMock(t, lib)
	stmt := newStatement(t, conn, query)

	buf := make([]byte, 24)
	stmt.AddDecimalResult(buf)
	require.NoError(t, stmt.BindResults())
	require.NoError(t, stmt.Execute())

	ok, err := stmt.Fetch()
	require.NoError(t, err)
	require.True(t, ok)
	got, err := stmt.ResultDecimal(0, buf)
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.True(t, decimal.RequireFromString("1234.56").Equal(got.Decimal))

	ok, err = stmt.Fetch()
	require.NoError(t, err)
	require.True(t, ok)
	got, err = stmt.ResultDecimal(0, buf)
	require.NoError(t, err)
	assert.False(t, got.Valid)

	ok, err = stmt.Fetch()
	require.NoError(t, err)
	require.True(t, ok)
	_, err = stmt.ResultDecimal(0, buf)
	assert.ErrorIs(t, err, ErrFetch)

	_, err = stmt.ResultDecimal(1, buf)
	assert.ErrorIs(t, err, ErrIndex)
}
