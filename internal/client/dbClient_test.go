package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		url  string
		name string
	}{
		{"sqlite://satchmo.db", "sqlite"},
		{"sqlite3://:memory:", "sqlite"},
		{"mysql://root:pw@tcp(localhost:3306)/satchmo?parseTime=true", "mysql"},
		{"postgres://user:pw@localhost:5432/satchmo", "postgres"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			d, err := Dialector(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.name, d.Name())
		})
	}

	_, err := Dialector("satchmo.db")
	assert.Error(t, err)

	_, err = Dialector("oracle://db")
	assert.Error(t, err)
}

func TestInitDBClientMigrates(t *testing.T) {
	db, err := InitDBClient("sqlite://:memory:", zap.NewNop(), "silent")
	require.NoError(t, err)

	for _, table := range []string{"products", "orders", "order_payments", "settings", "product_price_lookups"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
