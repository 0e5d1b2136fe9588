package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnectionString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"data source", "Data Source=test.db", "test.db"},
		{"compact key", "DataSource=products.db;", "products.db"},
		{"filename key", "Filename=/var/lib/app/products.db", "/var/lib/app/products.db"},
		{"quoted", `Data Source="my products.db"`, "my products.db"},
		{"plain path", "products.db", "products.db"},
		{"shared cache", "Data Source=test.db;Cache=Shared", "file:test.db?cache=shared"},
		{"memory", "Data Source=products;Mode=Memory;Cache=Shared", "file:products?cache=shared&mode=memory"},
		{"read only", "Data Source=test.db;Mode=ReadOnly", "file:test.db?mode=ro"},
		{"unknown keys ignored", "Data Source=test.db;Foreign Keys=True", "test.db"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseConnectionString(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseConnectionStringErrors(t *testing.T) {
	_, err := ParseConnectionString("")
	assert.ErrorIs(t, err, ErrNoDataSource)

	_, err = ParseConnectionString("Cache=Shared")
	assert.ErrorIs(t, err, ErrNoDataSource)

	_, err = ParseConnectionString("Data Source=test.db;bogus")
	assert.Error(t, err)

	_, err = ParseConnectionString("Data Source=test.db;Mode=Sideways")
	assert.Error(t, err)
}
