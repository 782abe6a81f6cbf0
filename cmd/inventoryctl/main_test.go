package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/matheusmosca/grocery-inventory/internal/httpapi"
	"github.com/matheusmosca/grocery-inventory/internal/inventory"
	"github.com/matheusmosca/grocery-inventory/internal/inventory/memory"
	"github.com/matheusmosca/grocery-inventory/internal/logging"
)

func newServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := memory.NewRepository()
	logger := logging.Discard()
	tracer := tracenoop.NewTracerProvider().Tracer("test")
	txs, err := inventory.NewTransactionUseCase(repo, logger, tracer, metricnoop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	handler := httpapi.NewInventoryHandler(inventory.NewCatalogUseCase(repo, logger, tracer), txs, repo, tracer)

	srv := httptest.NewServer(httpapi.NewRouter(handler, logger, "inventory-test"))
	t.Cleanup(srv.Close)
	return srv.URL
}

func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--url", url}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_ProductAndTransactionFlow(t *testing.T) {
	url := newServer(t)

	out, err := run(t, url, "products", "create", "Rice", "--price", "4.25", "--stock", "2", "--category", "Grains")
	require.NoError(t, err)
	assert.Contains(t, out, "Rice")
	assert.Contains(t, out, "4.25")

	out, err = run(t, url, "transactions", "purchase", "1", "8", "--unit-price", "3.10", "--note", "weekly")
	require.NoError(t, err)
	assert.Contains(t, out, "purchase")

	out, err = run(t, url, "products", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Grains")
	assert.Contains(t, out, " 10 ")

	out, err = run(t, url, "tx", "list", "--product", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "3.10")

	out, err = run(t, url, "products", "delete", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted product 1")
}

func TestCLI_SaleBeyondStockFails(t *testing.T) {
	url := newServer(t)
	_, err := run(t, url, "products", "create", "Eggs", "--stock", "1")
	require.NoError(t, err)

	_, err = run(t, url, "transactions", "sale", "1", "3")

	assert.ErrorIs(t, err, inventory.ErrInsufficientStock)
}

func TestCLI_RejectsBadArguments(t *testing.T) {
	url := newServer(t)

	_, err := run(t, url, "products", "delete", "abc")
	assert.Error(t, err)

	_, err = run(t, url, "transactions", "sale", "1", "many")
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"0", "-3", "12abc", "4 5", ""} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}

func TestCLI_RejectsTrailingJunk(t *testing.T) {
	url := newServer(t)
	_, err := run(t, url, "products", "create", "Corn", "--stock", "5")
	require.NoError(t, err)

	_, err = run(t, url, "products", "delete", "1abc")
	assert.Error(t, err)

	_, err = run(t, url, "transactions", "sale", "1", "2x")
	assert.Error(t, err)

	out, err := run(t, url, "tx", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "sale")
}
