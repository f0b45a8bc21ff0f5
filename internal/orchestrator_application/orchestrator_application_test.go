package orchestrator_application

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	conf "github.com/ERRORIK404/Expression_Calculator/pkg/config"
	structs "github.com/ERRORIK404/Expression_Calculator/pkg/structs"
)

func TestNewService_PicksStore(t *testing.T) {
	cfg := conf.Default()
	svc, closeStore, err := NewService(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, svc.Async())
	require.NoError(t, closeStore())

	cfg.DatabasePath = filepath.Join(t.TempDir(), "history.db")
	cfg.EvaluationMode = conf.ModeAsync
	svc, closeStore, err = NewService(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer closeStore()
	assert.True(t, svc.Async())
}

func TestServe_GracefulShutdown(t *testing.T) {
	cfg := conf.Default()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "history.db")
	svc, closeStore, err := NewService(cfg, zerolog.Nop())
	require.NoError(t, err)
	defer closeStore()

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, svc, httpLis, grpcLis, time.Second, zerolog.Nop()) }()

	base := "http://" + httpLis.Addr().String()
	resp, err := http.Post(base+"/api/v1/calculate", "application/json", strings.NewReader(`{"expression":"6*7"}`))
	require.NoError(t, err)
	var rec structs.CalculationRecord
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&rec))
	resp.Body.Close()
	require.NotNil(t, rec.Result)
	assert.Equal(t, 42.0, *rec.Result)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	_, err = http.Get(base + "/health")
	assert.Error(t, err)

	// history survives the server
	records, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "6*7", records[0].Expression)
}
