//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestMotionwinWithMySQL tests the motionwin CLI with a MySQL store.
func TestMotionwinWithMySQL(t *testing.T) {
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306:3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "motionwin",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(30 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	// Get connection details
	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/motionwin?parseTime=true", host, port.Port())
	runStoreScenario(t, "mysql", connStr)
}

// TestMotionwinWithPostgres tests the motionwin CLI with a PostgreSQL store.
func TestMotionwinWithPostgres(t *testing.T) {
	ctx := context.Background()

	// Start Postgres container
	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432:5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithStartupTimeout(30 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()
	time.Sleep(5 * time.Second)

	// Get connection details
	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres", host, port.Port())
	runStoreScenario(t, "postgresql", connStr)
}

// TestMotionwinWithSQLite runs the same scenario against a file store.
func TestMotionwinWithSQLite(t *testing.T) {
	runStoreScenario(t, "sqlite", filepath.Join(t.TempDir(), "motionwin.db"))
}

// runStoreScenario migrates, fills, inspects, exports and clears one store.
func runStoreScenario(t *testing.T, backend, connStr string) {
	t.Setenv("MOTIONWIN_STORE_BACKEND", backend)
	t.Setenv("MOTIONWIN_STORE_DB_CONNECT", connStr)

	source := writeSensorCSV(t, 300)
	exportPrefix := filepath.Join(t.TempDir(), "labels")

	require.NoError(t, runMotionwinCommand(t, "store", "migrate"))
	require.NoError(t, runMotionwinCommand(t, "store", "clear"))
	require.NoError(t, runMotionwinCommand(t, "ingest", source, "--output", "csv"))
	require.NoError(t, runMotionwinCommand(t, "analyze", source, "--bulk-mode", "sliding", "--workers", "4"))
	require.NoError(t, runMotionwinCommand(t, "store", "status"))
	require.NoError(t, runMotionwinCommand(t, "store", "export", "--output-file", exportPrefix))

	for _, suffix := range []string{".runs.parquet", ".analyses.parquet"} {
		info, err := os.Stat(exportPrefix + suffix)
		require.NoError(t, err)
		require.Positive(t, info.Size())
	}
	require.NoError(t, runMotionwinCommand(t, "store", "clear"))
}

func runMotionwinCommand(t *testing.T, args ...string) error {
	motionwinPath := getMotionwinBinary()
	cmd := exec.Command(motionwinPath, args...)
	cmd.Dir = "../" // Run from project root
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
		return err
	}
	return nil
}
