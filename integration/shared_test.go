//go:build basic || database || integration

package integration

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

var (
	// sharedMotionwinPath holds the path to a shared motionwin binary built once for all tests.
	sharedMotionwinPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getMotionwinBinary returns the path to the motionwin binary, building it once if needed.
func getMotionwinBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "motionwin-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		motionwinPath := filepath.Join(tempDir, "motionwin")
		buildCmd := exec.Command("go", "build", "-o", motionwinPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build motionwin: %v\n%s", err, out))
		}

		sharedMotionwinPath = motionwinPath
	})

	return sharedMotionwinPath
}

// sensorAccel is the synthetic acceleration of record i: a slow wave with a spike every 70 records.
func sensorAccel(i int) float64 {
	if i%70 == 69 {
		return 4.0
	}
	return math.Round(math.Sin(float64(i)/10)*100) / 100
}

// writeSensorCSV writes n synthetic records for two sessions of one athlete.
func writeSensorCSV(t *testing.T, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("athlete,session,accel:real,ts:int\n")
	for i := range n {
		session := "S1"
		if i >= n/2 {
			session = "S2"
		}
		fmt.Fprintf(&b, "A1,%s,%.2f,%d\n", session, sensorAccel(i), 1000+10*i)
	}
	path := filepath.Join(t.TempDir(), "session.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("failed to write sensor csv: %v", err)
	}
	return path
}
