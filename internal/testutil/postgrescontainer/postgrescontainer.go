// Package postgrescontainer runs a throwaway PostgreSQL for integration tests.
package postgrescontainer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

const (
	image         = "postgres:16-alpine"
	containerName = "go-insee-postgres-test"
	hostPort      = "55433"
	user          = "insee"
	password      = "secret"
	dbName        = "insee_test"
)

// ErrUnavailable is returned by Setup when docker cannot be used.
var ErrUnavailable = errors.New("postgrescontainer: docker unavailable")

var (
	once     sync.Once
	setupErr error
	started  bool
)

// Addr returns host:port for connecting to the test Postgres instance.
func Addr() string { return "127.0.0.1:" + hostPort }

// DSN returns the connection string for the test database. GOINSEE_TEST_POSTGRES_DSN
// points the tests at an existing server instead of a container.
func DSN() string {
	if dsn := os.Getenv("GOINSEE_TEST_POSTGRES_DSN"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=disable", user, password, Addr(), dbName)
}

// Setup launches the Postgres container unless an external DSN is configured.
func Setup() error {
	once.Do(func() {
		if os.Getenv("GOINSEE_TEST_POSTGRES_DSN") != "" {
			setupErr = waitForPostgres(DSN(), 10*time.Second)
			return
		}
		if _, err := exec.LookPath("docker"); err != nil {
			setupErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			return
		}
		if err := runDocker("info"); err != nil {
			setupErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
			return
		}
		_ = stopContainer()
		if err := runContainer(); err != nil {
			setupErr = err
			return
		}
		started = true
		setupErr = waitForPostgres(DSN(), 30*time.Second)
	})
	return setupErr
}

// Teardown stops the container launched by Setup.
func Teardown() error {
	if !started {
		return nil
	}
	return stopContainer()
}

func runContainer() error {
	return runDocker(
		"run",
		"-d",
		"--rm",
		"--name", containerName,
		"-e", "POSTGRES_USER="+user,
		"-e", "POSTGRES_PASSWORD="+password,
		"-e", "POSTGRES_DB="+dbName,
		"-p", fmt.Sprintf("%s:5432", hostPort),
		image,
	)
}

func stopContainer() error {
	output, err := exec.Command("docker", "stop", containerName).CombinedOutput()
	if err != nil {
		if strings.Contains(string(output), "No such container") {
			return nil
		}
		return fmt.Errorf("docker stop failed: %w: %s", err, output)
	}
	return nil
}

func runDocker(args ...string) error {
	output, err := exec.Command("docker", args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("docker %s failed: %w: %s", args[0], err, output)
	}
	return nil
}

func waitForPostgres(dsn string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		err := func() error {
			db, err := sql.Open("postgres", dsn)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.PingContext(ctx)
		}()
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return errors.New("postgres container did not become ready in time")
}
