package tcpostgres

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultImage = "postgres:17"
	postgresPort = "5432/tcp"
)

type (
	// PostgresContainer is a running postgres used by the repository tests.
	PostgresContainer struct {
		testcontainers.Container
		user     string
		password string
		dbName   string
	}
	PostgresContainerOption func(req *testcontainers.ContainerRequest)
)

func WithImage(image string) PostgresContainerOption {
	return func(req *testcontainers.ContainerRequest) {
		req.Image = image
	}
}

func WithStartupTimeout(timeout time.Duration) PostgresContainerOption {
	return func(req *testcontainers.ContainerRequest) {
		req.WaitingFor = wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(timeout)
	}
}

func WithName(containerName string) PostgresContainerOption {
	return func(req *testcontainers.ContainerRequest) {
		req.Name = containerName
	}
}

func WithInitialDatabase(user, password, dbName string) PostgresContainerOption {
	return func(req *testcontainers.ContainerRequest) {
		req.Env["POSTGRES_USER"] = user
		req.Env["POSTGRES_PASSWORD"] = password
		req.Env["POSTGRES_DB"] = dbName
	}
}

// SetupPostgres starts (or reuses) a postgres container.
// Without WithInitialDatabase the credentials are postgres/password.
func SetupPostgres(ctx context.Context, opts ...PostgresContainerOption) (
	*PostgresContainer, error,
) {
	req := testcontainers.ContainerRequest{
		Image: defaultImage,
		Env: map[string]string{
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "password",
			"POSTGRES_DB":       "postgres",
		},
		ExposedPorts: []string{postgresPort},
		Cmd:          []string{"postgres", "-c", "fsync=off"},
	}
	WithStartupTimeout(30 * time.Second)(&req)

	for _, opt := range opts {
		opt(&req)
	}

	container, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
			Reuse:            req.Name != "",
		})
	if err != nil {
		return nil, err
	}

	return &PostgresContainer{
		Container: container,
		user:      req.Env["POSTGRES_USER"],
		password:  req.Env["POSTGRES_PASSWORD"],
		dbName:    req.Env["POSTGRES_DB"],
	}, nil
}

// ConnectionString returns the url of the database on the mapped port.
func (c *PostgresContainer) ConnectionString(ctx context.Context) (string, error) {
	port, err := c.MappedPort(ctx, nat.Port(postgresPort))
	if err != nil {
		return "", err
	}
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		c.user, c.password, host, port.Port(), c.dbName), nil
}
