package tcnats

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/nats-io/nats.go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// SetupTestNats starts a NATS server with JetStream enabled and returns a
// connection to it.
func SetupTestNats() *nats.Conn {
	ctx := context.Background()
	port, err := nat.NewPort("tcp", "4222")
	if err != nil {
		log.Fatal(err)
	}
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "nats:2.10",
				Cmd:          []string{"-js"},
				ExposedPorts: []string{port.Port()},
				Name:         "pitstop-strategy-manager-nats-test",
				WaitingFor: wait.ForLog("Server is ready").
					WithStartupTimeout(30 * time.Second),
			},
			Started: true,
			Reuse:   true,
		})
	if err != nil {
		log.Fatal(err)
	}
	containerPort, _ := container.MappedPort(ctx, port)
	host, _ := container.Host(ctx)
	nc, err := nats.Connect(fmt.Sprintf("nats://%s:%s", host, containerPort.Port()))
	if err != nil {
		log.Fatal(err)
	}
	return nc
}
