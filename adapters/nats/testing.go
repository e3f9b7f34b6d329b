package nats

import (
	"context"
	"time"

	natsgo "github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const testImage = "nats:2.11-alpine"

// Testing is the subset of *testing.T needed to run a NATS test container.
type Testing interface {
	require.TestingT
	Context() context.Context
	Logf(format string, args ...any)
	Cleanup(func())
}

// NewTestContainer starts a throwaway NATS server and returns a Connector
// for it. The container is terminated on test cleanup.
func NewTestContainer(t Testing) Connector {
	endpoint := startServer(t)
	t.Logf("nats endpoint: %s", endpoint)
	return ConnectURL(endpoint, natsgo.Timeout(5*time.Second))
}

func startServer(t Testing) string {
	ctx := t.Context()
	c, err := testcontainers.Run(
		ctx, testImage,
		testcontainers.WithExposedPorts("4222/tcp"),
		testcontainers.WithWaitStrategy(wait.ForLog("Server is ready").WithStartupTimeout(30*time.Second)),
	)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(c); err != nil {
			t.Errorf("terminate nats container: %v", err)
		}
	})
	require.NoError(t, err)

	endpoint, err := c.PortEndpoint(ctx, "4222/tcp", "nats")
	require.NoError(t, err)
	return endpoint
}
