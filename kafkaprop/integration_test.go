package kafkaprop_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/kflow/flowcore"
	"github.com/kflow/flowcore/kafkaprop"
	"github.com/kflow/flowcore/kserde"
)

// redpandaBroker boots a single-node Redpanda container, grounded on the
// same testcontainers pattern birdayz-kstreams's integrationtest package
// uses for its own end-to-end tests.
type redpandaBroker struct {
	bootstrapServers []string
	container        testcontainers.Container
}

func (b *redpandaBroker) init(t *testing.T) {
	ctx := context.Background()
	port := freePort(t)

	req := testcontainers.ContainerRequest{
		Image:      "docker.vectorized.io/vectorized/redpanda:latest",
		WaitingFor: wait.ForLog("Successfully started Redpanda!"),
		User:       "root:root",
		Cmd: []string{
			"redpanda", "start",
			"--smp", "1",
			"--reserve-memory", "0M",
			"--overprovisioned",
			"--node-id", "0",
			"--kafka-addr", fmt.Sprintf("OUTSIDE://0.0.0.0:%d", port),
		},
		ExposedPorts: []string{fmt.Sprintf("%d:%d/tcp", port, port)},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	assert.NoError(t, err)

	hostIP, err := container.Host(ctx)
	assert.NoError(t, err)
	mappedPort, err := container.MappedPort(ctx, nat.Port(fmt.Sprintf("%d", port)))
	assert.NoError(t, err)

	b.bootstrapServers = []string{fmt.Sprintf("%s:%d", hostIP, mappedPort.Int())}
	b.container = container
}

func (b *redpandaBroker) close() {
	_ = b.container.Terminate(context.Background())
}

func freePort(t *testing.T) int {
	t.Helper()
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	assert.NoError(t, err)
	l, err := net.ListenTCP("tcp", addr)
	assert.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// TestSourceToSinkRoundTrip wires a SourcePropagator into a Node that
// feeds a SinkPropagator, and checks a record produced to the source
// topic round-trips into the sink topic unchanged.
func TestSourceToSinkRoundTrip(t *testing.T) {
	broker := &redpandaBroker{}
	broker.init(t)
	defer broker.close()

	producer, err := kgo.NewClient(kgo.SeedBrokers(broker.bootstrapServers...))
	assert.NoError(t, err)
	defer producer.Close()

	admin := kadm.NewClient(producer)
	ctx := context.Background()
	assert.NoError(t, kafkaprop.EnsureTopic(ctx, admin, "flowcore-in", 1, 1))
	assert.NoError(t, kafkaprop.EnsureTopic(ctx, admin, "flowcore-out", 1, 1))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.bootstrapServers...),
		kgo.ConsumerGroup("flowcore-test"),
		kgo.ConsumeTopics("flowcore-in"),
	)
	assert.NoError(t, err)
	defer consumer.Close()

	relay := flowcore.New("relay", flowcore.WithOperator(func(msg any) (any, error) { return msg, nil }))
	sink := kafkaprop.NewSinkPropagator(producer, "flowcore-out", kserde.StringSerializer, kserde.StringSerializer)
	assert.True(t, relay.Link("", flowcore.Edge{Next: sink, Description: "sink"}, nil, nil))

	source := kafkaprop.NewSourcePropagator(consumer, "flowcore-in", kserde.StringDeserializer, kserde.StringDeserializer, relay)
	runCtx, cancel := context.WithCancel(ctx)
	source.Run(runCtx)
	defer func() {
		cancel()
		source.Stop()
	}()

	verifyConsumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker.bootstrapServers...),
		kgo.ConsumerGroup("flowcore-verify"),
		kgo.ConsumeTopics("flowcore-out"),
	)
	assert.NoError(t, err)
	defer verifyConsumer.Close()

	producer.Produce(ctx, &kgo.Record{Topic: "flowcore-in", Key: []byte("k"), Value: []byte("hello")}, nil)

	deadline, cancelDeadline := context.WithTimeout(ctx, 30*time.Second)
	defer cancelDeadline()

	var got string
	for got == "" {
		fetches := verifyConsumer.PollFetches(deadline)
		assert.Equal(t, 0, len(fetches.Errors()))
		fetches.EachRecord(func(rec *kgo.Record) {
			got = string(rec.Value)
		})
	}
	assert.Equal(t, "hello", got)
}
