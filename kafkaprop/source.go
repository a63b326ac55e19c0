// Package kafkaprop adapts flowcore.Node pipelines to real Kafka topics
// via franz-go, the way kstreams's SourceNode/SinkNode sit at the edges of
// a topology.
package kafkaprop

import (
	"context"
	"fmt"
	"sync"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/kflow/flowcore"
	"github.com/kflow/flowcore/flog"
	"github.com/kflow/flowcore/kserde"
)

// SourcePropagator consumes a topic with a *kgo.Client and propagates each
// polled record, deserialized into a K/V pair, into a downstream Node.
// It mirrors kstreams.SourceNode.Process, but drives flowcore.Propagate
// instead of a static InputProcessor chain.
type SourcePropagator[K, V any] struct {
	client *kgo.Client
	topic  string

	keyDeserializer   kserde.Deserializer[K]
	valueDeserializer kserde.Deserializer[V]

	downstream *flowcore.Node
	log        *flog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SourceOption configures a SourcePropagator.
type SourceOption[K, V any] func(*SourcePropagator[K, V])

func WithSourceLogger[K, V any](l *flog.Logger) SourceOption[K, V] {
	return func(s *SourcePropagator[K, V]) { s.log = l }
}

// NewSourcePropagator builds a source that will, once Run is called, poll
// client for topic's records and propagate deserialized key/value pairs
// into downstream.
func NewSourcePropagator[K, V any](
	client *kgo.Client,
	topic string,
	keyDeserializer kserde.Deserializer[K],
	valueDeserializer kserde.Deserializer[V],
	downstream *flowcore.Node,
	opts ...SourceOption[K, V],
) *SourcePropagator[K, V] {
	s := &SourcePropagator[K, V]{
		client:            client,
		topic:             topic,
		keyDeserializer:   keyDeserializer,
		valueDeserializer: valueDeserializer,
		downstream:        downstream,
		log:               flog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// KeyValue is what a SourcePropagator hands to the downstream Node: the
// decoded pair, kept together so a single operator can see both halves of
// a record.
type KeyValue[K, V any] struct {
	Key   K
	Value V
}

// Run polls client until ctx is cancelled or Stop is called, propagating
// one KeyValue per successfully-decoded record. A record that fails to
// deserialize is logged and skipped rather than torn down the whole loop,
// mirroring kstreams's per-record error handling in SourceNode.Process
// (which returns the error up to its caller) adapted to a standalone poll
// loop that has no caller to return to.
func (s *SourcePropagator[K, V]) Run(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			fetches := s.client.PollFetches(ctx)
			if ctx.Err() != nil {
				return
			}

			for _, fetchErr := range fetches.Errors() {
				s.log.Errorf(fmt.Sprintf("kafkaprop: fetch error on %s[%d]", fetchErr.Topic, fetchErr.Partition), fetchErr.Err)
			}

			fetches.EachPartition(func(ftp kgo.FetchTopicPartition) {
				ftp.EachRecord(func(rec *kgo.Record) {
					kv, err := s.decode(rec)
					if err != nil {
						s.log.Errorf(fmt.Sprintf("kafkaprop: decode failed for %s[%d]@%d", rec.Topic, rec.Partition, rec.Offset), err)
						return
					}
					s.downstream.Propagate(kv, true)
				})
			})
		}
	}()
}

func (s *SourcePropagator[K, V]) decode(rec *kgo.Record) (KeyValue[K, V], error) {
	key, err := s.keyDeserializer(rec.Key)
	if err != nil {
		return KeyValue[K, V]{}, fmt.Errorf("kafkaprop: key: %w", err)
	}
	value, err := s.valueDeserializer(rec.Value)
	if err != nil {
		return KeyValue[K, V]{}, fmt.Errorf("kafkaprop: value: %w", err)
	}
	return KeyValue[K, V]{Key: key, Value: value}, nil
}

// Stop cancels the poll loop and waits for it to exit.
func (s *SourcePropagator[K, V]) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// EnsureTopic verifies topic exists via kadm, creating it with the given
// partition/replication settings if it does not — matching the admin-client
// usage kstreams makes of kadm.Client around its changelog topics.
func EnsureTopic(ctx context.Context, admin *kadm.Client, topic string, partitions int32, replicationFactor int16) error {
	details, err := admin.ListTopics(ctx, topic)
	if err != nil {
		return fmt.Errorf("kafkaprop: list topics: %w", err)
	}
	if d, ok := details[topic]; ok && d.Err == nil {
		return nil
	}

	resp, err := admin.CreateTopics(ctx, partitions, replicationFactor, nil, topic)
	if err != nil {
		return fmt.Errorf("kafkaprop: create topic %q: %w", topic, err)
	}
	if r, ok := resp[topic]; ok && r.Err != nil {
		return fmt.Errorf("kafkaprop: create topic %q: %w", topic, r.Err)
	}
	return nil
}
