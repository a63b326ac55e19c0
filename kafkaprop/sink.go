package kafkaprop

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/kflow/flowcore"
	"github.com/kflow/flowcore/flowresult"
	"github.com/kflow/flowcore/kserde"
)

// SinkPropagator implements flowcore.Propagator directly — it is a
// legitimate non-Node edge target — and produces every propagated message
// to a Kafka topic via (*kgo.Client).Produce, resolving the returned
// flowresult.Result from the produce callback. This is the Propagator-side
// analogue of kstreams.SinkNode, whose futuresWg/futures fields are
// replaced here by one Result per message instead of a batch Flush.
type SinkPropagator[K, V any] struct {
	client *kgo.Client
	topic  string

	keySerializer   kserde.Serializer[K]
	valueSerializer kserde.Serializer[V]

	downstreamCount int
}

// NewSinkPropagator builds a sink that produces to topic via client,
// serializing each KeyValue[K, V] it is propagated.
func NewSinkPropagator[K, V any](
	client *kgo.Client,
	topic string,
	keySerializer kserde.Serializer[K],
	valueSerializer kserde.Serializer[V],
) *SinkPropagator[K, V] {
	return &SinkPropagator[K, V]{
		client:          client,
		topic:           topic,
		keySerializer:   keySerializer,
		valueSerializer: valueSerializer,
	}
}

// Propagate serializes msg (expected to be a KeyValue[K, V]) and produces
// it to the sink's topic. transform is ignored: a SinkPropagator has no
// Operator, matching spec §9's "Polymorphism" note that non-Node
// propagators simply skip whatever steps don't apply to them.
func (s *SinkPropagator[K, V]) Propagate(msg any, transform bool) flowcore.PropagateResult {
	kv, ok := msg.(KeyValue[K, V])
	if !ok {
		err := fmt.Errorf("kafkaprop: sink received %T, want KeyValue", msg)
		return flowcore.PropagateResult{Outcome: flowcore.ErrorOutcome, Result: flowresult.Resolved(nil, err, flowresult.Metadata{})}
	}

	key, err := s.keySerializer(kv.Key)
	if err != nil {
		err = fmt.Errorf("kafkaprop: marshal key: %w", err)
		return flowcore.PropagateResult{Outcome: flowcore.ErrorOutcome, Result: flowresult.Resolved(nil, err, flowresult.Metadata{})}
	}
	value, err := s.valueSerializer(kv.Value)
	if err != nil {
		err = fmt.Errorf("kafkaprop: marshal value: %w", err)
		return flowcore.PropagateResult{Outcome: flowcore.ErrorOutcome, Result: flowresult.Resolved(nil, err, flowresult.Metadata{})}
	}

	result := flowresult.New(nil)
	s.client.Produce(context.Background(), &kgo.Record{
		Key:   key,
		Value: value,
		Topic: s.topic,
	}, func(r *kgo.Record, err error) {
		result.Resolve(r, err)
	})

	return flowcore.PropagateResult{Outcome: flowcore.Delivered, Result: result}
}

// Downstream always reports zero: a SinkPropagator has no further
// downstream edges of its own.
func (s *SinkPropagator[K, V]) Downstream() int { return 0 }

// Transactional reports false: produce acknowledgement is tracked
// per-message via the returned Result, not via the hand-over-hand lock
// protocol that only applies to Node-backed edges.
func (s *SinkPropagator[K, V]) Transactional() bool { return false }

// Description satisfies flowcore.Describable.
func (s *SinkPropagator[K, V]) Description() string { return "kafkaprop.sink:" + s.topic }
