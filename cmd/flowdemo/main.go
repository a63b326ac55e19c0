package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/kflow/flowcore"
	"github.com/kflow/flowcore/flog"
	"github.com/kflow/flowcore/kafkaprop"
	"github.com/kflow/flowcore/kserde"
)

// flowdemo wires a tiny Node pipeline around a real Kafka topic: a
// SourcePropagator feeds an uppercasing Node, which fans out to a printing
// Node and a SinkPropagator writing back to a second topic. It mirrors
// kstreams/examples' main.go, adapted to flowcore's connector style.
func main() {
	log := flog.New("flowdemo")

	brokers := []string{"127.0.0.1:9092"}
	inTopic := "flowdemo-in"
	outTopic := "flowdemo-out"

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup("flowdemo"),
		kgo.ConsumeTopics(inTopic),
	)
	if err != nil {
		log.Errorf("connect", err)
		os.Exit(1)
	}
	defer client.Close()

	admin := kadm.NewClient(client)
	ctx := context.Background()
	if err := kafkaprop.EnsureTopic(ctx, admin, inTopic, 1, 1); err != nil {
		log.Errorf(fmt.Sprintf("ensure %s", inTopic), err)
		os.Exit(1)
	}
	if err := kafkaprop.EnsureTopic(ctx, admin, outTopic, 1, 1); err != nil {
		log.Errorf(fmt.Sprintf("ensure %s", outTopic), err)
		os.Exit(1)
	}

	upper := flowcore.New("upper", flowcore.WithLogger(log), flowcore.WithOperator(uppercase))
	printer := flowcore.New("printer", flowcore.WithLogger(log), flowcore.WithOperator(println_))

	sink := kafkaprop.NewSinkPropagator(client, outTopic, kserde.StringSerializer, kserde.StringSerializer)

	upper.Link("printer", flowcore.Edge{Next: printer, Description: "printer"}, nil, nil)
	upper.Link("sink", flowcore.Edge{Next: sink, Description: "sink"}, nil, nil)

	source := kafkaprop.NewSourcePropagator(
		client, inTopic,
		kserde.StringDeserializer, kserde.StringDeserializer,
		upper,
		kafkaprop.WithSourceLogger[string, string](log),
	)
	source.Run(ctx)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	source.Stop()
	upper.Close(false)
}

func uppercase(msg any) (any, error) {
	kv := msg.(kafkaprop.KeyValue[string, string])
	out := make([]byte, len(kv.Value))
	for i := 0; i < len(kv.Value); i++ {
		c := kv.Value[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	kv.Value = string(out)
	return kv, nil
}

func println_(msg any) (any, error) {
	kv := msg.(kafkaprop.KeyValue[string, string])
	fmt.Println(kv.Key, kv.Value)
	return flowcore.Filtered, nil
}
