//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/jobmap-region/internal/adapter/kafka"
	"github.com/couchcryptid/jobmap-region/internal/config"
	"github.com/couchcryptid/jobmap-region/internal/domain"
	"github.com/couchcryptid/jobmap-region/internal/gazetteer"
	"github.com/couchcryptid/jobmap-region/internal/geo"
	"github.com/couchcryptid/jobmap-region/internal/observability"
	"github.com/couchcryptid/jobmap-region/internal/pipeline"
	"github.com/couchcryptid/jobmap-region/internal/region"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSourceTopic = "test-postings"
	testSinkTopic   = "test-postings-regioned"
)

// taggedMessage holds a deserialized message read from the sink topic.
type taggedMessage struct {
	Key     string
	Headers map[string]string
	Posting struct {
		ID               string                 `json:"id"`
		Location         string                 `json:"location"`
		ExpectedProvince string                 `json:"expected_province"`
		Region           *domain.RegionIdentity `json:"region"`
		RegionCenter     *domain.Coordinate     `json:"region_center"`
	}
}

func readTagged(ctx context.Context, t *testing.T, consumer *kafkago.Reader) taggedMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	tm := taggedMessage{Key: string(msg.Key), Headers: make(map[string]string, len(msg.Headers))}
	for _, h := range msg.Headers {
		tm.Headers[h.Key] = string(h.Value)
	}
	require.NoError(t, json.Unmarshal(msg.Value, &tm.Posting), "unmarshal sink message")
	return tm
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 5 * time.Second,
	}
}

func newTransformer(t *testing.T, metrics *observability.Metrics) *pipeline.RegionTransformer {
	t.Helper()
	g, err := gazetteer.Default()
	require.NoError(t, err)
	return pipeline.NewTransformer(region.NewCascade(g), geo.NewResolver(g), metrics, discardLogger())
}

func sinkConsumer(t *testing.T, broker string) *kafkago.Reader {
	t.Helper()
	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })
	return consumer
}

func publish(ctx context.Context, t *testing.T, broker string, msgs ...kafkago.Message) {
	t.Helper()
	producer := &kafkago.Writer{
		Addr:  kafkago.TCP(broker),
		Topic: testSourceTopic,
	}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, msgs...))
}

// TestKafkaReaderWriter round-trips one posting through the adapters.
func TestKafkaReaderWriter(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-reader")

	payload := []byte(`{"id":"goe-1","location":"경기 성남시","title":"기간제 교사 채용"}`)
	publish(ctx, t, broker, kafkago.Message{Key: []byte("goe-1"), Value: payload})

	// Retry because the consumer group may need time to rebalance before
	// partitions are assigned.
	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })

	var batch []domain.RawEvent
	for len(batch) == 0 {
		var err error
		batch, err = reader.ExtractBatch(ctx, 1)
		require.NoError(t, err)
		if ctx.Err() != nil {
			t.Fatal("timed out waiting for message from source topic")
		}
	}
	require.Len(t, batch, 1)
	raw := batch[0]
	assert.Equal(t, []byte("goe-1"), raw.Key)
	assert.Equal(t, payload, raw.Value)
	assert.Equal(t, testSourceTopic, raw.Topic)
	require.NotNil(t, raw.Commit)
	require.NoError(t, raw.Commit(ctx))

	out, err := newTransformer(t, observability.NewMetricsForTesting()).Transform(ctx, raw)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })
	require.NoError(t, writer.LoadBatch(ctx, []domain.OutputEvent{out}))

	tm := readTagged(ctx, t, sinkConsumer(t, broker))
	assert.Equal(t, "goe-1", tm.Key)
	assert.Equal(t, "경기", tm.Headers["province"])
	_, err = time.Parse(time.RFC3339, tm.Headers["processed_at"])
	assert.NoError(t, err, "processed_at should be valid RFC3339")

	require.NotNil(t, tm.Posting.Region)
	assert.Equal(t, "경기_성남", tm.Posting.Region.Key)
	assert.Equal(t, &domain.Coordinate{Lat: 37.4201, Lng: 127.1269}, tm.Posting.RegionCenter)
}

// TestPipelineEndToEnd runs the mock crawl plus one poison pill through the
// full pipeline and checks every posting arrives tagged.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	lines := loadMockPostings(t)
	msgs := []kafkago.Message{{Key: []byte("bad"), Value: []byte(`{"location":"서울"}`)}}
	for i, line := range lines {
		msgs = append(msgs, kafkago.Message{Key: []byte(fmt.Sprintf("posting-%d", i)), Value: line})
	}
	publish(ctx, t, broker, msgs...)

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(reader, newTransformer(t, metrics), writer, discardLogger(), metrics, 50)

	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := sinkConsumer(t, broker)
	received := make([]taggedMessage, 0, len(lines))
	for len(received) < len(lines) {
		received = append(received, readTagged(ctx, t, consumer))
	}

	// The poison pill never reaches the sink.
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no extra message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
	require.NoError(t, p.CheckReadiness(ctx))

	for _, tm := range received {
		assert.NotEqual(t, "bad", tm.Key)
		if tm.Posting.ExpectedProvince == "" {
			assert.Nil(t, tm.Posting.Region, tm.Posting.Location)
			continue
		}
		require.NotNil(t, tm.Posting.Region, tm.Posting.Location)
		assert.Equal(t, tm.Posting.ExpectedProvince, string(tm.Posting.Region.Province), tm.Posting.Location)
		assert.Equal(t, tm.Posting.ExpectedProvince, tm.Headers["province"])
	}
}
