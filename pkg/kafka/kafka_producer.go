package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"pyraledger/pkg/logger"
)

// Kafka 生产者服务，向下游广播交易事件
// 定义接口，方便测试和替换
type ProducerService interface {
	Produce(ctx context.Context, topic string, key []byte, msg interface{}) error
	Close()
}

const (
	TopicTradeEntry  = "trades_entry"
	TopicTradeClosed = "trades_closed"
	TopicDailyReport = "trades_daily_report"
)

type kafkaProducer struct {
	entryWriter  *kafka.Writer // 入场事件
	closedWriter *kafka.Writer // 平仓事件
	reportWriter *kafka.Writer // 日报事件
}

func NewKafkaProducer(brokerURL string) ProducerService {
	entryWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokerURL),
		Topic:    TopicTradeEntry,
		Balancer: &kafka.LeastBytes{}, // 保证写入负载均衡
	}
	closedWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokerURL),
		Topic:    TopicTradeClosed,
		Balancer: &kafka.LeastBytes{},
	}
	reportWriter := &kafka.Writer{
		Addr:     kafka.TCP(brokerURL),
		Topic:    TopicDailyReport,
		Balancer: &kafka.LeastBytes{},
	}

	return &kafkaProducer{
		entryWriter:  entryWriter,
		closedWriter: closedWriter,
		reportWriter: reportWriter,
	}
}

func (p *kafkaProducer) Produce(ctx context.Context, topic string, key []byte, msg interface{}) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	var writer *kafka.Writer
	switch topic {
	case TopicTradeEntry:
		writer = p.entryWriter
	case TopicTradeClosed:
		writer = p.closedWriter
	default:
		writer = p.reportWriter
	}

	err = writer.WriteMessages(ctx, kafka.Message{
		Key:   key,
		Value: payload,
	})
	if err != nil {
		logger.Errorf("kafka produce to %s failed: %v", topic, err)
	}
	return err
}

func (p *kafkaProducer) Close() {
	_ = p.entryWriter.Close()
	_ = p.closedWriter.Close()
	_ = p.reportWriter.Close()
}

// NoopProducer 未启用kafka时的空实现
type NoopProducer struct{}

func (NoopProducer) Produce(ctx context.Context, topic string, key []byte, msg interface{}) error {
	return nil
}

func (NoopProducer) Close() {}
