package kafka

import (
	"strings"
	"sync"
	"time"

	"github.com/Shopify/sarama"

	"transtelco-billing/common/log"
)

type Config struct {
	/* 已定价话单推送配置 */
	RatedCDRProducer *ProducerConfig

	/* 发票汇总推送配置 */
	SummaryProducer *ProducerConfig
}

type ProducerConfig struct {
	Enable     bool
	Topic      string
	Broker     string
	Frequency  int // flush period, milliseconds
	MaxMessage int
}

type Producer struct {
	producer sarama.AsyncProducer

	topic     string
	msgQ      chan *sarama.ProducerMessage
	wg        sync.WaitGroup
	closeChan chan struct{}
}

// NewProducer 构造KafkaProducer
func NewProducer(cfg *ProducerConfig) (*Producer, error) {

	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.NoResponse       // Only wait for the leader to ack
	config.Producer.Compression = sarama.CompressionSnappy // Compress messages
	config.Producer.Flush.Frequency = time.Duration(cfg.Frequency) * time.Millisecond
	config.Producer.Partitioner = sarama.NewRandomPartitioner

	p, err := sarama.NewAsyncProducer(strings.Split(cfg.Broker, ","), config)
	if err != nil {
		return nil, err
	}
	ret := &Producer{
		producer:  p,
		topic:     cfg.Topic,
		msgQ:      make(chan *sarama.ProducerMessage, cfg.MaxMessage),
		closeChan: make(chan struct{}),
	}

	return ret, nil
}

func (p *Producer) Run() {
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

	LOOP:
		for {
			select {
			case m := <-p.msgQ:
				p.producer.Input() <- m
			case err := <-p.producer.Errors():
				if err != nil && err.Msg != nil {
					log.Errorf("[producer] err=[%s] topic=[%s] key=[%s]", err.Error(), err.Msg.Topic, err.Msg.Key)
				}
			case <-p.closeChan:
				break LOOP
			}
		}
	}()
}

func (p *Producer) Close() error {
	close(p.closeChan)
	p.wg.Wait()

	// drain whatever queued up before the close
	for hasTask := true; hasTask; {
		select {
		case m := <-p.msgQ:
			p.producer.Input() <- m
		default:
			hasTask = false
		}
	}

	return p.producer.Close()
}

// Log enqueues one message; full queues drop instead of blocking the
// billing loop.
func (p *Producer) Log(key, value string) {
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.StringEncoder(value),
	}

	select {
	case p.msgQ <- msg:
		return
	default:
		log.Debugf("[producer] err=[msgQ is full] key=[%s]", key)
	}
}
