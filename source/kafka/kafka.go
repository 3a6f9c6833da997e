package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"

	"github.com/sreekar2307/clusterhealth/config"
	"github.com/sreekar2307/clusterhealth/model"
	"github.com/sreekar2307/clusterhealth/service/errors"
	"github.com/sreekar2307/clusterhealth/util"
)

type metadataClient interface {
	Metadata(context.Context, *kafka.MetadataRequest) (*kafka.MetadataResponse, error)
}

type Source struct {
	client    metadataClient
	transport *kafka.Transport
	timeout   time.Duration
}

func NewSource(conf config.Kafka) (*Source, error) {
	transport, err := newTransport(conf)
	if err != nil {
		return nil, err
	}
	timeout := conf.MetadataTimeout
	if timeout <= 0 {
		timeout = config.DefaultMetadataTimeout
	}
	return &Source{
		client: &kafka.Client{
			Addr:      kafka.TCP(conf.BootstrapServers...),
			Timeout:   timeout,
			Transport: transport,
		},
		transport: transport,
		timeout:   timeout,
	}, nil
}

func newTransport(conf config.Kafka) (*kafka.Transport, error) {
	transport := &kafka.Transport{
		ClientID: conf.ClientID,
	}
	switch conf.SecurityProtocol {
	case config.ProtocolPlaintext, "":
	case config.ProtocolSSL:
		transport.TLS = tlsConfig(conf.TLS)
	case config.ProtocolSASLPlaintext, config.ProtocolSASLSSL:
		mechanism, err := saslMechanism(conf.SASL)
		if err != nil {
			return nil, err
		}
		transport.SASL = mechanism
		if conf.SecurityProtocol == config.ProtocolSASLSSL {
			transport.TLS = tlsConfig(conf.TLS)
		}
	default:
		return nil, fmt.Errorf("%w: unknown security protocol %q", errors.ErrInvalidConfiguration, conf.SecurityProtocol)
	}
	return transport, nil
}

func tlsConfig(conf config.TLS) *tls.Config {
	return &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: conf.InsecureSkipVerify, //nolint:gosec // opt-in for self-signed test clusters
	}
}

func saslMechanism(conf config.SASL) (sasl.Mechanism, error) {
	if conf.Username == "" || conf.Password == "" {
		return nil, fmt.Errorf("%w: username should be given together with password", errors.ErrInvalidConfiguration)
	}
	switch strings.ToUpper(conf.Mechanism) {
	case config.MechanismPlain, "":
		return plain.Mechanism{Username: conf.Username, Password: conf.Password}, nil
	case config.MechanismScramSHA256:
		return newScram(scram.SHA256, conf)
	case config.MechanismScramSHA512:
		return newScram(scram.SHA512, conf)
	}
	return nil, fmt.Errorf("%w: unknown sasl mechanism %q", errors.ErrInvalidConfiguration, conf.Mechanism)
}

func newScram(algo scram.Algorithm, conf config.SASL) (sasl.Mechanism, error) {
	mechanism, err := scram.Mechanism(algo, conf.Username, conf.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: scram mechanism: %w", errors.ErrInvalidConfiguration, err)
	}
	return mechanism, nil
}

// Snapshot requests metadata for every topic in the cluster, bounded by the
// configured metadata timeout. Topic and partition level errors are not
// failures: a partition without a leader still carries its replica sets.
func (s *Source) Snapshot(pCtx context.Context) (*model.ClusterSnapshot, error) {
	ctx, cancel := context.WithTimeout(pCtx, s.timeout)
	defer cancel()
	resp, err := s.client.Metadata(ctx, &kafka.MetadataRequest{})
	if err != nil {
		return nil, fmt.Errorf("%w: fetch metadata: %w", errors.ErrSnapshotUnavailable, err)
	}
	return snapshotFromMetadata(resp), nil
}

func snapshotFromMetadata(resp *kafka.MetadataResponse) *model.ClusterSnapshot {
	snapshot := &model.ClusterSnapshot{
		Brokers: util.Map(resp.Brokers, func(b kafka.Broker) model.Broker {
			return model.Broker{ID: b.ID, Host: b.Host, Port: b.Port, Rack: b.Rack}
		}),
		Topics: make([]model.Topic, 0, len(resp.Topics)),
	}
	for _, t := range resp.Topics {
		topic := model.Topic{
			Name:       t.Name,
			Partitions: make([]model.Partition, 0, len(t.Partitions)),
		}
		for _, p := range t.Partitions {
			topic.Partitions = append(topic.Partitions, model.Partition{
				Topic:    t.Name,
				ID:       p.ID,
				Leader:   p.Leader.ID,
				Replicas: util.Map(p.Replicas, brokerID),
				ISR:      util.Map(p.Isr, brokerID),
			})
		}
		snapshot.Topics = append(snapshot.Topics, topic)
	}
	return snapshot
}

func brokerID(b kafka.Broker) int {
	return b.ID
}

func (s *Source) Close(_ context.Context) error {
	s.transport.CloseIdleConnections()
	return nil
}
