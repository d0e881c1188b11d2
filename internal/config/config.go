// Package config loads and validates the gateway's configuration, layering
// a YAML file with environment-variable overrides the same way
// internal/config does in the teacher.
package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/twmb/franz-go/pkg/sasl"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

type Config struct {
	Service                ServiceConfig                `koanf:"service"`
	TCP                    TCPConfig                    `koanf:"tcp"`
	Kafka                  KafkaConfig                  `koanf:"kafka"`
	HL7                    HL7Config                    `koanf:"hl7"`
	HealthcareOrganization HealthcareOrganizationConfig `koanf:"healthcare_organization"`
}

type ServiceConfig struct {
	InstanceID             string `koanf:"instance_id"`
	HTTPListen             string `koanf:"http_listen"`
	LogLevel               string `koanf:"log_level"`
	ShutdownTimeoutSeconds int    `koanf:"shutdown_timeout_seconds"`
}

// TCPConfig is the MLLP listener's bind address (spec.md §6).
type TCPConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

func (t TCPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

type KafkaConfig struct {
	Brokers               []string     `koanf:"brokers"`
	ClientID              string       `koanf:"client_id"`
	TLS                   TLSConfig    `koanf:"tls"`
	SASL                  SASLConfig   `koanf:"sasl"`
	ProducerBatchMaxBytes int32        `koanf:"producer_batch_max_bytes"`
	Topics                TopicsConfig `koanf:"topics"`
}

// TopicsConfig names the three egress topics (spec.md §6's
// "Kafka egress topics" configuration keys).
type TopicsConfig struct {
	RequestIn               string `koanf:"request_in"`
	InboundFhirTransactions string `koanf:"inbound_fhir_transactions"`
	Exceptions              string `koanf:"exceptions"`
}

type TLSConfig struct {
	Enabled  bool   `koanf:"enabled"`
	CAFile   string `koanf:"ca_file"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
}

type SASLConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Mechanism string `koanf:"mechanism"`
	Username  string `koanf:"username"`
	Password  string `koanf:"password"`
}

// HL7Config carries the parser version tag spec.md §6 lists as a
// configuration key (`hl7.parser.version`). It is loaded and defaulted but
// not read anywhere else: neither the parser, the logs nor the readiness
// body use it.
type HL7Config struct {
	ParserVersion string `koanf:"parser_version"`
}

// HealthcareOrganizationConfig names the facility this gateway instance
// registers patients on behalf of (spec.md §4.3's "managing organization",
// spec.md §6's healthcareOrganization.code/.name keys).
type HealthcareOrganizationConfig struct {
	Code string `koanf:"code"`
	Name string `koanf:"name"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load YAML file first.
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	// Overlay environment variables: MLLP_GATEWAY_KAFKA__BROKERS → kafka.brokers
	if err := k.Load(env.Provider("MLLP_GATEWAY_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "MLLP_GATEWAY_")
		s = strings.ToLower(s)
		s = strings.ReplaceAll(s, "__", ".")
		return s
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env config: %w", err)
	}

	cfg := &Config{
		Service: ServiceConfig{
			InstanceID:             "mllp-gateway-1",
			HTTPListen:             ":8080",
			LogLevel:               "info",
			ShutdownTimeoutSeconds: 30,
		},
		TCP: TCPConfig{
			Host: "0.0.0.0",
			Port: 2575,
		},
		Kafka: KafkaConfig{
			ClientID:              "mllp-gateway",
			ProducerBatchMaxBytes: 1000000,
			Topics: TopicsConfig{
				RequestIn:               "hl7v2.requestIn",
				InboundFhirTransactions: "hl7v2.inboundFhirTransactions",
				Exceptions:              "hl7v2.inboundFhirTransactions.exceptions",
			},
		},
		HL7: HL7Config{
			ParserVersion: "2.5",
		},
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Split comma-separated env strings for slice fields.
	if len(cfg.Kafka.Brokers) == 1 && strings.Contains(cfg.Kafka.Brokers[0], ",") {
		cfg.Kafka.Brokers = strings.Split(cfg.Kafka.Brokers[0], ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers is required")
	}
	if c.TCP.Port <= 0 {
		return fmt.Errorf("config: tcp.port must be > 0 (got %d)", c.TCP.Port)
	}
	if c.Kafka.Topics.RequestIn == "" {
		return fmt.Errorf("config: kafka.topics.request_in is required")
	}
	if c.Kafka.Topics.InboundFhirTransactions == "" {
		return fmt.Errorf("config: kafka.topics.inbound_fhir_transactions is required")
	}
	if c.Kafka.Topics.Exceptions == "" {
		return fmt.Errorf("config: kafka.topics.exceptions is required")
	}
	if c.Kafka.ProducerBatchMaxBytes <= 0 {
		return fmt.Errorf("config: kafka.producer_batch_max_bytes must be > 0 (got %d)", c.Kafka.ProducerBatchMaxBytes)
	}
	if c.Service.ShutdownTimeoutSeconds <= 0 {
		return fmt.Errorf("config: service.shutdown_timeout_seconds must be > 0 (got %d)", c.Service.ShutdownTimeoutSeconds)
	}
	if c.HealthcareOrganization.Code == "" {
		return fmt.Errorf("config: healthcare_organization.code is required")
	}
	return nil
}

// BuildTLSConfig creates a *tls.Config from the Kafka TLS settings. Returns nil if TLS is disabled.
func (k *KafkaConfig) BuildTLSConfig() (*tls.Config, error) {
	if !k.TLS.Enabled {
		return nil, nil
	}
	tlsCfg := &tls.Config{}
	if k.TLS.CAFile != "" {
		caPEM, err := os.ReadFile(k.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("reading CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("failed to parse CA certificate")
		}
		tlsCfg.RootCAs = pool
	}
	if k.TLS.CertFile != "" && k.TLS.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(k.TLS.CertFile, k.TLS.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("loading client certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

// BuildSASLMechanism creates a SASL mechanism from the Kafka SASL settings. Returns nil if SASL is disabled.
func (k *KafkaConfig) BuildSASLMechanism() sasl.Mechanism {
	if !k.SASL.Enabled {
		return nil
	}
	switch strings.ToUpper(k.SASL.Mechanism) {
	case "PLAIN":
		return plain.Auth{User: k.SASL.Username, Pass: k.SASL.Password}.AsMechanism()
	default:
		return nil
	}
}
