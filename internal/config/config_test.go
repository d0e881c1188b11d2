package config

import (
	"os"
	"path/filepath"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			InstanceID:             "test",
			HTTPListen:             ":8080",
			LogLevel:               "info",
			ShutdownTimeoutSeconds: 30,
		},
		TCP: TCPConfig{
			Host: "0.0.0.0",
			Port: 2575,
		},
		Kafka: KafkaConfig{
			Brokers:               []string{"localhost:9092"},
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
		HealthcareOrganization: HealthcareOrganizationConfig{
			Code: "HOSP01",
			Name: "Hospital Central",
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
}

func TestValidate_NoBrokers(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.Brokers = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty brokers")
	}
}

func TestValidate_NoTCPPort(t *testing.T) {
	cfg := validConfig()
	cfg.TCP.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for tcp.port = 0")
	}
}

func TestValidate_NoRequestInTopic(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.Topics.RequestIn = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty request_in topic")
	}
}

func TestValidate_NoFhirTransactionsTopic(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.Topics.InboundFhirTransactions = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty inbound_fhir_transactions topic")
	}
}

func TestValidate_NoExceptionsTopic(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.Topics.Exceptions = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty exceptions topic")
	}
}

func TestValidate_ProducerBatchMaxBytesZero(t *testing.T) {
	cfg := validConfig()
	cfg.Kafka.ProducerBatchMaxBytes = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for producer_batch_max_bytes = 0")
	}
}

func TestValidate_ShutdownTimeoutZero(t *testing.T) {
	cfg := validConfig()
	cfg.Service.ShutdownTimeoutSeconds = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for shutdown_timeout_seconds = 0")
	}
}

func TestValidate_NoHealthcareOrganizationCode(t *testing.T) {
	cfg := validConfig()
	cfg.HealthcareOrganization.Code = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty healthcare_organization.code")
	}
}

func TestTCPConfig_Addr(t *testing.T) {
	tcp := TCPConfig{Host: "127.0.0.1", Port: 2575}
	if got := tcp.Addr(); got != "127.0.0.1:2575" {
		t.Errorf("Addr() = %q, want 127.0.0.1:2575", got)
	}
}

func writeMinimalYAML(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	data := `
tcp:
  host: "0.0.0.0"
  port: 2575
kafka:
  brokers:
    - "localhost:9092"
healthcare_organization:
  code: "HOSP01"
  name: "Hospital Central"
`
	if err := os.WriteFile(p, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_EnvOverrideLogLevel(t *testing.T) {
	p := writeMinimalYAML(t)
	t.Setenv("MLLP_GATEWAY_SERVICE__LOG_LEVEL", "debug")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Service.LogLevel != "debug" {
		t.Errorf("expected log_level 'debug' from env, got %q", cfg.Service.LogLevel)
	}
}

func TestLoad_EnvOverrideHealthcareOrganizationCode(t *testing.T) {
	p := writeMinimalYAML(t)
	t.Setenv("MLLP_GATEWAY_HEALTHCARE_ORGANIZATION__CODE", "HOSP02")

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HealthcareOrganization.Code != "HOSP02" {
		t.Errorf("expected code 'HOSP02' from env, got %q", cfg.HealthcareOrganization.Code)
	}
}

func TestLoad_EnvEmptyCodeFailsValidation(t *testing.T) {
	p := writeMinimalYAML(t)
	t.Setenv("MLLP_GATEWAY_HEALTHCARE_ORGANIZATION__CODE", "")

	_, err := Load(p)
	if err == nil {
		t.Fatal("expected validation error for empty healthcare_organization.code via env")
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	p := writeMinimalYAML(t)

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Kafka.Topics.RequestIn != "hl7v2.requestIn" {
		t.Errorf("expected default request_in topic, got %q", cfg.Kafka.Topics.RequestIn)
	}
	if cfg.HL7.ParserVersion != "2.5" {
		t.Errorf("expected default parser version 2.5, got %q", cfg.HL7.ParserVersion)
	}
}
