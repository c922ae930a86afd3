package notify

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Config defines the connection parameters for the Paho MQTT notifier.
type Config struct {
	Broker        string          `json:"broker"`
	ClientID      string          `json:"client_id"`
	Username      string          `json:"username"`
	Password      string          `json:"password"`
	TopicPrefix   string          `json:"topic_prefix"`
	ResponseTopic string          `json:"response_topic"`
	UseTLS        bool            `json:"use_tls"`
	ClientCert    string          `json:"client_cert"`
	ClientKey     string          `json:"client_key"`
	CABundle      string          `json:"ca_bundle"`
	QoS           map[string]byte `json:"qos"`
	MaxRetries    int             `json:"max_retries"`
	BackoffMS     int             `json:"backoff_ms"`
	TLSConfig     *tls.Config     `json:"-"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "o2v-routing"
	}
	if c.TopicPrefix == "" {
		c.TopicPrefix = "fulfillment"
	}
	if c.ResponseTopic == "" {
		c.ResponseTopic = c.TopicPrefix + "/vendor/+/response"
	}
}

// LoadTLSConfig builds the TLS configuration from the certificate paths.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
