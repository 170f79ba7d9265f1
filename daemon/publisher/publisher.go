// Package publisher is the optional remote-publishing collaborator:
// it tees samples, alerts, a periodic heartbeat and a static
// inventory snapshot onto a NATS message bus, and answers two
// request/reply subjects for a remote operator. None of this touches
// the ring-buffer store's write path; the pipeline only hands it
// copies.
package publisher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/nats-io/nats.go"

	"github.com/ecmoce/sysops-agent/daemon/bus"
	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/logger"
	"github.com/ecmoce/sysops-agent/daemon/storage"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

// metricRecord is one entry in a batched ".metrics" publication.
type metricRecord struct {
	Name   string        `json:"name"`
	Value  float64       `json:"value"`
	Labels []types.Label `json:"labels,omitempty"`
}

// heartbeat is the periodic liveness record published on ".heartbeat".
type heartbeat struct {
	Version string  `json:"version"`
	Uptime  float64 `json:"uptime_secs"`
	OS      string  `json:"os"`
	Arch    string  `json:"arch"`
}

// inventory is the static hardware/software snapshot published on
// ".inventory", re-published only when its content hash changes.
type inventory struct {
	Hostname  string `json:"hostname"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	NumCPU    int    `json:"num_cpu"`
	OSRelease string `json:"os_release,omitempty"`
	CPUModel  string `json:"cpu_model,omitempty"`
}

// Publisher is safe to share across the pipeline's tasks: its
// connection settings are fixed at construction, the metric batch and
// last inventory hash are guarded by mu, and the NATS connection is
// itself concurrency-safe.
type Publisher struct {
	conn          *nats.Conn
	subjectPrefix string
	hostname      string
	version       string
	compress      bool
	encoder       *zstd.Encoder

	startedAt time.Time

	mu            sync.Mutex
	metricBatch   []metricRecord
	lastInventory string
}

// Connect dials the configured NATS server and returns a Publisher.
// Returns (nil, nil) when disabled, matching the "missing optional
// subsystems degrade silently" posture from §7.
func Connect(cfg config.NatsConfig, hostname, version string) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	conn, err := nats.Connect(cfg.URL,
		nats.Name("sysops-agent"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("publisher: connect to nats at %s: %w", cfg.URL, err)
	}

	var encoder *zstd.Encoder
	if cfg.Compress {
		encoder, err = zstd.NewWriter(nil)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("publisher: init zstd encoder: %w", err)
		}
	}

	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = "sysops"
	}

	return &Publisher{
		conn:          conn,
		subjectPrefix: prefix,
		hostname:      hostname,
		version:       version,
		compress:      cfg.Compress,
		encoder:       encoder,
		startedAt:     time.Now(),
	}, nil
}

// Close flushes and closes the underlying NATS connection.
func (p *Publisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	p.conn.Close()
}

func (p *Publisher) subject(kind string) string {
	return fmt.Sprintf("%s.%s.%s", p.subjectPrefix, p.hostname, kind)
}

// TeeSample buffers a sample for the next batched ".metrics" flush.
func (p *Publisher) TeeSample(sample types.MetricSample) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metricBatch = append(p.metricBatch, metricRecord{
		Name: sample.Metric.String(), Value: sample.Value, Labels: sample.Labels,
	})
}

// FlushMetrics publishes and clears the buffered metric batch. Called
// on a fixed interval (default 30s) by the pipeline runtime.
func (p *Publisher) FlushMetrics() {
	if p == nil {
		return
	}
	p.mu.Lock()
	batch := p.metricBatch
	p.metricBatch = nil
	p.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	p.publish("metrics", batch)
}

// PublishAlert publishes one alert immediately.
func (p *Publisher) PublishAlert(alert types.Alert) {
	if p == nil {
		return
	}
	p.publish("alerts", alert)
}

// PublishHeartbeat publishes a liveness record.
func (p *Publisher) PublishHeartbeat() {
	if p == nil {
		return
	}
	p.publish("heartbeat", heartbeat{
		Version: p.version,
		Uptime:  time.Since(p.startedAt).Seconds(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	})
}

// PublishInventory gathers a static hardware/software snapshot and
// publishes it only if its content differs from the last publication,
// mirroring the host's hash-gated config-change-detection idiom.
func (p *Publisher) PublishInventory() {
	if p == nil {
		return
	}
	inv := gatherInventory(p.hostname)
	data, err := json.Marshal(inv)
	if err != nil {
		logger.Component("publisher").Warn().Err(err).Msg("failed to marshal inventory")
		return
	}

	sum := fmt.Sprintf("%x", sha256.Sum256(data))

	p.mu.Lock()
	unchanged := sum == p.lastInventory
	p.lastInventory = sum
	p.mu.Unlock()

	if unchanged {
		return
	}
	p.publish("inventory", inv)
}

func (p *Publisher) publish(kind string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Component("publisher").Warn().Err(err).Str("kind", kind).Msg("failed to marshal payload")
		return
	}

	if p.compress && p.encoder != nil {
		data = p.encoder.EncodeAll(data, make([]byte, 0, len(data)))
	}

	if err := p.conn.Publish(p.subject(kind), data); err != nil {
		logger.Component("publisher").Warn().Err(err).Str("kind", kind).Msg("failed to publish")
	}
}

func gatherInventory(hostname string) inventory {
	inv := inventory{
		Hostname: hostname,
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		NumCPU:   runtime.NumCPU(),
	}
	if data, err := os.ReadFile("/etc/os-release"); err == nil {
		inv.OSRelease = string(bytes.TrimSpace(data))
	}
	if data, err := os.ReadFile("/proc/cpuinfo"); err == nil {
		inv.CPUModel = firstModelName(data)
	}
	return inv
}

func firstModelName(cpuinfo []byte) string {
	for _, line := range bytes.Split(cpuinfo, []byte("\n")) {
		if bytes.HasPrefix(line, []byte("model name")) {
			parts := bytes.SplitN(line, []byte(":"), 2)
			if len(parts) == 2 {
				return string(bytes.TrimSpace(parts[1]))
			}
		}
	}
	return ""
}

// RegisterHandlers subscribes the ".snapshot" and ".exec" reply
// handlers, active only when the configuration opted in.
func (p *Publisher) RegisterHandlers(ctx context.Context, cfg config.NatsConfig, store *storage.Store) error {
	if p == nil || !cfg.ExposeHandlers {
		return nil
	}

	if _, err := p.conn.Subscribe(p.subject("snapshot"), func(msg *nats.Msg) {
		snapshot := store.Snapshot()
		data, err := json.Marshal(snapshot)
		if err != nil {
			logger.Component("publisher").Warn().Err(err).Msg("failed to marshal snapshot reply")
			return
		}
		if err := msg.Respond(data); err != nil {
			logger.Component("publisher").Warn().Err(err).Msg("failed to send snapshot reply")
		}
	}); err != nil {
		return fmt.Errorf("publisher: subscribe snapshot handler: %w", err)
	}

	if _, err := p.conn.Subscribe(p.subject("exec"), func(msg *nats.Msg) {
		var req bus.ExecRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			logger.Component("publisher").Warn().Err(err).Msg("malformed exec request")
			return
		}
		resp := bus.Exec(ctx, req)
		data, err := json.Marshal(resp)
		if err != nil {
			logger.Component("publisher").Warn().Err(err).Msg("failed to marshal exec reply")
			return
		}
		if err := msg.Respond(data); err != nil {
			logger.Component("publisher").Warn().Err(err).Msg("failed to send exec reply")
		}
	}); err != nil {
		return fmt.Errorf("publisher: subscribe exec handler: %w", err)
	}

	return nil
}
