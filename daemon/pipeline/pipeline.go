// Package pipeline wires the store, collectors, analyzers, alert
// manager and channels together and owns the long-lived tasks that
// move samples and alerts between them. Every other package in this
// repository is a passive object invoked by the runtime defined here.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/ecmoce/sysops-agent/daemon/alertmanager"
	"github.com/ecmoce/sysops-agent/daemon/analyzer"
	"github.com/ecmoce/sysops-agent/daemon/channel"
	"github.com/ecmoce/sysops-agent/daemon/collector"
	"github.com/ecmoce/sysops-agent/daemon/config"
	"github.com/ecmoce/sysops-agent/daemon/logger"
	"github.com/ecmoce/sysops-agent/daemon/logscan"
	"github.com/ecmoce/sysops-agent/daemon/metrics"
	"github.com/ecmoce/sysops-agent/daemon/publisher"
	"github.com/ecmoce/sysops-agent/daemon/storage"
	"github.com/ecmoce/sysops-agent/daemon/types"
)

// samplesQueueCapacity and alertsQueueCapacity are the two bounded
// queues §4.6 names explicitly.
const (
	samplesQueueCapacity = 10000
	alertsQueueCapacity  = 1000

	analyzerTickInterval = 10 * time.Second
	logscanTickInterval  = 5 * time.Second
	metricsFlushInterval = 30 * time.Second
	heartbeatInterval    = 60 * time.Second
	inventoryInterval    = 5 * time.Minute
)

// Pipeline owns the store and the two bounded queues shared by every
// long-lived task.
type Pipeline struct {
	store      *storage.Store
	collectors []collector.Collector
	analyzers  []analyzer.Analyzer
	manager    *alertmanager.Manager
	scanner    *logscan.Scanner
	pub        *publisher.Publisher
	natsCfg    config.NatsConfig
	metricsSrv *metrics.Server

	samples chan types.MetricSample
	alerts  chan types.Alert

	wg sync.WaitGroup
}

// Build constructs every pipeline component from the decoded
// configuration: the store, one collector per enabled collector, one
// analyzer per configured analyzer, the alert manager, its channels,
// the optional remote publisher, and the optional metrics server.
func Build(cfg config.Config, version string) (*Pipeline, error) {
	hostname := cfg.Agent.Hostname

	store := storage.New(cfg.Storage.RingBufferSize)

	var collectors []collector.Collector
	if cfg.Collectors.CPU.Enabled {
		collectors = append(collectors, collector.NewCPUCollector(cfg.Collectors.CPU.IntervalSeconds, true))
	}
	if cfg.Collectors.Memory.Enabled {
		collectors = append(collectors, collector.NewMemoryCollector(cfg.Collectors.Memory.IntervalSeconds))
	}
	if cfg.Collectors.Disk.Enabled {
		collectors = append(collectors, collector.NewDiskCollector(
			cfg.Collectors.Disk.IntervalSeconds,
			cfg.Collectors.Disk.ExcludeFstypes,
			cfg.Collectors.Disk.ExcludeMounts,
			cfg.Collectors.Disk.StatCacheSeconds,
		))
	}
	if cfg.Collectors.Network.Enabled {
		collectors = append(collectors, collector.NewNetworkCollector(cfg.Collectors.Network.IntervalSeconds, cfg.Collectors.Network.ExcludeInterfaces))
	}
	if cfg.Collectors.Process.Enabled {
		collectors = append(collectors, collector.NewProcessCollector(cfg.Collectors.Process.IntervalSeconds, cfg.Collectors.Process.TopN))
	}
	if cfg.Collectors.FD.Enabled {
		collectors = append(collectors, collector.NewFDCollector(cfg.Collectors.FD.IntervalSeconds))
	}
	if cfg.Collectors.Kernel.Enabled {
		collectors = append(collectors, collector.NewKernelCollector(cfg.Collectors.Kernel.IntervalSeconds))
	}

	var analyzers []analyzer.Analyzer
	analyzers = append(analyzers, analyzer.NewThresholdAnalyzer(hostname, cfg.Analyzers.Threshold))
	if cfg.Analyzers.ZScore.Enabled {
		analyzers = append(analyzers, analyzer.NewZScoreAnalyzer(hostname, cfg.Analyzers.ZScore))
	}
	if cfg.Analyzers.Trend.Enabled {
		analyzers = append(analyzers, analyzer.NewTrendAnalyzer(hostname, cfg.Analyzers.Trend))
	}

	channels := channel.BuildAll(cfg.Channels)
	manager := alertmanager.New(hostname, cfg.Alerting, channels)

	var scanner *logscan.Scanner
	if cfg.Collectors.Log.Enabled {
		scanner = logscan.New(hostname, cfg.Collectors.Log)
	}

	pub, err := publisher.Connect(cfg.Nats, hostname, version)
	if err != nil {
		logger.Component("pipeline").Warn().Err(err).Msg("remote publisher unavailable, continuing without it")
		pub = nil
	}

	metricsSrv := metrics.NewServer(cfg.Prometheus)

	return &Pipeline{
		store:      store,
		collectors: collectors,
		analyzers:  analyzers,
		manager:    manager,
		scanner:    scanner,
		pub:        pub,
		natsCfg:    cfg.Nats,
		metricsSrv: metricsSrv,
		samples:    make(chan types.MetricSample, samplesQueueCapacity),
		alerts:     make(chan types.Alert, alertsQueueCapacity),
	}, nil
}

// Run spawns every long-lived task and blocks until ctx is cancelled,
// then waits for all tasks to return. Every task returns as soon as
// ctx is cancelled; the queues are not closed, and samples or alerts
// still queued at that point are not processed.
func (p *Pipeline) Run(ctx context.Context) {
	if p.pub != nil {
		if err := p.pub.RegisterHandlers(ctx, p.natsCfg, p.store); err != nil {
			logger.Component("pipeline").Warn().Err(err).Msg("failed to register message-bus handlers")
		}
		defer p.pub.Close()
	}

	if p.metricsSrv != nil {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.metricsSrv.Run(ctx)
		}()
	}

	for _, c := range p.collectors {
		p.wg.Add(1)
		go p.runCollector(ctx, c)
	}

	p.wg.Add(1)
	go p.runIngest(ctx)

	p.wg.Add(1)
	go p.runAnalyzerTicker(ctx)

	if p.scanner != nil {
		p.wg.Add(1)
		go p.runLogScanTicker(ctx)
	}

	p.wg.Add(1)
	go p.runAlertConsumer(ctx)

	if p.pub != nil {
		p.wg.Add(1)
		go p.runPublisherTickers(ctx)
	}

	p.wg.Wait()
}

// runCollector loops: Collect, push every sample (never dropping —
// the bounded queue is the back-pressure mechanism), sleep.
func (p *Pipeline) runCollector(ctx context.Context, c collector.Collector) {
	defer p.wg.Done()
	log := logger.Component("collector." + c.Name())

	ticker := time.NewTicker(time.Duration(c.IntervalSeconds()) * time.Second)
	defer ticker.Stop()

	collectOnce := func() {
		start := time.Now()
		samples, err := c.Collect(ctx)
		metrics.ObserveCollectorDuration(c.Name(), time.Since(start))
		if err != nil {
			metrics.RecordCollectorError(c.Name())
			log.Warn().Err(err).Msg("collection cycle failed")
			return
		}
		for _, s := range samples {
			select {
			case p.samples <- s:
				if p.pub != nil {
					p.pub.TeeSample(s)
				}
			case <-ctx.Done():
				return
			}
		}
	}

	collectOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collectOnce()
		}
	}
}

// runIngest pulls samples off the queue and writes them into the
// store, the sole writer path.
func (p *Pipeline) runIngest(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-p.samples:
			if !ok {
				return
			}
			p.store.Insert(s)
			metrics.SetSamplesQueueDepth(len(p.samples))
		}
	}
}

// runAnalyzerTicker invokes every analyzer at a fixed cadence and
// pushes each resulting alert onto the alerts queue.
func (p *Pipeline) runAnalyzerTicker(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(analyzerTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, a := range p.analyzers {
				for _, alert := range a.Analyze(p.store) {
					p.pushAlert(ctx, alert)
				}
			}
		}
	}
}

// runLogScanTicker is a second alert producer alongside the analyzer
// ticker; it never touches the store.
func (p *Pipeline) runLogScanTicker(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(logscanTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, alert := range p.scanner.Scan() {
				p.pushAlert(ctx, alert)
			}
		}
	}
}

func (p *Pipeline) pushAlert(ctx context.Context, alert types.Alert) {
	select {
	case p.alerts <- alert:
		metrics.SetAlertsQueueDepth(len(p.alerts))
	case <-ctx.Done():
	}
}

// runAlertConsumer pulls alerts off the queue and hands them to the
// manager's dedup/rate-limit/fan-out pipeline.
func (p *Pipeline) runAlertConsumer(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case a, ok := <-p.alerts:
			if !ok {
				return
			}
			metrics.RecordAlertDispatched(a.Severity.String())
			p.manager.Dispatch(ctx, a)
			if p.pub != nil {
				p.pub.PublishAlert(a)
			}
		}
	}
}

// runPublisherTickers flushes batched metrics, heartbeats and
// inventory snapshots to the remote publisher on their own cadences.
func (p *Pipeline) runPublisherTickers(ctx context.Context) {
	defer p.wg.Done()

	flushInterval := metricsFlushInterval
	if p.natsCfg.FlushInterval > 0 {
		flushInterval = p.natsCfg.FlushInterval
	}
	metricsTicker := time.NewTicker(flushInterval)
	heartbeatTicker := time.NewTicker(heartbeatInterval)
	inventoryTicker := time.NewTicker(inventoryInterval)
	defer metricsTicker.Stop()
	defer heartbeatTicker.Stop()
	defer inventoryTicker.Stop()

	p.pub.PublishInventory()

	for {
		select {
		case <-ctx.Done():
			return
		case <-metricsTicker.C:
			p.pub.FlushMetrics()
		case <-heartbeatTicker.C:
			p.pub.PublishHeartbeat()
		case <-inventoryTicker.C:
			p.pub.PublishInventory()
		}
	}
}

// Store returns the pipeline's ring-buffer store, for tests and the
// message-bus snapshot handler.
func (p *Pipeline) Store() *storage.Store { return p.store }
