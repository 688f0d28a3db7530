package tracing

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"contrib.go.opencensus.io/exporter/aws"
	"contrib.go.opencensus.io/exporter/jaeger"
	"contrib.go.opencensus.io/exporter/prometheus"
	"contrib.go.opencensus.io/exporter/stackdriver"
	"contrib.go.opencensus.io/exporter/zipkin"
	"contrib.go.opencensus.io/integrations/ocsql"
	datadog "github.com/DataDog/opencensus-go-exporter-datadog"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"

	"github.com/callmaker24/segmentation/config"
)

type exporterInit func(cfg *config.TracingConfig) error

var traceExporters = map[string]exporterInit{
	"jaeger":      initJaegerExporter,
	"zipkin":      initZipkinExporter,
	"stackdriver": initStackdriverTraceExporter,
	"datadog":     initDatadogTraceExporter,
	"xray":        initXRayExporter,
}

var metricsExporters = map[string]exporterInit{
	"prometheus":  initPrometheusExporter,
	"stackdriver": initStackdriverMetricsExporter,
	"datadog":     initDatadogMetricsExporter,
}

// InitTracing configures sampling, the trace exporter and the metrics
// exporters. extraViews are registered alongside the HTTP and database views
// whenever a metrics exporter is configured.
func InitTracing(cfg *config.TracingConfig, extraViews ...*view.View) error {
	if !cfg.Enabled {
		return nil
	}

	trace.ApplyConfig(trace.Config{
		DefaultSampler: trace.ProbabilitySampler(cfg.SamplingProbability),
	})

	if err := initTraceExporter(cfg); err != nil {
		return err
	}

	if err := initMetricsExporters(cfg, extraViews...); err != nil {
		return err
	}

	if err := RegisterHTTPServerViews(); err != nil {
		return fmt.Errorf("failed to register HTTP server views: %w", err)
	}

	log.Printf("OpenCensus initialized with trace exporter: %s, metrics exporters: %s",
		cfg.TraceExporter, cfg.MetricsExporter)
	return nil
}

func initTraceExporter(cfg *config.TracingConfig) error {
	name := strings.TrimSpace(cfg.TraceExporter)
	if name == "" || name == "none" {
		return nil
	}

	initFn, ok := traceExporters[name]
	if !ok {
		return fmt.Errorf("unsupported trace exporter: %s", name)
	}
	return initFn(cfg)
}

func initMetricsExporters(cfg *config.TracingConfig, extraViews ...*view.View) error {
	names := parseExporterList(cfg.MetricsExporter)
	if len(names) == 0 {
		return nil
	}

	for _, name := range names {
		initFn, ok := metricsExporters[name]
		if !ok {
			return fmt.Errorf("unsupported metrics exporter: %s", name)
		}
		if err := initFn(cfg); err != nil {
			return fmt.Errorf("failed to initialize %s metrics exporter: %w", name, err)
		}
	}

	if err := view.Register(ocsql.DefaultViews...); err != nil {
		return fmt.Errorf("failed to register database views: %w", err)
	}
	if len(extraViews) > 0 {
		if err := view.Register(extraViews...); err != nil {
			return fmt.Errorf("failed to register segmentation views: %w", err)
		}
	}

	log.Printf("Initialized metrics exporters: %s", strings.Join(names, ", "))
	return nil
}

// parseExporterList splits a comma separated exporter list, dropping blanks and "none"
func parseExporterList(raw string) []string {
	var names []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" || name == "none" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// agentAddress prefers the Datadog specific address over the general agent endpoint
func agentAddress(cfg *config.TracingConfig) string {
	if cfg.DatadogAgentAddress != "" {
		return cfg.DatadogAgentAddress
	}
	return cfg.AgentEndpoint
}

func initJaegerExporter(cfg *config.TracingConfig) error {
	if cfg.JaegerEndpoint == "" {
		return fmt.Errorf("Jaeger endpoint is required for Jaeger exporter")
	}

	je, err := jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: cfg.JaegerEndpoint,
		ServiceName:       cfg.ServiceName,
		Process:           jaeger.Process{ServiceName: cfg.ServiceName},
	})
	if err != nil {
		return fmt.Errorf("failed to create Jaeger exporter: %w", err)
	}

	trace.RegisterExporter(je)
	return nil
}

func initZipkinExporter(cfg *config.TracingConfig) error {
	if cfg.ZipkinEndpoint == "" {
		return fmt.Errorf("Zipkin endpoint is required for Zipkin exporter")
	}

	trace.RegisterExporter(zipkin.NewExporter(zipkinhttp.NewReporter(cfg.ZipkinEndpoint), nil))
	return nil
}

func initStackdriverTraceExporter(cfg *config.TracingConfig) error {
	if cfg.StackdriverProjectID == "" {
		return fmt.Errorf("Stackdriver project ID is required for Stackdriver exporter")
	}

	se, err := stackdriver.NewExporter(stackdriver.Options{ProjectID: cfg.StackdriverProjectID})
	if err != nil {
		return fmt.Errorf("failed to create Stackdriver exporter: %w", err)
	}

	trace.RegisterExporter(se)
	return nil
}

func initDatadogTraceExporter(cfg *config.TracingConfig) error {
	addr := agentAddress(cfg)
	if addr == "" {
		return fmt.Errorf("Datadog agent address is required for Datadog exporter")
	}

	exporter, err := datadog.NewExporter(datadog.Options{
		Service:   cfg.ServiceName,
		TraceAddr: addr,
		StatsAddr: addr,
	})
	if err != nil {
		return fmt.Errorf("failed to create Datadog exporter: %w", err)
	}

	trace.RegisterExporter(exporter)
	return nil
}

func initXRayExporter(cfg *config.TracingConfig) error {
	if cfg.XRayRegion == "" {
		return fmt.Errorf("AWS region is required for X-Ray exporter")
	}

	exporter, err := aws.NewExporter(aws.WithRegion(cfg.XRayRegion), aws.WithVersion("latest"))
	if err != nil {
		return fmt.Errorf("failed to create AWS X-Ray exporter: %w", err)
	}

	trace.RegisterExporter(exporter)
	return nil
}

func initPrometheusExporter(cfg *config.TracingConfig) error {
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: strings.ReplaceAll(cfg.ServiceName, "-", "_"),
		OnError: func(err error) {
			log.Printf("Prometheus exporter error: %v", err)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	view.RegisterExporter(pe)

	if cfg.PrometheusPort <= 0 {
		return nil
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", pe)

		server := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.PrometheusPort),
			Handler: mux,
		}
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Prometheus metrics server stopped: %v", err)
		}
	}()
	return nil
}

func initStackdriverMetricsExporter(cfg *config.TracingConfig) error {
	if cfg.StackdriverProjectID == "" {
		return fmt.Errorf("Stackdriver project ID is required for Stackdriver metrics exporter")
	}

	se, err := stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    cfg.StackdriverProjectID,
		MetricPrefix: cfg.ServiceName,
		OnError: func(err error) {
			log.Printf("Stackdriver metrics exporter error: %v", err)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create Stackdriver metrics exporter: %w", err)
	}

	view.RegisterExporter(se)
	return nil
}

func initDatadogMetricsExporter(cfg *config.TracingConfig) error {
	addr := agentAddress(cfg)
	if addr == "" {
		return fmt.Errorf("Datadog agent address is required for Datadog metrics exporter")
	}

	options := datadog.Options{
		Service:   cfg.ServiceName,
		TraceAddr: addr,
		StatsAddr: addr,
		OnError: func(err error) {
			log.Printf("Datadog metrics exporter error: %v", err)
		},
	}
	if cfg.DatadogAPIKey != "" {
		options.GlobalTags = map[string]interface{}{"api_key": cfg.DatadogAPIKey}
	}

	exporter, err := datadog.NewExporter(options)
	if err != nil {
		return fmt.Errorf("failed to create Datadog metrics exporter: %w", err)
	}

	view.RegisterExporter(exporter)
	return nil
}

// RegisterHTTPServerViews registers the ochttp server views
func RegisterHTTPServerViews() error {
	return view.Register(
		ochttp.ServerRequestCountView,
		ochttp.ServerLatencyView,
		ochttp.ServerRequestCountByMethod,
		ochttp.ServerResponseCountByStatusCode,
	)
}
