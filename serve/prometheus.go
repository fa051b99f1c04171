// Copyright © 2021-2023 The Gomon Project.

package serve

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/zosmac/gocore"
	"github.com/zosmac/psmon/report"
	"gopkg.in/yaml.v3"
)

type (
	// prometheusCollector complies with the Prometheus Collector interface.
	prometheusCollector struct {
		*server
		sync.Mutex
		last    time.Time
		metrics []prometheus.Metric
	}

	// prometheusJson defines the prometheus configuration query response envelope.
	prometheusJson struct {
		Status string `json:"status"`
		Data   struct {
			Yaml string `json:"yaml"` // []byte type unmarshals as base-64 :(
		} `json:"data"`
	}

	// prometheusYaml defines the prometheus configuration query response content.
	prometheusYaml struct {
		Global struct {
			ScrapeInterval string `yaml:"scrape_interval"`
		} `yaml:"global"`
		ScrapeConfigs []struct {
			Jobname        string `yaml:"job_name"`
			ScrapeInterval string `yaml:"scrape_interval"`
		} `yaml:"scrape_configs"`
	}
)

var (
	// prometheusConfigURL is the REST query to retrieve the Prometheus configuration.
	prometheusConfigURL = "http://localhost:9090/api/v1/status/config"

	systemMemory = prometheus.NewDesc(
		"psmon_system_memory_bytes",
		"System memory by type and measure; used is total less available and may be negative.",
		[]string{"type", "measure"},
		nil,
	)
	systemCPU = prometheus.NewDesc(
		"psmon_system_cpu_seconds_total",
		"System cumulative cpu time by mode.",
		[]string{"mode"},
		nil,
	)
	systemCPUs = prometheus.NewDesc(
		"psmon_system_cpus",
		"Count of logical cpus.",
		nil,
		nil,
	)
	systemProcesses = prometheus.NewDesc(
		"psmon_system_processes",
		"Count of processes on the system.",
		nil,
		nil,
	)
	processResident = prometheus.NewDesc(
		"psmon_process_resident_memory_bytes",
		"Resident memory size of a process.",
		[]string{"pid", "name"},
		nil,
	)
	processVirtual = prometheus.NewDesc(
		"psmon_process_virtual_memory_bytes",
		"Virtual memory size of a process.",
		[]string{"pid", "name"},
		nil,
	)
	processCPU = prometheus.NewDesc(
		"psmon_process_cpu_seconds_total",
		"Cumulative cpu time of a process by mode.",
		[]string{"pid", "name", "mode"},
		nil,
	)
	processStart = prometheus.NewDesc(
		"psmon_process_start_time_seconds",
		"Start time of a process since the epoch.",
		[]string{"pid", "name"},
		nil,
	)
	processOpenFiles = prometheus.NewDesc(
		"psmon_process_open_files",
		"Count of regular files a process holds open.",
		[]string{"pid", "name"},
		nil,
	)
	processConnections = prometheus.NewDesc(
		"psmon_process_connections",
		"Count of internet sockets a process holds open.",
		[]string{"pid", "name"},
		nil,
	)
	serverRequests = prometheus.NewDesc(
		"psmon_server_http_requests_total",
		"Count of report requests served.",
		nil,
		nil,
	)
	serverCollections = prometheus.NewDesc(
		"psmon_server_collections_total",
		"Count of Prometheus collections that measured the system.",
		nil,
		nil,
	)
	serverCollectionTime = prometheus.NewDesc(
		"psmon_server_collection_seconds_total",
		"Cumulative time spent measuring for Prometheus collections.",
		nil,
		nil,
	)
)

// Describe returns metric descriptions for prometheusCollector.
func (c *prometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, desc := range []*prometheus.Desc{
		systemMemory,
		systemCPU,
		systemCPUs,
		systemProcesses,
		processResident,
		processVirtual,
		processCPU,
		processStart,
		processOpenFiles,
		processConnections,
		serverRequests,
		serverCollections,
		serverCollectionTime,
	} {
		ch <- desc
	}
}

// Collect returns the current state of all metrics to Prometheus. The system is measured
// at most once per sample interval; collections within the interval repeat the last one.
func (c *prometheusCollector) Collect(ch chan<- prometheus.Metric) {
	c.Lock()
	defer c.Unlock()

	if c.metrics == nil || time.Since(c.last) >= time.Duration(flags.sample) {
		start := time.Now()
		r, err := report.Gather(context.Background(), c.provider, c.pids, c.newAdapter)
		if err != nil {
			gocore.Error("prometheus collect", err).Err()
		} else {
			c.last = start
			c.metrics = prometheusMetrics(r)
			c.measures.collected(time.Since(start))
			gocore.Error("collect", nil, map[string]string{
				"count": strconv.Itoa(len(c.metrics)),
				"time":  time.Since(start).String(),
			}).Info()
		}
	}

	for _, m := range c.metrics {
		ch <- m
	}
	ch <- prometheus.MustNewConstMetric(serverRequests, prometheus.CounterValue, float64(c.measures.httpRequests.Load()))
	ch <- prometheus.MustNewConstMetric(serverCollections, prometheus.CounterValue, float64(c.measures.collections.Load()))
	ch <- prometheus.MustNewConstMetric(serverCollectionTime, prometheus.CounterValue, float64(c.measures.collectionTime.Load())/1e9)
}

// prometheusMetrics converts a report to Prometheus metrics.
func prometheusMetrics(r *report.Report) []prometheus.Metric {
	gauge := func(desc *prometheus.Desc, v float64, labels ...string) prometheus.Metric {
		return prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, labels...)
	}
	counter := func(desc *prometheus.Desc, v float64, labels ...string) prometheus.Metric {
		return prometheus.MustNewConstMetric(desc, prometheus.CounterValue, v, labels...)
	}

	ms := []prometheus.Metric{
		gauge(systemMemory, float64(r.Memory.TotalPhysical), "physical", "total"),
		gauge(systemMemory, float64(r.Memory.AvailablePhysical), "physical", "available"),
		gauge(systemMemory, float64(r.Memory.UsedPhysical), "physical", "used"),
		gauge(systemMemory, float64(r.Memory.TotalVirtual), "virtual", "total"),
		gauge(systemMemory, float64(r.Memory.AvailableVirtual), "virtual", "available"),
		gauge(systemMemory, float64(r.Memory.UsedVirtual), "virtual", "used"),
		counter(systemCPU, r.CPU.User, "user"),
		counter(systemCPU, r.CPU.Nice, "nice"),
		counter(systemCPU, r.CPU.System, "system"),
		counter(systemCPU, r.CPU.Idle, "idle"),
		gauge(systemCPUs, float64(r.CPUs)),
		gauge(systemProcesses, float64(r.ProcessCount)),
	}

	for _, e := range r.Processes {
		if e.Record == nil {
			continue // vanished
		}
		pid, name := e.Pid.String(), e.Record.Name
		if e.Memory != nil {
			ms = append(ms,
				gauge(processResident, float64(e.Memory.Resident), pid, name),
				gauge(processVirtual, float64(e.Memory.Virtual), pid, name),
			)
		}
		if e.Times != nil {
			ms = append(ms,
				counter(processCPU, e.Times.User, pid, name, "user"),
				counter(processCPU, e.Times.System, pid, name, "system"),
			)
		}
		if e.CreateTime > 0 {
			ms = append(ms, gauge(processStart, e.CreateTime, pid, name))
		}
		ms = append(ms,
			gauge(processOpenFiles, float64(len(e.OpenFiles)), pid, name),
			gauge(processConnections, float64(len(e.Connections)), pid, name),
		)
	}

	return ms
}

// scrapeInterval asks Prometheus for the scrape interval it will query psmon for metrics.
func scrapeInterval(url string) (time.Duration, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, gocore.Error("prometheus query", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return 0, gocore.Error("prometheus query", err)
	}

	jsn := prometheusJson{}
	if err := json.Unmarshal(body, &jsn); err != nil || jsn.Status != "success" {
		return 0, gocore.Error("prometheus query "+jsn.Status, err)
	}

	yml := prometheusYaml{}
	if err := yaml.Unmarshal([]byte(jsn.Data.Yaml), &yml); err != nil {
		return 0, gocore.Error("prometheus yaml", err)
	}

	for _, config := range yml.ScrapeConfigs {
		if config.Jobname == "psmon" && config.ScrapeInterval != "" {
			return time.ParseDuration(config.ScrapeInterval)
		}
	}

	return time.ParseDuration(yml.Global.ScrapeInterval)
}
