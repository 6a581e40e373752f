// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package registry

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "mapset_registry"

// Collector is a prometheus.Collector reporting the state of one
// Registry. Register it with a prometheus.Registerer to expose the
// registry's unit counts, handle counts and cache behaviour.
type Collector struct {
	registry *Registry

	units           *prometheus.Desc
	openHandles     *prometheus.Desc
	cachedValues    *prometheus.Desc
	registrations   *prometheus.Desc
	deregistrations *prometheus.Desc
	cacheRequests   *prometheus.Desc
	events          *prometheus.Desc
}

// NewMetricsCollector returns a new Collector reading from r.
func NewMetricsCollector(r *Registry) *Collector {
	return &Collector{
		registry: r,
		units: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "units"),
			"The number of unit registrations present, by status.",
			[]string{"status"}, nil,
		),
		openHandles: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "open_handles"),
			"The number of handles currently checked out.",
			nil, nil,
		),
		cachedValues: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "cached_values"),
			"The number of released values kept open in the cache.",
			nil, nil,
		),
		registrations: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "registrations_total"),
			"Registration attempts, by result.",
			[]string{"result"}, nil,
		),
		deregistrations: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "deregistrations_total"),
			"Deregistrations, by whether they completed or were deferred.",
			[]string{"outcome"}, nil,
		),
		cacheRequests: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "cache_requests_total"),
			"Value lookups against the cache, by hit or miss.",
			[]string{"result"}, nil,
		),
		events: prometheus.NewDesc(
			prometheus.BuildFQName(metricsNamespace, "", "events_total"),
			"Lifecycle events delivered to observers, by kind.",
			[]string{"kind"}, nil,
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.units
	ch <- c.openHandles
	ch <- c.cachedValues
	ch <- c.registrations
	ch <- c.deregistrations
	ch <- c.cacheRequests
	ch <- c.events
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.registry.metricsSnapshot()
	for _, status := range []Status{StatusRegistered, StatusMarkedToDeregister} {
		ch <- prometheus.MustNewConstMetric(
			c.units, prometheus.GaugeValue,
			float64(snap.unitsByStatus[status]), status.String(),
		)
	}
	ch <- prometheus.MustNewConstMetric(
		c.openHandles, prometheus.GaugeValue, float64(snap.openHandles),
	)
	ch <- prometheus.MustNewConstMetric(
		c.cachedValues, prometheus.GaugeValue, float64(snap.cachedValues),
	)
	for res := 0; res < numResults; res++ {
		ch <- prometheus.MustNewConstMetric(
			c.registrations, prometheus.CounterValue,
			float64(atomic.LoadInt64(&c.registry.registrations[res])),
			Result(res).String(),
		)
	}
	ch <- prometheus.MustNewConstMetric(
		c.deregistrations, prometheus.CounterValue,
		float64(atomic.LoadInt64(&c.registry.deregCompleted)), "completed",
	)
	ch <- prometheus.MustNewConstMetric(
		c.deregistrations, prometheus.CounterValue,
		float64(atomic.LoadInt64(&c.registry.deregDeferred)), "deferred",
	)
	ch <- prometheus.MustNewConstMetric(
		c.cacheRequests, prometheus.CounterValue,
		float64(atomic.LoadInt64(&c.registry.cacheHits)), "hit",
	)
	ch <- prometheus.MustNewConstMetric(
		c.cacheRequests, prometheus.CounterValue,
		float64(atomic.LoadInt64(&c.registry.cacheMisses)), "miss",
	)
	for kind := 0; kind < numEventKinds; kind++ {
		ch <- prometheus.MustNewConstMetric(
			c.events, prometheus.CounterValue,
			float64(atomic.LoadInt64(&c.registry.eventCounts[kind])),
			EventKind(kind).String(),
		)
	}
}

// metricsSnapshot is the lock-consistent part of the collector's view.
type metricsSnapshot struct {
	unitsByStatus map[Status]int
	openHandles   int
	cachedValues  int
}

func (r *Registry) metricsSnapshot() metricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := metricsSnapshot{unitsByStatus: make(map[Status]int)}
	for _, infos := range r.index {
		for _, info := range infos {
			snap.unitsByStatus[info.Status()]++
			snap.openHandles += info.NumRefs()
		}
	}
	snap.cachedValues = r.cache.len()
	return snap
}
