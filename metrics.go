// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsSubsystem = "srtp"

// Collector exports the counters of a Session as Prometheus metrics. It
// reads snapshots on every scrape and never blocks packet processing
// beyond the read lock of the stream table.
type Collector struct {
	session *Session

	packets  *prometheus.Desc
	octets   *prometheus.Desc
	rollover *prometheus.Desc
	failures *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a Collector for session. Register it with a
// prometheus.Registerer to expose it.
func NewCollector(session *Session, namespace string) *Collector {
	streamLabels := []string{"ssrc", "direction", "proto"}

	return &Collector{
		session: session,
		packets: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, metricsSubsystem, "packets_total"),
			"Packets protected or verified per stream.",
			streamLabels, nil,
		),
		octets: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, metricsSubsystem, "octets_total"),
			"Plaintext octets protected or verified per stream.",
			streamLabels, nil,
		),
		rollover: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, metricsSubsystem, "rollover_counter"),
			"Current rollover counter per stream.",
			[]string{"ssrc", "direction"}, nil,
		),
		failures: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, metricsSubsystem, "errors_total"),
			"Packets rejected per status.",
			[]string{"status"}, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.packets
	ch <- c.octets
	ch <- c.rollover
	ch <- c.failures
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, st := range c.session.Streams() {
		if st.Direction.Wildcard() {
			continue
		}

		ssrc := strconv.FormatUint(uint64(st.SSRC), 10)
		direction := st.Direction.String()

		ch <- prometheus.MustNewConstMetric(c.packets, prometheus.CounterValue, float64(st.RTPPackets), ssrc, direction, "rtp")
		ch <- prometheus.MustNewConstMetric(c.packets, prometheus.CounterValue, float64(st.RTCPPackets), ssrc, direction, "rtcp")
		ch <- prometheus.MustNewConstMetric(c.octets, prometheus.CounterValue, float64(st.RTPOctets), ssrc, direction, "rtp")
		ch <- prometheus.MustNewConstMetric(c.octets, prometheus.CounterValue, float64(st.RTCPOctets), ssrc, direction, "rtcp")
		ch <- prometheus.MustNewConstMetric(c.rollover, prometheus.GaugeValue, float64(st.ROC), ssrc, direction)
	}

	for status, n := range c.session.Failures() {
		ch <- prometheus.MustNewConstMetric(c.failures, prometheus.CounterValue, float64(n), status.String())
	}
}
