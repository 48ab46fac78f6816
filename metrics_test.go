// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package srtp

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatheredValue returns the value of the sample of family name whose labels
// include all of want.
func gatheredValue(t *testing.T, registry *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()

	families, err := registry.Gather()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}

	metrics:
		for _, metric := range family.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			for k, v := range want {
				if labels[k] != v {
					continue metrics
				}
			}

			if metric.GetCounter() != nil {
				return metric.GetCounter().GetValue()
			}

			return metric.GetGauge().GetValue()
		}
	}

	require.Failf(t, "metric not found", "%s %v", name, want)

	return 0
}

func TestCollector(t *testing.T) {
	pair := newSessionPair(t, 0x1234, StreamConfig{})

	for seq := uint16(0xFFFE); seq != 3; seq++ {
		packet, err := pair.sender.ProtectRTP(nil, testRTPPacket(t, 0x1234, seq, make([]byte, 10)))
		require.NoError(t, err)
		_, err = pair.receiver.UnprotectRTP(nil, packet)
		require.NoError(t, err)
	}

	_, err := pair.receiver.UnprotectRTP(nil, []byte{0x80})
	require.Error(t, err)

	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(NewCollector(pair.receiver, "app")))

	inbound := map[string]string{"ssrc": "4660", "direction": DirectionInbound.String()}
	rtpLabels := map[string]string{"ssrc": "4660", "proto": "rtp"}

	assert.Equal(t, 5.0, gatheredValue(t, registry, "app_srtp_packets_total", rtpLabels))
	assert.Equal(t, 110.0, gatheredValue(t, registry, "app_srtp_octets_total", rtpLabels))
	assert.Equal(t, 1.0, gatheredValue(t, registry, "app_srtp_rollover_counter", inbound))
	assert.Equal(t, 1.0, gatheredValue(t, registry, "app_srtp_errors_total", map[string]string{
		"status": StatusParseErr.String(),
	}))
}

func TestCollectorSkipsTemplates(t *testing.T) {
	session := newTestSession(t, StreamConfig{
		Direction: DirectionAnyInbound,
		MasterKey: testMasterKey(PolicyRTPDefault().MasterKeyLen()),
	})
	collector := NewCollector(session, "")

	// A wildcard template alone exports nothing per stream.
	assert.Equal(t, 0, testutil.CollectAndCount(collector, "srtp_packets_total"))

	_, err := session.AddStream(StreamConfig{
		SSRC:      7,
		Direction: DirectionOutbound,
		MasterKey: testMasterKey(PolicyRTPDefault().MasterKeyLen()),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, testutil.CollectAndCount(collector, "srtp_packets_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(collector, "srtp_rollover_counter"))
	assert.Equal(t, 0, testutil.CollectAndCount(collector, "srtp_errors_total"))
}
