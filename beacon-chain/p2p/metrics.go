package p2p

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rpcRequestsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p2p_rpc_requests_sent_total",
		Help: "The number of req/resp requests sent, by topic.",
	}, []string{"topic"})
	rpcRequestsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p2p_rpc_requests_received_total",
		Help: "The number of req/resp requests served, by topic.",
	}, []string{"topic"})
	rpcErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p2p_rpc_errors_total",
		Help: "The number of failed req/resp exchanges, by topic.",
	}, []string{"topic"})
	goodbyesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "p2p_goodbye_received_total",
		Help: "The number of goodbye messages received, by reason.",
	}, []string{"reason"})
	p2pPeerCount = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "p2p_peer_count",
		Help: "The number of peers in a given state.",
	}, []string{"state"})
)

func (s *Service) updateMetrics() {
	p2pPeerCount.WithLabelValues("Connected").Set(float64(len(s.peers.Connected())))
	p2pPeerCount.WithLabelValues("Active").Set(float64(len(s.peers.Active())))
	p2pPeerCount.WithLabelValues("Known").Set(float64(len(s.peers.All())))
}
