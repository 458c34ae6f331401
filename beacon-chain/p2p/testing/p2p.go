// Package testing provides in-memory libp2p hosts and fakes for exercising the p2p service.
package testing

import (
	"context"
	"sync"
	"testing"

	"github.com/libp2p/go-libp2p/core/host"
	mocknet "github.com/libp2p/go-libp2p/p2p/net/mock"
	"github.com/prysmaticlabs/epoch-engine/consensus-types/containers"
)

// ConnectedHosts returns n in-memory hosts, each connected to every other one.
func ConnectedHosts(t testing.TB, n int) []host.Host {
	mn, err := mocknet.FullMeshConnected(n)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := mn.Close(); err != nil {
			t.Log(err)
		}
	})
	return mn.Hosts()
}

// MockChainInfo is a fake chain info fetcher returning a fixed status.
type MockChainInfo struct {
	lock   sync.Mutex
	Status *containers.Status
	Err    error
	calls  int
}

// ChainStatus --
func (m *MockChainInfo) ChainStatus(_ context.Context) (*containers.Status, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Status.Copy(), nil
}

// Calls returns how many times the status was fetched.
func (m *MockChainInfo) Calls() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.calls
}
