package runtime

import (
	"errors"
	"reflect"
	"testing"

	"github.com/prysmaticlabs/epoch-engine/testing/assert"
	"github.com/prysmaticlabs/epoch-engine/testing/require"
)

type mockService struct {
	status error
	onStop func() error
}
type secondMockService struct {
	status error
	onStop func() error
}

func (_ *mockService) Start() {
}

func (m *mockService) Stop() error {
	if m.onStop != nil {
		return m.onStop()
	}
	return nil
}

func (m *mockService) Status() error {
	return m.status
}

func (_ *secondMockService) Start() {
}

func (s *secondMockService) Stop() error {
	if s.onStop != nil {
		return s.onStop()
	}
	return nil
}

func (s *secondMockService) Status() error {
	return s.status
}

func TestRegisterService_Twice(t *testing.T) {
	registry := &ServiceRegistry{
		services: make(map[reflect.Type]Service),
	}

	m := &mockService{}
	require.NoError(t, registry.RegisterService(m), "Failed to register first service")

	// Checks if first service was indeed registered.
	require.Equal(t, 1, len(registry.serviceTypes))
	assert.ErrorContains(t, "service already exists", registry.RegisterService(m))
}

func TestRegisterService_Different(t *testing.T) {
	registry := &ServiceRegistry{
		services: make(map[reflect.Type]Service),
	}

	m := &mockService{}
	s := &secondMockService{}
	require.NoError(t, registry.RegisterService(m), "Failed to register first service")
	require.NoError(t, registry.RegisterService(s), "Failed to register second service")

	require.Equal(t, 2, len(registry.serviceTypes))

	_, exists := registry.services[reflect.TypeOf(m)]
	assert.Equal(t, true, exists, "service of type %v not registered", reflect.TypeOf(m))

	_, exists = registry.services[reflect.TypeOf(s)]
	assert.Equal(t, true, exists, "service of type %v not registered", reflect.TypeOf(s))
}

func TestFetchService_OK(t *testing.T) {
	registry := &ServiceRegistry{
		services: make(map[reflect.Type]Service),
	}

	m := &mockService{}
	require.NoError(t, registry.RegisterService(m), "Failed to register first service")

	assert.ErrorContains(t, "input must be of pointer type, received value type instead", registry.FetchService(*m))

	var s *secondMockService
	assert.ErrorContains(t, "unknown service", registry.FetchService(&s))

	var m2 *mockService
	require.NoError(t, registry.FetchService(&m2), "Failed to fetch service")
	require.Equal(t, m, m2)
}

func TestStopAll_ReverseOrderAndFailures(t *testing.T) {
	registry := NewServiceRegistry()
	var order []string
	m := &mockService{onStop: func() error { order = append(order, "first"); return nil }}
	s := &secondMockService{onStop: func() error { order = append(order, "second"); return errors.New("boom") }}
	require.NoError(t, registry.RegisterService(m))
	require.NoError(t, registry.RegisterService(s))

	assert.Equal(t, 1, registry.StopAll())
	assert.DeepEqual(t, []string{"second", "first"}, order)
}

func TestRegisterService_Nil(t *testing.T) {
	registry := NewServiceRegistry()
	assert.ErrorContains(t, "cannot register nil service", registry.RegisterService(nil))
}

func TestStatusReport(t *testing.T) {
	registry := NewServiceRegistry()
	m := &mockService{}
	s := &secondMockService{status: errors.New("not synced")}
	require.NoError(t, registry.RegisterService(m))
	require.NoError(t, registry.RegisterService(s))

	report := registry.StatusReport()
	require.Equal(t, 2, len(report))
	assert.Equal(t, "runtime.mockService", report[0].Name)
	assert.NoError(t, report[0].Err)
	assert.Equal(t, "runtime.secondMockService", report[1].Name)
	assert.ErrorContains(t, "not synced", report[1].Err)
	assert.Equal(t, false, registry.Healthy())

	s.status = nil
	assert.Equal(t, true, registry.Healthy())
}
