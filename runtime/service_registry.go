// Package runtime holds the process level plumbing shared by the epoch engine's
// long running services.
package runtime

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("prefix", "registry")

// Service is a struct that can be registered into a ServiceRegistry for
// easy dependency management.
type Service interface {
	// Start spawns any goroutines required by the service.
	Start()
	// Stop terminates all goroutines belonging to the service,
	// blocking until they are all terminated.
	Stop() error
	// Status returns error if the service is not considered healthy.
	Status() error
}

// ServiceStatus is the health of a single registered service.
type ServiceStatus struct {
	Name string
	Err  error
}

// ServiceRegistry owns the lifecycle of the services a node runs. Services are
// started in registration order and stopped in reverse, so a service may depend
// on anything registered before it.
type ServiceRegistry struct {
	services     map[reflect.Type]Service // map of types to services.
	serviceTypes []reflect.Type           // keep an ordered slice of registered service types.
}

// NewServiceRegistry starts a registry instance for convenience
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[reflect.Type]Service),
	}
}

// StartAll initialized each service in order of registration.
func (s *ServiceRegistry) StartAll() {
	log.Debugf("Starting %d services: %v", len(s.serviceTypes), s.serviceTypes)
	for _, kind := range s.serviceTypes {
		log.Debugf("Starting service type %v", kind)
		go s.services[kind].Start()
	}
}

// StopAll ends every service in reverse order of registration. Failures are
// logged and the remaining services are still stopped; the number of services
// that failed to stop is returned.
func (s *ServiceRegistry) StopAll() int {
	failed := 0
	for i := len(s.serviceTypes) - 1; i >= 0; i-- {
		kind := s.serviceTypes[i]
		service := s.services[kind]
		if err := service.Stop(); err != nil {
			failed++
			log.WithError(err).Errorf("Could not stop the following service: %v", kind)
		}
	}
	return failed
}

// StatusReport returns the status of every service in registration order,
// named by the service's dereferenced type, e.g. "p2p.Service".
func (s *ServiceRegistry) StatusReport() []ServiceStatus {
	report := make([]ServiceStatus, 0, len(s.serviceTypes))
	for _, kind := range s.serviceTypes {
		report = append(report, ServiceStatus{
			Name: serviceName(kind),
			Err:  s.services[kind].Status(),
		})
	}
	return report
}

// Healthy is true when no registered service reports an error.
func (s *ServiceRegistry) Healthy() bool {
	for _, st := range s.StatusReport() {
		if st.Err != nil {
			return false
		}
	}
	return true
}

// RegisterService appends a service constructor function to the service
// registry.
func (s *ServiceRegistry) RegisterService(service Service) error {
	if service == nil {
		return fmt.Errorf("cannot register nil service")
	}
	kind := reflect.TypeOf(service)
	if _, exists := s.services[kind]; exists {
		return fmt.Errorf("service already exists: %v", kind)
	}
	s.services[kind] = service
	s.serviceTypes = append(s.serviceTypes, kind)
	return nil
}

// FetchService takes in a struct pointer and sets the value of that pointer
// to a service currently stored in the service registry. This ensures the input argument is
// set to the right pointer that refers to the originally registered service.
func (s *ServiceRegistry) FetchService(service interface{}) error {
	if reflect.TypeOf(service).Kind() != reflect.Ptr {
		return fmt.Errorf("input must be of pointer type, received value type instead: %T", service)
	}
	element := reflect.ValueOf(service).Elem()
	if running, ok := s.services[element.Type()]; ok {
		element.Set(reflect.ValueOf(running))
		return nil
	}
	return fmt.Errorf("unknown service: %T", service)
}

func serviceName(kind reflect.Type) string {
	return strings.TrimPrefix(kind.String(), "*")
}
