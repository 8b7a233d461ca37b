package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kyzylorda-dev/incident-map-backend/internal/core/domain"
)

// MockTextGenerator is a mock implementation of ports.TextGenerator
type MockTextGenerator struct {
	mock.Mock
}

func NewMockTextGenerator() *MockTextGenerator {
	return &MockTextGenerator{}
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// MockGeocoder is a mock implementation of ports.Geocoder
type MockGeocoder struct {
	mock.Mock
}

func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{}
}

func (m *MockGeocoder) Search(ctx context.Context, query string) ([]domain.GeoPoint, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.GeoPoint), args.Error(1)
}

// MockLocationResolver is a mock implementation of ports.LocationResolver
type MockLocationResolver struct {
	mock.Mock
}

func NewMockLocationResolver() *MockLocationResolver {
	return &MockLocationResolver{}
}

func (m *MockLocationResolver) Resolve(ctx context.Context, locationText string) domain.ResolvedLocation {
	args := m.Called(ctx, locationText)
	return args.Get(0).(domain.ResolvedLocation)
}

// MockIncidentService is a mock implementation of ports.IncidentService
type MockIncidentService struct {
	mock.Mock
}

func NewMockIncidentService() *MockIncidentService {
	return &MockIncidentService{}
}

func (m *MockIncidentService) Extract(ctx context.Context, rawText string) (*domain.Incident, error) {
	args := m.Called(ctx, rawText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Incident), args.Error(1)
}

// MockEventBroadcaster is a mock implementation of ports.EventBroadcaster
type MockEventBroadcaster struct {
	mock.Mock
}

func NewMockEventBroadcaster() *MockEventBroadcaster {
	return &MockEventBroadcaster{}
}

func (m *MockEventBroadcaster) Broadcast(event domain.PushEvent) int {
	args := m.Called(event)
	return args.Int(0)
}
