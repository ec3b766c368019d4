package nav

import (
	"sync"

	"github.com/kobadaidesu/shade-route-app/internal/position"
	"github.com/kobadaidesu/shade-route-app/internal/session"
	"github.com/kobadaidesu/shade-route-app/internal/stats"
	"github.com/kobadaidesu/shade-route-app/internal/stream"
)

const (
	defaultArrivalRadiusM = 50
	defaultTrailLimit     = 100
)

// Service hands out one Controller per device.
type Service struct {
	source         *position.Source
	store          *session.Store
	hub            *stream.Hub
	stats          *stats.Service
	arrivalRadiusM float64
	trailLimit     int

	mu          sync.Mutex
	controllers map[string]*Controller
}

func NewService(source *position.Source, store *session.Store, hub *stream.Hub, statsSvc *stats.Service, arrivalRadiusM float64, trailLimit int) *Service {
	if arrivalRadiusM <= 0 {
		arrivalRadiusM = defaultArrivalRadiusM
	}
	if trailLimit <= 0 {
		trailLimit = defaultTrailLimit
	}
	return &Service{
		source:         source,
		store:          store,
		hub:            hub,
		stats:          statsSvc,
		arrivalRadiusM: arrivalRadiusM,
		trailLimit:     trailLimit,
		controllers:    map[string]*Controller{},
	}
}

func (s *Service) Controller(deviceID string) *Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.controllers[deviceID]; ok {
		return c
	}
	c := newController(deviceID, s)
	s.controllers[deviceID] = c
	return c
}
