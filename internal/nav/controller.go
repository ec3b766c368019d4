package nav

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/kobadaidesu/shade-route-app/internal/position"
	"github.com/kobadaidesu/shade-route-app/internal/session"
	"github.com/kobadaidesu/shade-route-app/internal/shared/geo"
	"github.com/kobadaidesu/shade-route-app/internal/stats"
	"github.com/kobadaidesu/shade-route-app/internal/stream"
)

// Controller is the navigation state machine for one device. It owns the
// active walking session and at most one open fix stream; every transition
// happens under the mutex, so the arrived event fires at most once per
// navigation.
type Controller struct {
	deviceID       string
	source         *position.Source
	store          *session.Store
	hub            *stream.Hub
	stats          *stats.Service
	arrivalRadiusM float64

	mu        sync.Mutex
	mode      Mode
	dest      *LatLng
	current   *position.Fix
	sess      *session.Session
	trail     *trail
	sub       *position.Stream
	distanceM *float64
	bearing   *float64
	direction string
	eta       *time.Time
	lastError string
}

func newController(deviceID string, svc *Service) *Controller {
	return &Controller{
		deviceID:       deviceID,
		source:         svc.source,
		store:          svc.store,
		hub:            svc.hub,
		stats:          svc.stats,
		arrivalRadiusM: svc.arrivalRadiusM,
		mode:           ModeIdle,
		trail:          newTrail(svc.trailLimit),
	}
}

// StartTracking opens the continuous fix stream without a destination.
func (c *Controller) StartTracking() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.openStreamLocked()
}

// StartNavigation sets the destination and moves to Navigating. From Idle it
// opens the fix stream first. The walking session starts from the current
// fix when one exists, otherwise lazily on the first fix received.
func (c *Controller) StartNavigation(dest *LatLng) error {
	if dest == nil {
		return ErrNoDestination
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sub == nil {
		if err := c.openStreamLocked(); err != nil {
			return err
		}
	}

	d := *dest
	c.dest = &d
	c.mode = ModeNavigating
	if c.current != nil && c.sess == nil {
		c.sess = session.New(c.deviceID, *c.current)
	}
	c.recomputeLocked()
	return nil
}

// StopNavigation cancels navigation. An open session is completed with the
// last known fix and persisted. Calling it outside Navigating is a no-op.
func (c *Controller) StopNavigation() {
	c.mu.Lock()
	if c.mode != ModeNavigating {
		c.mu.Unlock()
		return
	}
	completed := c.teardownLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.persist(completed)
	c.publish(stream.EventState, snap)
}

// StopTracking closes the stream. If navigation is underway the open session
// is completed first, as with StopNavigation. Idempotent.
func (c *Controller) StopTracking() {
	c.mu.Lock()
	if c.mode == ModeIdle {
		c.mu.Unlock()
		return
	}
	completed := c.teardownLocked()
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.persist(completed)
	c.publish(stream.EventState, snap)
}

// CurrentFixOnce requests a single fix independent of any open stream.
func (c *Controller) CurrentFixOnce(ctx context.Context) (position.Fix, error) {
	if c.source == nil {
		return position.Fix{}, ErrGeolocationUnsupported
	}
	return c.source.GetOneFix(ctx, c.deviceID)
}

func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) openStreamLocked() error {
	if c.source == nil {
		return ErrGeolocationUnsupported
	}
	// never hold two streams for the same device
	if c.sub != nil {
		c.source.StopStream(c.sub)
	}
	c.sub = c.source.StartStream(c.deviceID, c.handleFix, c.handleStreamError)
	if c.mode == ModeIdle {
		c.mode = ModeTracking
	}
	return nil
}

func (c *Controller) handleFix(fix position.Fix) {
	c.mu.Lock()
	f := fix
	c.current = &f
	c.trail.push(fix)
	c.lastError = ""

	var completed *session.Session
	if c.mode == ModeNavigating {
		if c.sess == nil {
			c.sess = session.New(c.deviceID, fix)
		} else if err := c.sess.AppendFix(fix); err != nil {
			log.Printf("append fix: %v", err)
		}
		c.recomputeLocked()

		if c.distanceM != nil && *c.distanceM <= c.arrivalRadiusM {
			if err := c.sess.Complete(fix); err != nil {
				log.Printf("complete session: %v", err)
			}
			completed = c.teardownLocked()
		}
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.publish(stream.EventFix, snap)
	if completed != nil {
		c.persist(completed)
		c.publish(stream.EventArrived, completed)
	}
}

func (c *Controller) handleStreamError(err error) {
	if errors.Is(err, position.ErrPermissionDenied) {
		c.mu.Lock()
		completed := c.teardownLocked()
		c.lastError = err.Error()
		c.mu.Unlock()

		c.persist(completed)
		c.publish(stream.EventError, errorEvent{Error: err.Error(), Recoverable: false})
		return
	}

	c.mu.Lock()
	c.lastError = err.Error()
	c.mu.Unlock()
	c.publish(stream.EventError, errorEvent{Error: err.Error(), Recoverable: true})
}

// teardownLocked closes the stream and returns to Idle. A still-open session
// is completed with the last known fix and handed back for persistence.
func (c *Controller) teardownLocked() *session.Session {
	completed := c.sess
	if completed != nil && completed.Open() {
		end := completed.StartFix
		if c.current != nil {
			end = *c.current
		}
		if err := completed.Complete(end); err != nil {
			log.Printf("complete session: %v", err)
		}
	}

	if c.source != nil {
		c.source.StopStream(c.sub)
	}
	c.sub = nil
	c.mode = ModeIdle
	c.dest = nil
	c.sess = nil
	c.distanceM = nil
	c.bearing = nil
	c.direction = ""
	c.eta = nil
	return completed
}

func (c *Controller) recomputeLocked() {
	if c.mode != ModeNavigating || c.dest == nil || c.current == nil {
		c.distanceM = nil
		c.bearing = nil
		c.direction = ""
		c.eta = nil
		return
	}

	d := geo.DistanceMeters(c.current.Lat, c.current.Lng, c.dest.Lat, c.dest.Lng)
	b := geo.InitialBearingDegrees(c.current.Lat, c.current.Lng, c.dest.Lat, c.dest.Lng)
	c.distanceM = &d
	c.bearing = &b
	c.direction = geo.CompassDirection(b)

	c.eta = nil
	if c.sess != nil && c.sess.AvgSpeedKmh > 0 {
		if eta, err := geo.PredictedArrival(time.Now(), d, c.sess.AvgSpeedKmh); err == nil {
			c.eta = &eta
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		DeviceID:  c.deviceID,
		Mode:      c.mode,
		Direction: c.direction,
		Trail:     c.trail.snapshot(),
		LastError: c.lastError,
	}
	if c.dest != nil {
		d := *c.dest
		snap.Destination = &d
	}
	if c.current != nil {
		f := *c.current
		snap.CurrentFix = &f
	}
	if c.distanceM != nil {
		v := *c.distanceM
		snap.DistanceToDestinationM = &v
	}
	if c.bearing != nil {
		v := *c.bearing
		snap.BearingDeg = &v
	}
	if c.eta != nil {
		t := *c.eta
		snap.ETA = &t
	}
	if c.sess != nil {
		snap.Session = &SessionSummary{
			ID:             c.sess.ID,
			StartedAt:      c.sess.StartedAt,
			TotalDistanceM: c.sess.TotalDistanceM,
			DurationMs:     c.sess.DurationMs,
			AvgSpeedKmh:    c.sess.AvgSpeedKmh,
			FixCount:       len(c.sess.Path),
		}
	}
	return snap
}

func (c *Controller) persist(s *session.Session) {
	if s == nil || c.store == nil {
		return
	}
	ctx := context.Background()
	if err := c.store.Save(ctx, s); err != nil {
		log.Printf("session save error: %v", err)
		return
	}
	if c.stats != nil {
		c.stats.Invalidate(ctx, c.deviceID)
	}
}

func (c *Controller) publish(eventType string, data any) {
	if c.hub == nil {
		return
	}
	c.hub.Publish(c.deviceID, eventType, data)
}
