// Package registry owns the authoritative device state. All mutations are
// write-through: the store snapshot is flushed before the call returns, and
// flushes are serialized under the write lock so the persisted copy always
// matches a single completed mutation.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sheila/internal/domain"
	"sheila/internal/store"
)

const (
	// Fan speed bounds for the direct state-update path. The dialogue path
	// intentionally uses a wider range, see SetFanSpeed.
	minUpdateSpeed = 1
	maxUpdateSpeed = 3

	maxCommandSpeed = 4
)

type Service struct {
	store  store.DeviceStore
	logger *slog.Logger

	mu      sync.RWMutex
	devices map[string]domain.Device
	order   []string
}

// NewService loads the persisted snapshot. A load failure starts the
// registry empty rather than failing: the snapshot is rewritten on the next
// mutation.
func NewService(s store.DeviceStore, logger *slog.Logger) *Service {
	devices, err := s.LoadDevices()
	if err != nil {
		logger.Error("loading device snapshot, starting empty", "error", err)
		devices = map[string]domain.Device{}
	}

	order := make([]string, 0, len(devices))
	for id := range devices {
		order = append(order, id)
	}
	sort.Strings(order)

	return &Service{
		store:   s,
		logger:  logger,
		devices: devices,
		order:   order,
	}
}

// List returns all devices in stable order. An empty registry is seeded
// with the sample devices first, exactly once per empty-to-nonempty
// transition.
func (r *Service) List(ctx context.Context) ([]domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.devices) == 0 {
		r.seedLocked()
		r.flushLocked()
	}

	return r.snapshotLocked(), nil
}

func (r *Service) Get(ctx context.Context, id string) (domain.Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[id]
	if !ok {
		return domain.Device{}, fmt.Errorf("device %s: %w", id, domain.ErrNotFound)
	}
	return d, nil
}

// Create registers a new device. Name and kind are required.
func (r *Service) Create(ctx context.Context, name string, kind domain.DeviceKind, room, color string) (domain.Device, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(string(kind)) == "" {
		return domain.Device{}, domain.ErrValidation
	}

	if room == "" {
		room = domain.DefaultRoom
	}
	if color == "" {
		color = domain.DefaultColor
	}

	d := domain.Device{
		ID:          newDeviceID(),
		Name:        name,
		Kind:        kind,
		Room:        room,
		IsOn:        false,
		Color:       color,
		LastUpdated: time.Now().UTC(),
	}
	if d.IsFan() {
		speed := 1
		d.Speed = &speed
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.devices[d.ID] = d
	r.order = append(r.order, d.ID)
	r.flushLocked()

	return d, nil
}

func (r *Service) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[id]; !ok {
		return fmt.Errorf("device %s: %w", id, domain.ErrNotFound)
	}

	delete(r.devices, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.flushLocked()

	return nil
}

// UpdateState applies the provided fields only. Fan speed is clamped to
// [1,3] on this path.
func (r *Service) UpdateState(ctx context.Context, id string, patch domain.StatePatch) (domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return domain.Device{}, fmt.Errorf("device %s: %w", id, domain.ErrNotFound)
	}

	if patch.IsOn != nil {
		d.IsOn = *patch.IsOn
	}
	if patch.Speed != nil && d.IsFan() {
		speed := clamp(*patch.Speed, minUpdateSpeed, maxUpdateSpeed)
		d.Speed = &speed
	}
	if patch.Color != nil {
		d.Color = *patch.Color
	}
	d.LastUpdated = time.Now().UTC()

	r.devices[id] = d
	r.flushLocked()

	return d, nil
}

// SetPower is the dialogue-path power toggle. Turning a fan off forces its
// speed to 0.
func (r *Service) SetPower(ctx context.Context, id string, on bool) (domain.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return domain.Device{}, fmt.Errorf("device %s: %w", id, domain.ErrNotFound)
	}

	d.IsOn = on
	if !on && d.IsFan() {
		speed := 0
		d.Speed = &speed
	}
	d.LastUpdated = time.Now().UTC()

	r.devices[id] = d
	r.flushLocked()

	return d, nil
}

// SetFanSpeed is the dialogue-path speed change, accepting the full [0,4]
// command range and leaving the power state alone.
func (r *Service) SetFanSpeed(ctx context.Context, id string, speed int) (domain.Device, error) {
	if speed < 0 || speed > maxCommandSpeed {
		return domain.Device{}, fmt.Errorf("speed %d out of range [0,%d]", speed, maxCommandSpeed)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	d, ok := r.devices[id]
	if !ok {
		return domain.Device{}, fmt.Errorf("device %s: %w", id, domain.ErrNotFound)
	}
	if !d.IsFan() {
		return domain.Device{}, fmt.Errorf("device %s is not a fan", id)
	}

	d.Speed = &speed
	d.LastUpdated = time.Now().UTC()

	r.devices[id] = d
	r.flushLocked()

	return d, nil
}

func (r *Service) snapshotLocked() []domain.Device {
	result := make([]domain.Device, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.devices[id])
	}
	return result
}

// flushLocked writes the snapshot through to the store. A failure is logged
// and otherwise ignored: the in-memory state stays authoritative and the
// snapshot is rewritten on the next mutation.
func (r *Service) flushLocked() {
	if err := r.store.SaveDevices(r.devices); err != nil {
		r.logger.Error("persisting device snapshot", "error", err)
	}
}

func (r *Service) seedLocked() {
	r.logger.Info("empty registry, seeding sample devices")

	now := time.Now().UTC()
	speedOn := 3
	speedOff := 1

	samples := []domain.Device{
		{
			ID:          newDeviceID(),
			Name:        "Living Room Light",
			Kind:        domain.DeviceKindBulb,
			Room:        "Living Room",
			IsOn:        true,
			Color:       "#FFB800",
			LastUpdated: now,
		},
		{
			ID:          newDeviceID(),
			Name:        "Bedroom Fan",
			Kind:        domain.DeviceKindFan,
			Room:        "Bedroom",
			IsOn:        true,
			Speed:       &speedOn,
			Color:       "#4ECDC4",
			LastUpdated: now,
		},
		{
			ID:          newDeviceID(),
			Name:        "Bedroom Fan",
			Kind:        domain.DeviceKindFan,
			Room:        "Living Room",
			IsOn:        false,
			Speed:       &speedOff,
			Color:       "#4ECDC4",
			LastUpdated: now,
		},
	}

	for _, d := range samples {
		r.devices[d.ID] = d
		r.order = append(r.order, d.ID)
	}
}

func newDeviceID() string {
	return "DEV-" + uuid.NewString()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
