package registry_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheila/internal/domain"
	"sheila/internal/registry"
	"sheila/internal/store"
)

// countingStore wraps the memory backend and counts snapshot flushes.
type countingStore struct {
	store.Store
	mu    sync.Mutex
	saves int
}

func (c *countingStore) SaveDevices(devices map[string]domain.Device) error {
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	return c.Store.SaveDevices(devices)
}

func (c *countingStore) saveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saves
}

func newService(t *testing.T) (*registry.Service, *countingStore) {
	t.Helper()
	cs := &countingStore{Store: store.NewMemory()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return registry.NewService(cs, logger), cs
}

func TestListSeedsSampleDevices(t *testing.T) {
	svc, cs := newService(t)
	ctx := context.Background()

	devices, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 3)
	assert.Equal(t, 1, cs.saveCount(), "seeding persists once")

	bulb := devices[0]
	assert.Equal(t, domain.DeviceKindBulb, bulb.Kind)
	assert.Equal(t, "Living Room", bulb.Room)
	assert.True(t, bulb.IsOn)
	assert.Nil(t, bulb.Speed)

	fanOn := devices[1]
	assert.Equal(t, domain.DeviceKindFan, fanOn.Kind)
	assert.Equal(t, "Bedroom", fanOn.Room)
	assert.True(t, fanOn.IsOn)
	require.NotNil(t, fanOn.Speed)
	assert.Equal(t, 3, *fanOn.Speed)

	fanOff := devices[2]
	assert.Equal(t, domain.DeviceKindFan, fanOff.Kind)
	assert.Equal(t, "Living Room", fanOff.Room)
	assert.False(t, fanOff.IsOn)
	require.NotNil(t, fanOff.Speed)
	assert.Equal(t, 1, *fanOff.Speed)

	// Second call must not seed again.
	again, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 3)
	assert.Equal(t, 1, cs.saveCount())
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "", domain.DeviceKindFan, "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.Create(ctx, "Desk Fan", "", "", "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreateDefaults(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	fan, err := svc.Create(ctx, "Desk Fan", domain.DeviceKindFan, "", "")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRoom, fan.Room)
	assert.Equal(t, domain.DefaultColor, fan.Color)
	assert.False(t, fan.IsOn)
	require.NotNil(t, fan.Speed)
	assert.Equal(t, 1, *fan.Speed)

	bulb, err := svc.Create(ctx, "Desk Lamp", domain.DeviceKindBulb, "Office", "#FFFFFF")
	require.NoError(t, err)
	assert.Equal(t, "Office", bulb.Room)
	assert.Equal(t, "#FFFFFF", bulb.Color)
	assert.Nil(t, bulb.Speed)
}

func TestIDsUniqueAcrossDeletions(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		d, err := svc.Create(ctx, "Fan", domain.DeviceKindFan, "", "")
		require.NoError(t, err)
		assert.False(t, seen[d.ID], "id %s reused", d.ID)
		seen[d.ID] = true
		require.NoError(t, svc.Delete(ctx, d.ID))
	}
}

func TestDeleteUnknownDoesNotPersist(t *testing.T) {
	svc, cs := newService(t)
	ctx := context.Background()

	before := cs.saveCount()
	err := svc.Delete(ctx, "DEV-missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, before, cs.saveCount(), "miss must not flush the snapshot")
}

func TestUpdateStateClampsFanSpeed(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	fan, err := svc.Create(ctx, "Desk Fan", domain.DeviceKindFan, "", "")
	require.NoError(t, err)

	for requested, want := range map[int]int{0: 1, 1: 1, 2: 2, 3: 3, 5: 3, -1: 1} {
		s := requested
		updated, err := svc.UpdateState(ctx, fan.ID, domain.StatePatch{Speed: &s})
		require.NoError(t, err)
		require.NotNil(t, updated.Speed)
		assert.Equal(t, want, *updated.Speed, "requested %d", requested)
	}
}

func TestUpdateStatePartialApply(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	bulb, err := svc.Create(ctx, "Desk Lamp", domain.DeviceKindBulb, "", "")
	require.NoError(t, err)

	on := true
	updated, err := svc.UpdateState(ctx, bulb.ID, domain.StatePatch{IsOn: &on})
	require.NoError(t, err)
	assert.True(t, updated.IsOn)
	assert.Equal(t, bulb.Color, updated.Color)
	assert.Nil(t, updated.Speed, "bulb must never gain a speed field")

	color := "#00FF00"
	updated, err = svc.UpdateState(ctx, bulb.ID, domain.StatePatch{Color: &color})
	require.NoError(t, err)
	assert.True(t, updated.IsOn, "unset fields stay untouched")
	assert.Equal(t, color, updated.Color)

	_, err = svc.UpdateState(ctx, "DEV-missing", domain.StatePatch{IsOn: &on})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetPowerOffForcesFanSpeedZero(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	fan, err := svc.Create(ctx, "Desk Fan", domain.DeviceKindFan, "", "")
	require.NoError(t, err)

	_, err = svc.SetFanSpeed(ctx, fan.ID, 4)
	require.NoError(t, err)

	updated, err := svc.SetPower(ctx, fan.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.IsOn)
	require.NotNil(t, updated.Speed)
	assert.Equal(t, 0, *updated.Speed)
}

func TestSetFanSpeedCommandRange(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	fan, err := svc.Create(ctx, "Desk Fan", domain.DeviceKindFan, "", "")
	require.NoError(t, err)

	for speed := 0; speed <= 4; speed++ {
		updated, err := svc.SetFanSpeed(ctx, fan.ID, speed)
		require.NoError(t, err)
		require.NotNil(t, updated.Speed)
		assert.Equal(t, speed, *updated.Speed)
		assert.False(t, updated.IsOn, "speed change leaves power untouched")
	}

	_, err = svc.SetFanSpeed(ctx, fan.ID, 5)
	assert.Error(t, err)

	bulb, err := svc.Create(ctx, "Desk Lamp", domain.DeviceKindBulb, "", "")
	require.NoError(t, err)
	_, err = svc.SetFanSpeed(ctx, bulb.ID, 2)
	assert.Error(t, err)
}

func TestRegistryReloadsFromStore(t *testing.T) {
	dir := t.TempDir()
	fileStore := store.NewFile(dir+"/devices.json", dir+"/commands.json")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	svc := registry.NewService(fileStore, logger)
	created, err := svc.Create(ctx, "Desk Fan", domain.DeviceKindFan, "Office", "")
	require.NoError(t, err)

	reloaded := registry.NewService(fileStore, logger)
	got, err := reloaded.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Desk Fan", got.Name)
	assert.Equal(t, "Office", got.Room)
}
