// internal/writer/status_writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cfg "github.com/tamzrod/servo-replicator/internal/config"
	"github.com/tamzrod/servo-replicator/internal/controltable/mx"
	"github.com/tamzrod/servo-replicator/internal/status"
)

func statusPlan(t *testing.T) Plan {
	t.Helper()
	slot := uint16(2)
	plan, err := BuildPlan(cfg.GroupConfig{
		ID:         "arm",
		Devices:    []uint8{1, 2, 3},
		Registers:  []string{"present_position"},
		StatusSlot: &slot,
		GroupName:  "ARM-01",
	}, mx.NewV2(), cfg.StatusMemoryConfig{Endpoint: "status-endpoint", UnitID: 9})
	require.NoError(t, err)
	return plan
}

func TestGroupNameWrittenOnFullAssertOnly(t *testing.T) {
	cli := &fakeEndpointClient{}
	plan := statusPlan(t)

	sw, enabled := NewGroupStatusWriter(plan, map[string]EndpointClient{"status-endpoint": cli})
	require.True(t, enabled)

	// ---- first write: FULL ASSERT ----
	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthOK, DeviceCount: 3}))
	require.Len(t, cli.writes, 1)

	full := cli.writes[0]
	assert.Equal(t, uint8(9), full.unitID)
	assert.Equal(t, uint16(2*status.SlotsPerDevice), full.addr)
	require.Len(t, full.regs, status.SlotsPerDevice)
	assert.Equal(t, uint16(3), full.regs[status.SlotDeviceCount])
	assert.Equal(t, status.EncodeName("ARM-01"), full.regs[status.SlotNameStart:status.SlotNameEnd+1])

	// ---- second write: INCREMENTAL ONLY ----
	require.NoError(t, sw.WriteStatus(status.Snapshot{
		Health: status.HealthError, LastErrorCode: 7, SecondsInError: 1, DeviceCount: 3,
	}))

	for _, w := range cli.writes[1:] {
		assert.Len(t, w.regs, 1, "group name must not be rewritten on incremental update")
	}
	assert.Len(t, cli.writes, 4) // health, last error, seconds
}

func TestSecondsInErrorResetOnRecovery(t *testing.T) {
	cli := &fakeEndpointClient{}
	plan := statusPlan(t)

	sw, _ := NewGroupStatusWriter(plan, map[string]EndpointClient{"status-endpoint": cli})

	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: 42, SecondsInError: 3}))
	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: 42, SecondsInError: 0}))

	last := cli.writes[len(cli.writes)-1]
	assert.Equal(t, plan.Status.BaseSlot*status.SlotsPerDevice+status.SlotSecondsInError, last.addr)
	assert.Equal(t, []uint16{0}, last.regs)
}

func TestFailureForcesFullReassert(t *testing.T) {
	cli := &fakeEndpointClient{}
	plan := statusPlan(t)

	sw, _ := NewGroupStatusWriter(plan, map[string]EndpointClient{"status-endpoint": cli})
	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthOK}))

	cli.fail = errors.New("reset by peer")
	assert.Error(t, sw.WriteStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: 1}))

	cli.fail = nil
	require.NoError(t, sw.WriteStatus(status.Snapshot{Health: status.HealthError, LastErrorCode: 1}))

	last := cli.writes[len(cli.writes)-1]
	assert.Len(t, last.regs, status.SlotsPerDevice)
}

func TestStatusWriterDisabled(t *testing.T) {
	_, enabled := NewGroupStatusWriter(Plan{GroupID: "x"}, nil)
	assert.False(t, enabled)
}

func TestStatusWriterMissingClient(t *testing.T) {
	sw, enabled := NewGroupStatusWriter(statusPlan(t), map[string]EndpointClient{})
	require.True(t, enabled)
	assert.Error(t, sw.WriteStatus(status.Snapshot{}))
}
