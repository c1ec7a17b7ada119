// internal/writer/builder.go
package writer

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/servo-replicator/internal/config"
	ct "github.com/tamzrod/servo-replicator/internal/controltable"
	wmodbus "github.com/tamzrod/servo-replicator/internal/writer/modbus"
)

// BuildPlan converts one group config into a Writer Plan.
// Assumes config has already passed validation.
func BuildPlan(g cfg.GroupConfig, schema *ct.Schema, sm cfg.StatusMemoryConfig) (Plan, error) {
	if g.ID == "" {
		return Plan{}, errors.New("writer: group.id required")
	}

	plan := Plan{GroupID: g.ID}

	for _, name := range g.Registers {
		d, err := schema.Lookup(name)
		if err != nil {
			return Plan{}, err
		}
		scale, scaled := g.Scale[name]
		fp := FieldPlan{
			Name:      name,
			Width:     d.Width,
			Scale:     scale,
			Registers: cfg.FieldRegisters(d.Width, scaled),
		}
		plan.Fields = append(plan.Fields, fp)
		plan.Footprint += fp.Registers
	}

	for _, t := range g.Targets {
		plan.Targets = append(plan.Targets, TargetEndpoint{
			Endpoint: t.Endpoint,
			UnitID:   t.UnitID,
			Offset:   t.Offset,
			Stride:   cfg.EffectiveStride(t, plan.Footprint),
		})
	}

	if g.StatusSlot != nil {
		plan.Status = &StatusPlan{
			Endpoint:  sm.Endpoint,
			UnitID:    sm.UnitID,
			BaseSlot:  *g.StatusSlot,
			GroupName: g.GroupName,
		}
	}

	return plan, nil
}

// Dialer opens one endpoint client. Tests swap it for a fake.
type Dialer func(endpoint string, timeout time.Duration) (EndpointClient, func() error, error)

// DialModbus is the production Dialer (Modbus TCP).
func DialModbus(endpoint string, timeout time.Duration) (EndpointClient, func() error, error) {
	c, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: endpoint,
		Timeout:  timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return c, c.Close, nil
}

// BuildEndpointClients creates one client per unique endpoint across every
// group target and the status memory. The longest configured timeout wins.
func BuildEndpointClients(r cfg.ReplicatorConfig, dial Dialer) (map[string]EndpointClient, func() error, error) {
	timeouts := map[string]int{}
	want := func(endpoint string, ms int) {
		if cur, ok := timeouts[endpoint]; !ok || ms > cur {
			timeouts[endpoint] = ms
		}
	}

	for _, g := range r.Groups {
		for _, t := range g.Targets {
			want(t.Endpoint, t.TimeoutMs)
		}
		if g.StatusSlot != nil {
			want(r.StatusMemory.Endpoint, r.StatusMemory.TimeoutMs)
		}
	}

	clients := make(map[string]EndpointClient)
	var closers []func() error

	closeAll := func() error {
		var last error
		for _, fn := range closers {
			if err := fn(); err != nil {
				last = err
			}
		}
		return last
	}

	for endpoint, ms := range timeouts {
		c, closer, err := dial(endpoint, time.Duration(ms)*time.Millisecond)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		clients[endpoint] = c
		closers = append(closers, closer)
	}

	return clients, closeAll, nil
}
