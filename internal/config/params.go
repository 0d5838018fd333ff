package config

import (
	"fmt"
	"math"
	"strings"
)

// SetParam changes one numeric setting by dotted name, for sweeps and
// scenarios. Supported names:
//
//	timestep, substeps, ticks, seed, gravity.y
//	picking.radius, picking.mass, picking.restitution
//	chain.count, chain.size, chain.space, chain.mass, chain.height
//	grid.rows, grid.cols, grid.distance, grid.mass, grid.height
//	body.<name>.mass, body.<name>.radius
//	body.<name>.linear_damping, body.<name>.angular_damping
//	contact.<a>.<b>.friction, contact.<a>.<b>.restitution
//
// Integer settings are rounded.
func (c *Config) SetParam(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite", ErrInvalidConfig, name)
	}
	parts := strings.Split(name, ".")
	n := int(math.Round(v))

	switch parts[0] {
	case "timestep":
		c.Timestep = v
	case "substeps":
		c.Substeps = n
	case "ticks":
		c.Ticks = n
	case "seed":
		c.Seed = int64(n)
	case "gravity":
		if len(parts) != 2 || parts[1] != "y" {
			return unknownParam(name)
		}
		c.Gravity[1] = v
	case "picking":
		if c.Picking == nil || len(parts) != 2 {
			return unknownParam(name)
		}
		switch parts[1] {
		case "radius":
			c.Picking.Radius = v
		case "mass":
			c.Picking.Mass = v
		case "restitution":
			c.Picking.Restitution = v
		default:
			return unknownParam(name)
		}
	case "chain":
		if c.Chain == nil || len(parts) != 2 {
			return unknownParam(name)
		}
		switch parts[1] {
		case "count":
			c.Chain.Count = n
		case "size":
			c.Chain.Size = v
		case "space":
			c.Chain.Space = v
		case "mass":
			c.Chain.Mass = v
		case "height":
			c.Chain.Height = v
		default:
			return unknownParam(name)
		}
	case "grid":
		if c.Grid == nil || len(parts) != 2 {
			return unknownParam(name)
		}
		switch parts[1] {
		case "rows":
			c.Grid.Rows = n
		case "cols":
			c.Grid.Cols = n
		case "distance":
			c.Grid.Distance = v
		case "mass":
			c.Grid.Mass = v
		case "height":
			c.Grid.Height = v
		default:
			return unknownParam(name)
		}
	case "body":
		return c.setBodyParam(name, parts, v)
	case "contact":
		return c.setContactParam(name, parts, v)
	default:
		return unknownParam(name)
	}
	return nil
}

func (c *Config) setBodyParam(name string, parts []string, v float64) error {
	if len(parts) != 3 {
		return unknownParam(name)
	}
	for i := range c.Bodies {
		b := &c.Bodies[i]
		if b.Name != parts[1] {
			continue
		}
		switch parts[2] {
		case "mass":
			b.Mass = v
		case "radius":
			b.Radius = v
		case "linear_damping":
			b.LinearDamping = &v
		case "angular_damping":
			b.AngularDamping = &v
		default:
			return unknownParam(name)
		}
		return nil
	}
	return fmt.Errorf("%w: no body named %q", ErrInvalidConfig, parts[1])
}

func (c *Config) setContactParam(name string, parts []string, v float64) error {
	if len(parts) != 4 {
		return unknownParam(name)
	}
	if parts[3] != "friction" && parts[3] != "restitution" {
		return unknownParam(name)
	}
	a, b := parts[1], parts[2]
	var cm *ContactMaterialConfig
	for i := range c.ContactMaterials {
		m := &c.ContactMaterials[i]
		if (m.A == a && m.B == b) || (m.A == b && m.B == a) {
			cm = m
			break
		}
	}
	if cm == nil {
		c.ContactMaterials = append(c.ContactMaterials, ContactMaterialConfig{A: a, B: b})
		cm = &c.ContactMaterials[len(c.ContactMaterials)-1]
	}
	if parts[3] == "friction" {
		cm.Friction = &v
	} else {
		cm.Restitution = &v
	}
	return nil
}

func unknownParam(name string) error {
	return fmt.Errorf("%w: unknown parameter %q", ErrInvalidConfig, name)
}
