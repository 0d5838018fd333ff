package physics

// Material names a surface for contact material lookup. Two bodies that share
// a *Material pointer share a material; the name is informational.
type Material struct {
	Name string
}

func NewMaterial(name string) *Material { return &Material{Name: name} }

const (
	DefaultFriction    = 0.3
	DefaultRestitution = 0.3
)

// ContactMaterial overrides friction and restitution for contacts between two
// materials. The pairing is unordered.
type ContactMaterial struct {
	A, B        *Material
	Friction    float64
	Restitution float64
}

// ContactOptions leaves a coefficient at its default when the pointer is nil.
type ContactOptions struct {
	Friction    *float64
	Restitution *float64
}

func NewContactMaterial(a, b *Material, opts ContactOptions) *ContactMaterial {
	cm := &ContactMaterial{A: a, B: b, Friction: DefaultFriction, Restitution: DefaultRestitution}
	if opts.Friction != nil {
		cm.Friction = *opts.Friction
	}
	if opts.Restitution != nil {
		cm.Restitution = *opts.Restitution
	}
	return cm
}

func (cm *ContactMaterial) matches(a, b *Material) bool {
	return (cm.A == a && cm.B == b) || (cm.A == b && cm.B == a)
}
