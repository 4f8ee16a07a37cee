package constraints

import "github.com/dtaikl/treeverify/box"

// LessThan asserts that feature A's value stays strictly below feature B's,
// grounded on the box-adjuster's id0 <= id1 + b ordering constraint (here
// specialized to b == 0, strict).
type LessThan struct {
	A, B box.FeatureID
}

func (c LessThan) Evaluate(b box.Box) Status {
	da, db := b.Get(c.A), b.Get(c.B)
	if da.IsUniversal() || db.IsUniversal() {
		return Unknown
	}
	if da.Hi <= db.Lo {
		return Satisfiable
	}
	if da.Lo >= db.Hi {
		return Violated
	}
	return Unknown
}
