package value

import (
	"errors"
	"fmt"

	"github.com/chazu/vertex/pkg/bytecode"
)

// Policy is the mutability policy of a Collection.
type Policy uint8

const (
	// Constant collections are appended to while being built and never
	// updated afterwards. Freeze ends the build phase.
	Constant Policy = iota
	// Mutable collections allow in-place replacement by index.
	Mutable
	// DefineOnce collections allow each slot to be defined once per binding,
	// then reset together with UndefineAll.
	DefineOnce
)

// String returns the policy name.
func (p Policy) String() string {
	switch p {
	case Constant:
		return "constant"
	case Mutable:
		return "mutable"
	case DefineOnce:
		return "define-once"
	default:
		return fmt.Sprintf("Policy(%d)", p)
	}
}

var (
	// ErrConstant is returned when mutating a Constant collection.
	ErrConstant = errors.New("collection is constant")

	// ErrFrozen is returned when growing a frozen collection.
	ErrFrozen = errors.New("collection is frozen")

	// ErrIndexOutOfRange is returned for an index outside the collection.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Collection is an ordered sequence of Scalars keyed by position.
type Collection struct {
	policy Policy
	items  []Scalar
	frozen bool
}

// NewCollection creates an empty collection with the given policy.
func NewCollection(policy Policy) *Collection {
	return &Collection{policy: policy}
}

// Policy returns the mutability policy.
func (c *Collection) Policy() Policy { return c.policy }

// Len returns the number of slots.
func (c *Collection) Len() int { return len(c.items) }

// Frozen reports whether the collection can still grow.
func (c *Collection) Frozen() bool { return c.frozen }

// Freeze stops Append and Prepend from succeeding.
func (c *Collection) Freeze() { c.frozen = true }

// Get returns the Scalar at index.
func (c *Collection) Get(index int) (Scalar, error) {
	if err := c.bounds(index); err != nil {
		return Scalar{}, err
	}
	return c.items[index], nil
}

// Load returns the Scalar at index, failing if the slot is undefined.
func (c *Collection) Load(index int) (Scalar, error) {
	s, err := c.Get(index)
	if err != nil {
		return Scalar{}, err
	}
	if !s.defined {
		return Scalar{}, fmt.Errorf("slot %d: %w", index, ErrUndefined)
	}
	return s, nil
}

// Append adds s at the end.
func (c *Collection) Append(s Scalar) error {
	if c.frozen {
		return ErrFrozen
	}
	c.items = append(c.items, s)
	return nil
}

// Prepend adds s at the front, shifting existing slots up by one.
func (c *Collection) Prepend(s Scalar) error {
	if c.frozen {
		return ErrFrozen
	}
	c.items = append([]Scalar{s}, c.items...)
	return nil
}

// UpdateAt replaces the value in slot index. The new value must have the
// slot's datatype.
func (c *Collection) UpdateAt(index int, s Scalar) error {
	if c.policy == Constant {
		return ErrConstant
	}
	if err := c.bounds(index); err != nil {
		return err
	}
	if want := c.items[index].dt; s.dt != want {
		return fmt.Errorf("slot %d: %w: have %s, want %s", index, ErrTypeMismatch, s.dt, want)
	}
	if !s.defined {
		return fmt.Errorf("slot %d: %w", index, ErrUndefined)
	}
	if c.policy == DefineOnce {
		return c.items[index].Define(s.payload)
	}
	c.items[index] = s
	return nil
}

// DefineAt defines the undefined Scalar in slot index.
func (c *Collection) DefineAt(index int, v any) error {
	if c.policy == Constant {
		return ErrConstant
	}
	if err := c.bounds(index); err != nil {
		return err
	}
	if err := c.items[index].Define(v); err != nil {
		return fmt.Errorf("slot %d: %w", index, err)
	}
	return nil
}

// UndefineAll resets every defined slot.
func (c *Collection) UndefineAll() error {
	if c.policy == Constant {
		return ErrConstant
	}
	for i := range c.items {
		if c.items[i].defined {
			c.items[i].payload = nil
			c.items[i].defined = false
		}
	}
	return nil
}

// Datatypes returns the ordered datatype sequence used for signature matching.
func (c *Collection) Datatypes() []bytecode.Datatype {
	dts := make([]bytecode.Datatype, len(c.items))
	for i, s := range c.items {
		dts[i] = s.dt
	}
	return dts
}

// Scalars returns a copy of the slots.
func (c *Collection) Scalars() []Scalar {
	return append([]Scalar(nil), c.items...)
}

// Shape returns a fresh collection with the same datatypes, every slot
// undefined, and the given policy.
func Shape(policy Policy, dts []bytecode.Datatype) *Collection {
	c := &Collection{policy: policy, items: make([]Scalar, len(dts))}
	for i, dt := range dts {
		c.items[i] = Undefined(dt)
	}
	return c
}

// Reset replaces the slots with undefined placeholders of the given types,
// reusing storage. Constant collections cannot be reset.
func (c *Collection) Reset(dts []bytecode.Datatype) error {
	if c.policy == Constant {
		return ErrConstant
	}
	c.items = c.items[:0]
	for _, dt := range dts {
		c.items = append(c.items, Undefined(dt))
	}
	return nil
}

func (c *Collection) bounds(index int) error {
	if index < 0 || index >= len(c.items) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(c.items))
	}
	return nil
}
