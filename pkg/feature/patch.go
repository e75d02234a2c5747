package feature

import (
	"maps"
	"time"
)

// Field is a tri-state patch value for nullable flag fields. It distinguishes
// between "leave unchanged" (the zero value), "set to a value" and
// "explicitly clear". Plain pointer fields cannot express the third state.
type Field[T any] struct {
	present bool
	value   *T
}

// SetField returns a Field that sets the target to v.
func SetField[T any](v T) Field[T] {
	return Field[T]{present: true, value: &v}
}

// ClearField returns a Field that clears the target.
func ClearField[T any]() Field[T] {
	return Field[T]{present: true}
}

// Present reports whether the field was supplied at all.
func (f Field[T]) Present() bool { return f.present }

// Value returns the supplied value, or nil when the field clears the target.
func (f Field[T]) Value() *T { return f.value }

func (f Field[T]) apply(dst **T) {
	if !f.present {
		return
	}
	if f.value == nil {
		*dst = nil
		return
	}
	v := *f.value
	*dst = &v
}

// FlagPatch describes a partial flag update. Nil pointer fields are left
// unchanged. The nullable fields (MinTier, StartAt, EndAt) use Field so a
// caller can clear them independently of not supplying them.
type FlagPatch struct {
	Name              *string
	Description       *string
	Enabled           *bool
	PercentageRollout *int
	Metadata          map[string]string
	MinTier           Field[Tier]
	StartAt           Field[time.Time]
	EndAt             Field[time.Time]
}

// applyTo mutates the flag in place. Key and CreatedAt are never touched.
func (p FlagPatch) applyTo(f *Flag) {
	if p.Name != nil {
		f.Name = *p.Name
	}
	if p.Description != nil {
		f.Description = *p.Description
	}
	if p.Enabled != nil {
		f.Enabled = *p.Enabled
	}
	if p.PercentageRollout != nil {
		f.PercentageRollout = *p.PercentageRollout
	}
	if p.Metadata != nil {
		f.Metadata = maps.Clone(p.Metadata)
	}
	p.MinTier.apply(&f.MinTier)
	p.StartAt.apply(&f.StartAt)
	p.EndAt.apply(&f.EndAt)
}
