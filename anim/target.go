package anim

import (
	"fmt"
	"time"
)

// OpacityAttr is the attribute animated by FadeIn and FadeOut.
const OpacityAttr = "opacity"

// A Target exposes named numeric attributes.
type Target interface {
	Attr(name string) (float64, bool)
	SetAttr(name string, v float64) bool
}

type boundAttr struct {
	target Target
	name   string
}

func (b boundAttr) Value() float64 {
	v, _ := b.target.Attr(b.name)
	return v
}

func (b boundAttr) SetValue(v float64) {
	b.target.SetAttr(b.name, v)
}

// Bind returns an Attribute for the named attribute of t. The attribute must
// already exist.
func Bind(t Target, name string) (Attribute, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil target", ErrInvalidTarget)
	}
	if _, ok := t.Attr(name); !ok {
		return nil, fmt.Errorf("%w: no attribute %q", ErrInvalidTarget, name)
	}
	return boundAttr{target: t, name: name}, nil
}

// FadeOut animates the opacity of t from its current value to 0.
func FadeOut(s Scheduler, t Target, duration time.Duration) (*Anim, error) {
	return fadeTo(s, t, duration, 0)
}

// FadeIn animates the opacity of t from its current value to max.
func FadeIn(s Scheduler, t Target, duration time.Duration, max float64) (*Anim, error) {
	return fadeTo(s, t, duration, max)
}

func fadeTo(s Scheduler, t Target, duration time.Duration, value float64) (*Anim, error) {
	attr, err := Bind(t, OpacityAttr)
	if err != nil {
		return nil, err
	}
	return NewLinearAnim(s, attr, duration, attr.Value(), value, nil)
}
