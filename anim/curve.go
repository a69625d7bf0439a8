package anim

// LinearCurve interpolates a straight line between two values.
type LinearCurve struct {
	from float64
	to   float64
}

// NewLinearCurve creates a LinearCurve from one value to another.
func NewLinearCurve(from, to float64) LinearCurve {
	return LinearCurve{from: from, to: to}
}

func (c LinearCurve) At(part float64) float64 {
	return c.from + (c.to-c.from)*part
}

func (c LinearCurve) End() float64 {
	return c.to
}

// SplineCurve is a cubic Hermite spline through two endpoints with given
// tangents, stored in polynomial form a*t^3 + b*t^2 + c*t + d.
type SplineCurve struct {
	a, b, c, d float64
	end        float64
}

// NewSplineCurve precomputes the polynomial coefficients for the spline.
func NewSplineCurve(startValue, startSpeed, endValue, endSpeed float64) SplineCurve {
	delta := endValue - startValue
	return SplineCurve{
		a:   -2*delta + startSpeed + endSpeed,
		b:   3*delta - 2*startSpeed - endSpeed,
		c:   startSpeed,
		d:   startValue,
		end: endValue,
	}
}

func (s SplineCurve) At(part float64) float64 {
	return ((s.a*part+s.b)*part+s.c)*part + s.d
}

// Slope returns the first derivative of the curve at part.
func (s SplineCurve) Slope(part float64) float64 {
	return (3*s.a*part+2*s.b)*part + s.c
}

func (s SplineCurve) End() float64 {
	return s.end
}

// Coefficients returns the cubic coefficients, highest order first.
func (s SplineCurve) Coefficients() (a, b, c, d float64) {
	return s.a, s.b, s.c, s.d
}
