package scenecast

import "math"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// computeElementTransform computes the element's local-to-canvas affine matrix.
// Returns [a, b, c, d, tx, ty].
//
// Composition order is fixed:
//
//	Scale -> optional horizontal mirror -> optional rotation -> Translate(X, Y)
//
// Scale, mirror, and rotation are applied about the element's base-size
// center, so X/Y always addresses the top-left corner of the unrotated
// scaled box.
func computeElementTransform(e *Element) [6]float64 {
	sx := e.Scale
	sy := e.Scale
	if e.MirroredX {
		sx = -sx
	}

	sin, cos := math.Sincos(e.Rotation * math.Pi / 180)
	rotScale := [6]float64{cos * sx, sin * sx, -sin * sy, cos * sy, 0, 0}

	// Conjugate with the center offset: rotate and scale about the base
	// center, then park the scaled box's center at X + w*Scale/2.
	cx := e.baseW / 2
	cy := e.baseH / 2
	toCenter := [6]float64{1, 0, 0, 1, -cx, -cy}
	place := [6]float64{1, 0, 0, 1, e.X + cx*e.Scale, e.Y + cy*e.Scale}

	return multiplyAffine(place, multiplyAffine(rotScale, toCenter))
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular (determinant ≈ 0).
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// transformedBounds maps the local rectangle [0,w]x[0,h] through m and
// returns the axis-aligned bounding box of the resulting quad.
func transformedBounds(m [6]float64, w, h float64) Rect {
	x0, y0 := transformPoint(m, 0, 0)
	x1, y1 := transformPoint(m, w, 0)
	x2, y2 := transformPoint(m, 0, h)
	x3, y3 := transformPoint(m, w, h)

	minX := math.Min(math.Min(x0, x1), math.Min(x2, x3))
	maxX := math.Max(math.Max(x0, x1), math.Max(x2, x3))
	minY := math.Min(math.Min(y0, y1), math.Min(y2, y3))
	maxY := math.Max(math.Max(y0, y1), math.Max(y2, y3))

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
