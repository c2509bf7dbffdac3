package math3d

import "math"

// Mat4 is a 4x4 matrix stored row-major and applied to row vectors
// (v' = v * M), the left-handed convention of the pipeline.
//
// Memory layout (indices):
// | 0  1  2  3  |
// | 4  5  6  7  |
// | 8  9  10 11 |
// | 12 13 14 15 |
//
// For an affine transform rows 0-2 hold the basis vectors and row 3 holds
// the translation. Column 3 feeds the homogeneous w.
type Mat4 [16]float64

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Zero returns the zero matrix.
func Zero() Mat4 {
	return Mat4{}
}

// Translation creates a translation matrix.
func Translation(x, y, z float64) Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		x, y, z, 1,
	}
}

// Scaling creates a scaling matrix.
func Scaling(x, y, z float64) Mat4 {
	return Mat4{
		x, 0, 0, 0,
		0, y, 0, 0,
		0, 0, z, 0,
		0, 0, 0, 1,
	}
}

// RotationX creates a rotation matrix around the X axis.
func RotationX(angle float64) Mat4 {
	s, c := math.Sincos(angle)
	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotationY creates a rotation matrix around the Y axis.
func RotationY(angle float64) Mat4 {
	s, c := math.Sincos(angle)
	return Mat4{
		c, 0, -s, 0,
		0, 1, 0, 0,
		s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// RotationZ creates a rotation matrix around the Z axis.
func RotationZ(angle float64) Mat4 {
	s, c := math.Sincos(angle)
	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// RotationYawPitchRoll composes RotationZ(roll) * RotationX(pitch) *
// RotationY(yaw): roll is applied first, then pitch, then yaw. Mesh
// animation depends on this exact order.
func RotationYawPitchRoll(yaw, pitch, roll float64) Mat4 {
	return RotationZ(roll).Mul(RotationX(pitch)).Mul(RotationY(yaw))
}

// RotationQuaternion creates the rotation of the unit quaternion
// (x, y, z, w), where w is the scalar part.
func RotationQuaternion(x, y, z, w float64) Mat4 {
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z
	return Mat4{
		1 - 2*(yy+zz), 2 * (xy + wz), 2 * (xz - wy), 0,
		2 * (xy - wz), 1 - 2*(xx+zz), 2 * (yz + wx), 0,
		2 * (xz + wy), 2 * (yz - wx), 1 - 2*(xx+yy), 0,
		0, 0, 0, 1,
	}
}

// LookAtLH creates a left-handed view matrix looking from eye towards target.
func LookAtLH(eye, target, up Vec3) Mat4 {
	zAxis := target.Sub(eye)
	zAxis.Normalize()
	xAxis := Cross(up, zAxis)
	xAxis.Normalize()
	yAxis := Cross(zAxis, xAxis)
	yAxis.Normalize()

	ex := -Dot(xAxis, eye)
	ey := -Dot(yAxis, eye)
	ez := -Dot(zAxis, eye)

	return Mat4{
		xAxis.X, yAxis.X, zAxis.X, 0,
		xAxis.Y, yAxis.Y, zAxis.Y, 0,
		xAxis.Z, yAxis.Z, zAxis.Z, 0,
		ex, ey, ez, 1,
	}
}

// PerspectiveFovLH creates a left-handed perspective projection.
// fov is the vertical field of view in radians, aspect is width/height.
// zNear == zFar divides by zero.
func PerspectiveFovLH(fov, aspect, zNear, zFar float64) Mat4 {
	tan := 1.0 / math.Tan(fov*0.5)

	var m Mat4
	m[0] = tan / aspect
	m[5] = tan
	m[11] = 1
	m[14] = (zNear * zFar) / (zNear - zFar)
	return m
}

// PerspectiveLH creates a left-handed perspective projection from the
// width and height of the view volume at the near plane.
func PerspectiveLH(width, height, zNear, zFar float64) Mat4 {
	var m Mat4
	m[0] = (2.0 * zNear) / width
	m[5] = (2.0 * zNear) / height
	m[11] = 1
	m[14] = (zNear * zFar) / (zNear - zFar)
	return m
}

// Mul multiplies two matrices: a * b. A row vector transformed by the
// result is transformed by a first, then by b.
//
//nolint:st1016 // a*b naming convention is clearer for matrix multiplication
func (a Mat4) Mul(b Mat4) Mat4 {
	var m Mat4
	for row := range 4 {
		for col := range 4 {
			var sum float64
			for k := range 4 {
				sum += a[row*4+k] * b[k*4+col]
			}
			m[row*4+col] = sum
		}
	}
	return m
}

// TransformCoordinates transforms v as a point (w=1) and performs the
// homogeneous divide. A zero w yields Inf/NaN components.
func TransformCoordinates(v Vec3, m Mat4) Vec3 {
	x := v.X*m[0] + v.Y*m[4] + v.Z*m[8] + m[12]
	y := v.X*m[1] + v.Y*m[5] + v.Z*m[9] + m[13]
	z := v.X*m[2] + v.Y*m[6] + v.Z*m[10] + m[14]
	w := v.X*m[3] + v.Y*m[7] + v.Z*m[11] + m[15]
	return Vec3{x / w, y / w, z / w}
}

// TransformNormal transforms v as a direction (no translation, no divide).
func TransformNormal(v Vec3, m Mat4) Vec3 {
	return Vec3{
		v.X*m[0] + v.Y*m[4] + v.Z*m[8],
		v.X*m[1] + v.Y*m[5] + v.Z*m[9],
		v.X*m[2] + v.Y*m[6] + v.Z*m[10],
	}
}
