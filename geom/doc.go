// Package geom provides the 3D value types used by the ldraw document model:
// Vector3 for positions and directions, Matrix4 for affine transforms and Box3
// for axis-aligned bounding boxes.
//
// The types are thin wrappers over golang.org/x/image/math/f64 so that they can
// be converted to and from the x/image representations without copying.
//
// # Coordinate System
//
// The file format uses a right-handed system with -Y pointing up. Nothing in
// this package depends on that convention; it is noted here because rotation
// helpers follow the reference tool's sign conventions (see RotationXYZ).
package geom
