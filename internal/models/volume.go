package models

import (
	"errors"
	"fmt"
)

// ErrVolumeShape is returned when a label grid does not match its dimensions.
var ErrVolumeShape = errors.New("label data does not match volume dimensions")

// LabeledVolume is a 3D grid of integer region labels (0 = background).
type LabeledVolume struct {
	// Labels is the grid stored with x varying fastest:
	// index = z*Width*Height + y*Width + x
	Labels []int32

	// Width, Height, Depth are the voxel counts along x, y and z
	Width  int
	Height int
	Depth  int
}

// NewLabeledVolume wraps labels in a volume after checking the dimensions agree.
func NewLabeledVolume(labels []int32, width, height, depth int) (*LabeledVolume, error) {
	if width <= 0 || height <= 0 || depth <= 0 {
		return nil, fmt.Errorf("%w: non-positive dimension %dx%dx%d", ErrVolumeShape, width, height, depth)
	}
	if len(labels) != width*height*depth {
		return nil, fmt.Errorf("%w: have %d labels, want %d", ErrVolumeShape, len(labels), width*height*depth)
	}
	return &LabeledVolume{Labels: labels, Width: width, Height: height, Depth: depth}, nil
}

// NewEmptyVolume returns an all-background volume.
func NewEmptyVolume(width, height, depth int) *LabeledVolume {
	return &LabeledVolume{
		Labels: make([]int32, width*height*depth),
		Width:  width,
		Height: height,
		Depth:  depth,
	}
}

// Index returns the flat offset of voxel (x, y, z).
func (v *LabeledVolume) Index(x, y, z int) int {
	return z*v.Width*v.Height + y*v.Width + x
}

// At returns the label at voxel (x, y, z).
func (v *LabeledVolume) At(x, y, z int) int32 {
	return v.Labels[v.Index(x, y, z)]
}

// Set stores a label at voxel (x, y, z).
func (v *LabeledVolume) Set(x, y, z int, label int32) {
	v.Labels[v.Index(x, y, z)] = label
}

// Voxels returns the index coordinates of every voxel carrying label.
//
// Coordinates are produced in lexicographic (x, y, z) order with z varying
// fastest. Start/end selection for tiny regions and tie-breaking along the
// principal axis both rely on this order.
func (v *LabeledVolume) Voxels(label int32) []Vec3 {
	var out []Vec3
	for x := 0; x < v.Width; x++ {
		for y := 0; y < v.Height; y++ {
			for z := 0; z < v.Depth; z++ {
				if v.Labels[v.Index(x, y, z)] == label {
					out = append(out, Vec3{float64(x), float64(y), float64(z)})
				}
			}
		}
	}
	return out
}

// MaxLabel returns the largest label present in the volume.
func (v *LabeledVolume) MaxLabel() int32 {
	var m int32
	for _, l := range v.Labels {
		if l > m {
			m = l
		}
	}
	return m
}

// VoxelsByLabel groups the index coordinates of every labelled voxel by label
// in a single pass. Each group keeps the order Voxels would produce.
func (v *LabeledVolume) VoxelsByLabel() map[int32][]Vec3 {
	out := make(map[int32][]Vec3)
	for x := 0; x < v.Width; x++ {
		for y := 0; y < v.Height; y++ {
			for z := 0; z < v.Depth; z++ {
				l := v.Labels[v.Index(x, y, z)]
				if l == 0 {
					continue
				}
				out[l] = append(out[l], Vec3{float64(x), float64(y), float64(z)})
			}
		}
	}
	return out
}
