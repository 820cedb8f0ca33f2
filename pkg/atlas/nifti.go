package atlas

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"tractcoords/internal/models"
	"tractcoords/pkg/geometry"
)

// ErrUnsupportedFormat is returned for files that are not single-file
// NIfTI-1 volumes with a supported datatype.
var ErrUnsupportedFormat = errors.New("unsupported NIfTI file")

const headerSize = 348

// NIfTI-1 datatype codes.
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat32 = 16
	dtFloat64 = 64
	dtInt8    = 256
	dtUint16  = 512
	dtUint32  = 768
)

// header mirrors the 348-byte NIfTI-1 header layout.
type header struct {
	SizeofHdr     int32
	DataType      [10]byte
	DbName        [18]byte
	Extents       int32
	SessionError  int16
	Regular       byte
	DimInfo       byte
	Dim           [8]int16
	IntentP1      float32
	IntentP2      float32
	IntentP3      float32
	IntentCode    int16
	Datatype      int16
	Bitpix        int16
	SliceStart    int16
	Pixdim        [8]float32
	VoxOffset     float32
	SclSlope      float32
	SclInter      float32
	SliceEnd      int16
	SliceCode     byte
	XyztUnits     byte
	CalMax        float32
	CalMin        float32
	SliceDuration float32
	Toffset       float32
	Glmax         int32
	Glmin         int32
	Descrip       [80]byte
	AuxFile       [24]byte
	QformCode     int16
	SformCode     int16
	QuaternB      float32
	QuaternC      float32
	QuaternD      float32
	QoffsetX      float32
	QoffsetY      float32
	QoffsetZ      float32
	SrowX         [4]float32
	SrowY         [4]float32
	SrowZ         [4]float32
	IntentName    [16]byte
	Magic         [4]byte
}

// LoadNIfTI reads a .nii or .nii.gz label volume and its voxel-to-physical
// affine. Only the first 3D volume of a 4D file is read.
func LoadNIfTI(path string) (*models.LabeledVolume, geometry.Affine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, geometry.Affine{}, err
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, geometry.Affine{}, fmt.Errorf("error opening gzip stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	vol, affine, err := DecodeNIfTI(r)
	if err != nil {
		return nil, geometry.Affine{}, fmt.Errorf("error decoding %s: %w", path, err)
	}
	return vol, affine, nil
}

// DecodeNIfTI reads an uncompressed single-file NIfTI-1 stream.
func DecodeNIfTI(r io.Reader) (*models.LabeledVolume, geometry.Affine, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, geometry.Affine{}, fmt.Errorf("error reading header: %w", err)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if int32(binary.LittleEndian.Uint32(raw)) != headerSize {
		if int32(binary.BigEndian.Uint32(raw)) != headerSize {
			return nil, geometry.Affine{}, fmt.Errorf("%w: bad header size", ErrUnsupportedFormat)
		}
		order = binary.BigEndian
	}

	var hdr header
	if err := binary.Read(bytes.NewReader(raw), order, &hdr); err != nil {
		return nil, geometry.Affine{}, err
	}
	if string(hdr.Magic[:3]) != "n+1" {
		return nil, geometry.Affine{}, fmt.Errorf("%w: magic %q is not single-file NIfTI-1", ErrUnsupportedFormat, hdr.Magic[:3])
	}
	if hdr.Dim[0] < 3 || hdr.Dim[1] < 1 || hdr.Dim[2] < 1 || hdr.Dim[3] < 1 {
		return nil, geometry.Affine{}, fmt.Errorf("%w: dimensions %v", ErrUnsupportedFormat, hdr.Dim)
	}

	// Skip extensions between the header and the voxel data.
	skip := int64(hdr.VoxOffset) - headerSize
	if skip > 0 {
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			return nil, geometry.Affine{}, fmt.Errorf("error skipping extensions: %w", err)
		}
	}

	width, height, depth := int(hdr.Dim[1]), int(hdr.Dim[2]), int(hdr.Dim[3])
	values, err := readVoxels(r, order, hdr.Datatype, width*height*depth)
	if err != nil {
		return nil, geometry.Affine{}, err
	}

	slope, inter := float64(hdr.SclSlope), float64(hdr.SclInter)
	if slope == 0 || math.IsNaN(slope) {
		slope, inter = 1, 0
	}

	labels := make([]int32, len(values))
	for i, v := range values {
		labels[i] = int32(math.Round(v*slope + inter))
	}

	vol, err := models.NewLabeledVolume(labels, width, height, depth)
	if err != nil {
		return nil, geometry.Affine{}, err
	}
	affine, err := headerAffine(&hdr)
	if err != nil {
		return nil, geometry.Affine{}, err
	}
	return vol, affine, nil
}

// bytesPerVoxel reports the on-disk size of one voxel for datatype.
func bytesPerVoxel(datatype int16) (int, bool) {
	switch datatype {
	case dtUint8, dtInt8:
		return 1, true
	case dtInt16, dtUint16:
		return 2, true
	case dtInt32, dtUint32, dtFloat32:
		return 4, true
	case dtFloat64:
		return 8, true
	}
	return 0, false
}

// readVoxels reads n voxels of datatype. The buffer grows only as bytes
// arrive, so a header that overstates its dimensions fails with
// io.ErrUnexpectedEOF instead of allocating the claimed size up front.
func readVoxels(r io.Reader, order binary.ByteOrder, datatype int16, n int) ([]float64, error) {
	size, ok := bytesPerVoxel(datatype)
	if !ok {
		return nil, fmt.Errorf("%w: datatype %d", ErrUnsupportedFormat, datatype)
	}

	want := int64(n) * int64(size)
	raw, err := io.ReadAll(io.LimitReader(r, want))
	if err != nil {
		return nil, fmt.Errorf("error reading voxel data: %w", err)
	}
	if int64(len(raw)) < want {
		return nil, fmt.Errorf("error reading voxel data: %w: have %d of %d bytes",
			io.ErrUnexpectedEOF, len(raw), want)
	}

	out := make([]float64, n)
	for i := range out {
		b := raw[i*size : (i+1)*size]
		switch datatype {
		case dtUint8:
			out[i] = float64(b[0])
		case dtInt8:
			out[i] = float64(int8(b[0]))
		case dtInt16:
			out[i] = float64(int16(order.Uint16(b)))
		case dtUint16:
			out[i] = float64(order.Uint16(b))
		case dtInt32:
			out[i] = float64(int32(order.Uint32(b)))
		case dtUint32:
			out[i] = float64(order.Uint32(b))
		case dtFloat32:
			out[i] = float64(math.Float32frombits(order.Uint32(b)))
		case dtFloat64:
			out[i] = math.Float64frombits(order.Uint64(b))
		}
	}
	return out, nil
}

// headerAffine picks the sform, then the qform, then plain voxel scaling.
func headerAffine(hdr *header) (geometry.Affine, error) {
	if hdr.SformCode > 0 {
		rows := make([]float64, 0, 16)
		for _, row := range [][4]float32{hdr.SrowX, hdr.SrowY, hdr.SrowZ} {
			for _, v := range row {
				rows = append(rows, float64(v))
			}
		}
		return geometry.NewAffine(append(rows, 0, 0, 0, 1))
	}

	dx, dy, dz := float64(hdr.Pixdim[1]), float64(hdr.Pixdim[2]), float64(hdr.Pixdim[3])
	if hdr.QformCode > 0 {
		return qformAffine(hdr, dx, dy, dz)
	}
	return geometry.NewAffine([]float64{
		dx, 0, 0, 0,
		0, dy, 0, 0,
		0, 0, dz, 0,
		0, 0, 0, 1,
	})
}

// qformAffine builds the rotation from the quaternion (b, c, d) and scales
// its columns by the voxel size; pixdim[0] < 0 flips the third axis.
func qformAffine(hdr *header, dx, dy, dz float64) (geometry.Affine, error) {
	b, c, d := float64(hdr.QuaternB), float64(hdr.QuaternC), float64(hdr.QuaternD)
	a := 1 - (b*b + c*c + d*d)
	if a < 1e-7 {
		// Pure 180-degree rotation; renormalise (b, c, d).
		norm := 1 / math.Sqrt(b*b+c*c+d*d)
		b, c, d, a = b*norm, c*norm, d*norm, 0
	} else {
		a = math.Sqrt(a)
	}

	if hdr.Pixdim[0] < 0 {
		dz = -dz
	}

	r := [3][3]float64{
		{a*a + b*b - c*c - d*d, 2 * (b*c - a*d), 2 * (b*d + a*c)},
		{2 * (b*c + a*d), a*a + c*c - b*b - d*d, 2 * (c*d - a*b)},
		{2 * (b*d - a*c), 2 * (c*d + a*b), a*a + d*d - c*c - b*b},
	}
	offset := [3]float64{float64(hdr.QoffsetX), float64(hdr.QoffsetY), float64(hdr.QoffsetZ)}

	rows := make([]float64, 0, 16)
	for i := 0; i < 3; i++ {
		rows = append(rows, r[i][0]*dx, r[i][1]*dy, r[i][2]*dz, offset[i])
	}
	return geometry.NewAffine(append(rows, 0, 0, 0, 1))
}

// WriteNIfTI stores vol as int16 labels with affine in the sform, gzipped
// when path ends in .gz.
func WriteNIfTI(path string, vol *models.LabeledVolume, affine geometry.Affine) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	var w io.Writer = f
	var zw *gzip.Writer
	if strings.HasSuffix(path, ".gz") {
		zw = gzip.NewWriter(f)
		w = zw
	}

	if err := EncodeNIfTI(w, vol, affine); err != nil {
		f.Close()
		return fmt.Errorf("error encoding %s: %w", path, err)
	}
	if zw != nil {
		if err := zw.Close(); err != nil {
			f.Close()
			return err
		}
	}
	return f.Close()
}

// EncodeNIfTI writes an uncompressed little-endian single-file NIfTI-1 stream.
func EncodeNIfTI(w io.Writer, vol *models.LabeledVolume, affine geometry.Affine) error {
	m := affine.RowMajor()
	colNorm := func(j int) float32 {
		return float32(math.Sqrt(m[j]*m[j] + m[4+j]*m[4+j] + m[8+j]*m[8+j]))
	}

	for _, d := range []int{vol.Width, vol.Height, vol.Depth} {
		if d > math.MaxInt16 {
			return fmt.Errorf("dimension %d does not fit int16", d)
		}
	}

	hdr := header{
		SizeofHdr: headerSize,
		Regular:   'r',
		Dim:       [8]int16{3, int16(vol.Width), int16(vol.Height), int16(vol.Depth), 1, 1, 1, 1},
		Datatype:  dtInt16,
		Bitpix:    16,
		Pixdim:    [8]float32{1, colNorm(0), colNorm(1), colNorm(2), 1, 1, 1, 1},
		VoxOffset: headerSize + 4,
		SclSlope:  1,
		XyztUnits: 2, // millimetres
		SformCode: 2, // aligned anatomical
		SrowX:     [4]float32{float32(m[0]), float32(m[1]), float32(m[2]), float32(m[3])},
		SrowY:     [4]float32{float32(m[4]), float32(m[5]), float32(m[6]), float32(m[7])},
		SrowZ:     [4]float32{float32(m[8]), float32(m[9]), float32(m[10]), float32(m[11])},
		Magic:     [4]byte{'n', '+', '1', 0},
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		return err
	}
	// Empty extension block.
	if _, err := bw.Write([]byte{0, 0, 0, 0}); err != nil {
		return err
	}

	data := make([]int16, len(vol.Labels))
	for i, l := range vol.Labels {
		if l > math.MaxInt16 || l < math.MinInt16 {
			return fmt.Errorf("label %d does not fit int16", l)
		}
		data[i] = int16(l)
	}
	if err := binary.Write(bw, binary.LittleEndian, data); err != nil {
		return err
	}
	return bw.Flush()
}
