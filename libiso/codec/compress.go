package codec

import (
	"encoding/base64"

	"github.com/2x3systems/isofilter/isofilter"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// Armor is the text encoding of compressed or binary canonical forms.
var Armor = base64.RawStdEncoding

// Compressor zstd compresses canonical forms and armors them as single-line text.
type Compressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

func NewCompressor() (*Compressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		return nil, err
	}
	return &Compressor{
		enc: enc,
		dec: dec,
	}, nil
}

// AppendCompressed appends the armored zstd frame of src to out.
func (cmp *Compressor) AppendCompressed(out []byte, src []byte) []byte {
	frame := cmp.enc.EncodeAll(src, nil)
	return AppendArmored(out, frame)
}

// Decompress reverses AppendCompressed.
func (cmp *Compressor) Decompress(armored []byte) ([]byte, error) {
	frame, err := Armor.AppendDecode(nil, armored)
	if err != nil {
		return nil, errors.Wrap(isofilter.ErrUnmarshal, err.Error())
	}
	out, err := cmp.dec.DecodeAll(frame, nil)
	if err != nil {
		return nil, errors.Wrap(isofilter.ErrUnmarshal, err.Error())
	}
	return out, nil
}

func (cmp *Compressor) Close() {
	if cmp.enc != nil {
		cmp.enc.Close()
		cmp.enc = nil
	}
	if cmp.dec != nil {
		cmp.dec.Close()
		cmp.dec = nil
	}
}

// AppendArmored appends src as unpadded standard base64.
func AppendArmored(out []byte, src []byte) []byte {
	return Armor.AppendEncode(out, src)
}
