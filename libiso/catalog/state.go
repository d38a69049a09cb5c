package catalog

import (
	"github.com/2x3systems/isofilter/isofilter"
	"github.com/gogo/protobuf/proto"
	"github.com/pkg/errors"
)

const (
	kMajorVers = 2026
	kMinorVers = 1
)

// catalogState is the header record of a persisted catalog, stored in protobuf wire format.
type catalogState struct {
	MajorVers uint64 // field 1
	MinorVers uint64 // field 2
	KeyStyle  string // field 3
	NumKeys   uint64 // field 4
}

func newCatalogState(style isofilter.KeyStyle) catalogState {
	return catalogState{
		MajorVers: kMajorVers,
		MinorVers: kMinorVers,
		KeyStyle:  string(style),
	}
}

func (st *catalogState) Marshal() ([]byte, error) {
	buf := proto.NewBuffer(make([]byte, 0, 32+len(st.KeyStyle)))

	var err error
	put := func(field uint64, wireType uint64, fn func() error) {
		if err == nil {
			err = buf.EncodeVarint(field<<3 | wireType)
		}
		if err == nil {
			err = fn()
		}
	}
	put(1, proto.WireVarint, func() error { return buf.EncodeVarint(st.MajorVers) })
	put(2, proto.WireVarint, func() error { return buf.EncodeVarint(st.MinorVers) })
	put(3, proto.WireBytes, func() error { return buf.EncodeStringBytes(st.KeyStyle) })
	put(4, proto.WireVarint, func() error { return buf.EncodeVarint(st.NumKeys) })
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (st *catalogState) Unmarshal(val []byte) error {
	buf := proto.NewBuffer(val)

	var err error
	expect := func(field uint64, wireType uint64) {
		var tag uint64
		if err == nil {
			tag, err = buf.DecodeVarint()
		}
		if err == nil && tag != field<<3|wireType {
			err = errors.Errorf("expected field %d, got tag %d", field, tag)
		}
	}

	expect(1, proto.WireVarint)
	if err == nil {
		st.MajorVers, err = buf.DecodeVarint()
	}
	expect(2, proto.WireVarint)
	if err == nil {
		st.MinorVers, err = buf.DecodeVarint()
	}
	expect(3, proto.WireBytes)
	if err == nil {
		st.KeyStyle, err = buf.DecodeStringBytes()
	}
	expect(4, proto.WireVarint)
	if err == nil {
		st.NumKeys, err = buf.DecodeVarint()
	}

	if err != nil {
		return errors.Wrap(isofilter.ErrUnmarshal, err.Error())
	}
	return nil
}
