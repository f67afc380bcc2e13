/*******************************************************************************
*
* Copyright 2015-2018 Stefan Majewsky <majewsky@gmx.net>
*
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You should have received a copy of the License along with this
* program. If not, you may obtain a copy of the License at
*
*     http://www.apache.org/licenses/LICENSE-2.0
*
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
*
*******************************************************************************/

package header

import (
	"bytes"
	"encoding/binary"
)

// Magic is the 8-byte prefix identifying a serialized Header on disk:
// 0x8E 0xAD 0xE8 0x01 followed by 4 reserved zero bytes.
var Magic = [8]byte{0x8E, 0xAD, 0xE8, 0x01, 0x00, 0x00, 0x00, 0x00}

// indexRecord is the 16-byte, big-endian on-disk index entry.
type indexRecord struct {
	Tag    uint32
	Type   uint32
	Offset uint32
	Count  uint32
}

const indexRecordSize = 16

// Reload rewrites h so that every entry currently present becomes a single
// immutable region named by regionTag: the on-disk form produced by Unload
// will begin with a self-referential region descriptor whose byte span
// covers exactly those entries. Entries Put afterwards
// are appended outside the region. Calling Reload again with the same
// regionTag on an unchanged Header is idempotent byte-for-byte.
func (h *Header) Reload(regionTag uint32) {
	t := regionTag
	h.regionTag = &t
	h.regionEntCount = len(h.entries)
}

// SizeOf returns the exact serialized byte count Unload(withMagic) would
// produce, without actually serializing.
func (h *Header) SizeOf(withMagic bool) uint32 {
	return uint32(len(h.unload(withMagic)))
}

// Unload produces the canonical on-disk form of h: an 8-byte magic prefix
// (if withMagic), the header record, the index records (including the
// region descriptor, if Reload was called), and the data store.
func (h *Header) Unload(withMagic bool) []byte {
	return h.unload(withMagic)
}

func (h *Header) unload(withMagic bool) []byte {
	var store bytes.Buffer
	records := make([]indexRecord, 0, len(h.entries)+1)

	for _, e := range h.entries {
		rec := encodeValue(&store, e.Tag, e.Value)
		records = append(records, rec)
	}

	var buf bytes.Buffer
	if withMagic {
		buf.Write(Magic[:])
	}

	if h.regionTag == nil {
		writeHeaderRecord(&buf, uint32(len(records)), uint32(store.Len()))
		for _, r := range records {
			binary.Write(&buf, binary.BigEndian, &r)
		}
		buf.Write(store.Bytes())
		return buf.Bytes()
	}

	// region form: one extra index record up front (pointing at the
	// region's trailing descriptor), and one extra 16-byte negated
	// back-pointer appended to the store; the back-pointer lets a reader
	// validate that the region descriptor is self-consistent.
	dataSizeBeforeBackptr := uint32(store.Len())
	regionRecordCount := uint32(len(records)) + 1

	writeHeaderRecord(&buf, regionRecordCount, dataSizeBeforeBackptr+indexRecordSize)
	binary.Write(&buf, binary.BigEndian, &indexRecord{
		Tag:    *h.regionTag,
		Type:   uint32(Bin),
		Offset: dataSizeBeforeBackptr,
		Count:  indexRecordSize,
	})
	for _, r := range records {
		binary.Write(&buf, binary.BigEndian, &r)
	}
	buf.Write(store.Bytes())
	binary.Write(&buf, binary.BigEndian, &indexRecord{
		Tag:    *h.regionTag,
		Type:   uint32(Bin),
		Offset: uint32(-int32(regionRecordCount) * indexRecordSize),
		Count:  indexRecordSize,
	})
	return buf.Bytes()
}

type headerRecordOnWire struct {
	Magic            [4]byte
	Reserved         [4]byte
	IndexRecordCount uint32
	DataSize         uint32
}

func writeHeaderRecord(buf *bytes.Buffer, recordCount, dataSize uint32) {
	binary.Write(buf, binary.BigEndian, &headerRecordOnWire{
		Magic:            [4]byte{Magic[0], Magic[1], Magic[2], Magic[3]},
		Reserved:         [4]byte{0, 0, 0, 0},
		IndexRecordCount: recordCount,
		DataSize:         dataSize,
	})
}

// encodeValue appends v's bytes (with the type's natural alignment) to
// store and returns the index record describing it.
func encodeValue(store *bytes.Buffer, tag uint32, v Value) indexRecord {
	align := func(n int) {
		for store.Len()%n != 0 {
			store.WriteByte(0)
		}
	}

	switch v.Type {
	case Bin:
		offset := uint32(store.Len())
		store.Write(v.Bytes)
		return indexRecord{Tag: tag, Type: uint32(Bin), Offset: offset, Count: uint32(len(v.Bytes))}
	case Char, U8:
		offset := uint32(store.Len())
		store.Write(v.U8s)
		return indexRecord{Tag: tag, Type: uint32(v.Type), Offset: offset, Count: uint32(len(v.U8s))}
	case U16:
		align(2)
		offset := uint32(store.Len())
		binary.Write(store, binary.BigEndian, v.U16s)
		return indexRecord{Tag: tag, Type: uint32(U16), Offset: offset, Count: uint32(len(v.U16s))}
	case U32:
		align(4)
		offset := uint32(store.Len())
		binary.Write(store, binary.BigEndian, v.U32s)
		return indexRecord{Tag: tag, Type: uint32(U32), Offset: offset, Count: uint32(len(v.U32s))}
	case U64:
		align(8)
		offset := uint32(store.Len())
		binary.Write(store, binary.BigEndian, v.U64s)
		return indexRecord{Tag: tag, Type: uint32(U64), Offset: offset, Count: uint32(len(v.U64s))}
	case Str:
		offset := uint32(store.Len())
		store.WriteString(v.Str)
		store.WriteByte(0)
		return indexRecord{Tag: tag, Type: uint32(Str), Offset: offset, Count: 1}
	case StrArray, I18nStrArray:
		offset := uint32(store.Len())
		for _, s := range v.StrArray {
			store.WriteString(s)
			store.WriteByte(0)
		}
		return indexRecord{Tag: tag, Type: uint32(v.Type), Offset: offset, Count: uint32(len(v.StrArray))}
	default:
		return indexRecord{Tag: tag, Type: uint32(Null)}
	}
}

// Load parses the on-disk form produced by Unload(true) (i.e. with the
// magic prefix). Type/value decoding from raw store bytes happens only
// here, at the load boundary.
func Load(data []byte) (*Header, error) {
	if len(data) < 8 || !bytes.Equal(data[:8], Magic[:]) {
		return nil, ErrBadMagic
	}
	return decode(data[8:])
}

// LoadWithoutMagic parses the on-disk form produced by Unload(false) (no
// magic prefix), as used for the signature header section of an RPM file
// when the caller has already located it via the Lead.
func LoadWithoutMagic(data []byte) (*Header, error) {
	return decode(data)
}

func decode(data []byte) (*Header, error) {
	if len(data) < 16 {
		return nil, ErrBadData
	}
	recordCount := binary.BigEndian.Uint32(data[8:12])
	dataSize := binary.BigEndian.Uint32(data[12:16])

	recordsStart := 16
	recordsEnd := recordsStart + int(recordCount)*indexRecordSize
	storeStart := recordsEnd
	storeEnd := storeStart + int(dataSize)
	if recordsEnd < recordsStart || storeEnd > len(data) || storeEnd < storeStart {
		return nil, ErrBadData
	}
	store := data[storeStart:storeEnd]

	h := New()
	for i := 0; i < int(recordCount); i++ {
		rp := data[recordsStart+i*indexRecordSize : recordsStart+(i+1)*indexRecordSize]
		tag := binary.BigEndian.Uint32(rp[0:4])
		typ := Type(binary.BigEndian.Uint32(rp[4:8]))
		offset := binary.BigEndian.Uint32(rp[8:12])
		count := binary.BigEndian.Uint32(rp[12:16])

		if typ == Bin && isRegionTag(tag) && count == indexRecordSize {
			// region descriptor: record it, but also surface it as a
			// regular Bin entry so that round-tripping (Load∘Unload)
			// reproduces the same entry set.
			if int(offset)+16 <= len(store) {
				h.regionTag = func() *uint32 { t := tag; return &t }()
				h.regionEntCount = int(recordCount) - 1
			}
		}

		v, err := decodeValue(store, typ, offset, count)
		if err != nil {
			return nil, err
		}
		h.entries = append(h.entries, entry{Tag: tag, Value: v})
	}
	h.indexDirty = true
	return h, nil
}

func isRegionTag(tag uint32) bool {
	// the two well-known region tags used by this format; see
	// internal/rpm's constant definitions (HeaderImmutable,
	// HeaderSignatures), duplicated here numerically to keep this package
	// independent of the rpm package.
	return tag == 63 || tag == 62
}

func decodeValue(store []byte, typ Type, offset, count uint32) (Value, error) {
	v := Value{Type: typ}
	if count == 0 && typ != Str {
		return v, nil
	}
	switch typ {
	case Bin:
		end := offset + count
		if end > uint32(len(store)) || end < offset {
			return v, ErrBadData
		}
		v.Bytes = append([]byte(nil), store[offset:end]...)
	case Char, U8:
		end := offset + count
		if end > uint32(len(store)) {
			return v, ErrBadData
		}
		v.U8s = append([]uint8(nil), store[offset:end]...)
	case U16:
		v.U16s = make([]uint16, count)
		for i := range v.U16s {
			p := offset + uint32(i)*2
			if p+2 > uint32(len(store)) {
				return v, ErrBadData
			}
			v.U16s[i] = binary.BigEndian.Uint16(store[p : p+2])
		}
	case U32:
		v.U32s = make([]uint32, count)
		for i := range v.U32s {
			p := offset + uint32(i)*4
			if p+4 > uint32(len(store)) {
				return v, ErrBadData
			}
			v.U32s[i] = binary.BigEndian.Uint32(store[p : p+4])
		}
	case U64:
		v.U64s = make([]uint64, count)
		for i := range v.U64s {
			p := offset + uint32(i)*8
			if p+8 > uint32(len(store)) {
				return v, ErrBadData
			}
			v.U64s[i] = binary.BigEndian.Uint64(store[p : p+8])
		}
	case Str:
		s, err := readCString(store, offset)
		if err != nil {
			return v, err
		}
		v.Str = s
	case StrArray, I18nStrArray:
		pos := offset
		for i := uint32(0); i < count; i++ {
			s, err := readCString(store, pos)
			if err != nil {
				return v, err
			}
			v.StrArray = append(v.StrArray, s)
			pos += uint32(len(s)) + 1
		}
	default:
		// Null/Char-as-0/etc: nothing to decode
	}
	return v, nil
}

func readCString(store []byte, offset uint32) (string, error) {
	if offset > uint32(len(store)) {
		return "", ErrBadData
	}
	end := bytes.IndexByte(store[offset:], 0)
	if end < 0 {
		return "", ErrBadData
	}
	return string(store[offset : offset+uint32(end)]), nil
}
