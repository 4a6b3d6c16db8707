// Package record defines the fixed-size record types stored in shard pages:
// word_record, link_record, and domain_link_record, plus the Record
// interface the shard codec and builder operate on generically.
//
// Grounded on indexes/offset-and-size.go's Bytes()/FromBytes() fixed-width
// encode pattern (github.com/rpcpool/yellowstone-faithful), adapted from a
// single offset/size pair to the three domain-specific record shapes this
// index family needs.
package record

import (
	"encoding/binary"
	"math"
)

// Record is implemented by every record type this index stores. Records
// contain no pointers and compare by PrimaryKey first, then Score, giving
// each record family its natural total order.
type Record interface {
	// PrimaryKey is the field records are grouped and deduplicated by
	// within one key's posting (e.g. the document id for word_record).
	PrimaryKey() uint64
	Score() float32
	Bytes() []byte
}

// WordRecord is {doc_id: u64, score: f32}, 12 bytes on the wire.
type WordRecord struct {
	DocID uint64
	ScoreVal float32
}

const WordRecordSize = 12

func (r WordRecord) PrimaryKey() uint64 { return r.DocID }
func (r WordRecord) Score() float32     { return r.ScoreVal }

func (r WordRecord) Bytes() []byte {
	buf := make([]byte, WordRecordSize)
	binary.LittleEndian.PutUint64(buf[0:8], r.DocID)
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(r.ScoreVal))
	return buf
}

func WordRecordFromBytes(b []byte) WordRecord {
	return WordRecord{
		DocID:    binary.LittleEndian.Uint64(b[0:8]),
		ScoreVal: math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
	}
}

// LinkRecord is {link_hash: u64, score: f32, source_domain: u64, target_hash: u64}.
type LinkRecord struct {
	LinkHash     uint64
	ScoreVal     float32
	SourceDomain uint64
	TargetHash   uint64
}

const LinkRecordSize = 28

func (r LinkRecord) PrimaryKey() uint64 { return r.LinkHash }
func (r LinkRecord) Score() float32     { return r.ScoreVal }
func (r LinkRecord) Domain() uint64     { return r.SourceDomain }

func (r LinkRecord) Bytes() []byte {
	buf := make([]byte, LinkRecordSize)
	binary.LittleEndian.PutUint64(buf[0:8], r.LinkHash)
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(r.ScoreVal))
	binary.LittleEndian.PutUint64(buf[12:20], r.SourceDomain)
	binary.LittleEndian.PutUint64(buf[20:28], r.TargetHash)
	return buf
}

func LinkRecordFromBytes(b []byte) LinkRecord {
	return LinkRecord{
		LinkHash:     binary.LittleEndian.Uint64(b[0:8]),
		ScoreVal:     math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
		SourceDomain: binary.LittleEndian.Uint64(b[12:20]),
		TargetHash:   binary.LittleEndian.Uint64(b[20:28]),
	}
}

// DomainLinkRecord is {link_hash: u64, score: f32, source_domain: u64, target_domain: u64}.
type DomainLinkRecord struct {
	LinkHash     uint64
	ScoreVal     float32
	SourceDomain uint64
	TargetDomain uint64
}

const DomainLinkRecordSize = 28

func (r DomainLinkRecord) PrimaryKey() uint64 { return r.LinkHash }
func (r DomainLinkRecord) Score() float32     { return r.ScoreVal }
func (r DomainLinkRecord) Domain() uint64     { return r.SourceDomain }

func (r DomainLinkRecord) Bytes() []byte {
	buf := make([]byte, DomainLinkRecordSize)
	binary.LittleEndian.PutUint64(buf[0:8], r.LinkHash)
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(r.ScoreVal))
	binary.LittleEndian.PutUint64(buf[12:20], r.SourceDomain)
	binary.LittleEndian.PutUint64(buf[20:28], r.TargetDomain)
	return buf
}

func DomainLinkRecordFromBytes(b []byte) DomainLinkRecord {
	return DomainLinkRecord{
		LinkHash:     binary.LittleEndian.Uint64(b[0:8]),
		ScoreVal:     math.Float32frombits(binary.LittleEndian.Uint32(b[8:12])),
		SourceDomain: binary.LittleEndian.Uint64(b[12:20]),
		TargetDomain: binary.LittleEndian.Uint64(b[20:28]),
	}
}

// Codec is the per-index-family fixed-width (de)serializer a shard needs to
// walk its record area without knowing the concrete record type.
type Codec interface {
	Size() int
	Decode(b []byte) Record
}

type wordCodec struct{}

func (wordCodec) Size() int            { return WordRecordSize }
func (wordCodec) Decode(b []byte) Record { return WordRecordFromBytes(b) }

// WordCodec decodes word_record entries.
var WordCodec Codec = wordCodec{}

type linkCodec struct{}

func (linkCodec) Size() int            { return LinkRecordSize }
func (linkCodec) Decode(b []byte) Record { return LinkRecordFromBytes(b) }

// LinkCodec decodes link_record entries.
var LinkCodec Codec = linkCodec{}

type domainLinkCodec struct{}

func (domainLinkCodec) Size() int            { return DomainLinkRecordSize }
func (domainLinkCodec) Decode(b []byte) Record { return DomainLinkRecordFromBytes(b) }

// DomainLinkCodec decodes domain_link_record entries.
var DomainLinkCodec Codec = domainLinkCodec{}
