package core

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Hand-written MUS serializers for the types the badger-backed index persists.
// The wire layout is field order as declared on the structs.

var (
	embeddingMUS = ord.NewSliceSer[float32](raw.Float32)
	stringSetMUS = ord.NewSliceSer[string](ord.String)
)

// IDMUS serializes chunk IDs.
var IDMUS = idMUS{}

type idMUS struct{}

func (idMUS) Marshal(id ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(id), bs)
}

func (idMUS) Unmarshal(bs []byte) (id ID, n int, err error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return ID(v), n, err
}

func (idMUS) Size(id ID) (size int) {
	return varint.Uint64.Size(uint64(id))
}

func (idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

// ChunkMetadataMUS serializes chunk ownership and provenance metadata.
var ChunkMetadataMUS = chunkMetadataMUS{}

type chunkMetadataMUS struct{}

func (chunkMetadataMUS) Marshal(m ChunkMetadata, bs []byte) (n int) {
	n = ord.String.Marshal(m.OwnerID, bs)
	n += ord.String.Marshal(m.OwnerEmail, bs[n:])
	n += ord.Bool.Marshal(m.IsPublic, bs[n:])
	n += stringSetMUS.Marshal(m.SharedWith, bs[n:])
	n += stringSetMUS.Marshal(m.GroupIDs, bs[n:])
	n += ord.String.Marshal(m.SourceURI, bs[n:])
	n += varint.Int.Marshal(m.ChunkIndex, bs[n:])
	return
}

func (chunkMetadataMUS) Unmarshal(bs []byte) (m ChunkMetadata, n int, err error) {
	var n1 int
	m.OwnerID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	m.OwnerEmail, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.IsPublic, n1, err = ord.Bool.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.SharedWith, n1, err = stringSetMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.GroupIDs, n1, err = stringSetMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.SourceURI, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	m.ChunkIndex, n1, err = varint.Int.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkMetadataMUS) Size(m ChunkMetadata) (size int) {
	size = ord.String.Size(m.OwnerID)
	size += ord.String.Size(m.OwnerEmail)
	size += ord.Bool.Size(m.IsPublic)
	size += stringSetMUS.Size(m.SharedWith)
	size += stringSetMUS.Size(m.GroupIDs)
	size += ord.String.Size(m.SourceURI)
	size += varint.Int.Size(m.ChunkIndex)
	return
}

func (s chunkMetadataMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}

// ChunkMUS serializes chunks.
var ChunkMUS = chunkMUS{}

type chunkMUS struct{}

func (chunkMUS) Marshal(c Chunk, bs []byte) (n int) {
	n = IDMUS.Marshal(c.Id, bs)
	n += ord.String.Marshal(c.DocumentID, bs[n:])
	n += ord.String.Marshal(c.Content, bs[n:])
	n += embeddingMUS.Marshal(c.Embedding, bs[n:])
	n += ChunkMetadataMUS.Marshal(c.Metadata, bs[n:])
	return
}

func (chunkMUS) Unmarshal(bs []byte) (c Chunk, n int, err error) {
	var n1 int
	c.Id, n, err = IDMUS.Unmarshal(bs)
	if err != nil {
		return
	}
	c.DocumentID, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Content, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Embedding, n1, err = embeddingMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	c.Metadata, n1, err = ChunkMetadataMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (chunkMUS) Size(c Chunk) (size int) {
	size = IDMUS.Size(c.Id)
	size += ord.String.Size(c.DocumentID)
	size += ord.String.Size(c.Content)
	size += embeddingMUS.Size(c.Embedding)
	size += ChunkMetadataMUS.Size(c.Metadata)
	return
}

func (s chunkMUS) Skip(bs []byte) (n int, err error) {
	_, n, err = s.Unmarshal(bs)
	return
}
