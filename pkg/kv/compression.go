package kv

import (
	"fmt"

	"github.com/DataDog/zstd"
	"github.com/kelindar/binary"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/tile"
)

func encodeTile(data *tile.Data) ([]byte, error) {
	bb, err := binary.Marshal(*data)
	if err != nil {
		return nil, fmt.Errorf("encode tile %d: %w", data.ID, err)
	}
	return compress(bb)
}

func decodeTile(bbCompressed []byte) (*tile.Data, error) {
	bb, err := decompress(bbCompressed)
	if err != nil {
		return nil, err
	}
	var data tile.Data
	if err := binary.Unmarshal(bb, &data); err != nil {
		return nil, fmt.Errorf("decode tile: %w", err)
	}
	return &data, nil
}

func encodeTileIDs(ids []datastructure.TileID) ([]byte, error) {
	return binary.Marshal(ids)
}

func decodeTileIDs(bb []byte) ([]datastructure.TileID, error) {
	var ids []datastructure.TileID
	err := binary.Unmarshal(bb, &ids)
	return ids, err
}

func compress(bb []byte) ([]byte, error) {
	var bbCompressed []byte
	bbCompressed, err := zstd.Compress(bbCompressed, bb)
	if err != nil {
		return nil, fmt.Errorf("zstd compress: %w", err)
	}
	return bbCompressed, nil
}

func decompress(bbCompressed []byte) ([]byte, error) {
	var bb []byte
	bb, err := zstd.Decompress(bb, bbCompressed)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return bb, nil
}
