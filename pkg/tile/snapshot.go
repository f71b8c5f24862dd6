package tile

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/kelindar/binary"
	"github.com/klauspost/compress/zstd"
)

// snapshot is a set of tiles in one zstd compressed file, used to run the engine
// without the badger store.
type snapshot struct {
	Tiles []Data
}

func compressData(inData []byte, bbufOut *bytes.Buffer) error {
	inputBuf := bytes.NewBuffer(inData)
	encoder, err := zstd.NewWriter(bbufOut, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	_, err = io.Copy(encoder, inputBuf)
	if err != nil {
		encoder.Close()
		return err
	}
	return encoder.Close()
}

func decompressData(in io.Reader, out io.Writer) error {
	d, err := zstd.NewReader(in)
	if err != nil {
		return err
	}
	defer d.Close()

	_, err = io.Copy(out, d)
	return err
}

func WriteSnapshot(w io.Writer, tiles ...*Data) error {
	s := snapshot{Tiles: make([]Data, 0, len(tiles))}
	for _, t := range tiles {
		s.Tiles = append(s.Tiles, *t)
	}
	encoded, err := binary.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	var buf bytes.Buffer
	if err := compressData(encoded, &buf); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func ReadSnapshot(r io.Reader) ([]*Data, error) {
	var buf bytes.Buffer
	if err := decompressData(r, &buf); err != nil {
		return nil, fmt.Errorf("decompress snapshot: %w", err)
	}

	var s snapshot
	if err := binary.Unmarshal(buf.Bytes(), &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	tiles := make([]*Data, 0, len(s.Tiles))
	for i := range s.Tiles {
		tiles = append(tiles, &s.Tiles[i])
	}
	return tiles, nil
}

func SaveSnapshotFile(path string, tiles ...*Data) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSnapshot(f, tiles...); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadSnapshotFile returns a MemorySource with the tiles of the snapshot at path.
func LoadSnapshotFile(path string) (*MemorySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	tiles, err := ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}
	return NewMemorySource(tiles...), nil
}
