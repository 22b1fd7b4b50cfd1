package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"fleamarket.gg/internal/market/model"
)

const Version = 1

type Header struct {
	Version   int   `json:"version"`
	CreatedAt int64 `json:"created_at"`
	Offers    int   `json:"offers"`
	Profiles  int   `json:"profiles"`
}

// SnapshotV1 is the persisted market state. Trader offers are rebuilt from
// the assortments on start, so Offers only carries player listings.
type SnapshotV1 struct {
	Header Header `json:"header"`

	CatalogDigest string `json:"catalog_digest,omitempty"`
	TuningDigest  string `json:"tuning_digest,omitempty"`

	Offers []*model.Offer `json:"offers"`
	// Set when profiles are not kept in a database.
	Profiles []*model.Profile `json:"profiles,omitempty"`
}

// New fills the header counts for the given state.
func New(createdAt int64, offers []*model.Offer, profiles []*model.Profile) SnapshotV1 {
	return SnapshotV1{
		Header: Header{
			Version:   Version,
			CreatedAt: createdAt,
			Offers:    len(offers),
			Profiles:  len(profiles),
		},
		Offers:   offers,
		Profiles: profiles,
	}
}

func FileName(createdAt int64) string {
	return fmt.Sprintf("ragfair-%012d.snap.zst", createdAt)
}

// Latest returns the newest snapshot file in dir, or "" when there is none.
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "ragfair-") && strings.HasSuffix(e.Name(), ".snap.zst") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", nil
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 256*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}

// ReadHeader decodes only the leading header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()
	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}
