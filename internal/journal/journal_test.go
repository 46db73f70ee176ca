package journal

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/nabbar/gcproxy/internal/telemetry"
	"github.com/stretchr/testify/require"
)

func TestHeaderLowBitsCarryLinkNumber(t *testing.T) {
	h := Header(1234567, 2)
	usec, linkNum := ParseHeader(h)
	require.Equal(t, 2, linkNum)
	require.Equal(t, uint64(1234567&^0x3), usec)
}

func TestSingleRecordRoundTrip(t *testing.T) {
	h := Header(99, 3)
	var buf bytes.Buffer
	buf.Write(h[:])
	buf.WriteString("frame-bytes")

	rec, err := ReadRecord(&buf)
	require.NoError(t, err)
	require.Equal(t, 3, rec.LinkNum)
	require.Equal(t, "frame-bytes", string(rec.Raw))
}

func TestJournalWritesAndFlushesRecords(t *testing.T) {
	dir := t.TempDir()
	log := telemetry.New(&bytes.Buffer{})

	j, err := Open(filepath.Join(dir, "parsed.log"), filepath.Join(dir, "raw.log"), false, log, nil)
	require.NoError(t, err)

	j.EnqueueRaw(Record{Usec: 42, LinkNum: 1, Raw: []byte("hb")})
	require.NoError(t, j.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "raw.log"))
	require.NoError(t, err)
	require.True(t, bytes.HasSuffix(raw, []byte("hb")))
	require.Len(t, raw, 8+len("hb"))
}

func TestStatusSnapshotWritesStatusFile(t *testing.T) {
	dir := t.TempDir()
	log := telemetry.New(&bytes.Buffer{})

	snapshot := func() []byte { return []byte("flight_mode=MANUAL\n") }
	j, err := Open(filepath.Join(dir, "parsed.log"), filepath.Join(dir, "raw.log"), false, log, snapshot)
	require.NoError(t, err)
	defer j.Close()

	j.snapshotStatus()

	data, err := os.ReadFile(filepath.Join(dir, "status.txt"))
	require.NoError(t, err)
	require.Equal(t, "flight_mode=MANUAL\n", string(data))
}
