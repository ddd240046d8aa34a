package disk

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildFakeSafeBootDisk lays out a minimal disk image matching the layout
// ParseSafeBoot expects: a SafeBootDiskInf descriptor at sector 1 pointing at
// a two-extent sector map at sector 2, extents at sectors 6-7 and 10-11.
func buildFakeSafeBootDisk(t *testing.T) []byte {
	t.Helper()

	const numSectors = 16
	buf := make([]byte, numSectors*SectorSize)

	// every sector filled with its own index, for easy content assertions
	for n := 0; n < numSectors; n++ {
		for i := 0; i < SectorSize; i++ {
			buf[n*SectorSize+i] = byte(n)
		}
	}

	// 0x1c: pointer to SafeBootDiskInf sector (sector 1)
	binary.LittleEndian.PutUint32(buf[0x1c:0x20], 1)

	diskInfOff := 1 * SectorSize
	copy(buf[diskInfOff:], diskInfSignature)
	buf[diskInfOff+diskInfDiskIDOffset] = 0x07
	buf[diskInfOff+diskInfAlgorithmOffset] = 0x01
	buf[diskInfOff+diskInfSectorCountOff] = 0x05
	// sector-map pointer -> sector 2
	binary.LittleEndian.PutUint32(buf[diskInfOff+diskInfSectorMapOffset:diskInfOff+diskInfSectorMapOffset+4], 2)

	mapOff := 2*SectorSize + sectorMapTableStart
	// row 0: base=5 count=3 -> after first-row adjustment becomes base=6 count=2
	binary.LittleEndian.PutUint32(buf[mapOff:mapOff+4], 5)
	binary.LittleEndian.PutUint32(buf[mapOff+8:mapOff+12], 3)
	// row 1: base=10 count=2
	binary.LittleEndian.PutUint32(buf[mapOff+16:mapOff+20], 10)
	binary.LittleEndian.PutUint32(buf[mapOff+24:mapOff+28], 2)
	// row 2: base=0 terminator (sector 2 is filled with 0x02, so write it)
	binary.LittleEndian.PutUint32(buf[mapOff+32:mapOff+36], 0)

	return buf
}

func TestParseSafeBoot(t *testing.T) {
	disk := buildFakeSafeBootDisk(t)
	r := bytes.NewReader(disk)

	sb, err := ParseSafeBoot(r)
	require.NoError(t, err)

	// reconstructed image = sectors 6,7 followed by sectors 10,11
	require.Len(t, sb.Image, 4*SectorSize)
	require.Equal(t, byte(6), sb.Image[0])
	require.Equal(t, byte(7), sb.Image[SectorSize])
	require.Equal(t, byte(10), sb.Image[2*SectorSize])
	require.Equal(t, byte(11), sb.Image[3*SectorSize])

	require.Equal(t, byte(0x07), sb.Info.DiskID)
	require.Equal(t, byte(0x01), sb.Info.Algorithm)
	require.Equal(t, byte(0x05), sb.Info.SectorCount)
	require.Equal(t, uint32(2), sb.Info.SectorMapPtr)
}

func TestCheckSafeBootMagic(t *testing.T) {
	buf := make([]byte, SectorSize)
	copy(buf[safeBootSignatureOffset:], safeBootSignature)
	require.NoError(t, CheckSafeBootMagic(bytes.NewReader(buf)))

	require.Error(t, CheckSafeBootMagic(bytes.NewReader(make([]byte, SectorSize))))
}

func TestParseSafeBoot_MissingSignature(t *testing.T) {
	disk := make([]byte, 4*SectorSize)
	_, err := ParseSafeBoot(bytes.NewReader(disk))
	require.Error(t, err)
}
