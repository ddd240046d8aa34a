package disk

import "fmt"

// Partition describes the encrypted partition selected out of the MBR, in
// sector units.
type Partition struct {
	StartSector uint32
	LenSectors  uint32
}

// ByteOffset returns the partition's starting offset in bytes.
func (p Partition) ByteOffset() uint64 {
	return uint64(p.StartSector) * SectorSize
}

// ByteLen returns the partition's length in bytes.
func (p Partition) ByteLen() uint64 {
	return uint64(p.LenSectors) * SectorSize
}

// SelectEncryptedPartition implements spec.md §3's "Partition selection"
// rule: with exactly one non-empty MBR entry, it is the encrypted partition;
// with exactly two, the second is; any other count is a fatal configuration
// error.
func SelectEncryptedPartition(entries []MBREntry) (Partition, error) {
	switch len(entries) {
	case 1:
		return Partition{StartSector: entries[0].StartingSector, LenSectors: entries[0].TotalSectors}, nil
	case 2:
		return Partition{StartSector: entries[1].StartingSector, LenSectors: entries[1].TotalSectors}, nil
	default:
		return Partition{}, fmt.Errorf("disk: unsupported partition count %d (only 1 or 2 partitions are supported)", len(entries))
	}
}
