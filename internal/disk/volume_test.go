package disk

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeVolumePath_NonWindowsPassthrough(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("behavior only applies off Windows")
	}
	require.Equal(t, "/dev/sdb1", NormalizeVolumePath("/dev/sdb1"))
}
