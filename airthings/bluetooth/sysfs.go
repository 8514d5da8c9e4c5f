package bluetooth

import (
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const sysfsBluetoothClass = "/sys/class/bluetooth"

// listHCIDevices returns the ids of hci<N> entries under root in ascending order.
// A missing root means the host has no Bluetooth adapters.
func listHCIDevices(root string) ([]int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "couldn't list bluetooth adapters in %s", root)
	}

	var ids []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, "hci") {
			continue
		}
		// skips per-connection entries such as hci0:64
		id, err := strconv.Atoi(strings.TrimPrefix(name, "hci"))
		if err != nil || id < 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return ids, nil
}
