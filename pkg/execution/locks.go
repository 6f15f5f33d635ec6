package execution

import "sync"

// deviceLocks hands out one mutex per device id. A traversal holds its
// device's lock for its whole duration; acquisition is try-only, so a busy
// device rejects immediately instead of queueing callers against hardware.
type deviceLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newDeviceLocks() *deviceLocks {
	return &deviceLocks{locks: make(map[string]*sync.Mutex)}
}

// acquire takes the device's lock or fails with DeviceBusyError. The
// returned release must be called exactly once.
func (d *deviceLocks) acquire(deviceID string) (release func(), err error) {
	d.mu.Lock()
	l, ok := d.locks[deviceID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[deviceID] = l
	}
	d.mu.Unlock()

	if !l.TryLock() {
		return nil, &DeviceBusyError{DeviceID: deviceID}
	}
	return l.Unlock, nil
}
