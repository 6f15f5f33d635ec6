// Package devices models the device fleet: per-device metadata and the
// registry that hands out controller bindings by device id. The engine
// treats the registry as a lookup; controller lifecycle stays with whoever
// populated it.
package devices

import (
	"fmt"
	"sync"

	"github.com/angelstreet/virtualpytest-sub017/pkg/controller"
)

// Device describes one device under test.
type Device struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	// Model is the hardware model used by edge applicability filters,
	// e.g. "fire_tv", "apple_tv_4k".
	Model string `yaml:"model" json:"model"`
	// Platform is the broad device class: android, ios, stb, desktop, web.
	Platform  string            `yaml:"platform" json:"platform"`
	OSVersion string            `yaml:"osVersion" json:"osVersion"`
	Metadata  map[string]string `yaml:"metadata" json:"metadata,omitempty"`
}

// Binding pairs a device with the controller that drives it. A traversal
// borrows the binding for its duration and never retains it afterwards.
type Binding struct {
	Device     Device
	Controller controller.Controller
}

// Registry supplies controller bindings by device id.
type Registry interface {
	Lookup(deviceID string) (Binding, error)
}

// NotFoundError reports a device id absent from the registry.
type NotFoundError struct {
	DeviceID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("device %q not registered", e.DeviceID)
}

// StaticRegistry is an in-memory Registry. Safe for concurrent use.
type StaticRegistry struct {
	mu       sync.RWMutex
	bindings map[string]Binding
	order    []string
}

// NewStaticRegistry creates an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{bindings: make(map[string]Binding)}
}

// Register adds a device with its controller. Device ids are unique;
// registering an id twice is an error.
func (r *StaticRegistry) Register(device Device, ctrl controller.Controller) error {
	if device.ID == "" {
		return fmt.Errorf("device id is required")
	}
	if ctrl == nil {
		return fmt.Errorf("device %q: controller is required", device.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.bindings[device.ID]; dup {
		return fmt.Errorf("device %q already registered", device.ID)
	}
	r.bindings[device.ID] = Binding{Device: device, Controller: ctrl}
	r.order = append(r.order, device.ID)
	return nil
}

// Lookup returns the binding for a device id.
func (r *StaticRegistry) Lookup(deviceID string) (Binding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bindings[deviceID]
	if !ok {
		return Binding{}, &NotFoundError{DeviceID: deviceID}
	}
	return b, nil
}

// Devices lists registered devices in registration order.
func (r *StaticRegistry) Devices() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	devices := make([]Device, 0, len(r.order))
	for _, id := range r.order {
		devices = append(devices, r.bindings[id].Device)
	}
	return devices
}
