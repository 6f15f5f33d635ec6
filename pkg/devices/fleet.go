package devices

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/angelstreet/virtualpytest-sub017/pkg/controller"
)

// Fleet is the serializable device inventory, typically a devices.yaml
// checked in next to the navigation graphs.
type Fleet struct {
	Devices []Device `yaml:"devices"`
}

// ParseFleetFile loads a fleet inventory from a YAML file.
func ParseFleetFile(path string) (Fleet, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is a user-provided fleet file
	if err != nil {
		return Fleet{}, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseFleet(data)
}

// ParseFleet decodes a fleet inventory from YAML content.
func ParseFleet(data []byte) (Fleet, error) {
	var fleet Fleet
	if err := yaml.Unmarshal(data, &fleet); err != nil {
		return Fleet{}, fmt.Errorf("invalid fleet: %w", err)
	}
	for i, d := range fleet.Devices {
		if d.ID == "" {
			return Fleet{}, fmt.Errorf("invalid fleet: device #%d has no id", i+1)
		}
	}
	return fleet, nil
}

// ControllerFactory builds the controller for one device. Implementations
// decide the concrete driver from the device's platform and metadata.
type ControllerFactory func(device Device) (controller.Controller, error)

// BuildRegistry binds every fleet device through the factory.
func BuildRegistry(fleet Fleet, factory ControllerFactory) (*StaticRegistry, error) {
	reg := NewStaticRegistry()
	for _, d := range fleet.Devices {
		ctrl, err := factory(d)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", d.ID, err)
		}
		if err := reg.Register(d, ctrl); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
