package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/angelstreet/virtualpytest-sub017/pkg/navgraph"
)

var planCommand = &cli.Command{
	Name:      "plan",
	Usage:     "Resolve and print the path between two screens",
	ArgsUsage: "<from> <to>",
	Description: `Resolve the edge sequence a navigation would take, without touching any
device. With --fleet and --device the path honors the device's model and
OS version; otherwise every edge is considered.

Examples:
  navengine plan -g tvapp.yaml home wifi
  navengine plan -g tvapp.yaml -f fleet.yaml -d living-room-tv home wifi`,
	Action: runPlan,
}

func runPlan(c *cli.Context) error {
	if c.Args().Len() != 2 {
		return fmt.Errorf("expected <from> <to> arguments")
	}
	from, to := c.Args().Get(0), c.Args().Get(1)

	cfg, err := resolveOptions(c)
	if err != nil {
		return err
	}

	graph, err := loadGraph(cfg)
	if err != nil {
		return err
	}

	opts := navgraph.PathOptions{}
	if cfg.Device != "" {
		registry, err := loadRegistry(cfg)
		if err != nil {
			return err
		}
		binding, err := registry.Lookup(cfg.Device)
		if err != nil {
			return err
		}
		opts.DeviceModel = binding.Device.Model
		opts.OSVersion = binding.Device.OSVersion
		fmt.Printf("Device: %s (%s", cfg.Device, binding.Device.Model)
		if binding.Device.OSVersion != "" {
			fmt.Printf(" %s", binding.Device.OSVersion)
		}
		fmt.Println(")")
	}

	path, err := navgraph.FindPath(graph, from, to, opts)
	if err != nil {
		return err
	}

	printPath(graph, from, to, path)
	return nil
}

func printPath(graph *navgraph.Graph, from, to string, path []*navgraph.Edge) {
	if len(path) == 0 {
		fmt.Printf("%s✓%s already at %q, nothing to do\n", color(colorGreen), color(colorReset), to)
		return
	}

	fmt.Printf("\n%s%s → %s%s (%d steps, cost %d)\n",
		color(colorBold), from, to, color(colorReset),
		len(path), navgraph.PathCost(path))

	for i, edge := range path {
		fmt.Printf("  %s[%d]%s %s\n", color(colorCyan), i+1, color(colorReset), edge.Describe())
		for _, action := range edge.Actions {
			fmt.Printf("      %s·%s %s\n", color(colorGray), color(colorReset), action.Describe())
		}
		if node, ok := graph.Node(edge.To); ok {
			for _, v := range node.Verifications {
				fmt.Printf("      %s?%s %s\n", color(colorGray), color(colorReset), v.Describe())
			}
		}
	}
}
