package cli

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/angelstreet/virtualpytest-sub017/pkg/navgraph"
)

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Validate navigation graph definitions",
	ArgsUsage: "<graph-file>...",
	Description: `Parse and validate one or more navigation graph files. Every problem in
a file is reported, not just the first.

Examples:
  navengine validate tvapp.yaml
  navengine validate graphs/*.yaml`,
	Action: runValidate,
}

func runValidate(c *cli.Context) error {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		if path := c.String("graph"); path != "" {
			paths = []string{path}
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no graph files given")
	}

	failed := 0
	for _, path := range paths {
		if err := validateFile(path); err != nil {
			failed++
		}
	}

	fmt.Println()
	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) invalid", failed, len(paths))
	}
	fmt.Printf("%s✓ %d file(s) valid%s\n", color(colorGreen), len(paths), color(colorReset))
	return nil
}

func validateFile(path string) error {
	graph, err := navgraph.LoadFile(path)
	if err != nil {
		fmt.Printf("%s✗ %s%s\n", color(colorRed), path, color(colorReset))
		printLoadError(err)
		return err
	}

	fmt.Printf("%s✓ %s%s %s(%s v%s: %d nodes, %d edges)%s\n",
		color(colorGreen), path, color(colorReset),
		color(colorGray), graph.Name(), graph.Version(),
		graph.NodeCount(), graph.EdgeCount(), color(colorReset))
	return nil
}

// printLoadError renders parse and validation failures one issue per line.
func printLoadError(err error) {
	var parseErr *navgraph.ParseError
	if errors.As(err, &parseErr) {
		if parseErr.Line > 0 {
			fmt.Printf("    %s╰─%s line %d: %s\n", color(colorGray), color(colorReset), parseErr.Line, parseErr.Message)
		} else {
			fmt.Printf("    %s╰─%s %s\n", color(colorGray), color(colorReset), parseErr.Message)
		}
		return
	}

	var validationErr *navgraph.GraphValidationError
	if errors.As(err, &validationErr) {
		for _, issue := range validationErr.Issues {
			fmt.Printf("    %s╰─%s %s\n", color(colorGray), color(colorReset), issue.String())
		}
		return
	}

	fmt.Printf("    %s╰─%s %v\n", color(colorGray), color(colorReset), err)
}
