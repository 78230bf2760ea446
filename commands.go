package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Afveis/cornerstones/diagram"
)

var (
	indicatorID  int
	outputFile   string
	renderFormat string
	httpPort     int
	centerImage  string
	groupColor   string
	rankingColor string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an indicator as SVG, PNG, SVG markup or scene JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		format := renderFormat
		if format == "" {
			format = formatFromExt(outputFile)
		}
		var w io.Writer = cmd.OutOrStdout()
		if outputFile != "" && outputFile != "-" {
			f, err := os.Create(outputFile)
			if err != nil {
				return fmt.Errorf("creating output: %w", err)
			}
			defer f.Close()
			w = f
		}
		if err := app.RenderIndicator(w, indicatorID, format); err != nil {
			return err
		}
		if outputFile != "" && outputFile != "-" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s (%s)\n", outputFile, format)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API and, when a broker is configured, the MQTT feed",
	RunE: func(cmd *cobra.Command, args []string) error {
		port := app.Config.HTTP.Port
		if cmd.Flags().Changed("port") {
			port = httpPort
		}
		return app.RunServe(cmd.Context(), port)
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the template and every indicator",
	RunE: func(cmd *cobra.Command, args []string) error {
		ws := app.Engine.Snapshot()
		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, ws)
		}
		printWorkspace(out, &ws)
		return nil
	},
}

var progressCmd = &cobra.Command{
	Use:   "progress <group> <slice> <value>",
	Short: "Set slice progress (clamped to 0..5)",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := intArgs(args)
		if err != nil {
			return err
		}
		return runCommand(cmd, diagram.Command{
			Op: diagram.CmdSetProgress, Indicator: indicatorID, Group: n[0], Slice: n[1], Value: n[2],
		})
	},
}

var bumpCmd = &cobra.Command{
	Use:   "bump <group> <slice> [delta]",
	Short: "Add delta (default 1) to slice progress",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			args = append(args, "1")
		}
		n, err := intArgs(args)
		if err != nil {
			return err
		}
		return runCommand(cmd, diagram.Command{
			Op: diagram.CmdBumpProgress, Indicator: indicatorID, Group: n[0], Slice: n[1], Value: n[2],
		})
	},
}

var groupsCmd = &cobra.Command{
	Use:   "groups <count>",
	Short: "Set the number of groups on every indicator (1..10)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := intArgs(args)
		if err != nil {
			return err
		}
		return runCommand(cmd, diagram.Command{Op: diagram.CmdResizeGroups, Count: n[0]})
	},
}

var slicesCmd = &cobra.Command{
	Use:   "slices <group> <count>",
	Short: "Set the slice count of a group on every indicator (1..20)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := intArgs(args)
		if err != nil {
			return err
		}
		return runCommand(cmd, diagram.Command{Op: diagram.CmdResizeSlices, Group: n[0], Count: n[1]})
	},
}

var recolorCmd = &cobra.Command{
	Use:   "recolor <group>",
	Short: "Change the fill and/or progress color of a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := intArgs(args)
		if err != nil {
			return err
		}
		c := diagram.Command{Op: diagram.CmdRecolorGroup, Group: n[0]}
		if cmd.Flags().Changed("color") {
			c.Color = &groupColor
		}
		if cmd.Flags().Changed("ranking-color") {
			c.RankingColor = &rankingColor
		}
		if c.Color == nil && c.RankingColor == nil {
			return fmt.Errorf("at least one of --color or --ranking-color is required")
		}
		return runCommand(cmd, c)
	},
}

var renameGroupCmd = &cobra.Command{
	Use:   "rename-group <group> <label>",
	Short: "Rename a group on every indicator",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := intArgs(args[:1])
		if err != nil {
			return err
		}
		return runCommand(cmd, diagram.Command{Op: diagram.CmdRenameGroup, Group: n[0], Label: args[1]})
	},
}

var renameSliceCmd = &cobra.Command{
	Use:   "rename-slice <group> <slice> <label>",
	Short: "Rename a slice on every indicator",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := intArgs(args[:2])
		if err != nil {
			return err
		}
		return runCommand(cmd, diagram.Command{Op: diagram.CmdRenameSlice, Group: n[0], Slice: n[1], Label: args[2]})
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <group> <slice> <text>",
	Short: "Set the description of a slice on one indicator",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := intArgs(args[:2])
		if err != nil {
			return err
		}
		return runCommand(cmd, diagram.Command{
			Op: diagram.CmdDescribeSlice, Indicator: indicatorID, Group: n[0], Slice: n[1], Label: args[2],
		})
	},
}

var renameIndicatorCmd = &cobra.Command{
	Use:   "rename-indicator <name>",
	Short: "Rename an indicator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, diagram.Command{Op: diagram.CmdRenameIndicator, Indicator: indicatorID, Label: args[0]})
	},
}

var addIndicatorCmd = &cobra.Command{
	Use:   "add-indicator",
	Short: "Add an indicator shaped like the template",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, diagram.Command{Op: diagram.CmdAddIndicator, Label: centerImage})
	},
}

var removeIndicatorCmd = &cobra.Command{
	Use:   "remove-indicator <id>",
	Short: "Delete an indicator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := intArgs(args)
		if err != nil {
			return err
		}
		return runCommand(cmd, diagram.Command{Op: diagram.CmdRemoveIndicator, Indicator: n[0]})
	},
}

var useCmd = &cobra.Command{
	Use:   "use <id>",
	Short: "Make an indicator the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := intArgs(args)
		if err != nil {
			return err
		}
		return runCommand(cmd, diagram.Command{Op: diagram.CmdSetActive, Indicator: n[0]})
	},
}

var setImageCmd = &cobra.Command{
	Use:   "set-image <ref>",
	Short: "Replace the center image reference of an indicator",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, diagram.Command{Op: diagram.CmdSetCenterImage, Indicator: indicatorID, Label: args[0]})
	},
}

func init() {
	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "", "output file (default stdout)")
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "svg, png, markup or json (default from output extension, else markup)")
	serveCmd.Flags().IntVar(&httpPort, "port", diagram.DefaultHTTPPort, "HTTP server port (overrides http.port)")
	recolorCmd.Flags().StringVar(&groupColor, "color", "", "group fill color")
	recolorCmd.Flags().StringVar(&rankingColor, "ranking-color", "", "progress ring color")
	addIndicatorCmd.Flags().StringVar(&centerImage, "image", "", "center image reference")

	for _, c := range []*cobra.Command{renderCmd, progressCmd, bumpCmd, describeCmd, renameIndicatorCmd, setImageCmd} {
		c.Flags().IntVarP(&indicatorID, "indicator", "i", 0, "indicator id (default: active indicator)")
	}

	rootCmd.AddCommand(
		renderCmd, serveCmd, inspectCmd,
		progressCmd, bumpCmd, groupsCmd, slicesCmd, recolorCmd,
		renameGroupCmd, renameSliceCmd, describeCmd,
		renameIndicatorCmd, addIndicatorCmd, removeIndicatorCmd, useCmd, setImageCmd,
	)
}

// runCommand executes a mutation and reports the result. Rejected commands
// are errors on the command line.
func runCommand(cmd *cobra.Command, c diagram.Command) error {
	res, err := app.Execute(c)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if jsonOutput {
		if err := writeJSON(out, res); err != nil {
			return err
		}
	}
	if !res.Applied {
		return fmt.Errorf("%s rejected: arguments out of range", c.Op)
	}
	if !jsonOutput {
		switch c.Op {
		case diagram.CmdAddIndicator:
			fmt.Fprintf(out, "Added indicator %d\n", res.Indicator)
		default:
			fmt.Fprintf(out, "%s applied (version %d)\n", c.Op, res.Version)
		}
	}
	return nil
}

func intArgs(args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %q is not an integer", i+1, a)
		}
		out[i] = v
	}
	return out, nil
}

func formatFromExt(path string) string {
	switch {
	case strings.HasSuffix(path, ".png"):
		return FormatPNG
	case strings.HasSuffix(path, ".json"):
		return FormatJSON
	default:
		return FormatMarkup
	}
}

// printWorkspace writes a human readable summary
func printWorkspace(w io.Writer, ws *diagram.Workspace) {
	fmt.Fprintf(w, "Template: %d groups, default %d slices\n", ws.Template.ThemeCount, ws.Template.SliceCount)
	for i := range ws.Indicators {
		ind := &ws.Indicators[i]
		marker := " "
		if ind.ID == ws.ActiveIndicator {
			marker = "*"
		}
		fmt.Fprintf(w, "\n%s [%d] %s (%d slices)\n", marker, ind.ID, ind.DisplayName(), ind.TotalSlices())
		for gi := range ind.Groups {
			grp := &ind.Groups[gi]
			fmt.Fprintf(w, "    %d. %s  %s/%s\n", gi, grp.DisplayLabel(gi), grp.Color, grp.RankingColor)
			for si := range grp.Slices {
				sl := &grp.Slices[si]
				fmt.Fprintf(w, "       %d. %-20s %s%s\n", si, sl.DisplayLabel(si),
					strings.Repeat("#", sl.Progress), strings.Repeat(".", diagram.MaxProgress-sl.Progress))
			}
		}
	}
}
