package diagram

import "fmt"

// Command names accepted by Engine.Execute
const (
	CmdResizeGroups    = "resizeGroups"
	CmdResizeSlices    = "resizeSlices"
	CmdDefaultSlices   = "setDefaultSliceCount"
	CmdSetProgress     = "setProgress"
	CmdBumpProgress    = "bumpProgress"
	CmdRecolorGroup    = "recolorGroup"
	CmdRenameGroup     = "renameGroup"
	CmdRenameSlice     = "renameSlice"
	CmdDescribeSlice   = "describeSlice"
	CmdRenameIndicator = "renameIndicator"
	CmdSetCenterImage  = "setCenterImage"
	CmdAddIndicator    = "addIndicator"
	CmdRemoveIndicator = "removeIndicator"
	CmdSetActive       = "setActive"
)

// Command is a serialisable mutation request. Indicator 0 targets the active
// indicator.
type Command struct {
	Op           string  `json:"op"`
	Indicator    int     `json:"indicator,omitempty"`
	Group        int     `json:"group"`
	Slice        int     `json:"slice"`
	Value        int     `json:"value"`
	Count        int     `json:"count,omitempty"`
	Label        string  `json:"label,omitempty"`
	Color        *string `json:"color,omitempty"`
	RankingColor *string `json:"rankingColor,omitempty"`
}

// CommandResult reports whether a command changed the workspace
type CommandResult struct {
	Op        string `json:"op"`
	Applied   bool   `json:"applied"`
	Indicator int    `json:"indicator,omitempty"`
	Version   uint64 `json:"version"`
}

// Execute dispatches a command. Rejected commands return Applied=false and no
// error; unknown ops and unknown indicators return an error.
func (e *Engine) Execute(cmd Command) (CommandResult, error) {
	res := CommandResult{Op: cmd.Op}

	id := cmd.Indicator
	if id == 0 {
		id = e.ActiveID()
	}
	needsIndicator := false

	switch cmd.Op {
	case CmdResizeGroups:
		res.Applied = e.ResizeGroupCount(cmd.Count)
	case CmdResizeSlices:
		res.Applied = e.ResizeSliceCount(cmd.Group, cmd.Count)
	case CmdDefaultSlices:
		res.Applied = e.SetDefaultSliceCount(cmd.Count)
	case CmdRecolorGroup:
		if cmd.Color != nil && !ValidColor(*cmd.Color) {
			return res, fmt.Errorf("color %q: %w", *cmd.Color, ErrInvalidColor)
		}
		if cmd.RankingColor != nil && !ValidColor(*cmd.RankingColor) {
			return res, fmt.Errorf("rankingColor %q: %w", *cmd.RankingColor, ErrInvalidColor)
		}
		res.Applied = e.RecolorGroup(cmd.Group, cmd.Color, cmd.RankingColor)
	case CmdRenameGroup:
		res.Applied = e.RenameGroup(cmd.Group, cmd.Label)
	case CmdRenameSlice:
		res.Applied = e.RenameSlice(cmd.Group, cmd.Slice, cmd.Label)
	case CmdSetProgress:
		needsIndicator = true
		res.Applied = e.SetSliceProgress(id, cmd.Group, cmd.Slice, cmd.Value)
	case CmdBumpProgress:
		needsIndicator = true
		res.Applied = e.BumpSliceProgress(id, cmd.Group, cmd.Slice, cmd.Value)
	case CmdDescribeSlice:
		needsIndicator = true
		res.Applied = e.DescribeSlice(id, cmd.Group, cmd.Slice, cmd.Label)
	case CmdRenameIndicator:
		needsIndicator = true
		res.Applied = e.RenameIndicator(id, cmd.Label)
	case CmdSetCenterImage:
		needsIndicator = true
		res.Applied = e.SetCenterImage(id, cmd.Label)
	case CmdAddIndicator:
		id = e.AddIndicator(cmd.Label)
		res.Applied = true
	case CmdRemoveIndicator:
		needsIndicator = true
		res.Applied = e.RemoveIndicator(id)
	case CmdSetActive:
		needsIndicator = true
		res.Applied = e.SetActive(id)
	default:
		return res, fmt.Errorf("%q: %w", cmd.Op, ErrUnknownCommand)
	}

	if needsIndicator {
		res.Indicator = id
		if !res.Applied && !e.hasIndicator(id) {
			return res, fmt.Errorf("indicator %d: %w", id, ErrIndicatorNotFound)
		}
	} else if cmd.Op == CmdAddIndicator {
		res.Indicator = id
	}
	res.Version = e.Version()
	return res, nil
}

func (e *Engine) hasIndicator(id int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.find(id) != nil
}
