package diagram

// Slice is a single wedge of one group
type Slice struct {
	Color        string `json:"color" yaml:"color"`
	RankingColor string `json:"rankingColor" yaml:"rankingColor"`
	Label        string `json:"label" yaml:"label"`
	Progress     int    `json:"progress" yaml:"progress"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Group is a thematic cluster of slices occupying a contiguous angular range.
// SliceCount always equals len(Slices) once a mutation has completed.
type Group struct {
	Label        string  `json:"label" yaml:"label"`
	Color        string  `json:"color" yaml:"color"`
	RankingColor string  `json:"rankingColor" yaml:"rankingColor"`
	SliceCount   int     `json:"sliceCount" yaml:"sliceCount"`
	Slices       []Slice `json:"slices" yaml:"slices"`
}

// Indicator is one complete diagram instance
type Indicator struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	CenterImage string  `json:"centerImage"`
	Groups      []Group `json:"groups"`
}

// GlobalConfig is the shared structural template applied across all indicators.
// Progress values inside the template are never read.
type GlobalConfig struct {
	ThemeCount int     `json:"themeCount"`
	SliceCount int     `json:"sliceCount"`
	Groups     []Group `json:"groups"`
}

// Workspace is the persisted document holding every indicator and the template
type Workspace struct {
	Template        GlobalConfig `json:"globalConfig"`
	Indicators      []Indicator  `json:"indicators"`
	ActiveIndicator int          `json:"activeIndicator"`
	NextID          int          `json:"nextId"`
	Version         uint64       `json:"version"`
}

// GroupDefaults holds the colors and slice count used for newly created groups
type GroupDefaults struct {
	SliceCount   int    `yaml:"sliceCount" json:"sliceCount"`
	Color        string `yaml:"color" json:"color"`
	RankingColor string `yaml:"rankingColor" json:"rankingColor"`
}

// RadiusConfig describes the ring geometry of a diagram. The drawing surface is
// 2*OuterRadius square with the circle center at (OuterRadius, OuterRadius).
type RadiusConfig struct {
	CenterRadius       float64 `yaml:"centerRadius" json:"centerRadius"`
	MiddleRadius       float64 `yaml:"middleRadius" json:"middleRadius"`
	OuterRadius        float64 `yaml:"outerRadius" json:"outerRadius"`
	ProgressStep       float64 `yaml:"progressStep" json:"progressStep"`
	StrokeWidth        float64 `yaml:"strokeWidth" json:"strokeWidth"`
	RankingStrokeWidth float64 `yaml:"rankingStrokeWidth" json:"rankingStrokeWidth"`
	LabelInset         float64 `yaml:"labelInset" json:"labelInset"` // distance of label curves inside their ring edge
}

// Config represents the full configuration file
type Config struct {
	Diagram  RadiusConfig   `yaml:"diagram" json:"diagram"`
	Template TemplateConfig `yaml:"template" json:"template"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	MQTT     MQTTConfig     `yaml:"mqtt" json:"mqtt"`
	Sync     SyncConfig     `yaml:"sync" json:"sync"`
	HTTP     HTTPConfig     `yaml:"http" json:"http"`
}

// TemplateConfig is the initial shape of a new workspace
type TemplateConfig struct {
	ThemeCount   int    `yaml:"themeCount" json:"themeCount"`
	SliceCount   int    `yaml:"sliceCount" json:"sliceCount"`
	Color        string `yaml:"color" json:"color"`
	RankingColor string `yaml:"rankingColor" json:"rankingColor"`
	Indicators   int    `yaml:"indicators" json:"indicators"` // number of indicators seeded into an empty workspace
}

// StorageConfig selects where the workspace is persisted
type StorageConfig struct {
	Path   string `yaml:"path" json:"path"`                         // JSON workspace file
	SQLite string `yaml:"sqlite,omitempty" json:"sqlite,omitempty"` // optional SQLite database path
	UserID string `yaml:"userId,omitempty" json:"userId,omitempty"`
}

// MQTTConfig holds MQTT connection settings
type MQTTConfig struct {
	Broker        string `yaml:"broker" json:"broker"`
	PublishPrefix string `yaml:"publishPrefix" json:"publishPrefix"`
	ClientID      string `yaml:"clientId" json:"clientId"`
	Username      string `yaml:"username,omitempty" json:"username,omitempty"`
	Password      string `yaml:"password,omitempty" json:"password,omitempty"`
}

// SyncConfig controls how often snapshots are written to sinks
type SyncConfig struct {
	Interval string `yaml:"interval" json:"interval"` // Go duration, default "3s"
}

// HTTPConfig holds HTTP server settings
type HTTPConfig struct {
	Port int `yaml:"port" json:"port"`
}

// GroupDefaults returns the defaults new groups are created with
func (t TemplateConfig) GroupDefaults() GroupDefaults {
	return GroupDefaults{
		SliceCount:   t.SliceCount,
		Color:        t.Color,
		RankingColor: t.RankingColor,
	}
}
