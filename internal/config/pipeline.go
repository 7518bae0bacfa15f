// Package config holds the extraction pipeline configuration.
//
// The channel layout (how many channels the Channel Loader returns, which of
// them are visible bands) is a loader contract, not a pipeline constant, so
// it is declared here rather than hard-coded at the classification site.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Defaults for the reference channel layout: 13 radiance-derived channels
// plus the two trailing coordinate channels appended by the Channel Loader.
const (
	defaultGridChannels = 15
	defaultTileSize     = 3

	// CoordChannels is the number of trailing per-pixel coordinate channels
	// (latitude, longitude) carried by every swath grid.
	CoordChannels = 2
)

var (
	defaultVisibleChannels  = []int{0, 1, 7}
	defaultDerivedVariables = []string{
		"cloud_water_path",
		"cloud_optical_thickness",
		"cloud_top_pressure",
		"cloud_effective_radius",
	}
	defaultTrackVariables = []string{
		"cloud_layers",
		"cloud_layer_base",
		"cloud_layer_top",
	}
)

// PipelineConfig represents the pipeline configuration file. Fields omitted
// from the JSON file retain their default values, so partial configs are
// safe.
type PipelineConfig struct {
	// Channel layout
	GridChannels    *int   `json:"grid_channels,omitempty"`
	VisibleChannels *[]int `json:"visible_channels,omitempty"`

	// Product variables
	RadianceVariable *string   `json:"radiance_variable,omitempty"`
	DerivedVariables *[]string `json:"derived_variables,omitempty"`
	MaskVariable     *string   `json:"mask_variable,omitempty"`
	TrackVariables   *[]string `json:"track_variables,omitempty"`

	// Tile extraction
	TileSize *int `json:"tile_size,omitempty"`
}

// EmptyPipelineConfig returns a PipelineConfig with all fields unset.
func EmptyPipelineConfig() *PipelineConfig {
	return &PipelineConfig{}
}

// LoadPipelineConfig loads a PipelineConfig from a JSON file. The file must
// have a .json extension and stay under the max file size.
func LoadPipelineConfig(path string) (*PipelineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	c := EmptyPipelineConfig()
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the configured values for internal consistency.
func (c *PipelineConfig) Validate() error {
	n := c.GridChannelCount()
	if n <= CoordChannels {
		return fmt.Errorf("grid_channels must exceed %d, got %d", CoordChannels, n)
	}
	for _, v := range c.VisibleChannelSet() {
		if v < 0 || v >= n {
			return fmt.Errorf("visible channel index %d outside grid of %d channels", v, n)
		}
	}
	if ts := c.TileSizeValue(); ts <= 0 {
		return fmt.Errorf("tile_size must be positive, got %d", ts)
	}
	return nil
}

// GridChannelCount returns the total swath grid channel count, coordinate
// channels included.
func (c *PipelineConfig) GridChannelCount() int {
	if c != nil && c.GridChannels != nil {
		return *c.GridChannels
	}
	return defaultGridChannels
}

// VisibleChannelSet returns the indices of visible-band channels, which are
// unavailable at night.
func (c *PipelineConfig) VisibleChannelSet() []int {
	if c != nil && c.VisibleChannels != nil {
		out := make([]int, len(*c.VisibleChannels))
		copy(out, *c.VisibleChannels)
		sort.Ints(out)
		return out
	}
	out := make([]int, len(defaultVisibleChannels))
	copy(out, defaultVisibleChannels)
	return out
}

// FullChannelSet returns every grid channel index in ascending order.
func (c *PipelineConfig) FullChannelSet() []int {
	n := c.GridChannelCount()
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// NightChannelSet returns the full set minus the visible-band indices: the
// channels expected to fill successfully on a night-side swath.
func (c *PipelineConfig) NightChannelSet() []int {
	visible := make(map[int]bool, len(c.VisibleChannelSet()))
	for _, v := range c.VisibleChannelSet() {
		visible[v] = true
	}
	var out []int
	for _, i := range c.FullChannelSet() {
		if !visible[i] {
			out = append(out, i)
		}
	}
	return out
}

// RadianceVariableName returns the NetCDF variable holding the radiance
// channel stack.
func (c *PipelineConfig) RadianceVariableName() string {
	if c != nil && c.RadianceVariable != nil {
		return *c.RadianceVariable
	}
	return "ev_radiance"
}

// DerivedVariableNames returns the derived geophysical product variables, in
// their channel stacking order.
func (c *PipelineConfig) DerivedVariableNames() []string {
	if c != nil && c.DerivedVariables != nil {
		out := make([]string, len(*c.DerivedVariables))
		copy(out, *c.DerivedVariables)
		return out
	}
	out := make([]string, len(defaultDerivedVariables))
	copy(out, defaultDerivedVariables)
	return out
}

// MaskVariableName returns the cloud-mask variable name.
func (c *PipelineConfig) MaskVariableName() string {
	if c != nil && c.MaskVariable != nil {
		return *c.MaskVariable
	}
	return "cloud_mask"
}

// TrackVariableNames returns the track-product variables carried into swath
// metadata when alignment succeeds.
func (c *PipelineConfig) TrackVariableNames() []string {
	if c != nil && c.TrackVariables != nil {
		out := make([]string, len(*c.TrackVariables))
		copy(out, *c.TrackVariables)
		return out
	}
	out := make([]string, len(defaultTrackVariables))
	copy(out, defaultTrackVariables)
	return out
}

// TileSizeValue returns the tile edge length for sampling.
func (c *PipelineConfig) TileSizeValue() int {
	if c != nil && c.TileSize != nil {
		return *c.TileSize
	}
	return defaultTileSize
}
