//nolint:revive // types is a standard Go package name pattern
package types

// GradientStop is one color stop of a linear gradient. Pos is in [0,1].
type GradientStop struct {
	Color string  `json:"color"`
	Pos   float64 `json:"pos"`
}

// BGPreset is a named background gradient
type BGPreset struct {
	Name  string         `json:"name"`
	CSS   string         `json:"css"`
	Angle float64        `json:"angle"`
	Stops []GradientStop `json:"stops"`
	Dark  bool           `json:"dark"`
}

func evenStops(colors ...string) []GradientStop {
	stops := make([]GradientStop, len(colors))
	for i, c := range colors {
		pos := 0.0
		if len(colors) > 1 {
			pos = float64(i) / float64(len(colors)-1)
		}
		stops[i] = GradientStop{Color: c, Pos: pos}
	}
	return stops
}

// BGPresets is the fixed background palette. Slides reference entries by index.
var BGPresets = []BGPreset{
	{Name: "MIDNIGHT", CSS: "linear-gradient(160deg,#0d0d1a,#1a1a3a,#0a0a2a)", Angle: 160, Stops: evenStops("#0d0d1a", "#1a1a3a", "#0a0a2a"), Dark: true},
	{Name: "EMBER", CSS: "linear-gradient(160deg,#1a0600,#3d1200,#1a0000)", Angle: 160, Stops: evenStops("#1a0600", "#3d1200", "#1a0000"), Dark: true},
	{Name: "OCEAN", CSS: "linear-gradient(160deg,#021b2e,#0a3352,#01111f)", Angle: 160, Stops: evenStops("#021b2e", "#0a3352", "#01111f"), Dark: true},
	{Name: "NOIR", CSS: "linear-gradient(160deg,#040404,#111,#181818)", Angle: 160, Stops: evenStops("#040404", "#111", "#181818"), Dark: true},
	{Name: "FOREST", CSS: "linear-gradient(160deg,#071a07,#0f2e0f,#040f04)", Angle: 160, Stops: evenStops("#071a07", "#0f2e0f", "#040f04"), Dark: true},
	{Name: "PRISM", CSS: "linear-gradient(160deg,#190a2e,#2e1452,#0a0419)", Angle: 160, Stops: evenStops("#190a2e", "#2e1452", "#0a0419"), Dark: true},
	{Name: "DUSK", CSS: "linear-gradient(180deg,#1a0a20 0%,#3d1040 50%,#ff6b35 100%)", Angle: 180, Stops: evenStops("#1a0a20", "#3d1040", "#ff6b35"), Dark: true},
	{Name: "STEEL", CSS: "linear-gradient(135deg,#0f1923,#1e2d3d,#0a1628)", Angle: 135, Stops: evenStops("#0f1923", "#1e2d3d", "#0a1628"), Dark: true},
	{Name: "BLOOD", CSS: "linear-gradient(160deg,#1a0000,#3d0000,#600)", Angle: 160, Stops: evenStops("#1a0000", "#3d0000", "#600"), Dark: true},
	{Name: "NEON", CSS: "linear-gradient(135deg,#050518,#0a0a30,#001830)", Angle: 135, Stops: evenStops("#050518", "#0a0a30", "#001830"), Dark: true},
	{Name: "CREAM", CSS: "linear-gradient(160deg,#faf6f0,#f0e8d8,#e8dcc8)", Angle: 160, Stops: evenStops("#faf6f0", "#f0e8d8", "#e8dcc8"), Dark: false},
	{Name: "SLATE", CSS: "linear-gradient(160deg,#1c2127,#252d36,#1a2028)", Angle: 160, Stops: evenStops("#1c2127", "#252d36", "#1a2028"), Dark: true},
}

// PresetByName returns the index of the named preset, or -1
func PresetByName(name string) int {
	for i, p := range BGPresets {
		if p.Name == name {
			return i
		}
	}
	return NoPreset
}
