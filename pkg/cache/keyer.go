package cache

// Keyer generates cache keys for layouts.
type Keyer interface {
	// LayoutKey returns the key for a layout of the graph identified by
	// graphHash under opts.
	LayoutKey(graphHash string, opts LayoutKeyOpts) string
}

// LayoutKeyOpts are the parameters that change a layout result.
type LayoutKeyOpts struct {
	Mode        string  `json:"mode"` // "whole" or "ego"
	Rounds      int     `json:"rounds"`
	ScaleFactor float64 `json:"scale_factor,omitempty"`
	Params      any     `json:"params"` // layout algorithm options
}

// DefaultKeyer produces "layout:<sha256>" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// LayoutKey hashes the graph hash together with every option.
func (DefaultKeyer) LayoutKey(graphHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", graphHash, opts)
}
