// Package atmosphere implements the 1976 U.S. standard atmosphere, as used to
// convert between equivalent and true airspeed.
package atmosphere

import "math"

const (
	// EarthRadius is the effective earth radius of the 1976 model in meters
	EarthRadius = 6356.766e3

	// RSpecific is the specific gas constant of air (J/(kg*K)), R_universal / M_air
	RSpecific = 287.053072

	// Gravity is standard gravity in m/s^2
	Gravity = 9.80665

	// SeaLevelDensity is the density used as the EAS reference in kg/m^3
	SeaLevelDensity = 1.225
)

// Layer holds the base conditions of one atmosphere layer.
type Layer struct {
	Altitude    float64 `json:"altitude"`    // geopotential base altitude (m')
	Temperature float64 `json:"temperature"` // base temperature (K)
	Pressure    float64 `json:"pressure"`    // base pressure (Pa)
	Density     float64 `json:"density"`     // base density (kg/m^3)
	Lapse       float64 `json:"lapse"`       // temperature gradient (K/m')
}

// Layers is the 1976 table. Base altitudes are strictly increasing and the
// last layer is unbounded above.
var Layers = [...]Layer{
	{-5000, 320.650, 177687, 1.930467, -6.5e-3},
	{11000, 216.650, 22632.1, 0.363918, 0},
	{20000, 216.650, 5474.89, 8.80349e-2, 1e-3},
	{32000, 228.650, 868.019, 1.32250e-2, 2.8e-3},
	{47000, 270.650, 110.906, 1.42753e-3, 0},
	{51000, 270.650, 66.9389, 8.61606e-4, -2.8e-3},
	{71000, 214.650, 3.95642, 6.42110e-5, -2.0e-3},
	{84852, 186.946, 0.37338, 6.95788e-6, 0},
}

// GeopotentialAltitude converts a geometric altitude in meters to geopotential.
func GeopotentialAltitude(alt float64) float64 {
	return EarthRadius * alt / (EarthRadius + alt)
}

// LayerIndex returns the layer containing a geopotential altitude. Altitudes
// below the first base map to layer 0.
func LayerIndex(geoAlt float64) int {
	for i := 1; i < len(Layers); i++ {
		if geoAlt < Layers[i].Altitude {
			return i - 1
		}
	}
	return len(Layers) - 1
}

// Temperature returns the model temperature at a geopotential altitude within
// the given layer.
func Temperature(geoAlt float64, idx int) float64 {
	l := Layers[idx]
	if l.Lapse == 0 {
		return l.Temperature
	}
	return l.Temperature + l.Lapse*(geoAlt-l.Altitude)
}

// AirDensity returns the density in kg/m^3 at a geometric altitude above mean
// sea level.
func AirDensity(alt float64) float64 {
	h := GeopotentialAltitude(alt)
	idx := LayerIndex(h)
	l := Layers[idx]
	temp := Temperature(h, idx)

	if l.Lapse == 0 {
		// isothermal
		fac := math.Exp(-Gravity / (temp * RSpecific) * (h - l.Altitude))
		return l.Density * fac
	}

	fac := Gravity / (l.Lapse * RSpecific)
	return l.Density * math.Pow(temp/l.Temperature, -(fac + 1))
}

// EAS2TASScale returns the factor converting equivalent to true airspeed at a
// geometric altitude. Non-positive densities fall back to the top layer.
func EAS2TASScale(alt float64) float64 {
	density := AirDensity(alt)
	if density <= 0 || math.IsNaN(density) {
		density = Layers[len(Layers)-1].Density
	}
	return math.Sqrt(SeaLevelDensity / density)
}
