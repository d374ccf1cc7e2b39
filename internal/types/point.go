// README: Geographic point value object.
package types

// Point is a WGS84 position in decimal degrees.
type Point struct {
	Lat float64
	Lng float64
}
