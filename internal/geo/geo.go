package geo

import (
	"errors"
	"math"

	"github.com/flightlab/boostersim/pkg/core"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/wroge/wgs84"
)

// Tracks are stored as EPSG:3857 with altitude in Z, because SQLite has no
// spatial awareness and the WKB must be interpretable without PostGIS.

// EarthRadius is the WGS84 semi-major axis in metres.
const EarthRadius = 6378137.0

// ErrShortTrack is returned when a track has fewer than two points.
var ErrShortTrack = errors.New("track needs at least two points")

// Projector maps simulation-frame positions onto the globe. The simulation
// frame is a local tangent plane at the origin: X east, Z north, Y up.
type Projector struct {
	Latitude     float64
	Longitude    float64
	GroundOffset float64 // Y value of the ground surface
}

// TrackPoint is one geodetic fix along the flight path.
type TrackPoint struct {
	Time      float64 `json:"time"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// ToGeodetic converts a simulation position to latitude, longitude (degrees)
// and altitude above ground (metres). Flat-earth approximation, fine for the
// few hundred kilometres a booster covers.
func (p Projector) ToGeodetic(pos core.Vec3) (lat, lon, alt float64) {
	lat0 := p.Latitude * math.Pi / 180
	lat = p.Latitude + (pos.Z/EarthRadius)*180/math.Pi
	lon = p.Longitude + (pos.X/(EarthRadius*math.Cos(lat0)))*180/math.Pi
	alt = pos.Y - p.GroundOffset
	return lat, lon, alt
}

// Track converts trajectory samples to geodetic points.
func (p Projector) Track(samples []core.TrajectorySample) []TrackPoint {
	out := make([]TrackPoint, 0, len(samples))
	for _, s := range samples {
		lat, lon, alt := p.ToGeodetic(s.Position)
		out = append(out, TrackPoint{Time: s.Time, Latitude: lat, Longitude: lon, Altitude: alt})
	}
	return out
}

// LineString builds an XYZ line string in EPSG:3857 from trajectory samples.
func (p Projector) LineString(samples []core.TrajectorySample) (geom.LineString, error) {
	if len(samples) < 2 {
		return geom.LineString{}, ErrShortTrack
	}
	f := wgs84.EPSG().Transform(4326, 3857)
	flat := make([]float64, 0, len(samples)*3)
	for _, s := range samples {
		lat, lon, alt := p.ToGeodetic(s.Position)
		x, y, _ := f(lon, lat, 0)
		flat = append(flat, x, y, alt)
	}
	return geom.NewLineString(geom.NewSequence(flat, geom.DimXYZ)), nil
}

// WKT renders a trajectory as well-known text, or "" when it is too short.
func (p Projector) WKT(samples []core.TrajectorySample) string {
	ls, err := p.LineString(samples)
	if err != nil {
		return ""
	}
	return ls.AsText()
}

// Coords3857From4326 projects a longitude and latitude to Web Mercator.
func Coords3857From4326(longitude, latitude, elevation float64) geom.Point {
	f := wgs84.EPSG().Transform(4326, 3857)
	x, y, _ := f(longitude, latitude, 0)
	return geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: y},
			Z:    elevation,
			Type: geom.DimXYZ,
		},
	)
}
