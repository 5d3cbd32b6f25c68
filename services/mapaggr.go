package services

import (
	"context"
	"database/sql"
	"fmt"

	"greenloop/models"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const (
	expectedCells = 160
	minLevel      = 6
	maxLevel      = 16
)

type aggrUnit struct {
	cnt      int64
	origCell s2.CellID
}

// reportMapAggregator clusters report locations into s2 cells at a level
// chosen so the viewport holds roughly expectedCells cells.
type reportMapAggregator struct {
	level int
	aggrs map[s2.CellID]*aggrUnit
}

func cellBaseLevel(vp *models.ViewPort, center *models.Point) int {
	minLL := s2.LatLngFromDegrees(vp.LatMin, vp.LonMin)
	maxLL := s2.LatLngFromDegrees(vp.LatMax, vp.LonMax)

	rect := s2.Rect{
		Lat: r1.Interval{
			Lo: minLL.Lat.Radians(),
			Hi: maxLL.Lat.Radians()},
		Lng: s1.Interval{
			Lo: minLL.Lng.Radians(),
			Hi: maxLL.Lng.Radians()},
	}

	vpArea := rect.Area()

	centerLL := s2.CellIDFromLatLng(s2.LatLngFromDegrees(center.Lat, center.Lon))

	for lv := maxLevel; lv >= minLevel; lv-- {
		cc := s2.CellFromCellID(centerLL.Parent(lv))
		if vpArea/cc.ApproxArea() < expectedCells {
			return lv
		}
	}
	return minLevel // Large enough level
}

func newReportMapAggregator(vp *models.ViewPort, center *models.Point) reportMapAggregator {
	lv := cellBaseLevel(vp, center)
	return reportMapAggregator{
		level: lv,
		aggrs: make(map[s2.CellID]*aggrUnit),
	}
}

func (a *reportMapAggregator) AddPoint(lat, lon float64) {
	pc := s2.CellIDFromLatLng(s2.LatLngFromDegrees(lat, lon))
	parent := pc.Parent(a.level)
	if _, ok := a.aggrs[parent]; !ok {
		a.aggrs[parent] = &aggrUnit{}
	}
	a.aggrs[parent].cnt += 1
	a.aggrs[parent].origCell = pc
}

func (a *reportMapAggregator) ToArray() []models.MapResult {
	r := make([]models.MapResult, 0, len(a.aggrs))
	for c, unit := range a.aggrs {
		ll := c.LatLng()
		// A singleton cluster keeps its original location.
		if unit.cnt == 1 {
			ll = unit.origCell.LatLng()
		}
		r = append(r, models.MapResult{
			Latitude:  ll.Lat.Degrees(),
			Longitude: ll.Lng.Degrees(),
			Count:     unit.cnt,
		})
	}
	return r
}

// MapService aggregates geotagged report locations for map rendering.
type MapService struct {
	db *sql.DB
}

func NewMapService(db *sql.DB) *MapService {
	return &MapService{db: db}
}

// ReportMap clusters the locations of geotagged reports inside the viewport.
func (s *MapService) ReportMap(ctx context.Context, vp models.ViewPort) ([]models.MapResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT latitude, longitude
		FROM reports
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
			AND latitude > ? AND longitude > ?
			AND latitude <= ? AND longitude <= ?`,
		vp.LatMin, vp.LonMin, vp.LatMax, vp.LonMax)
	if err != nil {
		return nil, fmt.Errorf("failed to query report locations: %w", err)
	}
	defer rows.Close()

	center := models.Point{
		Lat: (vp.LatMin + vp.LatMax) / 2,
		Lon: (vp.LonMin + vp.LonMax) / 2,
	}
	a := newReportMapAggregator(&vp, &center)
	for rows.Next() {
		var lat, lon float64
		if err := rows.Scan(&lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan report location: %w", err)
		}
		a.AddPoint(lat, lon)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return a.ToArray(), nil
}
