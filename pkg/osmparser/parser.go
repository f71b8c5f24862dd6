package osmparser

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/lintang-b-s/navigatorx-querygraph/pkg/datastructure"
	"github.com/lintang-b-s/navigatorx-querygraph/pkg/restriction"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"golang.org/x/exp/slog"
)

var (
	skipHighway = map[string]struct{}{
		"construction":           {},
		"proposed":               {},
		"abandoned":              {},
		"busway":                 {},
		"bridleway":              {},
		"street_lamp":            {},
		"bus_stop":               {},
		"crossing":               {},
		"cyclist_waiting_aid":    {},
		"elevator":               {},
		"emergency_bay":          {},
		"emergency_access_point": {},
		"give_way":               {},
		"phone":                  {},
		"ladder":                 {},
		"milestone":              {},
		"passing_place":          {},
		"platform":               {},
		"speed_camera":           {},
		"bus_guideway":           {},
		"speed_display":          {},
		"stop":                   {},
		"toll_gantry":            {},
		"traffic_mirror":         {},
		"traffic_signals":        {},
		"trailhead":              {},
	}

	// highway classes closed to cars.
	pedestrianOnly = map[string]struct{}{
		"footway":    {},
		"path":       {},
		"pedestrian": {},
		"steps":      {},
		"cycleway":   {},
		"corridor":   {},
		"track":      {},
	}

	// highway classes closed to pedestrians.
	carOnly = map[string]struct{}{
		"motorway":      {},
		"motorway_link": {},
		"trunk":         {},
		"trunk_link":    {},
	}

	guideRoutes = map[string]struct{}{
		"hiking":  {},
		"foot":    {},
		"walking": {},
	}

	// km/h used for the travel time between two stops.
	transitSpeeds = map[string]float64{
		"bus":        20,
		"trolleybus": 20,
		"tram":       20,
		"light_rail": 35,
		"subway":     40,
		"train":      60,
	}
)

const (
	defaultTransitIntervalSec = 600.0
	// seconds from a gate to its stop.
	defaultGateWeightSec = 60.0
)

type parsedWay struct {
	id    int64
	nodes []int64

	class              string
	oneWay             bool
	reversed           bool
	maxSpeed           float64
	car                bool
	pedestrian         bool
	passThroughAllowed bool
}

type parsedRestriction struct {
	kind    restriction.Kind
	from    int64
	via     int64
	viaWays []int64
	to      int64
}

type parsedGuide struct {
	id    int64
	title string
	ways  []int64
}

type parsedLine struct {
	id       int64
	title    string
	speed    float64
	interval float64
	stops    []int64
}

// OsmParser turns an osm extract into tiles. Relations are read first, then ways, then the
// coordinates of the nodes the ways and relations need.
type OsmParser struct {
	resolution int

	ways         []parsedWay
	restrictions []parsedRestriction
	guides       []parsedGuide
	lines        []parsedLine

	// member ways of guide relations, filled by the way pass.
	guideWayMembers map[int64]struct{}
	guideWays       map[int64][]int64
	neededNodes     map[int64]struct{}
	nodes           map[int64]datastructure.LatLonWithAltitude
}

// NewOsmParser resolution is the h3 resolution of the tile partition.
func NewOsmParser(resolution int) *OsmParser {
	return &OsmParser{
		resolution:      resolution,
		ways:            make([]parsedWay, 0),
		restrictions:    make([]parsedRestriction, 0),
		guides:          make([]parsedGuide, 0),
		lines:           make([]parsedLine, 0),
		guideWayMembers: make(map[int64]struct{}),
		guideWays:       make(map[int64][]int64),
		neededNodes:     make(map[int64]struct{}),
		nodes:           make(map[int64]datastructure.LatLonWithAltitude),
	}
}

// Parse reads the pbf file at mapFile. Call BuildTiles afterwards.
func (p *OsmParser) Parse(ctx context.Context, mapFile string) error {
	f, err := os.Open(mapFile)
	if err != nil {
		return err
	}
	defer f.Close()

	passes := []struct {
		name                              string
		skipNodes, skipWays, skipRelation bool
	}{
		{"relations", true, true, false},
		{"ways", true, false, true},
		{"nodes", false, true, true},
	}
	for _, pass := range passes {
		if _, err := f.Seek(0, 0); err != nil {
			return err
		}
		scanner := osmpbf.New(ctx, f, runtime.GOMAXPROCS(-1))
		scanner.SkipNodes = pass.skipNodes
		scanner.SkipWays = pass.skipWays
		scanner.SkipRelations = pass.skipRelation

		count := 0
		for scanner.Scan() {
			switch o := scanner.Object().(type) {
			case *osm.Relation:
				p.AddRelation(o)
			case *osm.Way:
				p.AddWay(o)
			case *osm.Node:
				p.AddNode(o)
			}
			count++
			if count%500000 == 0 {
				slog.Info("reading openstreetmap", "pass", pass.name, "objects", count)
			}
		}
		err := scanner.Err()
		scanner.Close()
		if err != nil {
			return fmt.Errorf("scan %s of %s: %w", pass.name, mapFile, err)
		}
		slog.Info("openstreetmap pass done", "pass", pass.name, "objects", count)
	}
	return nil
}

// AddRelation records restrictions, guide routes and transit routes.
func (p *OsmParser) AddRelation(relation *osm.Relation) {
	switch relation.Tags.Find("type") {
	case "restriction":
		p.addRestriction(relation)
	case "route":
		route := relation.Tags.Find("route")
		if _, ok := guideRoutes[route]; ok {
			p.addGuide(relation)
		} else if speed, ok := transitSpeeds[route]; ok {
			p.addLine(relation, speed)
		}
	}
}

func restrictionKind(value string, uTurn bool) (restriction.Kind, bool) {
	switch {
	case value == "no_u_turn" && uTurn:
		return restriction.KindNoUTurn, true
	case value == "only_u_turn" && uTurn:
		return restriction.KindOnlyUTurn, true
	case strings.HasPrefix(value, "no_"):
		return restriction.KindNo, true
	case strings.HasPrefix(value, "only_"):
		return restriction.KindOnly, true
	}
	return 0, false
}

func (p *OsmParser) addRestriction(relation *osm.Relation) {
	value := relation.Tags.Find("restriction")
	if value == "" {
		value = relation.Tags.Find("restriction:motorcar")
	}

	r := parsedRestriction{}
	for _, m := range relation.Members {
		switch {
		case m.Role == "from" && m.Type == osm.TypeWay:
			r.from = m.Ref
		case m.Role == "to" && m.Type == osm.TypeWay:
			r.to = m.Ref
		case m.Role == "via" && m.Type == osm.TypeNode:
			r.via = m.Ref
		case m.Role == "via" && m.Type == osm.TypeWay:
			r.viaWays = append(r.viaWays, m.Ref)
		}
	}
	if r.from == 0 || r.to == 0 || (r.via == 0 && len(r.viaWays) == 0) {
		return
	}

	kind, ok := restrictionKind(value, r.from == r.to && r.via != 0)
	if !ok {
		return
	}
	r.kind = kind
	p.restrictions = append(p.restrictions, r)
}

func (p *OsmParser) addGuide(relation *osm.Relation) {
	g := parsedGuide{id: int64(relation.ID), title: relation.Tags.Find("name")}
	for _, m := range relation.Members {
		if m.Type != osm.TypeWay {
			continue
		}
		g.ways = append(g.ways, m.Ref)
		p.guideWayMembers[m.Ref] = struct{}{}
	}
	if len(g.ways) > 0 {
		p.guides = append(p.guides, g)
	}
}

func (p *OsmParser) addLine(relation *osm.Relation, speed float64) {
	l := parsedLine{
		id:       int64(relation.ID),
		title:    relation.Tags.Find("name"),
		speed:    speed,
		interval: parseInterval(relation.Tags.Find("interval")),
	}
	for _, m := range relation.Members {
		if m.Type == osm.TypeNode && strings.HasPrefix(m.Role, "stop") {
			l.stops = append(l.stops, m.Ref)
			p.neededNodes[m.Ref] = struct{}{}
		}
	}
	if len(l.stops) > 1 {
		p.lines = append(p.lines, l)
	}
}

// parseInterval reads the interval tag, minutes or hh:mm, into seconds.
func parseInterval(value string) float64 {
	if value == "" {
		return defaultTransitIntervalSec
	}
	if h, m, ok := strings.Cut(value, ":"); ok {
		hours, err1 := strconv.Atoi(h)
		minutes, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil {
			return defaultTransitIntervalSec
		}
		return float64(hours*3600 + minutes*60)
	}
	minutes, err := strconv.ParseFloat(value, 64)
	if err != nil || minutes <= 0 {
		return defaultTransitIntervalSec
	}
	return minutes * 60
}

// AddWay keeps routable ways and the member ways of guide routes.
func (p *OsmParser) AddWay(way *osm.Way) {
	if len(way.Nodes) < 2 {
		return
	}
	id := int64(way.ID)
	nodes := make([]int64, 0, len(way.Nodes))
	for _, n := range way.Nodes {
		nodes = append(nodes, int64(n.ID))
	}

	if _, ok := p.guideWayMembers[id]; ok {
		p.guideWays[id] = nodes
		p.markNeeded(nodes)
	}

	if !acceptOsmWay(way) {
		return
	}
	pw, ok := processWay(way)
	if !ok {
		return
	}
	pw.id = id
	pw.nodes = nodes
	p.ways = append(p.ways, pw)
	p.markNeeded(nodes)
}

func (p *OsmParser) markNeeded(nodes []int64) {
	for _, n := range nodes {
		p.neededNodes[n] = struct{}{}
	}
}

func (p *OsmParser) AddNode(node *osm.Node) {
	id := int64(node.ID)
	if _, ok := p.neededNodes[id]; ok {
		p.nodes[id] = datastructure.NewLatLon(node.Lat, node.Lon)
	}
}

func isRestricted(value string) bool {
	switch value {
	case "no", "restricted", "military", "emergency", "private", "permit", "agricultural", "forestry":
		return true
	}
	return false
}

func getReversedOneWay(way *osm.Way) (bool, bool, bool, bool) {
	vehicleForward := way.Tags.Find("vehicle:forward")
	motorVehicleForward := way.Tags.Find("motor_vehicle:forward")
	vehicleBackward := way.Tags.Find("vehicle:backward")
	motorVehicleBackward := way.Tags.Find("motor_vehicle:backward")
	return isRestricted(vehicleForward), isRestricted(motorVehicleForward), isRestricted(vehicleBackward), isRestricted(motorVehicleBackward)
}

// processWay reads the routing attributes of way. Ways closed to both cars and pedestrians
// are dropped.
func processWay(way *osm.Way) (parsedWay, bool) {
	highway := way.Tags.Find("highway")
	pw := parsedWay{class: highway, passThroughAllowed: true}

	_, walkOnly := pedestrianOnly[highway]
	_, driveOnly := carOnly[highway]
	pw.car = !walkOnly
	pw.pedestrian = !driveOnly

	access := way.Tags.Find("access")
	if isRestricted(access) {
		pw.car, pw.pedestrian = false, false
	}
	switch v := way.Tags.Find("motor_vehicle"); {
	case isRestricted(v):
		pw.car = false
	case v == "yes" || v == "designated" || v == "destination":
		pw.car = true
	}
	if v := way.Tags.Find("motorcar"); isRestricted(v) {
		pw.car = false
	}
	if v := way.Tags.Find("foot"); v != "" {
		pw.pedestrian = !isRestricted(v) && v != "use_sidepath"
	}
	if access == "destination" || way.Tags.Find("motor_vehicle") == "destination" {
		pw.passThroughAllowed = false
	}
	if !pw.car && !pw.pedestrian {
		return pw, false
	}

	okvf, okmvf, okvb, okmvb := getReversedOneWay(way)
	oneway := way.Tags.Find("oneway")
	junction := way.Tags.Find("junction")
	switch {
	case oneway == "-1" || okvf || okmvf:
		pw.oneWay, pw.reversed = true, true
	case oneway == "yes" || oneway == "true" || oneway == "1" || okvb || okmvb:
		pw.oneWay = true
	case oneway == "" && (junction == "roundabout" || junction == "circular" || highway == "motorway"):
		pw.oneWay = true
	}

	pw.maxSpeed = parseMaxSpeed(way.Tags.Find("maxspeed"))
	return pw, true
}

// parseMaxSpeed km/h, zero when the tag is missing or unreadable.
func parseMaxSpeed(value string) float64 {
	if value == "" {
		return 0
	}
	factor := 1.0
	switch {
	case strings.HasSuffix(value, "mph"):
		factor = 1.60934
		value = strings.TrimSuffix(value, "mph")
	case strings.HasSuffix(value, "knots"):
		factor = 1.852
		value = strings.TrimSuffix(value, "knots")
	case strings.HasSuffix(value, "km/h"):
		value = strings.TrimSuffix(value, "km/h")
	}
	speed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return speed * factor
}

func acceptOsmWay(way *osm.Way) bool {
	highway := way.Tags.Find("highway")
	if highway == "" {
		return false
	}
	if _, ok := skipHighway[highway]; ok {
		return false
	}
	return way.Tags.Find("area") != "yes"
}
