package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	defaultCenter = LngLat{Lng: 113.306646, Lat: 23.383048}
	defaultBounds = Bounds{
		SouthWest: LngLat{Lng: 113.271213, Lat: 23.362449},
		NorthEast: LngLat{Lng: 113.341422, Lat: 23.416018},
	}
)

func hornDevice(name string, pos LngLat, functional bool) Object {
	return Object{
		{"id", 1},
		{"name", name},
		{"type", "horn"},
		{"position", pos},
		{"functional", functional},
	}
}

func dangerZone(color string, path ...LngLat) Object {
	return Object{
		{"id", "1"},
		{"type", "danger"},
		{"path", []any{path}},
		{"height", 1000},
		{"color", color},
	}
}

// defaultScript centers the map on the demo area, places one horn device and
// one danger zone, then hands over to the track loop.
func defaultScript() Script {
	return Script{Steps: []Step{
		{Command: "setCenter", Argument: defaultCenter, Delay: time.Second},
		{Command: "setZooms", Argument: []any{8, 16}, Delay: 500 * time.Millisecond},
		{Command: "setZoom", Argument: 14, Delay: 500 * time.Millisecond},
		{Command: "setPitch", Argument: 70, Delay: time.Second},
		{Command: "setLimitBounds", Argument: defaultBounds, Delay: 500 * time.Millisecond},
		{Command: "addDevice", Argument: hornDevice("horn1", defaultCenter, true), Delay: 500 * time.Millisecond},
		{Command: "updateDevice", Argument: hornDevice("horn2", LngLat{Lng: 113.307646, Lat: 23.383048}, false), Delay: 500 * time.Millisecond},
		{Command: "setTrackClearInterval", Argument: 5000, Delay: time.Second},
		{Command: "addZone", Argument: dangerZone("#0088ffcc",
			LngLat{113.307706, 23.3737},
			LngLat{113.315884, 23.371746},
			LngLat{113.314939, 23.36729},
			LngLat{113.307043, 23.368054},
		), Delay: 2 * time.Second},
		{Command: "updateZone", Argument: dangerZone("#0088aacc",
			LngLat{113.322407, 23.405254},
			LngLat{113.325025, 23.40464},
			LngLat{113.323652, 23.400166},
			LngLat{113.316714, 23.401668},
		), Delay: 2 * time.Second},
	}}
}

// ScriptFile is the YAML layout of a script file. Interval and Batch are
// optional overrides of the command-line values.
type ScriptFile struct {
	Interval time.Duration `yaml:"interval"`
	Batch    int           `yaml:"batch"`
	Steps    []stepFile    `yaml:"steps"`
}

type stepFile struct {
	Target   string        `yaml:"target"`
	Command  string        `yaml:"command"`
	Delay    time.Duration `yaml:"delay"`
	Argument yaml.Node     `yaml:"argument"`
}

// LoadScriptFile reads a YAML script from path.
func LoadScriptFile(path string) (*ScriptFile, Script, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, Script{}, err
	}
	return parseScript(b)
}

func parseScript(b []byte) (*ScriptFile, Script, error) {
	var f ScriptFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, Script{}, fmt.Errorf("parse script: %w", err)
	}
	if f.Interval < 0 {
		return nil, Script{}, errors.New("script interval must not be negative")
	}
	if f.Batch < 0 {
		return nil, Script{}, errors.New("script batch must not be negative")
	}
	var s Script
	for i, sf := range f.Steps {
		if sf.Command == "" {
			return nil, Script{}, fmt.Errorf("step %d: missing command", i+1)
		}
		if sf.Delay < 0 {
			return nil, Script{}, fmt.Errorf("step %d (%s): negative delay", i+1, sf.Command)
		}
		var arg any
		if sf.Argument.Kind != 0 {
			a, err := argumentFromNode(&sf.Argument)
			if err != nil {
				return nil, Script{}, fmt.Errorf("step %d (%s): %w", i+1, sf.Command, err)
			}
			arg = a
		}
		s.Steps = append(s.Steps, Step{
			Target:   sf.Target,
			Command:  sf.Command,
			Argument: arg,
			Delay:    sf.Delay,
		})
	}
	return &f, s, nil
}

// argumentFromNode converts a YAML node to a renderable argument value.
// Mappings keep their key order.
func argumentFromNode(n *yaml.Node) (any, error) {
	switch n.Tag {
	case "!lnglat":
		return lngLatFromNode(n)
	case "!bounds":
		if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
			return nil, fmt.Errorf("line %d: !bounds wants [[west, south], [east, north]]", n.Line)
		}
		sw, err := lngLatFromNode(n.Content[0])
		if err != nil {
			return nil, err
		}
		ne, err := lngLatFromNode(n.Content[1])
		if err != nil {
			return nil, err
		}
		return Bounds{SouthWest: sw, NorthEast: ne}, nil
	case "!expr":
		if n.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: !expr wants a string", n.Line)
		}
		return RawExpr(n.Value), nil
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return argumentFromNode(n.Content[0])
	case yaml.AliasNode:
		return argumentFromNode(n.Alias)
	case yaml.MappingNode:
		obj := make(Object, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := argumentFromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj = append(obj, Field{Key: n.Content[i].Value, Value: v})
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := argumentFromNode(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		return scalarFromNode(n)
	}
	return nil, fmt.Errorf("line %d: unsupported yaml node", n.Line)
}

func scalarFromNode(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	case "!!int":
		var i int
		if err := n.Decode(&i); err != nil {
			return nil, err
		}
		return i, nil
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, err
		}
		return f, nil
	case "!!str", "!!timestamp":
		return n.Value, nil
	}
	return nil, fmt.Errorf("line %d: unsupported tag %s", n.Line, n.Tag)
}

func lngLatFromNode(n *yaml.Node) (LngLat, error) {
	if n.Kind != yaml.SequenceNode || len(n.Content) != 2 {
		return LngLat{}, fmt.Errorf("line %d: lnglat wants [lng, lat]", n.Line)
	}
	lng, err := strconv.ParseFloat(n.Content[0].Value, 64)
	if err != nil {
		return LngLat{}, fmt.Errorf("line %d: lng: %w", n.Line, err)
	}
	lat, err := strconv.ParseFloat(n.Content[1].Value, 64)
	if err != nil {
		return LngLat{}, fmt.Errorf("line %d: lat: %w", n.Line, err)
	}
	return LngLat{Lng: lng, Lat: lat}, nil
}
