package main

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

const (
	defaultTarget       = "map"
	updateTracksCommand = "updateTracks"
)

// Frame is one outbound websocket message.
type Frame struct {
	Type int
	Data []byte
}

// Encoder turns scripted steps and track batches into frames.
type Encoder interface {
	EncodeStep(step Step) (Frame, error)
	EncodeTracks(tracks []Track) (Frame, error)
}

// newEncoder picks the encoder for a wire format and track format pair.
func newEncoder(wire, trackFormat string) (Encoder, error) {
	var base Encoder
	switch wire {
	case "command", "":
		base = commandEncoder{}
	case "script":
		base = scriptEncoder{}
	default:
		return nil, fmt.Errorf("unknown wire format %q", wire)
	}
	switch trackFormat {
	case "expr", "":
		return base, nil
	case "gtfsrt":
		return gtfsRtEncoder{Encoder: base}, nil
	default:
		return nil, fmt.Errorf("unknown track format %q", trackFormat)
	}
}

func stepTarget(s Step) string {
	if s.Target == "" {
		return defaultTarget
	}
	return s.Target
}

// commandEncoder sends [target, command, "parameters = <expr>"] as JSON text.
type commandEncoder struct{}

func (commandEncoder) EncodeStep(s Step) (Frame, error) {
	arg := ""
	if s.Argument != nil {
		expr, err := renderExpr(s.Argument)
		if err != nil {
			return Frame{}, fmt.Errorf("%s: %w", s.Command, err)
		}
		arg = "parameters = " + expr
	}
	data, err := json.Marshal([3]string{stepTarget(s), s.Command, arg})
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: websocket.TextMessage, Data: data}, nil
}

func (e commandEncoder) EncodeTracks(tracks []Track) (Frame, error) {
	return e.EncodeStep(Step{Command: updateTracksCommand, Argument: tracksArgument(tracks)})
}

// scriptEncoder sends a statement block calling the component method directly.
type scriptEncoder struct{}

func (scriptEncoder) EncodeStep(s Step) (Frame, error) {
	call := fmt.Sprintf("app.$refs.%s.%s", stepTarget(s), s.Command)
	if s.Argument == nil {
		return Frame{Type: websocket.TextMessage, Data: []byte(call + "();")}, nil
	}
	expr, err := renderExpr(s.Argument)
	if err != nil {
		return Frame{}, fmt.Errorf("%s: %w", s.Command, err)
	}
	text := fmt.Sprintf("let parameter = %s;\n%s(parameter);", expr, call)
	return Frame{Type: websocket.TextMessage, Data: []byte(text)}, nil
}

func (e scriptEncoder) EncodeTracks(tracks []Track) (Frame, error) {
	return e.EncodeStep(Step{Command: updateTracksCommand, Argument: tracksArgument(tracks)})
}
