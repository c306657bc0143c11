package server

import (
	"meshgrowth/core"
	"meshgrowth/simulation"
)

// Control message types sent by clients
const (
	MessageParams = "params"
	MessageReset  = "reset"
	MessagePause  = "pause"
	MessageResume = "resume"
)

// Server message types
const (
	MessageMesh   = core.MeshUpdateType
	MessageStatus = "status"
	MessageError  = "error"
)

// ControlMessage is read from websocket clients
type ControlMessage struct {
	Type   string        `json:"type"`
	Params *ParamsUpdate `json:"params,omitempty"`
}

// ParamsUpdate changes only the fields that are present
type ParamsUpdate struct {
	Grow              *bool    `json:"grow,omitempty"`
	MaxVertexCount    *int     `json:"maxVertexCount,omitempty"`
	CollisionDistance *float64 `json:"collisionDistance,omitempty"`
	CollisionWeight   *float64 `json:"collisionWeight,omitempty"`
	EdgeLengthWeight  *float64 `json:"edgeLengthWeight,omitempty"`
	BendingWeight     *float64 `json:"bendingWeight,omitempty"`
	UseSpatialIndex   *bool    `json:"useSpatialIndex,omitempty"`
	Subiterations     *int     `json:"subiterations,omitempty"`
}

func (u ParamsUpdate) apply(p simulation.Params, subiterations int) (simulation.Params, int) {
	if u.Grow != nil {
		p.Grow = *u.Grow
	}
	if u.MaxVertexCount != nil {
		p.MaxVertexCount = *u.MaxVertexCount
	}
	if u.CollisionDistance != nil {
		p.CollisionDistance = *u.CollisionDistance
	}
	if u.CollisionWeight != nil {
		p.CollisionWeight = *u.CollisionWeight
	}
	if u.EdgeLengthWeight != nil {
		p.EdgeLengthWeight = *u.EdgeLengthWeight
	}
	if u.BendingWeight != nil {
		p.BendingWeight = *u.BendingWeight
	}
	if u.UseSpatialIndex != nil {
		p.UseSpatialIndex = *u.UseSpatialIndex
	}
	if u.Subiterations != nil {
		subiterations = *u.Subiterations
	}
	return p, subiterations
}

// StatusMessage acknowledges a control message
type StatusMessage struct {
	Type          string            `json:"type"`
	Params        simulation.Params `json:"params"`
	Subiterations int               `json:"subiterations"`
	Paused        bool              `json:"paused"`
	Stats         simulation.Stats  `json:"stats"`
}

// ErrorMessage reports a rejected control message
type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
