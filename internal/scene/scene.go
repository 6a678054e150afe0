// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package scene is the viewer's handle on the rendering surface: a camera
// and a set of named nodes whose transforms renderers observe.
package scene

import (
	"fmt"
	"math"
	"sync"

	"github.com/relabs-tech/cube_viewer/internal/orientation"
)

// Camera is the view the renderers draw the scene from.
type Camera struct {
	Eye         [3]float64 `json:"eye"`
	Target      [3]float64 `json:"target"`
	Up          [3]float64 `json:"up"`
	FieldOfView float64    `json:"fov_deg"`
}

// NominalCamera looks down -z from far enough that the [-1, 1] square at
// the origin exactly fills a 45° field of view.
func NominalCamera() Camera {
	return Camera{
		Eye:         [3]float64{0, 0, 1 / math.Tan(math.Pi/8)},
		Target:      [3]float64{0, 0, 0},
		Up:          [3]float64{0, 1, 0},
		FieldOfView: 45,
	}
}

// Observer is told about every transform change. It runs on the writer's
// goroutine and must not block.
type Observer func(node string, t orientation.Transform)

// Scene owns the camera and the nodes.
type Scene struct {
	camOnce sync.Once
	camera  Camera

	mu        sync.RWMutex
	nodes     map[string]*Node
	observers []Observer
}

// New returns an empty scene with no camera yet.
func New() *Scene {
	return &Scene{nodes: make(map[string]*Node)}
}

// InitCamera sets the nominal viewing transform. Only the first call has
// an effect.
func (s *Scene) InitCamera() Camera {
	s.camOnce.Do(func() {
		s.camera = NominalCamera()
	})
	return s.camera
}

// Camera returns the camera, initializing it if needed.
func (s *Scene) Camera() Camera {
	return s.InitCamera()
}

// AddNode creates a node with the identity transform. Names are unique.
func (s *Scene) AddNode(name string) (*Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.nodes[name]; ok {
		return nil, fmt.Errorf("scene: node %q already exists", name)
	}
	n := &Node{name: name, scene: s, transform: orientation.IdentityTransform()}
	s.nodes[name] = n
	return n, nil
}

// Node looks up a node by name.
func (s *Scene) Node(name string) (*Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[name]
	return n, ok
}

// Nodes returns a snapshot of every node's transform.
func (s *Scene) Nodes() map[string]orientation.Transform {
	s.mu.RLock()
	nodes := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, n)
	}
	s.mu.RUnlock()

	out := make(map[string]orientation.Transform, len(nodes))
	for _, n := range nodes {
		out[n.name] = n.Transform()
	}
	return out
}

// Observe registers fn for all future transform changes.
func (s *Scene) Observe(fn Observer) {
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

func (s *Scene) notify(name string, t orientation.Transform) {
	s.mu.RLock()
	obs := s.observers
	s.mu.RUnlock()

	for _, fn := range obs {
		fn(name, t)
	}
}

// Node is a transform group in the scene.
type Node struct {
	name  string
	scene *Scene

	mu        sync.RWMutex
	transform orientation.Transform
}

func (n *Node) Name() string { return n.name }

// SetTransform replaces the node's transform wholesale and notifies
// observers.
func (n *Node) SetTransform(t orientation.Transform) {
	t = t.Clone()

	n.mu.Lock()
	n.transform = t
	n.mu.Unlock()

	n.scene.notify(n.name, t.Clone())
}

// Transform returns a copy of the current transform.
func (n *Node) Transform() orientation.Transform {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.transform.Clone()
}
