package main

import (
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownTopology indicates a topology name that is not registered.
	ErrUnknownTopology = errors.New("topology: unknown name")

	// ErrInvalidLayer indicates a layer with a non-positive kernel or stride
	// or a negative depth.
	ErrInvalidLayer = errors.New("topology: invalid layer")

	// ErrEmptyTopology indicates a topology without layers.
	ErrEmptyTopology = errors.New("topology: no layers")
)

// Layer describes one convolution of a network.
//
// Depth is the number of output channels. Depth 0 marks a depthwise layer:
// every input channel is convolved on its own, which the sweep models by
// folding channels into the batch and using one input and one output
// channel.
type Layer struct {
	Kernel int `yaml:"kernel" json:"kernel"`
	Stride int `yaml:"stride" json:"stride"`
	Depth  int `yaml:"depth" json:"depth"`
}

// Depthwise reports whether l is a depthwise layer.
func (l Layer) Depthwise() bool {
	return l.Depth == 0
}

// Topology is a named, ordered list of layers plus the sweep parameters it
// was designed for. Zero Batch, Size or Depth mean "use the sweep default".
type Topology struct {
	Name   string  `yaml:"name"`
	Batch  int     `yaml:"batch,omitempty"`
	Size   int     `yaml:"size,omitempty"`
	Depth  int     `yaml:"depth,omitempty"`
	Layers []Layer `yaml:"layers"`
}

// MobileNetV1 lists every convolution of MobileNet v1
// (https://github.com/tensorflow/models/blob/master/research/slim/nets/mobilenet_v1.py).
// Each depthwise separable block appears as two entries: a kxk depthwise
// convolution (depth 0) followed by a 1x1 pointwise convolution.
var MobileNetV1 = []Layer{
	{3, 2, 32},
	{3, 1, 0},
	{1, 1, 64},
	{3, 2, 0},
	{1, 1, 128},
	{3, 1, 0},
	{1, 1, 128},
	{3, 2, 0},
	{1, 1, 256},
	{3, 1, 0},
	{1, 1, 256},
	{3, 2, 0},
	{1, 1, 512},
	{3, 1, 0},
	{1, 1, 512},
	{3, 2, 0},
	{1, 1, 1024},
	{3, 1, 0},
	{1, 1, 1024},
}

// DefaultTopology is the topology the bare command sweeps.
const DefaultTopology = "mobilenet-v1"

var topologies = map[string]Topology{
	"mobilenet-v1": {
		Name:   "mobilenet-v1",
		Layers: MobileNetV1,
	},
	"mobilenet-v1-head": {
		Name:   "mobilenet-v1-head",
		Layers: MobileNetV1[:3],
	},
}

// Topologies returns the registered topology names, sorted.
func Topologies() []string {
	names := make([]string, 0, len(topologies))
	for name := range topologies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupTopology returns a copy of the named built-in topology.
func LookupTopology(name string) (Topology, error) {
	t, ok := topologies[name]
	if !ok {
		return Topology{}, errors.Wrapf(ErrUnknownTopology, "%q", name)
	}
	t.Layers = append([]Layer(nil), t.Layers...)
	return t, nil
}

// LoadTopology reads a topology from a YAML file.
func LoadTopology(path string) (Topology, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Topology{}, errors.Wrap(err, "reading topology")
	}

	t, err := ParseTopology(data)
	if err != nil {
		return Topology{}, errors.Wrapf(err, "parsing %s", path)
	}
	return t, nil
}

// ParseTopology decodes and validates a YAML topology document.
func ParseTopology(data []byte) (Topology, error) {
	var t Topology
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Topology{}, errors.Wrap(err, "decoding yaml")
	}
	if err := t.Validate(); err != nil {
		return Topology{}, err
	}
	return t, nil
}

// Validate checks every layer. Strides that do not divide the running
// spatial size are not rejected; they truncate like the sweep does.
func (t Topology) Validate() error {
	if len(t.Layers) == 0 {
		return ErrEmptyTopology
	}
	if t.Batch < 0 || t.Size < 0 || t.Depth < 0 {
		return errors.Wrapf(ErrInvalidLayer,
			"batch, size and depth must be non-negative, got %d, %d, %d",
			t.Batch, t.Size, t.Depth)
	}
	for i, l := range t.Layers {
		if l.Kernel < 1 || l.Stride < 1 || l.Depth < 0 {
			return errors.Wrapf(ErrInvalidLayer, "layer %d: %+v", i, l)
		}
	}
	return nil
}
