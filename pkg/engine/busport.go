package engine

// PortMediaType distinguishes an audio port from an event port on a
// processor's bus layout.
type PortMediaType int32

const (
	MediaTypeAudio PortMediaType = 0
	MediaTypeEvent PortMediaType = 1
)

// PortDirection is input or output.
type PortDirection int32

const (
	DirectionInput  PortDirection = 0
	DirectionOutput PortDirection = 1
)

// PortType distinguishes a processor's main I/O from an auxiliary
// (typically sidechain) port.
type PortType int32

const (
	TypeMain PortType = 0
	TypeAux  PortType = 1
)

// PortInfo describes one bus a processor exposes.
type PortInfo struct {
	MediaType    PortMediaType
	Direction    PortDirection
	ChannelCount int32
	Name         string
	BusType      PortType
	IsActive     bool
}

// PortConfiguration is the set of buses (input and output, audio and
// event) a processor is prepared with.
type PortConfiguration struct {
	audioBuses []PortInfo
	eventBuses []PortInfo
}

// NewStereoPortConfiguration is the common case: one stereo main input and
// output, no sidechain.
func NewStereoPortConfiguration() *PortConfiguration {
	return &PortConfiguration{
		audioBuses: []PortInfo{
			{MediaType: MediaTypeAudio, Direction: DirectionInput, ChannelCount: 2, Name: "Stereo In", BusType: TypeMain, IsActive: true},
			{MediaType: MediaTypeAudio, Direction: DirectionOutput, ChannelCount: 2, Name: "Stereo Out", BusType: TypeMain, IsActive: true},
		},
	}
}

// WithSidechain adds an auxiliary stereo input bus (spec §3: "sidechain
// input advertisement").
func (c *PortConfiguration) WithSidechain() *PortConfiguration {
	c.audioBuses = append(c.audioBuses, PortInfo{
		MediaType: MediaTypeAudio, Direction: DirectionInput, ChannelCount: 2,
		Name: "Sidechain In", BusType: TypeAux, IsActive: true,
	})
	return c
}

// AudioBuses returns the buses matching direction.
func (c *PortConfiguration) AudioBuses(direction PortDirection) []PortInfo {
	var out []PortInfo
	for _, b := range c.audioBuses {
		if b.Direction == direction {
			out = append(out, b)
		}
	}
	return out
}
