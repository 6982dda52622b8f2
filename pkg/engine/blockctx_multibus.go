package engine

// BusBuffers pairs one bus's audio buffers with its port description.
type BusBuffers struct {
	Channels [][]float32
	BusInfo  *PortInfo
}

// MultiBusContext extends BlockContext with multi-bus support: a main I/O
// pair plus zero or more auxiliary buses (sidechain taps, spec §3 "sidechain
// input advertisement").
type MultiBusContext struct {
	*BlockContext

	InputBuses  []BusBuffers
	OutputBuses []BusBuffers

	BusConfig *PortConfiguration
}

// NewMultiBusContext creates a multi-bus context wrapping an existing
// single-bus context.
func NewMultiBusContext(ctx *BlockContext, busConfig *PortConfiguration) *MultiBusContext {
	return &MultiBusContext{
		BlockContext: ctx,
		InputBuses:   make([]BusBuffers, 0),
		OutputBuses:  make([]BusBuffers, 0),
		BusConfig:    busConfig,
	}
}

// GetMainInput returns the main input bus buffers.
func (m *MultiBusContext) GetMainInput() [][]float32 {
	for i, b := range m.InputBuses {
		if b.BusInfo.BusType == TypeMain {
			return m.InputBuses[i].Channels
		}
	}
	return nil
}

// GetMainOutput returns the main output bus buffers.
func (m *MultiBusContext) GetMainOutput() [][]float32 {
	for i, b := range m.OutputBuses {
		if b.BusInfo.BusType == TypeMain {
			return m.OutputBuses[i].Channels
		}
	}
	return nil
}

// GetSidechainInput returns the first auxiliary input bus, if any.
func (m *MultiBusContext) GetSidechainInput() [][]float32 {
	for i, b := range m.InputBuses {
		if b.BusInfo.BusType == TypeAux {
			return m.InputBuses[i].Channels
		}
	}
	return nil
}

// GetInputBus returns a specific input bus by index.
func (m *MultiBusContext) GetInputBus(index int) [][]float32 {
	if index >= 0 && index < len(m.InputBuses) {
		return m.InputBuses[index].Channels
	}
	return nil
}

// GetOutputBus returns a specific output bus by index.
func (m *MultiBusContext) GetOutputBus(index int) [][]float32 {
	if index >= 0 && index < len(m.OutputBuses) {
		return m.OutputBuses[index].Channels
	}
	return nil
}

// GetInputBusInfo returns the port description of a specific input bus.
func (m *MultiBusContext) GetInputBusInfo(index int) *PortInfo {
	if index >= 0 && index < len(m.InputBuses) {
		return m.InputBuses[index].BusInfo
	}
	return nil
}

// GetOutputBusInfo returns the port description of a specific output bus.
func (m *MultiBusContext) GetOutputBusInfo(index int) *PortInfo {
	if index >= 0 && index < len(m.OutputBuses) {
		return m.OutputBuses[index].BusInfo
	}
	return nil
}

// NumInputBuses returns the number of input buses.
func (m *MultiBusContext) NumInputBuses() int { return len(m.InputBuses) }

// NumOutputBuses returns the number of output buses.
func (m *MultiBusContext) NumOutputBuses() int { return len(m.OutputBuses) }

// ProcessInputBuses iterates through all active input buses.
func (m *MultiBusContext) ProcessInputBuses(fn func(busIndex int, channels [][]float32, info *PortInfo)) {
	for i, b := range m.InputBuses {
		if b.BusInfo.IsActive {
			fn(i, b.Channels, b.BusInfo)
		}
	}
}

// ProcessOutputBuses iterates through all active output buses.
func (m *MultiBusContext) ProcessOutputBuses(fn func(busIndex int, channels [][]float32, info *PortInfo)) {
	for i, b := range m.OutputBuses {
		if b.BusInfo.IsActive {
			fn(i, b.Channels, b.BusInfo)
		}
	}
}

// ProcessMainBuses processes only the main input/output pair.
func (m *MultiBusContext) ProcessMainBuses(fn func(input, output [][]float32)) {
	mainIn := m.GetMainInput()
	mainOut := m.GetMainOutput()
	if mainIn != nil && mainOut != nil {
		fn(mainIn, mainOut)
	}
}

// ProcessWithSidechain processes main I/O together with the sidechain
// input, if any is present (nil otherwise).
func (m *MultiBusContext) ProcessWithSidechain(fn func(main, sidechain, output [][]float32)) {
	mainIn := m.GetMainInput()
	sidechain := m.GetSidechainInput()
	mainOut := m.GetMainOutput()
	if mainIn != nil && mainOut != nil {
		fn(mainIn, sidechain, mainOut)
	}
}

// ClearAllOutputs zeros every output bus.
func (m *MultiBusContext) ClearAllOutputs() {
	for _, b := range m.OutputBuses {
		for ch := range b.Channels {
			for i := range b.Channels[ch] {
				b.Channels[ch][i] = 0
			}
		}
	}
}

// PassThroughAll copies each input bus to its corresponding output bus.
func (m *MultiBusContext) PassThroughAll() {
	minBuses := len(m.InputBuses)
	if len(m.OutputBuses) < minBuses {
		minBuses = len(m.OutputBuses)
	}
	for busIdx := 0; busIdx < minBuses; busIdx++ {
		inChannels := m.InputBuses[busIdx].Channels
		outChannels := m.OutputBuses[busIdx].Channels
		minChannels := len(inChannels)
		if len(outChannels) < minChannels {
			minChannels = len(outChannels)
		}
		for ch := 0; ch < minChannels; ch++ {
			copy(outChannels[ch], inChannels[ch])
		}
	}
}
