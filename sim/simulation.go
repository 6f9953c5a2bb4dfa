package sim

import (
	"log"
	"sort"
)

// A Simulation keeps the engine and all the components of one simulated
// system so that tools (monitors, tracers) can find them by name.
type Simulation struct {
	engine        Engine
	components    []Component
	compNameIndex map[string]int
}

// NewSimulation creates a new simulation that runs on the given engine.
func NewSimulation(engine Engine) *Simulation {
	return &Simulation{
		engine:        engine,
		compNameIndex: make(map[string]int),
	}
}

// GetEngine returns the engine used by the simulation.
func (s *Simulation) GetEngine() Engine {
	return s.engine
}

// RegisterComponent registers a component with the simulation.
func (s *Simulation) RegisterComponent(c Component) {
	compName := c.Name()
	if _, found := s.compNameIndex[compName]; found {
		log.Panicf("component %s already registered", compName)
	}

	s.components = append(s.components, c)
	s.compNameIndex[compName] = len(s.components) - 1
}

// GetComponentByName returns the component with the given name. It returns
// nil if no component has that name.
func (s *Simulation) GetComponentByName(name string) Component {
	idx, found := s.compNameIndex[name]
	if !found {
		return nil
	}

	return s.components[idx]
}

// Components returns all the registered components, sorted by name.
func (s *Simulation) Components() []Component {
	list := make([]Component, len(s.components))
	copy(list, s.components)

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})

	return list
}
