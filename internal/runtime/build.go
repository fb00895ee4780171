package runtime

import (
	"context"

	"github.com/schmidtdse/joshsim/internal/compiler"
	"github.com/schmidtdse/joshsim/internal/josherr"
)

// GridSpec describes the rectangular patch grid a simulation runs
// over; real geometry construction (projections, cell sizing) is the
// Geometry collaborator's concern and out of scope here.
type GridSpec struct {
	Width  int
	Height int
	MakeGeometry func(row, col int) Geometry
}

// NewSimulation builds a Simulation's entity tree from a compiled
// Program: one Simulation root, a patch per grid cell in row-major
// order, and the collaborators the resolver needs.
func NewSimulation(ctx context.Context, program *compiler.Program, simName, patchName string, grid GridSpec, cfg Config, external map[string]ExternalResource, baseSeed int64) (*Simulation, error) {
	simProto, ok := program.Prototypes[simName]
	if !ok {
		return nil, josherr.New(josherr.UnknownAttribute, "no simulation prototype named %q", simName)
	}
	patchProto, ok := program.Prototypes[patchName]
	if !ok {
		return nil, josherr.New(josherr.UnknownAttribute, "no patch prototype named %q", patchName)
	}

	root := NewEntity(simProto, KindSimulation, nil, nil)
	sim := &Simulation{
		ProgramCompiled: program,
		Converter:       program.Converter,
		Config:          cfg,
		External:        external,
		RNG:             NewDeterministicRNG(baseSeed),
		Cancel:          NewCancelToken(ctx),
		Root:            root,
	}

	for row := 0; row < grid.Height; row++ {
		for col := 0; col < grid.Width; col++ {
			var geom Geometry
			if grid.MakeGeometry != nil {
				geom = grid.MakeGeometry(row, col)
			}
			patch := NewEntity(patchProto, KindPatch, geom, root)
			sim.Patches = append(sim.Patches, patch)
		}
	}
	root.members = sim.Patches

	if err := sim.dispatchEvent(ctx, sim.iterationOrder(), "init"); err != nil {
		return nil, err
	}
	return sim, nil
}

// SeedAgents populates each patch with count fresh instances of
// agentName, running their init handlers immediately.
func (s *Simulation) SeedAgents(agentName string, perPatch int) error {
	proto, ok := s.ProgramCompiled.Prototypes[agentName]
	if !ok {
		return josherr.New(josherr.UnknownAttribute, "no agent prototype named %q", agentName)
	}
	for _, patch := range s.Patches {
		for i := 0; i < perPatch; i++ {
			agent := NewEntity(proto, kindFromStanza(proto.Kind), patch.Geometry, patch)
			for _, attrName := range proto.AttributeNames {
				if proto.HasNoHandler("init", attrName) {
					continue
				}
				if _, err := s.evaluateAttribute(agent, attrName, "init"); err != nil {
					return err
				}
			}
			patch.members = append(patch.members, agent)
		}
	}
	return nil
}
