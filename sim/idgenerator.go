package sim

import (
	"log"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator hands out IDs for events, tasks, and messages.
type IDGenerator interface {
	Generate() string
}

var idGen struct {
	sync.Mutex
	chosen IDGenerator
}

// UseSequentialIDGenerator makes IDs count up from 1. Runs with the same
// input produce the same IDs.
func UseSequentialIDGenerator() {
	chooseIDGenerator(&sequentialIDGenerator{})
}

// UseParallelIDGenerator makes IDs globally unique, so that traces from
// several runs can share one database. IDs are no longer reproducible.
func UseParallelIDGenerator() {
	chooseIDGenerator(parallelIDGenerator{})
}

func chooseIDGenerator(g IDGenerator) {
	idGen.Lock()
	defer idGen.Unlock()

	if idGen.chosen != nil {
		log.Panic("the id generator is already in use")
	}

	idGen.chosen = g
}

// GetIDGenerator returns the generator in use, choosing the sequential one
// if none was chosen yet.
func GetIDGenerator() IDGenerator {
	idGen.Lock()
	defer idGen.Unlock()

	if idGen.chosen == nil {
		idGen.chosen = &sequentialIDGenerator{}
	}

	return idGen.chosen
}

type sequentialIDGenerator struct {
	last atomic.Uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(g.last.Add(1), 10)
}

type parallelIDGenerator struct{}

func (parallelIDGenerator) Generate() string {
	return xid.New().String()
}
