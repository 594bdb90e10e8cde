package game

import (
	"context"
	"slices"

	"github.com/annel0/alarm-missions/internal/world"
	"github.com/annel0/alarm-missions/internal/world/block"
)

type placeRequest struct {
	coord world.Coordinate
	kind  block.BlockKind
}

func (r placeRequest) apply(m *Model, w world.World) (world.World, bool) {
	blocks := slices.Clone(w.Blocks)
	m.settleAnimation(blocks)

	blocks = slices.DeleteFunc(blocks, func(b world.Block) bool {
		return b.Coordinate == r.coord
	})
	placed := world.NewBlock(r.coord, r.kind)
	if r.kind.IsLiquid() {
		// лазер появляется невидимым и выдвигается покадрово
		placed.Active = false
		placed.ExtrusionMultiplier = 0
	}
	blocks = append(blocks, placed)

	next := world.NewWorld(w.Width, w.Height, blocks)
	if r.kind.IsLiquid() {
		m.startAnimation(r.coord)
	}
	m.logger.Debug("Блок %s поставлен в %s", r.kind, r.coord)
	return next, true
}

type removeRequest struct {
	coord world.Coordinate
}

func (r removeRequest) apply(m *Model, w world.World) (world.World, bool) {
	// пустая позиция: мир не меняется, анимация продолжается
	if _, ok := w.BlockAt(r.coord); !ok {
		return w, false
	}
	blocks := slices.Clone(w.Blocks)
	m.settleAnimation(blocks)

	blocks = slices.DeleteFunc(blocks, func(b world.Block) bool {
		return b.Coordinate == r.coord
	})
	m.logger.Debug("Блок убран из %s", r.coord)
	return world.NewWorld(w.Width, w.Height, blocks), true
}

type setRequest struct {
	blocks []world.Block
}

func (r setRequest) apply(m *Model, w world.World) (world.World, bool) {
	blocks := slices.Clone(r.blocks)
	m.settleAnimation(blocks)
	return world.NewWorld(w.Width, w.Height, blocks), true
}

// frameRequest - шаг анимации, приходит из горутины анимации
type frameRequest struct {
	ctx       context.Context
	coord     world.Coordinate
	extrusion float64
}

func (r frameRequest) apply(m *Model, w world.World) (world.World, bool) {
	// кадр отменённой анимации мог успеть попасть в очередь
	if r.ctx.Err() != nil {
		return w, false
	}
	current, ok := w.BlockAt(r.coord)
	if !ok || !current.Kind.IsLiquid() {
		return w, false
	}

	next := w.Clone()
	for i := range next.Blocks {
		if next.Blocks[i].Coordinate == r.coord {
			next.Blocks[i].Active = true
			next.Blocks[i].ExtrusionMultiplier = r.extrusion
		}
	}
	for i := range next.MirroredBlocks {
		if next.MirroredBlocks[i].Coordinate == r.coord {
			next.MirroredBlocks[i].Active = true
			next.MirroredBlocks[i].ExtrusionMultiplier = r.extrusion
		}
	}
	if r.extrusion >= m.ceiling {
		m.stopAnimation()
	}
	return next, true
}
