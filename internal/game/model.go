package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/alarm-missions/internal/logging"
	"github.com/annel0/alarm-missions/internal/world"
	"github.com/annel0/alarm-missions/internal/world/block"
)

// ErrClosed возвращается при обращении к остановленной модели
var ErrClosed = errors.New("game: model is closed")

// BlocksChanged вызывается ровно один раз на каждую мутацию мира.
// Вызов идёт из горутины модели; обработчик не должен блокироваться надолго
// и не должен синхронно вызывать мутации той же модели.
type BlocksChanged func(world.World)

// Options задаёт необязательные параметры модели
type Options struct {
	OnBlocksChanged BlocksChanged
	// OnFrame получает промежуточные кадры анимации; на идентичность блоков они не влияют.
	OnFrame func(world.World)
	// AnimationStep - интервал шага анимации лазера (0 => 50ms).
	AnimationStep time.Duration
	// LaserCeiling - итоговая высота лазера в кубах (0 => 8).
	LaserCeiling float64
	// Buffer - ёмкость очереди запросов (0 => 64).
	Buffer int
}

// Model владеет текущим миром и выбранным предметом.
// Все мутации выполняет одна горутина, читатели получают неизменяемые снимки.
type Model struct {
	requests chan request
	snapshot atomic.Pointer[world.World]
	selected atomic.Value // block.Item

	onChanged BlocksChanged
	onFrame   func(world.World)
	step      time.Duration
	ceiling   float64

	// принадлежат горутине цикла
	animation *animation

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	logger    *logging.Logger
}

type animation struct {
	coord  world.Coordinate
	cancel context.CancelFunc
}

// request - запрос к горутине модели
type request interface {
	apply(m *Model, w world.World) (world.World, bool)
}

type envelope struct {
	req   request
	reply chan struct{}
}

// NewModel создаёт модель со стартовым миром и запускает её цикл
func NewModel(start world.World, opts Options) *Model {
	if opts.AnimationStep <= 0 {
		opts.AnimationStep = 50 * time.Millisecond
	}
	if opts.LaserCeiling <= 0 {
		opts.LaserCeiling = 8
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 64
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		requests:  make(chan request, opts.Buffer),
		onChanged: opts.OnBlocksChanged,
		onFrame:   opts.OnFrame,
		step:      opts.AnimationStep,
		ceiling:   opts.LaserCeiling,
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		logger:    logging.GetGameLogger(),
	}
	initial := world.NewWorld(start.Width, start.Height, start.Blocks)
	m.snapshot.Store(&initial)
	m.selected.Store(block.ItemDirt)

	go m.loop()
	return m
}

// loop - единственный писатель мира
func (m *Model) loop() {
	defer close(m.done)
	for {
		select {
		case <-m.ctx.Done():
			m.stopAnimation()
			return
		case r := <-m.requests:
			env, isEnvelope := r.(envelope)
			req := r
			if isEnvelope {
				req = env.req
			}
			m.handle(req)
			if isEnvelope {
				close(env.reply)
			}
		}
	}
}

func (m *Model) handle(req request) {
	current := *m.snapshot.Load()
	next, changed := req.apply(m, current)
	if !changed {
		return
	}
	m.snapshot.Store(&next)

	if _, isFrame := req.(frameRequest); isFrame {
		if m.onFrame != nil {
			m.onFrame(next)
		}
		return
	}
	if m.onChanged != nil {
		m.onChanged(next)
	}
}

// apply реализует envelope как request, чтобы его можно было положить в канал
func (e envelope) apply(m *Model, w world.World) (world.World, bool) {
	return e.req.apply(m, w)
}

// submit отправляет запрос и ждёт, пока цикл его обработает
func (m *Model) submit(ctx context.Context, req request) error {
	reply := make(chan struct{})
	select {
	case <-m.ctx.Done():
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	case m.requests <- envelope{req: req, reply: reply}:
	}

	select {
	case <-reply:
		return nil
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// World возвращает текущий снимок мира
func (m *Model) World() world.World {
	return *m.snapshot.Load()
}

// SelectedItem возвращает выбранный предмет хотбара
func (m *Model) SelectedItem() block.Item {
	return m.selected.Load().(block.Item)
}

// SelectItem выбирает предмет хотбара
func (m *Model) SelectItem(item block.Item) {
	m.selected.Store(item)
}

// PlaceBlock ставит блок: существующий блок на этой позиции заменяется.
func (m *Model) PlaceBlock(ctx context.Context, coord world.Coordinate, kind block.BlockKind) error {
	return m.submit(ctx, placeRequest{coord: coord, kind: kind})
}

// RemoveBlock убирает блок; на пустой позиции ничего не делает.
func (m *Model) RemoveBlock(ctx context.Context, coord world.Coordinate) error {
	return m.submit(ctx, removeRequest{coord: coord})
}

// SetBlocks заменяет всё множество блоков
func (m *Model) SetBlocks(ctx context.Context, blocks []world.Block) error {
	return m.submit(ctx, setRequest{blocks: blocks})
}

// Tap ставит блок выбранного предмета. Для инструментов ничего не делает.
func (m *Model) Tap(ctx context.Context, coord world.Coordinate) error {
	kind, ok := m.SelectedItem().BlockKind()
	if !ok {
		return nil
	}
	return m.PlaceBlock(ctx, coord, kind)
}

// LongPress убирает блок
func (m *Model) LongPress(ctx context.Context, coord world.Coordinate) error {
	return m.RemoveBlock(ctx, coord)
}

// Close останавливает цикл и текущую анимацию
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.cancel()
		<-m.done
	})
}

// stopAnimation отменяет текущую анимацию (только из горутины цикла)
func (m *Model) stopAnimation() {
	if m.animation == nil {
		return
	}
	m.animation.cancel()
	m.animation = nil
}

// settleAnimation отменяет текущую анимацию и переводит лазер в blocks
// в конечное состояние: прерванная анимация не оставляет невидимый блок.
// Только из горутины цикла.
func (m *Model) settleAnimation(blocks []world.Block) {
	if m.animation == nil {
		return
	}
	coord := m.animation.coord
	m.stopAnimation()
	for i := range blocks {
		if blocks[i].Coordinate == coord && blocks[i].Kind.IsLiquid() {
			blocks[i].Active = true
			blocks[i].ExtrusionMultiplier = m.ceiling
		}
	}
}

// startAnimation запускает выдвижение лазера (только из горутины цикла)
func (m *Model) startAnimation(coord world.Coordinate) {
	ctx, cancel := context.WithCancel(m.ctx)
	m.animation = &animation{coord: coord, cancel: cancel}

	go func() {
		ticker := time.NewTicker(m.step)
		defer ticker.Stop()

		for extrusion := 1.0; extrusion <= m.ceiling; extrusion++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			select {
			case <-ctx.Done():
				return
			case m.requests <- frameRequest{ctx: ctx, coord: coord, extrusion: extrusion}:
			}
		}
	}()
	m.logger.Debug("Запущена анимация лазера %s", coord)
}
