package comm

import (
	"context"
	"sort"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"

	"github.com/notargets/linsys/utils"
)

type halo struct {
	from    int
	payload []byte
}

/*
World runs NP ranks as goroutines inside one process and moves ghost values
between them through a MailBox. For every ordered pair of ranks (owner, peer)
the blocks the owner authors and the peer holds as ghosts are listed once, in
ascending global id, so both sides agree on the payload layout.
*/
type World struct {
	NP       int
	Patterns []*Pattern
	sends    [][][]int // sends[r][q]: local indices on r of blocks r owns and q ghosts
	recvs    [][][]int // recvs[q][r]: local indices on q of the same blocks
	mb       *utils.MailBox[halo]
}

func NewWorld(patterns []*Pattern) (w *World, err error) {
	var (
		np = len(patterns)
	)
	if np < 1 {
		err = errors.New("a world needs at least one rank")
		return
	}
	w = &World{
		NP:       np,
		Patterns: patterns,
		sends:    make([][][]int, np),
		recvs:    make([][][]int, np),
		mb:       utils.NewMailBox[halo](np),
	}
	for r := 0; r < np; r++ {
		w.sends[r] = make([][]int, np)
		w.recvs[r] = make([][]int, np)
	}
	for q, p := range patterns {
		if p.Rank != q {
			return nil, errors.Newf("pattern %d carries rank %d", q, p.Rank)
		}
		for i, gid := range p.GIDs {
			if r := p.Owner[i]; !p.Updatable[i] && (r < 0 || r >= np || r == q) {
				return nil, errors.Newf("rank %d: ghost block %d (gid %d) has owner %d", q, i, gid, r)
			}
		}
		owners := utils.Index(p.Owner)
		for r := 0; r < np; r++ {
			if r == q {
				continue
			}
			ghosts := owners.Find(utils.Equal, r)
			gids := utils.Index(p.GIDs).Subset(ghosts)
			sort.Sort(byGID{ghosts, gids})
			for n, li := range ghosts {
				if p.Updatable[li] {
					continue
				}
				ri, ok := patterns[r].Local(gids[n])
				if !ok || !patterns[r].Updatable[ri] {
					return nil, errors.Newf("rank %d does not own gid %d ghosted by rank %d", r, gids[n], q)
				}
				w.sends[r][q] = append(w.sends[r][q], ri)
				w.recvs[q][r] = append(w.recvs[q][r], li)
			}
		}
	}
	return
}

// byGID orders local indices by their global id
type byGID struct{ local, gids utils.Index }

func (b byGID) Len() int           { return len(b.local) }
func (b byGID) Less(i, j int) bool { return b.gids[i] < b.gids[j] }
func (b byGID) Swap(i, j int) {
	b.local[i], b.local[j] = b.local[j], b.local[i]
	b.gids[i], b.gids[j] = b.gids[j], b.gids[i]
}

// Run executes fn once per rank concurrently and returns the first error
func (w *World) Run(ctx context.Context, fn func(ctx context.Context, rank int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for r := 0; r < w.NP; r++ {
		rank := r
		g.Go(func() error { return fn(gctx, rank) })
	}
	return g.Wait()
}

// Synchronize copies the value of every owned block to the ghost copies held
// by other ranks. bufs is indexed by rank.
func (w *World) Synchronize(ctx context.Context, bufs []Buffer) error {
	return w.exchange(ctx, bufs, w.sends, w.recvs, Insert)
}

// Accumulate sums ghost contributions into the owning blocks, then
// synchronizes so every copy carries the total
func (w *World) Accumulate(ctx context.Context, bufs []Buffer) error {
	if err := w.exchange(ctx, bufs, w.recvs, w.sends, Add); err != nil {
		return err
	}
	return w.Synchronize(ctx, bufs)
}

func (w *World) checkBuffers(bufs []Buffer) error {
	if len(bufs) != w.NP {
		return errors.Newf("have %d buffers for %d ranks", len(bufs), w.NP)
	}
	for r, buf := range bufs {
		if buf.Size() != w.Patterns[r].Size() {
			return errors.Newf("rank %d: buffer holds %d blocks, pattern has %d", r, buf.Size(), w.Patterns[r].Size())
		}
	}
	return nil
}

// exchange packs out[r][q] on every rank r, posts it to q, and after all ranks
// have delivered unpacks it on q at in[q][r]
func (w *World) exchange(ctx context.Context, bufs []Buffer, out, in [][][]int, mode Mode) (err error) {
	if err = w.checkBuffers(bufs); err != nil {
		return
	}
	err = w.Run(ctx, func(ctx context.Context, rank int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		for q, indices := range out[rank] {
			if len(indices) == 0 {
				continue
			}
			w.mb.PostMessage(rank, q, halo{from: rank, payload: bufs[rank].Pack(indices)})
		}
		w.mb.DeliverMyMessages(rank)
		return nil
	})
	if err != nil {
		w.discard()
		return
	}
	return w.Run(ctx, func(ctx context.Context, rank int) error {
		defer w.mb.ClearMyMessages(rank)
		for _, msg := range w.mb.ReceiveMyMessages(rank) {
			if err := bufs[rank].Unpack(msg.payload, in[rank][msg.from], mode); err != nil {
				return errors.Wrapf(err, "rank %d receiving from rank %d", rank, msg.from)
			}
		}
		return ctx.Err()
	})
}

// discard drops every message posted or delivered by an exchange that stopped
// after its first phase, so the next exchange starts from empty mailboxes
func (w *World) discard() {
	for r := 0; r < w.NP; r++ {
		w.mb.DeliverMyMessages(r)
	}
	for r := 0; r < w.NP; r++ {
		w.mb.ReceiveMyMessages(r)
		w.mb.ClearMyMessages(r)
	}
}
