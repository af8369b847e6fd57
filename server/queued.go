package server

import (
	"context"
	"sync"
	"time"

	"github.com/m-lab/paramtree/message"
	"github.com/m-lab/paramtree/metrics"
)

// QueuedServer is the supplemented queueing variant of the server engine:
// one reader goroutine pulls messages off the Device and hands them to a
// bounded work queue, drained by a fixed pool of worker goroutines that
// each call Server.respond independently. This decouples a slow parameter
// handler (a Call into application code that blocks) from the Device's
// read loop, at the cost of replies no longer necessarily returning in
// request order -- tolerable because the wire protocol already matches
// each reply to its request by transaction byte (§4.2), not by arrival
// order, and because the default Client (client.Client) keeps at most one
// transaction outstanding at a time regardless.
//
// Grounded on saver.go's bounded-channel marshaller pool: a fixed number
// of workers reading Tasks off one channel, here doing parameter dispatch
// instead of proto marshalling.
type QueuedServer struct {
	*Server

	Workers   int
	QueueSize int

	queue chan message.Message
}

// NewQueued wraps srv with a queueing front end of the given worker count
// and queue depth. Both must be positive.
func NewQueued(srv *Server, workers, queueSize int) *QueuedServer {
	return &QueuedServer{
		Server:    srv,
		Workers:   workers,
		QueueSize: queueSize,
	}
}

// Serve starts the worker pool, then reads messages off the Device and
// enqueues them until ctx is canceled; a Device.Read error is counted
// under Recv and the loop reads again. A queue that is full applies backpressure to the
// read loop rather than dropping a message -- the same tradeoff
// saver.go's marshal channel makes.
func (q *QueuedServer) Serve(ctx context.Context) error {
	q.queue = make(chan message.Message, q.QueueSize)

	var wg sync.WaitGroup
	for i := 0; i < q.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.work()
		}()
	}

	err := q.readLoop(ctx)
	// Workers range over q.queue until it's closed; close it before
	// waiting or they'd block forever on a queue nobody will ever close.
	close(q.queue)
	wg.Wait()
	return err
}

func (q *QueuedServer) readLoop(ctx context.Context) error {
	retry := q.ReadRetryDelay
	if retry == nil {
		retry = func() { time.Sleep(10 * time.Millisecond) }
	}

	buf := make([]byte, message.MaxMessagePayload)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := q.device.Read(buf)
		if err != nil {
			q.Counters.incRecv()
			continue
		}
		if n == 0 {
			retry()
			continue
		}

		in, err := message.Unmarshal(buf[:n])
		if err != nil {
			q.Counters.incDeserialization()
			continue
		}

		select {
		case q.queue <- in:
			metrics.QueueDepth.Set(float64(len(q.queue)))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// work drains the queue, dispatching each message through the embedded
// Server's respond, until the queue is closed.
func (q *QueuedServer) work() {
	for in := range q.queue {
		q.respond(in)
		metrics.QueueDepth.Set(float64(len(q.queue)))
	}
}
