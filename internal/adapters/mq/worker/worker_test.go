package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/powerstream/internal/adapters/mq/queue"
	worker "github.com/okian/powerstream/internal/adapters/mq/worker"
	model "github.com/okian/powerstream/internal/domain/model"
	logging "github.com/okian/powerstream/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	eventChan chan queue.Event
}

func newMockQueue() *mockQueue {
	return &mockQueue{eventChan: make(chan queue.Event, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Event {
	return mq.eventChan
}

// recorder remembers applied values per instance and fails on request.
type recorder struct {
	mu      sync.Mutex
	applied map[string][]float64
	fail    map[string]error
}

func newRecorder() *recorder {
	return &recorder{applied: make(map[string][]float64), fail: make(map[string]error)}
}

func (r *recorder) Apply(_ context.Context, ev model.Inbound) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.fail[ev.InstanceID()]; ok {
		return err
	}
	if tm, ok := ev.(model.Telemetry); ok {
		r.applied[ev.InstanceID()] = append(r.applied[ev.InstanceID()], tm.Value)
	}
	return nil
}

func (r *recorder) values(inst string) []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.applied[inst]...)
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.applied {
		n += len(v)
	}
	return n
}

func telemetry(inst string, v float64) model.Telemetry {
	return model.Telemetry{Instance: inst, SignalID: "P", Timestamp: time.Unix(int64(v), 0), Value: v}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading a queue", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		rec := newRecorder()
		w := worker.NewInMemoryWorker(q, rec, worker.WithName("test-worker"))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When events arrive", func() {
			q.eventChan <- telemetry("a", 1)
			q.eventChan <- telemetry("a", 2)
			close(q.eventChan)

			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then they are applied in order", func() {
				convey.So(rec.values("a"), convey.ShouldResemble, []float64{1, 2})
			})
		})

		convey.Convey("When applying fails", func() {
			rec.fail["bad"] = errors.New("boom")
			q.eventChan <- telemetry("bad", 1)
			q.eventChan <- telemetry("good", 2)
			close(q.eventChan)
			convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then the worker keeps going", func() {
				convey.So(rec.values("bad"), convey.ShouldBeEmpty)
				convey.So(rec.values("good"), convey.ShouldResemble, []float64{2})
			})
		})

		convey.Convey("When the context is cancelled", func() {
			cancel()

			convey.Convey("Then the worker stops", func() {
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker that never stops", t, func() {
		w := worker.NewInMemoryWorker(newMockQueue(), newRecorder())
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("Shutdown honours its deadline", func() {
			sctx, scancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
			defer scancel()
			convey.So(w.Shutdown(sctx), convey.ShouldNotBeNil)
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of four shards", t, func() {
		_ = logging.Init()

		rec := newRecorder()
		p := worker.NewPool(4, rec, worker.WithQueueCapacity(1000))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		p.Start(ctx)

		convey.So(p.Size(), convey.ShouldEqual, 4)
		convey.So(p.Capacity(), convey.ShouldEqual, 4000)

		convey.Convey("When many instances dispatch concurrently", func() {
			const instances, perInstance = 8, 200
			var wg sync.WaitGroup
			for i := range instances {
				wg.Add(1)
				go func(inst string) {
					defer wg.Done()
					for v := range perInstance {
						for !p.Dispatch(ctx, telemetry(inst, float64(v))) {
							time.Sleep(time.Millisecond)
						}
					}
				}(fmt.Sprintf("inst-%d", i))
			}
			wg.Wait()
			convey.So(p.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then every instance is applied in dispatch order", func() {
				convey.So(rec.total(), convey.ShouldEqual, instances*perInstance)
				for i := range instances {
					got := rec.values(fmt.Sprintf("inst-%d", i))
					convey.So(len(got), convey.ShouldEqual, perInstance)
					for v, x := range got {
						if x != float64(v) {
							convey.So(x, convey.ShouldEqual, float64(v))
							break
						}
					}
				}
			})
		})

		convey.Convey("When the pool is shut down", func() {
			convey.So(p.Shutdown(context.Background()), convey.ShouldBeNil)

			convey.Convey("Then dispatch is refused", func() {
				convey.So(p.Dispatch(ctx, telemetry("x", 1)), convey.ShouldBeFalse)
				convey.So(p.Len(ctx), convey.ShouldEqual, 0)
			})
		})
	})
}
