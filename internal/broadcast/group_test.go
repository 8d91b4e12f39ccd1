package broadcast_test

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/okian/powerstream/internal/broadcast"
	"github.com/okian/powerstream/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func sample(ts float64) model.Outbound {
	return model.Sample{ID: "X", Timestamp: ts, Value: ts * 10}
}

func next(sub *broadcast.Subscription) ([]model.Outbound, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	return sub.Next(ctx)
}

func TestGroupReplayThenLive(t *testing.T) {
	Convey("Given a group with history", t, func() {
		g := broadcast.NewGroup("I")
		history := []model.Outbound{sample(0), sample(1)}

		sub := g.Subscribe(slices.Values(history))
		defer g.Unsubscribe(sub)

		Convey("The subscriber first receives the replay", func() {
			batch, err := next(sub)
			So(err, ShouldBeNil)
			So(batch, ShouldResemble, history)
			So(g.Len(), ShouldEqual, 1)
			So(sub.Instance(), ShouldEqual, "I")
			So(sub.ID(), ShouldNotBeEmpty)
		})

		Convey("Live events follow the replay without gaps", func() {
			So(g.Publish(sample(2), sample(3)), ShouldEqual, 2)
			batch, err := next(sub)
			So(err, ShouldBeNil)
			So(batch, ShouldResemble, []model.Outbound{sample(0), sample(1), sample(2), sample(3)})
		})

		Convey("Several replay sequences are concatenated in order", func() {
			other := g.Subscribe(slices.Values(history[:1]), slices.Values(history[1:]))
			batch, err := next(other)
			So(err, ShouldBeNil)
			So(batch, ShouldResemble, history)
			g.Unsubscribe(other)
		})
	})

	Convey("Given an empty group", t, func() {
		g := broadcast.NewGroup("new")
		sub := g.Subscribe()

		Convey("Next waits until something is published", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			_, err := sub.Next(ctx)
			So(err, ShouldEqual, context.DeadlineExceeded)

			go func() {
				time.Sleep(10 * time.Millisecond)
				g.Publish(sample(7))
			}()
			batch, err := next(sub)
			So(err, ShouldBeNil)
			So(batch, ShouldResemble, []model.Outbound{sample(7)})
		})
	})
}

func TestGroupUnsubscribe(t *testing.T) {
	Convey("Given two subscribers", t, func() {
		g := broadcast.NewGroup("I")
		a := g.Subscribe()
		b := g.Subscribe()

		Convey("When one unsubscribes twice", func() {
			g.Unsubscribe(a)
			g.Unsubscribe(a)
			g.Unsubscribe(nil)

			Convey("Then it ends and the other still receives events", func() {
				So(g.Len(), ShouldEqual, 1)
				_, err := next(a)
				So(err, ShouldEqual, broadcast.ErrClosed)
				So(a.Err(), ShouldEqual, broadcast.ErrClosed)

				So(g.Publish(sample(1)), ShouldEqual, 1)
				batch, err := next(b)
				So(err, ShouldBeNil)
				So(batch, ShouldHaveLength, 1)
			})
		})

		Convey("When a subscription is closed by its consumer", func() {
			b.Close()
			<-b.Done()

			Convey("Then the next publish detaches it", func() {
				So(g.Publish(sample(1)), ShouldEqual, 1)
				So(g.Len(), ShouldEqual, 1)
			})
		})
	})
}

func TestGroupCloseAll(t *testing.T) {
	Convey("Given a group with subscribers", t, func() {
		g := broadcast.NewGroup("I")
		a := g.Subscribe()
		b := g.Subscribe()

		Convey("CloseAll ends every subscription", func() {
			g.CloseAll()
			So(g.Len(), ShouldEqual, 0)
			<-a.Done()
			<-b.Done()
			So(a.Err(), ShouldEqual, broadcast.ErrClosed)
			So(g.Publish(sample(1)), ShouldEqual, 0)
		})

		Convey("When events are published just before CloseAll", func() {
			So(g.Publish(sample(1), sample(2)), ShouldEqual, 4)
			g.CloseAll()

			Convey("Then each subscriber still drains them before ErrClosed", func() {
				for _, sub := range []*broadcast.Subscription{a, b} {
					batch, err := next(sub)
					So(err, ShouldBeNil)
					So(batch, ShouldResemble, []model.Outbound{sample(1), sample(2)})

					_, err = next(sub)
					So(err, ShouldEqual, broadcast.ErrClosed)
				}
			})
		})

		Convey("When a consumer closes its own subscription", func() {
			g.Publish(sample(1))
			a.Close()

			Convey("Then undrained events are discarded", func() {
				_, err := next(a)
				So(err, ShouldEqual, broadcast.ErrClosed)
			})
		})
	})
}

func TestGroupSlowSubscriber(t *testing.T) {
	Convey("Given a group with a buffer limit of two", t, func() {
		g := broadcast.NewGroup("I", broadcast.WithBufferLimit(2))
		big := []model.Outbound{sample(0), sample(1), sample(2), sample(3)}
		slow := g.Subscribe(slices.Values(big))
		fast := g.Subscribe()

		Convey("Replay larger than the limit is accepted", func() {
			So(g.Len(), ShouldEqual, 2)
		})

		Convey("When the slow subscriber never drains", func() {
			for i := 0; i < 3; i++ {
				g.Publish(sample(float64(10 + i)))
				_, err := next(fast)
				So(err, ShouldBeNil)
			}

			Convey("Then it is disconnected and the fast one is not", func() {
				So(slow.Err(), ShouldEqual, broadcast.ErrSlowSubscriber)
				_, err := next(slow)
				So(err, ShouldEqual, broadcast.ErrSlowSubscriber)
				So(g.Len(), ShouldEqual, 1)
				So(fast.Err(), ShouldBeNil)
			})
		})
	})
}
