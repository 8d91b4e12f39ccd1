package queue

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity sets the maximum number of buffered events.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithShard names the shard the queue reports its gauges under.
func WithShard(name string) Option {
	return func(q *InMemoryQueue) {
		if name != "" {
			q.shard = name
		}
	}
}
