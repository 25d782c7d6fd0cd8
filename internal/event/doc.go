// Package event defines the measurements produced by drivers and the
// bounded queue that carries them to the coordinator.
//
// Producers never block: Post drops the event when the queue is full and
// counts the drop. The coordinator is the single consumer.
//
//	q := event.NewQueue(event.DefaultCapacity)
//	q.Post(event.Temperature(0, 21.5))
//	m := <-q.C()
package event
