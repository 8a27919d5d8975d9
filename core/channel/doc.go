// Package channel provides the typed broadcast primitive used by the event bus.
//
// A Channel fans every pushed value out to the Receivers subscribed at push
// time. Senders are cheap value handles into a Channel and may be copied and
// used from any goroutine. Each Receiver owns a private FIFO queue which the
// consumer polls without blocking.
//
// Locking: a push holds the Channel lock while it appends to each Receiver's
// queue under that Receiver's lock. No code path takes a Receiver lock before
// a Channel lock.
//
//	ch := channel.New[Key]()
//	rx := ch.Receiver()
//	defer rx.Close()
//
//	ch.Sender().Push(Key{Code: 'a'})
//	for rx.HasNext() {
//	    k, _ := rx.Next()
//	    // ...
//	}
package channel
