// Package ws fans a shared broadcast out to WebSocket clients.
//
// Handler turns a broadcast into an http.HandlerFunc. Every connected client
// gets its own subscription, so replay, overflow policies, and sharing
// strategies all apply per connection. With a WhileSubscribed strategy the
// upstream producer starts when the first client connects and stops after
// the last one leaves:
//
//	ws, err := sharing.NewWhileSubscribed(30 * time.Second)
//	if err != nil {
//	    return err
//	}
//
//	events, err := sharing.Share(ctx, upstream,
//	    sharing.WithReplay(1),
//	    sharing.WithStrategy(ws),
//	)
//	if err != nil {
//	    return err
//	}
//
//	http.Handle("/events", wstransport.Handler(events, wstransport.JSON[Event](),
//	    wstransport.WithPingInterval(25*time.Second),
//	))
//
// Values are encoded with the provided function (JSON by default) and sent
// as text messages. Each connection runs three coordinated goroutines: a
// value pump draining the subscription, a writer serializing messages and
// keepalive pings, and a reader detecting client disconnects. A slow client
// only affects its own subscription cursor; other clients and the producer
// keep going per the broadcast overflow policy.
package ws
