package behaviour

import "github.com/Carmen-Shannon/oxen-go/common"

// KeyQuery reports whether a logical key is pressed at the moment of the call.
// Each call is a separate lookup; the render goroutine may apply input events between two calls
// in the same tick, so callers that need one consistent answer should query a key once.
type KeyQuery func(key common.Key) bool

// Behaviour is a unit of per-tick logic. Once handed to the engine, Update is called only from the
// simulation goroutine, once per tick, in registration order.
//
// Update must return promptly: behaviours run serially, so a slow one stalls every other behaviour
// and the tick rate. A Behaviour mutates the transform handles it captured at construction time.
type Behaviour interface {
	// Update advances the behaviour by one tick.
	//
	// Parameters:
	//   - keyPressed: query for the current keyboard state
	Update(keyPressed KeyQuery)
}

// Func adapts an ordinary function to the Behaviour interface.
type Func func(keyPressed KeyQuery)

// Update calls f(keyPressed).
func (f Func) Update(keyPressed KeyQuery) {
	f(keyPressed)
}
