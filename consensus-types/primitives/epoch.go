package primitives

import (
	"fmt"
)

// Epoch represents a single epoch.
type Epoch uint64

// Add increases epoch by x.
// In case of arithmetic issues (overflow/underflow/div by zero) panic is thrown.
func (e Epoch) Add(x uint64) Epoch {
	res, err := e.SafeAdd(x)
	if err != nil {
		panic(err.Error())
	}
	return res
}

// SafeAdd increases epoch by x.
func (e Epoch) SafeAdd(x uint64) (Epoch, error) {
	if uint64(e) > ^uint64(0)-x {
		return 0, fmt.Errorf("addition overflows: epoch=%d, x=%d", e, x)
	}
	return e + Epoch(x), nil
}

// Sub subtracts x from the epoch.
// In case of arithmetic issues (overflow/underflow/div by zero) panic is thrown.
func (e Epoch) Sub(x uint64) Epoch {
	if uint64(e) < x {
		panic(fmt.Sprintf("subtraction underflow: epoch=%d, x=%d", e, x))
	}
	return e - Epoch(x)
}

// Mod returns result of `epoch % x`.
func (e Epoch) Mod(x uint64) Epoch {
	if x == 0 {
		panic("modulo by zero")
	}
	return e % Epoch(x)
}
