package buffer_test

import (
	"fmt"

	"github.com/cwbudde/silentroom/dsp/buffer"
)

func ExamplePlanar() {
	p := buffer.NewPlanar(2, 3)
	_ = buffer.Deinterleave(p, []float64{1, 10, 2, 20, 3, 30})

	fmt.Println(p.Channel(0), p.Channel(1))

	view := p.View(nil, 1, 2)
	fmt.Println(view)

	// Output:
	// [1 2 3] [10 20 30]
	// [[2 3] [20 30]]
}
