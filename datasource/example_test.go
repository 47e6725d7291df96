package datasource_test

import (
	"fmt"

	"github.com/joeycumines/go-flightcore/datasource"
)

func ExampleNewOverwritingChannel() {
	samples, newReader := datasource.NewOverwritingChannel[int](4)
	reader := newReader()

	// the producer (e.g. an ISR) writes six values, overrunning the reader
	for i := 1; i <= 6; i++ {
		samples.Write(i)
	}

	for {
		v, ok := reader.Read()
		if !ok {
			break
		}
		fmt.Println(v)
	}
	fmt.Println("dropped:", reader.Dropped())

	//output:
	//3
	//4
	//5
	//6
	//dropped: 2
}

func ExampleNewSingularChannel() {
	input, newReader := datasource.NewSingularChannel[string]()
	reader := newReader()

	_, ok := reader.Read()
	fmt.Println(ok)

	input.Write("roll")
	input.Write("pitch")
	v, _ := reader.Read()
	fmt.Println(v)

	//output:
	//false
	//pitch
}
