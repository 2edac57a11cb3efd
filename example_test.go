package cashewset_test

import (
	"fmt"

	cashewset "github.com/samee/cashew-set"
)

func Example() {
	s, err := cashewset.New[int32]()
	if err != nil {
		panic(err)
	}
	defer s.Close()

	for _, k := range []int32{13, 7, 42, 7} {
		ok, err := s.Insert(k)
		if err != nil {
			panic(err)
		}
		fmt.Printf("insert %d: %v\n", k, ok)
	}

	fmt.Println("size:", s.Size())
	fmt.Println("count(7):", s.Count(7))
	fmt.Println("count(8):", s.Count(8))

	// Output:
	// insert 13: true
	// insert 7: true
	// insert 42: true
	// insert 7: false
	// size: 3
	// count(7): 1
	// count(8): 0
}

func ExampleNew_customLayout() {
	// A 128-byte line fits 30 int32 keys per node alongside the child
	// reference and count.
	s, err := cashewset.New(func(o *cashewset.Options[int32]) {
		o.CacheLineBytes = 128
	})
	if err != nil {
		panic(err)
	}
	defer s.Close()

	fmt.Println("keys per node:", s.Stats().EltCountMax)
	// Output:
	// keys per node: 30
}
