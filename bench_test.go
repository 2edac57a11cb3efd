package cashewset

import (
	"fmt"
	"math/rand"
	"testing"
)

const benchKeySpace = 1 << 20

func benchKeys(order string) []int32 {
	keys := make([]int32, benchKeySpace)
	for i := range keys {
		keys[i] = int32(i) * 2 // even keys; odd probes always miss
	}
	switch order {
	case "descending":
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	case "random":
		rng := rand.New(rand.NewSource(99))
		rng.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	}
	return keys
}

func BenchmarkInsert(b *testing.B) {
	for _, order := range []string{"ascending", "descending", "random"} {
		keys := benchKeys(order)
		b.Run(order, func(b *testing.B) {
			b.ReportAllocs()
			s, err := New[int32]()
			if err != nil {
				b.Fatal(err)
			}
			defer s.Close()

			i := 0
			for b.Loop() {
				if i == len(keys) {
					b.StopTimer()
					s.Clear()
					i = 0
					b.StartTimer()
				}
				if _, err := s.Insert(keys[i]); err != nil {
					b.Fatal(err)
				}
				i++
			}
		})
	}
}

func BenchmarkCount(b *testing.B) {
	keys := benchKeys("random")
	s, err := New[int32]()
	if err != nil {
		b.Fatal(err)
	}
	defer s.Close()
	for _, k := range keys {
		if _, err := s.Insert(k); err != nil {
			b.Fatal(err)
		}
	}

	for _, tc := range []struct {
		name string
		bump int32 // +1 turns every probe into a miss
	}{
		{"hit", 0},
		{"miss", 1},
	} {
		b.Run(tc.name, func(b *testing.B) {
			b.ReportAllocs()
			var found, i int
			for b.Loop() {
				found += s.Count(keys[i%len(keys)] + tc.bump)
				i++
			}
			_ = found
		})
	}
}

// A map[K]struct{} is the stdlib set stand-in to compare against.
func BenchmarkMapBaseline(b *testing.B) {
	for _, order := range []string{"ascending", "random"} {
		keys := benchKeys(order)
		b.Run(fmt.Sprintf("insert/%s", order), func(b *testing.B) {
			b.ReportAllocs()
			m := make(map[int32]struct{})
			i := 0
			for b.Loop() {
				if i == len(keys) {
					b.StopTimer()
					m = make(map[int32]struct{})
					i = 0
					b.StartTimer()
				}
				m[keys[i]] = struct{}{}
				i++
			}
		})
	}
}
