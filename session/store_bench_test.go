package session

import (
	"fmt"
	"testing"
)

func BenchmarkStoreCreate(b *testing.B) {
	for _, strategy := range strategies {
		b.Run(string(strategy), func(b *testing.B) {
			s, err := NewStore(Options{Sweep: strategy})
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				s.Create("10.0.0.1", "02:00:00:00:00:01", "bench")
			}
		})
	}
}

// The scan strategy pays O(live) per call; the heap strategy does not.
func BenchmarkStoreValidate(b *testing.B) {
	for _, strategy := range strategies {
		for _, live := range []int{100, 10000} {
			b.Run(fmt.Sprintf("%s/%d", strategy, live), func(b *testing.B) {
				s, err := NewStore(Options{Sweep: strategy})
				if err != nil {
					b.Fatal(err)
				}
				tokens := make([]string, live)
				for i := range tokens {
					tokens[i] = s.Create("10.0.0.1", "", "bench").Token
				}

				b.ReportAllocs()
				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					if !s.Validate(tokens[i%live], "10.0.0.1", "") {
						b.Fatal("validate failed")
					}
				}
			})
		}
	}
}
