package ecs

import (
	"fmt"
	"testing"

	"github.com/mewah/core/internal/core/value"
)

func BenchmarkMakeComponent(b *testing.B) {
	sizes := []int{1000, 10000, 100000}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("%dK", size/1000), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				s := newStore(b, IntField("hp", 100), FloatField("x", 0), FloatField("y", 0))
				for j := 0; j < size; j++ {
					if _, err := s.MakeComponent(); err != nil {
						b.Fatal(err)
					}
				}
			}
		})
	}
}

func BenchmarkMakeComponentText(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		s := newStore(b, TextField("name", "orc"), AnyField("tag", value.Text("hostile")))
		for j := 0; j < 10000; j++ {
			if _, err := s.MakeComponent(); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkGetComponentInt(b *testing.B) {
	s := newStore(b, IntField("hp", 100))
	for j := 0; j < 10000; j++ {
		if _, err := s.MakeComponent(); err != nil {
			b.Fatal(err)
		}
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h, _ := s.GetComponent(i % 10000)
		if _, err := h.Int(0); err != nil {
			b.Fatal(err)
		}
	}
}
