package cache

import (
	"fmt"
	"strings"
	"testing"
)

func BenchmarkCacheGet(b *testing.B) {
	c := New(Options{MaxSize: 10000})
	for i := 0; i < 1000; i++ {
		c.Set(fmt.Sprintf("key%d", i), []byte(strings.Repeat("x", 100)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key999")
	}
}

func BenchmarkCacheSet(b *testing.B) {
	c := New(Options{MaxSize: 10000})
	value := []byte(strings.Repeat("x", 100))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Set(fmt.Sprintf("key%d", i), value)
	}
}

func BenchmarkKey(b *testing.B) {
	content := []byte(strings.Repeat("func f() {}\n", 200))
	for i := 0; i < b.N; i++ {
		Key("f.go", "f", content)
	}
}
