package tests

import (
	"context"
	"testing"

	"github.com/tarn-lang/tarn"
)

func benchmarkSource(b *testing.B, source string) {
	ctx := context.Background()
	program, err := tarn.Compile(ctx, source)
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := program.Run(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFib(b *testing.B) {
	benchmarkSource(b, `
func fib {
	(0) => 0
	(1) => 1
	(n) => fib(n - 1) + fib(n - 2)
}
fib(15)`)
}

func BenchmarkLoopSum(b *testing.B) {
	benchmarkSource(b, `
let mut total = 0
let mut i = 0
while i < 1000 {
	set total = total + i
	set i = i + 1
}
total`)
}

func BenchmarkClosureCalls(b *testing.B) {
	benchmarkSource(b, `
func adder(n) {
	func(m) => n + m
}
let add = adder(1)
let mut acc = 0
let mut i = 0
while i < 100 {
	set acc = add(acc)
	set i = i + 1
}
acc`)
}

func BenchmarkAllocationChurn(b *testing.B) {
	benchmarkSource(b, `
let mut last = []
let mut i = 0
while i < 100 {
	set last = [i, [i, i]]
	set i = i + 1
}
last[0]`)
}

func BenchmarkCompile(b *testing.B) {
	ctx := context.Background()
	source := `
func classify {
	({kind: "a"}) => 1
	({kind: "b"}) => 2
	(_) => 0
}
classify({kind: "b"})`
	for i := 0; i < b.N; i++ {
		if _, err := tarn.Compile(ctx, source); err != nil {
			b.Fatal(err)
		}
	}
}
