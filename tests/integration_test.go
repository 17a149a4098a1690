package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tarn-lang/tarn"
	"github.com/tarn-lang/tarn/errz"
	"github.com/tarn-lang/tarn/gc"
)

func eval(t *testing.T, source string) any {
	t.Helper()
	result, err := tarn.Eval(context.Background(), source)
	require.Nil(t, err)
	return result
}

func TestProgramCombiningFunctionsAndLoops(t *testing.T) {
	result := eval(t, `
func square(n) => n * n

let mut total = 0
for i in [1, 2, 3, 4] {
	set total = total + square(i)
}
total`)
	require.Equal(t, int64(30), result)
}

func TestMultiClauseWithRecordPatterns(t *testing.T) {
	result := eval(t, `
func area {
	({kind: "rect", w, h}) => w * h
	({kind: "square", side}) => side * side
	(_) => 0
}
area({kind: "rect", w: 3, h: 4}) + area({kind: "square", side: 5})`)
	require.Equal(t, int64(37), result)
}

func TestClosuresKeepStateAcrossCalls(t *testing.T) {
	result := eval(t, `
func adder(n) {
	func(m) => n + m
}
let add10 = adder(10)
add10(1) + add10(2)`)
	require.Equal(t, int64(23), result)
}

func TestMoveAndReinitialize(t *testing.T) {
	result := eval(t, `
proc consume(v) { }
let mut xs = [1, 2, 3]
consume(xs)
set xs = [4, 5]
xs[1]`)
	require.Equal(t, int64(5), result)
}

func TestBorrowedArgumentLeavesOwnerUsable(t *testing.T) {
	result := eval(t, `
func head(&xs) => xs[0]
let data = [7, 8, 9]
head(&data) + head(&data) + data[2]`)
	require.Equal(t, int64(23), result)
}

func TestDisownThenRebindFreshName(t *testing.T) {
	result := eval(t, `
let big = [1, 2, 3, 4, 5]
let n = big[4]
disown big
n`)
	require.Equal(t, int64(5), result)
}

func TestAllocationChurnSurvivesCollection(t *testing.T) {
	opts := []tarn.Option{
		tarn.WithHeapConfig(gc.Config{InitialThreshold: 1 << 10}),
	}
	result, err := tarn.Eval(context.Background(), `
let mut last = []
let mut i = 0
while i < 200 {
	set last = [i, i + 1, i + 2]
	set i = i + 1
}
last[0]`, opts...)
	require.Nil(t, err)
	require.Equal(t, int64(199), result)
}

func TestRuntimeErrorFromNestedCall(t *testing.T) {
	_, err := tarn.Eval(context.Background(), `
func inner(n) => n / 0
func outer(n) => inner(n)
outer(1)`)
	require.NotNil(t, err)
	var e *errz.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, errz.DivisionByZero, e.Kind)
	require.NotEmpty(t, e.Stack)
}

func TestAnalysisRejectsBeforeExecution(t *testing.T) {
	// The body would divide by zero, but the move error stops it earlier.
	_, err := tarn.Eval(context.Background(), `
proc consume(v) { }
let x = [1]
consume(x)
let y = x[0] / 0
y`)
	require.NotNil(t, err)
	var e *errz.Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, errz.UseAfterMove, e.Kind)
}

func TestCompiledProgramServesRepeatedCalls(t *testing.T) {
	ctx := context.Background()
	program, err := tarn.Compile(ctx, `
func classify {
	(0) => "zero"
	(n) => "other"
}
classify(0)`)
	require.Nil(t, err)

	for i := 0; i < 3; i++ {
		result, err := program.Run(ctx)
		require.Nil(t, err)
		require.Equal(t, "zero", result)
	}

	result, err := program.Call(ctx, "classify", []any{5})
	require.Nil(t, err)
	require.Equal(t, "other", result)
}

func TestDeepRecursionWithinLimit(t *testing.T) {
	result := eval(t, `
func sum {
	(0) => 0
	(n) => n + sum(n - 1)
}
sum(500)`)
	require.Equal(t, int64(125250), result)
}

func TestStringValuesRoundTrip(t *testing.T) {
	result := eval(t, `
func greeting {
	("fr") => "bonjour"
	(_) => "hello"
}
greeting("fr")`)
	require.Equal(t, "bonjour", result)
}
