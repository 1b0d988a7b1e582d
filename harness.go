package main

// ===========================================================================
// WHAT'S GOING ON HERE
// ===========================================================================
//
// This file defines the benchmark lifecycle and the timing loop that every
// measurement in this tool goes through.
//
// INTENTION:
// A workload is anything with three steps: Setup (allocate and fill buffers,
// may be slow), Run (exactly one unit of the work being measured), and
// Teardown (release whatever Setup acquired). Only Run is timed.
//
// THE TIMING PROTOCOL:
//   1. Setup() once, outside the clock
//   2. start := now
//   3. Run() R times, back to back, nothing in between
//   4. end := now
//   5. Teardown() once, outside the clock
//   6. per-call = (end - start) / R
//
// One Run call is dominated by noise: timer resolution, scheduler hiccups,
// cold caches on the first touch of the buffers. Spreading a single
// start/end pair over R calls amortizes all of that. Reading the clock
// inside the loop would add its own cost to every call, so we don't.
//
// FAILURE MODEL:
// Run is assumed never to fail. There is no retry and no recovery: a panic
// inside the kernel ends the process, which is fine for a tool an engineer
// runs by hand and reads the output of.
//
// ===========================================================================

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Benchmark is a timed workload.
//
// Run must be safe to call many times in a row after a single Setup; its
// outputs may be arbitrary but must stay valid.
type Benchmark interface {
	Setup()
	Run()
	Teardown()
}

// Measurement is the outcome of timing one Benchmark.
type Measurement struct {
	Reps    int           `json:"reps"`     // Number of Run calls inside the timed window
	Total   time.Duration `json:"total_ns"` // Wall-clock time of all Run calls
	PerCall time.Duration `json:"per_call_ns"`
}

// Seconds returns the average per-call duration in seconds.
//
// Computed from Total rather than PerCall so sub-nanosecond remainders
// are not truncated away.
func (m Measurement) Seconds() float64 {
	if m.Reps <= 0 {
		return 0
	}
	return m.Total.Seconds() / float64(m.Reps)
}

// Measure runs b's full lifecycle and times reps back-to-back Run calls.
// reps below 1 is treated as 1.
func Measure(b Benchmark, reps int) Measurement {
	if reps < 1 {
		reps = 1
	}

	b.Setup()

	start := time.Now()
	for i := 0; i < reps; i++ {
		b.Run()
	}
	total := time.Since(start)

	b.Teardown()

	// A coarse clock can report zero for a very cheap Run. The reported
	// duration must stay positive so throughput stays finite.
	if total <= 0 {
		total = time.Nanosecond
	}

	return Measurement{
		Reps:    reps,
		Total:   total,
		PerCall: total / time.Duration(reps),
	}
}

// Bench times b over reps calls and returns the average seconds per call.
func Bench(b Benchmark, reps int) float64 {
	return Measure(b, reps).Seconds()
}

// TrialStats summarizes several independent measurements of one workload.
// All values are seconds per Run call.
type TrialStats struct {
	Trials []Measurement
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// MeasureTrials repeats Measure trials times. Every trial is a complete
// Setup/Run/Teardown cycle, so buffers are refilled between trials.
// trials below 1 is treated as 1.
func MeasureTrials(b Benchmark, reps, trials int) TrialStats {
	if trials < 1 {
		trials = 1
	}

	ts := TrialStats{Trials: make([]Measurement, 0, trials)}
	secs := make([]float64, 0, trials)
	for i := 0; i < trials; i++ {
		m := Measure(b, reps)
		ts.Trials = append(ts.Trials, m)
		secs = append(secs, m.Seconds())
	}

	if len(secs) == 1 {
		ts.Mean, ts.Min, ts.Max = secs[0], secs[0], secs[0]
		return ts
	}

	ts.Mean, ts.StdDev = stat.MeanStdDev(secs, nil)
	ts.Min = floats.Min(secs)
	ts.Max = floats.Max(secs)
	return ts
}

// MeanMeasurement folds the trials into one Measurement whose per-call time
// is the mean over trials.
func (ts TrialStats) MeanMeasurement() Measurement {
	if len(ts.Trials) == 0 {
		return Measurement{}
	}
	reps := ts.Trials[0].Reps
	perCall := time.Duration(ts.Mean * float64(time.Second))
	return Measurement{
		Reps:    reps,
		Total:   perCall * time.Duration(reps),
		PerCall: perCall,
	}
}
