// Package resample turns a tick-by-tick trade stream into volume-balanced
// run bars: a bar closes once accumulated directional volume crosses an
// adaptive threshold, rather than on a fixed clock tick.
package resample

// Config holds the per-instrument tuning knobs. All fields are required;
// callers load these from config.Config rather than relying on defaults
// baked into this package.
type Config struct {
	// TargetBarPeriod is the target average seconds between bars.
	TargetBarPeriod int `yaml:"target_bar_period"`
	// TradeHoursPerDay is the number of trading hours used to derive the
	// expected bar count per day (3600*TradeHoursPerDay/TargetBarPeriod).
	TradeHoursPerDay float64 `yaml:"trade_hours_per_day"`
	// EMADaysPeriod sets the smoothing factor alpha = 2/(EMADaysPeriod+1)
	// applied when blending a freshly calibrated threshold into the running
	// EMA.
	EMADaysPeriod float64 `yaml:"ema_days_period"`
	// MinGapSeconds is the minimum elapsed time between two bar emissions.
	MinGapSeconds uint32 `yaml:"min_gap_seconds"`
	// InitVolumeThreshold seeds thresholdEMA before any day has been
	// calibrated.
	InitVolumeThreshold float32 `yaml:"init_volume_threshold"`
}

func (c Config) expectedSamplesPerDay() int {
	return int(3600 * c.TradeHoursPerDay / float64(c.TargetBarPeriod))
}

// Bar is one emitted run bar, labeled by the side of the trade that closed it.
type Bar struct {
	Tick   uint32
	IsBid  bool
	Volume uint32
}

// RunBar is the per-instrument state machine. It is not safe for concurrent
// use; the pipeline's LOB engine is strictly single-threaded per instrument
// and this sampler follows the same discipline.
type RunBar struct {
	cfg                   Config
	expectedSamplesPerDay int
	thresholdTolerance    int
	emaAlpha              float32

	accumBuy  uint32
	accumSell uint32

	thresholdEMA   float32
	thresholdDaily float32

	lastEmitTick uint32
	lastHour     uint8

	dailyLabels   []bool
	dailyVolumes  []uint32
	dailyBarCount uint32
}

const maxCalibrationIterations = 20
const calibrationToleranceFloor = 100.0

// NewRunBar builds a sampler seeded with cfg.InitVolumeThreshold and no
// observed trading day yet (lastHour is the 255 sentinel so the very first
// hour==9 trade is treated as a new day).
func NewRunBar(cfg Config) *RunBar {
	expected := cfg.expectedSamplesPerDay()
	return &RunBar{
		cfg:                   cfg,
		expectedSamplesPerDay: expected,
		thresholdTolerance:    int(float64(expected) * 0.05),
		emaAlpha:              float32(2.0 / (cfg.EMADaysPeriod + 1)),
		thresholdEMA:          cfg.InitVolumeThreshold,
		lastHour:              255,
		dailyLabels:           make([]bool, 0, expected),
		dailyVolumes:          make([]uint32, 0, expected),
	}
}

// Resample accumulates one trade and reports whether it closed a bar.
// tick is the same (h<<24)|(m<<16)|(s<<8)|ms packing the LOB engine uses.
func (r *RunBar) Resample(tick uint32, isBid bool, volume uint32) (Bar, bool) {
	r.accumulate(isBid, volume)
	if !r.shouldEmit(tick) {
		return Bar{}, false
	}
	r.emit(tick, isBid, volume)
	return Bar{Tick: tick, IsBid: isBid, Volume: volume}, true
}

func (r *RunBar) accumulate(isBid bool, volume uint32) {
	if isBid {
		r.accumBuy += volume
	} else {
		r.accumSell += volume
	}
}

func (r *RunBar) shouldEmit(tick uint32) bool {
	maxSide := r.accumBuy
	if r.accumSell > maxSide {
		maxSide = r.accumSell
	}
	threshold := r.thresholdEMA
	if threshold < 0 {
		threshold = 0
	}
	if float32(maxSide) < threshold {
		return false
	}

	elapsed := (tick >> 8) - (r.lastEmitTick >> 8)
	return elapsed >= r.cfg.MinGapSeconds
}

func (r *RunBar) emit(tick uint32, isBid bool, volume uint32) {
	r.accumBuy = 0
	r.accumSell = 0
	r.lastEmitTick = tick
	r.dailyBarCount++

	hour := uint8(tick >> 24)
	if hour == 9 && r.lastHour != 9 {
		r.onNewDay()
	}
	r.lastHour = hour

	r.dailyLabels = append(r.dailyLabels, isBid)
	r.dailyVolumes = append(r.dailyVolumes, volume)
}

func (r *RunBar) onNewDay() {
	r.dailyBarCount = 1

	if len(r.dailyLabels) > 0 {
		r.thresholdDaily = r.computeOptimalThreshold()
		if r.thresholdEMA < 0 {
			r.thresholdEMA = r.thresholdDaily
		} else {
			r.thresholdEMA = r.emaAlpha*r.thresholdDaily + (1-r.emaAlpha)*r.thresholdEMA
		}
	}

	r.dailyLabels = r.dailyLabels[:0]
	r.dailyVolumes = r.dailyVolumes[:0]
}

func (r *RunBar) computeOptimalThreshold() float32 {
	if len(r.dailyLabels) == 0 {
		return 0
	}

	thresholdMin := float32(r.dailyVolumes[0])
	var thresholdMax float32
	for _, v := range r.dailyVolumes {
		if float32(v) < thresholdMin {
			thresholdMin = float32(v)
		}
		thresholdMax += float32(v)
	}

	for iter := 0; iter < maxCalibrationIterations; iter++ {
		mid := 0.5 * (thresholdMin + thresholdMax)
		count := r.simulateSampleCount(mid)

		diff := count - r.expectedSamplesPerDay
		if diff < 0 {
			diff = -diff
		}
		if diff <= r.thresholdTolerance || (thresholdMax-thresholdMin) < calibrationToleranceFloor {
			return mid
		}

		if count > r.expectedSamplesPerDay {
			thresholdMin = mid
		} else {
			thresholdMax = mid
		}
	}

	return 0.5 * (thresholdMin + thresholdMax)
}

func (r *RunBar) simulateSampleCount(threshold float32) int {
	var accumBuy, accumSell float32
	barCount := 0

	for i, v := range r.dailyVolumes {
		if r.dailyLabels[i] {
			accumBuy += float32(v)
		} else {
			accumSell += float32(v)
		}

		if accumBuy >= threshold || accumSell >= threshold {
			barCount++
			accumBuy = 0
			accumSell = 0
		}
	}

	return barCount
}

// ThresholdEMA exposes the current adaptive threshold, mainly for telemetry.
func (r *RunBar) ThresholdEMA() float32 { return r.thresholdEMA }

// DailyBarCount exposes the number of bars formed so far today.
func (r *RunBar) DailyBarCount() uint32 { return r.dailyBarCount }
