package recorder

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/crypto/sha3"

	"github.com/valo/eth-sim/internal/logger"
	"github.com/valo/eth-sim/internal/metrics"
	"github.com/valo/eth-sim/internal/utils"
)

// mismatch fields
const (
	FieldStatus       = "status"
	FieldGasUsed      = "gas_used"
	FieldState        = "state"
	FieldAvailability = "availability"
)

// Mismatch is one disagreement between backends.
type Mismatch struct {
	Field  string
	Detail string
}

// Comparison summarizes the records of one transaction.
type Comparison struct {
	Elapsed    map[string]time.Duration
	SpeedRatio float64
	Mismatches []Mismatch
}

func (c Comparison) Agree() bool {
	return len(c.Mismatches) == 0
}

// Recorder logs, compares and stores records. It is safe for concurrent
// use.
type Recorder struct {
	sink Sink
}

// New returns a Recorder; sink may be nil.
func New(sink Sink) *Recorder {
	return &Recorder{sink: sink}
}

// Record handles all records of one transaction. Disagreements are
// reported, never returned.
func (r *Recorder) Record(_ context.Context, records []SimulationRecord) {
	for _, rec := range records {
		logRecord(rec)
	}
	if len(records) >= 2 {
		report(records, Compare(records))
	}
	if r.sink == nil {
		return
	}
	for _, rec := range records {
		if err := r.sink.Write(rec); err != nil {
			logger.ErrorComponent("compare", "Failed to append record for %s: %v", rec.TxHash.Hex(), err)
		}
	}
}

func logRecord(rec SimulationRecord) {
	if rec.Backend == "" {
		logger.WarningComponent("sim", "tx %s not simulated: %s", rec.TxHash.Hex(), rec.Error)
		return
	}
	if rec.Outcome == nil {
		logger.WarningComponent("sim", "[%s] tx %s block %d failed after %s (%s): %s",
			rec.Backend, rec.TxHash.Hex(), rec.Block, utils.FormatElapsed(rec.Elapsed), rec.ErrorKind, rec.Error)
		return
	}
	logger.InfoComponent("sim", "[%s] tx %s block %d gas %d success=%t in %s (%s)",
		rec.Backend, rec.TxHash.Hex(), rec.Block, rec.GasUsed(), rec.Succeeded(),
		utils.FormatElapsed(rec.Elapsed), utils.FormatRate(rec.GasPerSecond(), "gas"))
}

// Compare checks that records with an outcome agree on status, gas used
// and resulting state changes, and that either all or none of the records
// have an outcome.
func Compare(records []SimulationRecord) Comparison {
	cmp := Comparison{Elapsed: make(map[string]time.Duration, len(records))}

	var fastest, slowest time.Duration
	for i, rec := range records {
		cmp.Elapsed[rec.Backend] = rec.Elapsed
		if i == 0 || rec.Elapsed < fastest {
			fastest = rec.Elapsed
		}
		if rec.Elapsed > slowest {
			slowest = rec.Elapsed
		}
	}
	switch {
	case slowest <= 0:
		cmp.SpeedRatio = 1
	case fastest <= 0:
		cmp.SpeedRatio = float64(slowest)
	default:
		cmp.SpeedRatio = float64(slowest) / float64(fastest)
	}

	var withOutcome, failed []string
	var ref *SimulationRecord
	var refDigest []byte
	for i := range records {
		rec := &records[i]
		if rec.Outcome == nil {
			failed = append(failed, rec.Backend)
			continue
		}
		withOutcome = append(withOutcome, rec.Backend)
		if ref == nil {
			ref, refDigest = rec, digest(rec)
			continue
		}
		if rec.Outcome.Status != ref.Outcome.Status {
			cmp.add(FieldStatus, "%s=%s %s=%s", ref.Backend, ref.Outcome.Status, rec.Backend, rec.Outcome.Status)
		}
		if rec.Outcome.GasUsed != ref.Outcome.GasUsed {
			cmp.add(FieldGasUsed, "%s=%d %s=%d", ref.Backend, ref.Outcome.GasUsed, rec.Backend, rec.Outcome.GasUsed)
		}
		if !bytes.Equal(digest(rec), refDigest) {
			cmp.add(FieldState, "%s and %s produced different return data or state changes", ref.Backend, rec.Backend)
		}
	}
	if len(withOutcome) > 0 && len(failed) > 0 {
		cmp.add(FieldAvailability, "outcome from %s, none from %s", strings.Join(withOutcome, ","), strings.Join(failed, ","))
	}
	return cmp
}

func (c *Comparison) add(field, format string, args ...interface{}) {
	c.Mismatches = append(c.Mismatches, Mismatch{Field: field, Detail: fmt.Sprintf(format, args...)})
}

// digest hashes the parts of an outcome that depend on state: return data
// and the ordered account changes.
func digest(rec *SimulationRecord) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(rec.Outcome.ReturnData)
	enc := msgpack.NewEncoder(h)
	if err := enc.Encode(rec.Outcome.Changes); err != nil {
		// unreachable for plain data; make the digest unique so it mismatches
		h.Write([]byte(rec.Backend))
	}
	return h.Sum(nil)
}

func report(records []SimulationRecord, cmp Comparison) {
	first := records[0]
	elapsed := zerolog.Dict()
	for _, rec := range records {
		elapsed = elapsed.Float64(rec.Backend, rec.Elapsed.Seconds())
	}
	var gas uint64
	for _, rec := range records {
		if rec.Outcome != nil {
			gas = rec.Outcome.GasUsed
			break
		}
	}
	logger.Event("compare").
		Uint64("block", first.Block).
		Str("tx", first.TxHash.Hex()).
		Uint64("gas_used", gas).
		Dict("elapsed_s", elapsed).
		Float64("speed_ratio", cmp.SpeedRatio).
		Bool("agree", cmp.Agree()).
		Msg("comparison")

	metrics.RecordComparison(cmp.SpeedRatio)
	for _, m := range cmp.Mismatches {
		metrics.IncComparisonMismatch(m.Field)
		logger.WarningComponent("compare", "Backends disagree on %s for tx %s: %s", m.Field, first.TxHash.Hex(), m.Detail)
	}
}
