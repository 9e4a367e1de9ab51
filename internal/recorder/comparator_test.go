package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/valo/eth-sim/internal/evm"
	"github.com/valo/eth-sim/internal/logger"
)

func captureJSON(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetJSONOutput(true)
	t.Cleanup(func() {
		logger.SetJSONOutput(false)
		logger.SetOutput(nil)
	})
	return &buf
}

func logLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var lines []map[string]interface{}
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var line map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(raw), &line))
		lines = append(lines, line)
	}
	return lines
}

func outcome(gas uint64) *evm.Outcome {
	return &evm.Outcome{
		Status:  evm.StatusSuccess,
		GasUsed: gas,
		Changes: []evm.AccountChange{{
			Address:       common.HexToAddress("0xaa"),
			BalanceBefore: uint256.NewInt(100),
			BalanceAfter:  uint256.NewInt(40),
			NonceBefore:   1,
			NonceAfter:    2,
		}},
		Rounds: 1,
	}
}

func record(backend string, elapsed time.Duration, out *evm.Outcome) SimulationRecord {
	return SimulationRecord{
		RunID:   "run",
		TxHash:  common.HexToHash("0x01"),
		Block:   100,
		Backend: backend,
		Started: time.Unix(1_700_000_000, 0),
		Elapsed: elapsed,
		Outcome: out,
	}
}

func fields(cmp Comparison) []string {
	var out []string
	for _, m := range cmp.Mismatches {
		out = append(out, m.Field)
	}
	return out
}

func TestCompare_AgreeingBackends(t *testing.T) {
	cmp := Compare([]SimulationRecord{
		record("remote", 30*time.Millisecond, outcome(21000)),
		record("local", 10*time.Millisecond, outcome(21000)),
	})
	require.True(t, cmp.Agree())
	require.InDelta(t, 3.0, cmp.SpeedRatio, 1e-9)
	require.Equal(t, map[string]time.Duration{
		"remote": 30 * time.Millisecond,
		"local":  10 * time.Millisecond,
	}, cmp.Elapsed)
}

func TestCompare_Mismatches(t *testing.T) {
	reverted := outcome(21000)
	reverted.Status = evm.StatusReverted

	otherState := outcome(21000)
	otherState.Changes[0].BalanceAfter = uint256.NewInt(41)

	otherReturn := outcome(21000)
	otherReturn.ReturnData = []byte{1}

	tests := map[string]struct {
		other *evm.Outcome
		want  []string
	}{
		"gas":         {other: outcome(22000), want: []string{FieldGasUsed}},
		"status":      {other: reverted, want: []string{FieldStatus}},
		"state":       {other: otherState, want: []string{FieldState}},
		"return data": {other: otherReturn, want: []string{FieldState}},
		"missing":     {want: []string{FieldAvailability}},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			cmp := Compare([]SimulationRecord{
				record("remote", time.Millisecond, outcome(21000)),
				record("local", time.Millisecond, test.other),
			})
			require.False(t, cmp.Agree())
			require.Equal(t, test.want, fields(cmp))
		})
	}
}

func TestCompare_AllFailedIsNotAMismatch(t *testing.T) {
	cmp := Compare([]SimulationRecord{
		record("remote", time.Millisecond, nil),
		record("caching", 2*time.Millisecond, nil),
	})
	require.True(t, cmp.Agree())
	require.InDelta(t, 2.0, cmp.SpeedRatio, 1e-9)
}

func TestCompare_ZeroElapsed(t *testing.T) {
	cmp := Compare([]SimulationRecord{
		record("remote", 0, outcome(1)),
		record("local", 0, outcome(1)),
	})
	require.Equal(t, 1.0, cmp.SpeedRatio)
}

func TestRecorder_EmitsComparisonLine(t *testing.T) {
	buf := captureJSON(t)

	New(nil).Record(context.Background(), []SimulationRecord{
		record("remote", 20*time.Millisecond, outcome(21000)),
		record("local", 10*time.Millisecond, outcome(21000)),
	})

	var cmp map[string]interface{}
	for _, line := range logLines(t, buf) {
		if line["message"] == "comparison" {
			cmp = line
		}
	}
	require.NotNil(t, cmp)
	require.Equal(t, "compare", cmp["component"])
	require.Equal(t, float64(100), cmp["block"])
	require.Equal(t, common.HexToHash("0x01").Hex(), cmp["tx"])
	require.Equal(t, float64(21000), cmp["gas_used"])
	require.Equal(t, 2.0, cmp["speed_ratio"])
	require.Equal(t, true, cmp["agree"])
	require.Equal(t, map[string]interface{}{"remote": 0.02, "local": 0.01}, cmp["elapsed_s"])
}

func TestRecorder_MismatchIsLoggedNotFatal(t *testing.T) {
	buf := captureJSON(t)

	New(nil).Record(context.Background(), []SimulationRecord{
		record("remote", time.Millisecond, outcome(21000)),
		record("local", time.Millisecond, outcome(30000)),
	})

	var warned bool
	for _, line := range logLines(t, buf) {
		if line["level"] == "warn" && strings.Contains(line["message"].(string), "disagree on gas_used") {
			warned = true
		}
	}
	require.True(t, warned)
}

func TestRecorder_SingleRecordHasNoComparison(t *testing.T) {
	buf := captureJSON(t)

	New(nil).Record(context.Background(), []SimulationRecord{record("remote", time.Millisecond, outcome(21000))})

	lines := logLines(t, buf)
	require.Len(t, lines, 1)
	require.Contains(t, lines[0]["message"], "gas 21000 success=true")
}

type failingSink struct {
	writes int
}

func (s *failingSink) Write(SimulationRecord) error {
	s.writes++
	return errors.New("disk full")
}

func (s *failingSink) Close() error { return nil }

func TestRecorder_SinkErrorsAreLogged(t *testing.T) {
	buf := captureJSON(t)
	sink := &failingSink{}

	New(sink).Record(context.Background(), []SimulationRecord{
		record("remote", time.Millisecond, outcome(21000)),
		{TxHash: common.HexToHash("0x02"), Error: "malformed input: nil transaction", ErrorKind: "decode"},
	})

	require.Equal(t, 2, sink.writes)
	require.Contains(t, buf.String(), "disk full")
	require.Contains(t, buf.String(), "not simulated")
}

func TestSimulationRecord_Accessors(t *testing.T) {
	rec := record("remote", 500*time.Millisecond, outcome(21000))
	require.True(t, rec.Succeeded())
	require.Equal(t, "success", rec.Status())
	require.Equal(t, 42000.0, rec.GasPerSecond())

	failed := SimulationRecord{ErrorKind: "unavailable"}
	require.False(t, failed.Succeeded())
	require.Equal(t, "unavailable", failed.Status())
	require.Zero(t, failed.GasPerSecond())
}
